package layers

import (
	"mednca/tensor"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// InitNormal fills t in place with draws from N(mu, sigma²).
func InitNormal(t *tensor.Tensor, mu, sigma float64, src rand.Source) {
	dist := distuv.Normal{
		Mu:    mu,
		Sigma: sigma,
		Src:   src,
	}
	for i := range t.Data {
		t.Data[i] = dist.Rand()
	}
}

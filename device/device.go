// Package device names the compute placements a model can be relocated to.
//
// A placement decides how the learnable layers execute. Host memory holds
// every tensor on all placements; what changes is the backend a layer
// dispatches to:
//
//   - cpu:  direct loops over the flat tensor data
//   - blas: gonum BLAS matrix products for pointwise convolutions
//   - ckks: pointwise convolutions evaluated on CKKS ciphertexts, the
//     input encrypted and the output decrypted inside the layer
package device

import (
	"errors"
	"fmt"
	"strings"

	"mednca/core/ckkswrapper"
)

// Kind identifies a backend.
type Kind string

const (
	CPU  Kind = "cpu"
	BLAS Kind = "blas"
	CKKS Kind = "ckks"
)

// ErrNoHEContext is returned when a ckks placement carries no context.
var ErrNoHEContext = errors.New("ckks placement requires an HE context")

// Parse maps a user-supplied name to a Kind.
func Parse(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case CPU, BLAS, CKKS:
		return k, nil
	case "":
		return CPU, nil
	default:
		return "", fmt.Errorf("unknown device %q (want cpu, blas or ckks)", s)
	}
}

// Placement is where a module's parameters and constants live.
type Placement struct {
	Kind Kind
	HE   *ckkswrapper.HeContext // only for CKKS
}

// Host is the default placement.
var Host = Placement{Kind: CPU}

// On returns a placement of the given host kind.
func On(k Kind) Placement { return Placement{Kind: k} }

// Encrypted returns a ckks placement bound to h.
func Encrypted(h *ckkswrapper.HeContext) Placement {
	return Placement{Kind: CKKS, HE: h}
}

// Validate checks that the placement is usable.
func (p Placement) Validate() error {
	switch p.Kind {
	case CPU, BLAS:
		return nil
	case CKKS:
		if p.HE == nil {
			return ErrNoHEContext
		}
		return nil
	default:
		return fmt.Errorf("unknown device %q", p.Kind)
	}
}

// Same reports whether two placements refer to the same backend (and, for
// ckks, the same key material).
func (p Placement) Same(o Placement) bool {
	if p.Kind != o.Kind {
		return false
	}
	return p.Kind != CKKS || p.HE == o.HE
}

func (p Placement) String() string {
	if p.Kind == CKKS && p.HE != nil {
		return fmt.Sprintf("ckks(logN=%d)", p.HE.Params.LogN())
	}
	return string(p.Kind)
}

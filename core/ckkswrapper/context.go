// Package ckkswrapper bundles the CKKS parameters, keys and codecs used by
// layers that run on the encrypted placement.
package ckkswrapper

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// DefaultLogN is the ring degree used by NewHeContext.
const DefaultLogN = 13

// HeContext holds everything the client side needs: parameters, the key pair
// and the encoder/encryptor/decryptor triple.
type HeContext struct {
	Params    ckks.Parameters
	Kgen      *rlwe.KeyGenerator
	Sk        *rlwe.SecretKey
	Pk        *rlwe.PublicKey
	Encoder   *ckks.Encoder
	Encryptor *rlwe.Encryptor
	Decryptor *rlwe.Decryptor
}

// ServerKit is the evaluation side of a context: an evaluator loaded with
// the relinearization key and the Galois keys for a set of rotations.
type ServerKit struct {
	Evaluator *ckks.Evaluator
	Encoder   *ckks.Encoder
}

// NewHeContext creates a context with the default ring degree.
func NewHeContext() *HeContext {
	return NewHeContextWithLogN(DefaultLogN)
}

// NewHeContextWithLogN creates a context with ring degree 2^logN. It panics
// if the parameters cannot be built; use NewHeContextE to get the error.
func NewHeContextWithLogN(logN int) *HeContext {
	h, err := NewHeContextE(logN)
	if err != nil {
		panic(err)
	}
	return h
}

// NewHeContextE creates a context with ring degree 2^logN.
//
// The modulus chain has two rescaling primes: pointwise layers multiply by
// plaintext scalars and rescale once, so one level is consumed per layer.
func NewHeContextE(logN int) (*HeContext, error) {
	if logN < 12 || logN > 16 {
		return nil, fmt.Errorf("logN must be in [12, 16], got %d", logN)
	}
	params, err := ckks.NewParametersFromLiteral(ckks.ParametersLiteral{
		LogN:            logN,
		LogQ:            []int{55, 45, 45},
		LogP:            []int{61},
		LogDefaultScale: 45,
	})
	if err != nil {
		return nil, fmt.Errorf("ckks parameters: %w", err)
	}

	kgen := rlwe.NewKeyGenerator(params)
	sk, pk := kgen.GenKeyPairNew()

	return &HeContext{
		Params:    params,
		Kgen:      kgen,
		Sk:        sk,
		Pk:        pk,
		Encoder:   ckks.NewEncoder(params),
		Encryptor: rlwe.NewEncryptor(params, pk),
		Decryptor: rlwe.NewDecryptor(params, sk),
	}, nil
}

// GenServerKit builds an evaluator with the relinearization key and the
// Galois keys for the given rotations.
func (h *HeContext) GenServerKit(rots []int) *ServerKit {
	rlk := h.Kgen.GenRelinearizationKeyNew(h.Sk)
	var gks []*rlwe.GaloisKey
	if len(rots) > 0 {
		gks = h.Kgen.GenGaloisKeysNew(h.Params.GaloisElements(rots), h.Sk)
	}
	evk := rlwe.NewMemEvaluationKeySet(rlk, gks...)
	return &ServerKit{
		Evaluator: ckks.NewEvaluator(h.Params, evk),
		Encoder:   h.Encoder,
	}
}

// Slots is the number of real values one ciphertext carries.
func (h *HeContext) Slots() int {
	return h.Params.MaxSlots()
}

// EncryptFloats encodes and encrypts up to Slots() values at the maximum level.
func (h *HeContext) EncryptFloats(values []float64) (*rlwe.Ciphertext, error) {
	if len(values) > h.Slots() {
		return nil, fmt.Errorf("%d values exceed %d slots", len(values), h.Slots())
	}
	pt := ckks.NewPlaintext(h.Params, h.Params.MaxLevel())
	if err := h.Encoder.Encode(values, pt); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	ct, err := h.Encryptor.EncryptNew(pt)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return ct, nil
}

// DecryptFloats decrypts ct and returns the real parts of its first n slots.
func (h *HeContext) DecryptFloats(ct *rlwe.Ciphertext, n int) ([]float64, error) {
	if n > h.Slots() {
		return nil, fmt.Errorf("%d values exceed %d slots", n, h.Slots())
	}
	pt := h.Decryptor.DecryptNew(ct)
	decoded := make([]complex128, h.Slots())
	if err := h.Encoder.Decode(pt, decoded); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = real(decoded[i])
	}
	return out, nil
}

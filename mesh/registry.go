// Copyright 2020 ConsenSys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mesh registers circuits into an incrementally extensible evaluation
// domain and evaluates the implicit mesh polynomial m(W, X, Y).
//
// A Registry accepts wiring polynomials one by one; circuit j is assigned the
// maximal-domain point ω_S^bitreverse(j, S), which depends only on (j, S) and
// not on how many circuits end up registered. Finalize freezes the registry
// into a Mesh over the 2^k working domain, k = ⌈log₂ C⌉, on which the same
// exponents are reinterpreted by a right shift. The mesh polynomial is never
// materialized: Evaluate combines the registered circuits with subgroup
// Lagrange coefficients on the fly.
package mesh

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"

	"github.com/consensys/gnark-halo/polynomial"
)

// frTwoAdicity bounds the maximal domain: fr* has a multiplicative subgroup
// of order 2^s only for s ≤ 28
const frTwoAdicity = 28

var (
	ErrDomainTooLarge = errors.New("mesh: maximal domain exceeds the field two-adicity")
	ErrMeshFull       = errors.New("mesh: circuit count exceeds the maximal domain")
	ErrEmptyMesh      = errors.New("mesh: cannot finalize with zero circuits")
	ErrFinalized      = errors.New("mesh: registry is finalized")
)

// DomainPoint is the assignment handed back to a circuit compiler at
// registration time. W is the maximal-domain point ω_S^Exponent; it is stable
// under later registrations and under finalization.
type DomainPoint struct {
	Index    int
	Exponent uint64
	W        fr.Element
}

// Registry accepts circuit registrations until Finalize is called.
// Registrations are serialized internally; the registry is the single
// index-assignment authority.
type Registry struct {
	mu        sync.Mutex
	maxLog    uint64
	generator fr.Element // ω_S, primitive 2^S-th root of unity
	circuits  []*polynomial.Bivariate
	exponents []uint64
	finalized bool
}

// NewRegistry creates a registry with maximal domain log-size S
func NewRegistry(maxLogSize uint64) (*Registry, error) {
	if maxLogSize > frTwoAdicity {
		return nil, fmt.Errorf("%w: 2^%d", ErrDomainTooLarge, maxLogSize)
	}
	gen, err := fft.Generator(uint64(1) << maxLogSize)
	if err != nil {
		return nil, err
	}
	return &Registry{
		maxLog:    maxLogSize,
		generator: gen,
	}, nil
}

// MaxLogSize returns S
func (r *Registry) MaxLogSize() uint64 {
	return r.maxLog
}

// bitReverse reverses the s low bits of j. It is a pure function of (j, s);
// the registry only contributes the monotonic index.
func bitReverse(j, s uint64) uint64 {
	return bits.Reverse64(j) >> (64 - s)
}

// Register assigns the next index to the wiring polynomial s_j(X, Y) and
// returns its domain point. Registering the same polynomial twice consumes a
// fresh index. The registry keeps ownership of s until finalization; the
// caller must not mutate it afterwards.
func (r *Registry) Register(s *polynomial.Bivariate) (DomainPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return DomainPoint{}, ErrFinalized
	}
	j := uint64(len(r.circuits))
	if j == uint64(1)<<r.maxLog {
		return DomainPoint{}, fmt.Errorf("%w: 2^%d circuits already registered", ErrMeshFull, r.maxLog)
	}

	exponent := bitReverse(j, r.maxLog)
	var w fr.Element
	w.Exp(r.generator, new(big.Int).SetUint64(exponent))

	r.circuits = append(r.circuits, s)
	r.exponents = append(r.exponents, exponent)

	return DomainPoint{Index: int(j), Exponent: exponent, W: w}, nil
}

// Finalize freezes the registry and returns the mesh over the working domain
// of log-size k = ⌈log₂ C⌉. Each circuit's maximal-domain exponent i is
// reinterpreted as i >> (S-k) in the working domain; the reinterpretation is
// lossless, ω_k^(i >> (S-k)) == ω_S^i.
func (r *Registry) Finalize() (*Mesh, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return nil, ErrFinalized
	}
	c := uint64(len(r.circuits))
	if c == 0 {
		return nil, ErrEmptyMesh
	}
	r.finalized = true

	var k uint64
	if c > 1 {
		k = uint64(bits.Len64(c - 1))
	}

	return newMesh(r.maxLog, k, r.circuits, r.exponents)
}

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

// Package nark implements the non-interactive argument of knowledge over the
// consolidated constraint identity.
//
// Satisfiability reduces to extracting a single coefficient of the product
// polynomial p(X) = r(X)·(r(zX) + s(X,y) - t(X,z)): the prover splits p at
// degree 4n, reverses the low half so the target coefficient becomes its
// constant term, and commits to both halves. The verifier checks the
// decomposition at a random point, the extracted coefficient against the
// public-input polynomial k, and the public "one" wire.
//
// Challenges are derived through a Fiat-Shamir transcript; every challenge is
// computed strictly after the prover message it depends on is bound.
package nark

import (
	"errors"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"

	"github.com/consensys/gnark-halo/polynomial"
)

var (
	// verification failures: the proof is rejected, nothing crashed. The
	// distinction is diagnostic only.
	ErrDecomposition = errors.New("nark: product decomposition check failed")
	ErrConstraint    = errors.New("nark: consolidated constraint check failed")
	ErrOneWire       = errors.New("nark: public one-wire check failed")
	ErrOpening       = errors.New("nark: batched opening verification failed")

	// ErrZeroChallenge is the negligible-probability x = 0 event. The session
	// aborts; under Fiat-Shamir there is no resampling and the proof is
	// rejected.
	ErrZeroChallenge = errors.New("nark: sampled challenge is zero")

	ErrWitnessLength = errors.New("nark: witness degree out of range")
	ErrCircuitDegree = errors.New("nark: circuit polynomial degree out of range")
)

// Circuit is the circuit-independent setup of one instance: the wiring
// polynomial s(X, Y), the gate polynomial t(X, Z) and the public-input
// polynomial k(Y). Both parties hold it in the clear; no oracle cost is
// charged for it in the online protocol.
type Circuit struct {
	// N is the gate count; the witness polynomial has degree < 4N
	N int

	S *polynomial.Bivariate
	T *polynomial.Bivariate
	K polynomial.Polynomial
}

// NewCircuit validates the instance shape: positive gate count, wiring and
// gate degrees below 4N, and k(0) = 1 so the public one wire is pinned
func NewCircuit(n int, s, t *polynomial.Bivariate, k polynomial.Polynomial) (*Circuit, error) {
	c := &Circuit{N: n, S: s, T: t, K: k}
	if err := c.sanity(); err != nil {
		return nil, err
	}
	var zero fr.Element
	one := fr.One()
	if k0 := k.Eval(&zero); !k0.Equal(&one) {
		return nil, ErrOneWire
	}
	return c, nil
}

// sanity checks the degree bounds shared by prover and verifier
func (c *Circuit) sanity() error {
	if c.N <= 0 {
		return ErrCircuitDegree
	}
	if c.S.DegX() >= 4*c.N || c.T.DegX() >= 4*c.N {
		return ErrCircuitDegree
	}
	return nil
}

// Proof is the transcript of one proving session: three commitments and the
// six queried openings.
type Proof struct {
	R  kzg.Digest
	C1 kzg.Digest
	C2 kzg.Digest

	// openings in query order: r(0), r(x), r(xz), c1(0), c1(1/x), c2(x)
	Openings [6]kzg.OpeningProof
}

type config struct {
	challengeHash func() hash.Hash
}

// Option configures a proving or verification session
type Option func(*config) error

// WithChallengeHash overrides the hash function backing the Fiat-Shamir
// transcript. Prover and verifier must agree on it.
func WithChallengeHash(h func() hash.Hash) Option {
	return func(cfg *config) error {
		cfg.challengeHash = h
		return nil
	}
}

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		challengeHash: func() hash.Hash {
			h, err := blake2b.New256(nil)
			if err != nil {
				panic(err) // blake2b.New256 fails only with an oversized key
			}
			return h
		},
	}
	for _, o := range opts {
		if err := o(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

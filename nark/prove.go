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

package nark

import (
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"
	"golang.org/x/sync/errgroup"

	"github.com/consensys/gnark-halo/logger"
	"github.com/consensys/gnark-halo/polynomial"
)

// Prove produces a proof that r is a satisfying witness for c. The witness is
// given in coefficient form with degree < 4N; shorter witnesses are padded.
func Prove(c *Circuit, r polynomial.Polynomial, pk kzg.ProvingKey, opts ...Option) (*Proof, error) {
	log := logger.Logger().With().
		Str("curve", "bn254").Int("n", c.N).Str("protocol", "nark").Logger()
	start := time.Now()

	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if err := c.sanity(); err != nil {
		return nil, err
	}
	if len(r) > 4*c.N {
		return nil, ErrWitnessLength
	}

	witness := make(polynomial.Polynomial, 4*c.N)
	copy(witness, r)

	fs := newTranscript(cfg)
	if err := c.bindInstance(fs); err != nil {
		return nil, err
	}

	var proof Proof
	if proof.R, err = kzg.Commit(witness, pk); err != nil {
		return nil, err
	}

	z, err := deriveRandomness(fs, challengeZ, &proof.R)
	if err != nil {
		return nil, err
	}
	y, err := deriveRandomness(fs, challengeY)
	if err != nil {
		return nil, err
	}
	if z.IsZero() || y.IsZero() {
		return nil, ErrZeroChallenge
	}

	// p(X) = r(X)·(r(zX) + s(X,y) - t(X,z)), degree ≤ 8n-2
	q := witness.Dilate(&z).Add(c.S.PartialY(&y)).Sub(c.T.PartialY(&z))
	p := polynomial.Mul(witness, q)

	// split at 4n and reverse the low half: the coefficient of X^(4n-1) in p
	// becomes the constant term of c1
	lo, hi := p.SplitAt(4 * c.N)
	c1 := lo.Reverse()
	c2 := hi

	var g errgroup.Group
	g.Go(func() error {
		var err error
		proof.C1, err = kzg.Commit(c1, pk)
		return err
	})
	g.Go(func() error {
		var err error
		proof.C2, err = kzg.Commit(c2, pk)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	x, err := deriveRandomness(fs, challengeX, &proof.C1, &proof.C2)
	if err != nil {
		return nil, err
	}
	if x.IsZero() {
		return nil, ErrZeroChallenge
	}

	var xz, xInv, zero fr.Element
	xz.Mul(&x, &z)
	xInv.Inverse(&x)

	queries := [6]struct {
		p     polynomial.Polynomial
		point fr.Element
	}{
		{witness, zero},
		{witness, x},
		{witness, xz},
		{c1, zero},
		{c1, xInv},
		{c2, x},
	}
	var openings errgroup.Group
	for i := range queries {
		i := i
		openings.Go(func() error {
			var err error
			proof.Openings[i], err = kzg.Open(queries[i].p, queries[i].point, pk)
			return err
		})
	}
	if err := openings.Wait(); err != nil {
		return nil, err
	}

	log.Debug().Dur("took", time.Since(start)).Msg("prover done")
	return &proof, nil
}

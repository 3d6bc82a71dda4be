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
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"

	"github.com/consensys/gnark-halo/logger"
)

// challenges replays the transcript against the proof's commitments. Shared
// by Verify and by the wiring-claim constructors, which need y (and x) without
// re-running the full verification.
func (c *Circuit) challenges(proof *Proof, cfg *config) (z, y, x fr.Element, err error) {
	fs := newTranscript(cfg)
	if err = c.bindInstance(fs); err != nil {
		return
	}
	if z, err = deriveRandomness(fs, challengeZ, &proof.R); err != nil {
		return
	}
	if y, err = deriveRandomness(fs, challengeY); err != nil {
		return
	}
	if x, err = deriveRandomness(fs, challengeX, &proof.C1, &proof.C2); err != nil {
		return
	}
	if z.IsZero() || y.IsZero() || x.IsZero() {
		err = ErrZeroChallenge
	}
	return
}

// Verify checks a proof against the circuit and the commitment verifying key.
// The returned error is nil iff all four checks pass: the coefficient
// decomposition, the consolidated constraint, the public one wire and the
// batched openings.
func Verify(proof *Proof, c *Circuit, vk kzg.VerifyingKey, opts ...Option) error {
	log := logger.Logger().With().
		Str("curve", "bn254").Int("n", c.N).Str("protocol", "nark").Logger()
	start := time.Now()

	cfg, err := newConfig(opts...)
	if err != nil {
		return err
	}
	if err := c.sanity(); err != nil {
		return err
	}

	z, y, x, err := c.challenges(proof, cfg)
	if err != nil {
		return err
	}

	var xz, xInv fr.Element
	xz.Mul(&x, &z)
	xInv.Inverse(&x)

	r0 := proof.Openings[0].ClaimedValue
	rx := proof.Openings[1].ClaimedValue
	rxz := proof.Openings[2].ClaimedValue
	c10 := proof.Openings[3].ClaimedValue
	c1xInv := proof.Openings[4].ClaimedValue
	c2x := proof.Openings[5].ClaimedValue

	// r(x)·(r(xz) + s(x,y) - t(x,z)) == x^(4n-1)·c1(1/x) + x^(4n)·c2(x)
	sxy := c.S.Eval(&x, &y)
	txz := c.T.Eval(&x, &z)
	var lhs fr.Element
	lhs.Add(&rxz, &sxy).Sub(&lhs, &txz).Mul(&lhs, &rx)

	var xPow, rhs, t fr.Element
	xPow.Exp(x, big.NewInt(int64(4*c.N-1)))
	rhs.Mul(&xPow, &c1xInv)
	t.Mul(&xPow, &x).Mul(&t, &c2x)
	rhs.Add(&rhs, &t)
	if !lhs.Equal(&rhs) {
		return ErrDecomposition
	}

	// constant term of c1 is the extracted coefficient; it must equal k(y)
	ky := c.K.Eval(&y)
	if !c10.Equal(&ky) {
		return ErrConstraint
	}

	// public one wire: r(0) = 1 and the instance pins k(0) = 1
	var zero fr.Element
	one := fr.One()
	k0 := c.K.Eval(&zero)
	if !r0.Equal(&one) || !k0.Equal(&one) {
		return ErrOneWire
	}

	digests := []kzg.Digest{proof.R, proof.R, proof.R, proof.C1, proof.C1, proof.C2}
	points := []fr.Element{zero, x, xz, zero, xInv, x}
	if err := kzg.BatchVerifyMultiPoints(digests, proof.Openings[:], points, vk); err != nil {
		return fmt.Errorf("%w: %v", ErrOpening, err)
	}

	log.Debug().Dur("took", time.Since(start)).Msg("verifier done")
	return nil
}

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

package accumulator

import (
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"

	"github.com/consensys/gnark-halo/logger"
	"github.com/consensys/gnark-halo/polynomial"
)

// Folder folds wiring claims against a single circuit's wiring polynomial
// s(X, Y). Both prover and verifier of the folding step hold the wiring in the
// clear; only the restrictions are committed.
type Folder struct {
	wiring *polynomial.Bivariate
	pk     kzg.ProvingKey
	cfg    *config
}

// NewFolder creates a folder for the given wiring polynomial
func NewFolder(wiring *polynomial.Bivariate, pk kzg.ProvingKey, opts ...Option) (*Folder, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Folder{wiring: wiring, pk: pk, cfg: cfg}, nil
}

// Empty returns the identity accumulator, the honest claim at y = 1. Folding
// any claim into it yields an accumulator equivalent to that claim alone.
func (f *Folder) Empty() (*Accumulator, error) {
	y := fr.One()
	sy := f.wiring.PartialY(&y)
	s, err := kzg.Commit(sy, f.pk)
	if err != nil {
		return nil, err
	}
	return &Accumulator{S: s, Y: y, SY: sy}, nil
}

// Fold absorbs cl into acc and returns the new accumulator along with the
// evaluation-claim obligation. acc and cl are not mutated; a poisoned acc is
// refused.
//
// The bundle carries three value pairs, each asserted through two
// commitments meeting on the cross restriction S' = commit(s(x, Y)):
//
//	s(x, y_acc) through acc.S at x and through S' at y_acc
//	s(x, y_cl)  through cl.S  at x and through S' at y_cl
//	s(x, y')    through the new accumulator at x and through S' at y'
func (f *Folder) Fold(acc *Accumulator, cl Claim) (*Accumulator, *Obligation, error) {
	log := logger.Logger().With().Str("curve", "bn254").Str("protocol", "fold").Logger()
	start := time.Now()

	if acc.invalid {
		return nil, nil, ErrInvalidAccumulator
	}
	sess := &session{}
	if err := sess.to(stateClaimReceived); err != nil {
		return nil, nil, err
	}

	fs := fiatshamir.NewTranscript(f.cfg.challengeHash(), challengeX, challengeY)
	if err := bindDigest(fs, challengeX, &acc.S); err != nil {
		return nil, nil, err
	}
	if err := bindScalar(fs, challengeX, &acc.Y); err != nil {
		return nil, nil, err
	}
	if err := bindScalar(fs, challengeX, &cl.Y); err != nil {
		return nil, nil, err
	}
	x, err := derive(fs, challengeX, &cl.S)
	if err != nil {
		return nil, nil, err
	}
	if x.IsZero() {
		return nil, nil, ErrZeroChallenge
	}
	if err := sess.to(stateXSampled); err != nil {
		return nil, nil, err
	}

	// cross restriction s(x, Y), the hinge every pair swings on
	sPrime := f.wiring.PartialX(&x)
	sPrimeCom, err := kzg.Commit(sPrime, f.pk)
	if err != nil {
		return nil, nil, err
	}
	if err := sess.to(stateRestrictionSent); err != nil {
		return nil, nil, err
	}

	y, err := derive(fs, challengeY, &sPrimeCom)
	if err != nil {
		return nil, nil, err
	}
	if y.IsZero() {
		return nil, nil, ErrZeroChallenge
	}
	if err := sess.to(stateYSampled); err != nil {
		return nil, nil, err
	}

	sNew := f.wiring.PartialY(&y)
	sNewCom, err := kzg.Commit(sNew, f.pk)
	if err != nil {
		return nil, nil, err
	}
	next := &Accumulator{S: sNewCom, Y: y, SY: sNew}
	if err := sess.to(stateAccumulatorUpdated); err != nil {
		return nil, nil, err
	}

	type query struct {
		p     polynomial.Polynomial
		d     kzg.Digest
		point fr.Element
	}
	queries := []query{
		{acc.SY, acc.S, x},
		{sPrime, sPrimeCom, acc.Y},
		{cl.SY, cl.S, x},
		{sPrime, sPrimeCom, cl.Y},
		{sNew, sNewCom, x},
		{sPrime, sPrimeCom, y},
	}

	ob := &Obligation{
		Digests: make([]kzg.Digest, len(queries)),
		Proofs:  make([]kzg.OpeningProof, len(queries)),
		Points:  make([]fr.Element, len(queries)),
		sess:    sess,
		poison:  func() { next.invalid = true },
	}
	for i, q := range queries {
		ob.Digests[i] = q.d
		ob.Points[i] = q.point
		if ob.Proofs[i], err = kzg.Open(q.p, q.point, f.pk); err != nil {
			return nil, nil, err
		}
	}

	log.Debug().Dur("took", time.Since(start)).Msg("fold done")
	return next, ob, nil
}

// Decide verifies the accumulator directly against the wiring polynomial.
// Acceptance vouches for every claim folded into it, provided all obligations
// along the way were discharged.
func (f *Folder) Decide(acc *Accumulator) error {
	if acc.invalid {
		return ErrInvalidAccumulator
	}
	expected := f.wiring.PartialY(&acc.Y)
	if !polyEqual(acc.SY, expected) {
		acc.invalid = true
		return ErrRejected
	}
	com, err := kzg.Commit(expected, f.pk)
	if err != nil {
		return err
	}
	if !com.Equal(&acc.S) {
		acc.invalid = true
		return ErrRejected
	}
	return nil
}

// polyEqual compares coefficient vectors, treating missing high coefficients
// as zero
func polyEqual(a, b polynomial.Polynomial) bool {
	if len(a) < len(b) {
		a, b = b, a
	}
	for i := range b {
		if !a[i].Equal(&b[i]) {
			return false
		}
	}
	for i := len(b); i < len(a); i++ {
		if !a[i].IsZero() {
			return false
		}
	}
	return true
}

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
	"golang.org/x/sync/errgroup"

	"github.com/consensys/gnark-halo/logger"
	"github.com/consensys/gnark-halo/mesh"
	"github.com/consensys/gnark-halo/polynomial"
)

// MeshFolder folds wiring claims issued by different member circuits of one
// mesh. Claims carry the member's working-domain coordinate w; folding
// collapses both the Y and the W dimension, so a single accumulator covers
// the whole mesh.
type MeshFolder struct {
	m   *mesh.Mesh
	pk  kzg.ProvingKey
	cfg *config
}

// NewMeshFolder creates a folder over a finalized mesh
func NewMeshFolder(m *mesh.Mesh, pk kzg.ProvingKey, opts ...Option) (*MeshFolder, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &MeshFolder{m: m, pk: pk, cfg: cfg}, nil
}

// Empty returns the identity mesh accumulator, the honest claim at
// w = 1, y = 1
func (f *MeshFolder) Empty() (*MeshAccumulator, error) {
	one := fr.One()
	sy := f.m.WY(one, one)
	s, err := kzg.Commit(sy, f.pk)
	if err != nil {
		return nil, err
	}
	return &MeshAccumulator{S: s, Y: one, W: one, SY: sy}, nil
}

// Fold absorbs cl into acc. Two cross restrictions are published, one per
// folded operand, since the operands sit at different mesh coordinates; the
// W dimension is then collapsed through the slice τ(W) = m(W, x, y'). The
// bundle carries five value pairs:
//
//	m(w_acc, x, y_acc) through acc.S at x and through S'_acc at y_acc
//	m(w_cl,  x, y_cl)  through cl.S  at x and through S'_cl  at y_cl
//	m(w_acc, x, y')    through S'_acc at y' and through τ at w_acc
//	m(w_cl,  x, y')    through S'_cl  at y' and through τ at w_cl
//	m(w',    x, y')    through the new accumulator at x and through τ at w'
func (f *MeshFolder) Fold(acc *MeshAccumulator, cl MeshClaim) (*MeshAccumulator, *Obligation, error) {
	log := logger.Logger().With().Str("curve", "bn254").Str("protocol", "mesh-fold").Logger()
	start := time.Now()

	if acc.invalid {
		return nil, nil, ErrInvalidAccumulator
	}
	sess := &session{}
	if err := sess.to(stateClaimReceived); err != nil {
		return nil, nil, err
	}

	fs := fiatshamir.NewTranscript(f.cfg.challengeHash(), challengeX, challengeY, challengeW)
	if err := bindDigest(fs, challengeX, &acc.S); err != nil {
		return nil, nil, err
	}
	for _, e := range []*fr.Element{&acc.Y, &acc.W, &cl.Y, &cl.W} {
		if err := bindScalar(fs, challengeX, e); err != nil {
			return nil, nil, err
		}
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

	// one cross restriction per operand: Y ↦ m(w, x, Y)
	sPrimeAcc := f.m.WX(acc.W, x)
	sPrimeCl := f.m.WX(cl.W, x)
	var comAcc, comCl kzg.Digest
	var g errgroup.Group
	g.Go(func() error {
		var err error
		comAcc, err = kzg.Commit(sPrimeAcc, f.pk)
		return err
	})
	g.Go(func() error {
		var err error
		comCl, err = kzg.Commit(sPrimeCl, f.pk)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := sess.to(stateRestrictionSent); err != nil {
		return nil, nil, err
	}

	y, err := derive(fs, challengeY, &comAcc, &comCl)
	if err != nil {
		return nil, nil, err
	}
	if y.IsZero() {
		return nil, nil, ErrZeroChallenge
	}
	if err := sess.to(stateYSampled); err != nil {
		return nil, nil, err
	}

	// slice W ↦ m(W, x, y'), degree < 2^k
	tau := f.m.XY(x, y)
	comTau, err := kzg.Commit(tau, f.pk)
	if err != nil {
		return nil, nil, err
	}
	w, err := derive(fs, challengeW, &comTau)
	if err != nil {
		return nil, nil, err
	}
	if w.IsZero() {
		return nil, nil, ErrZeroChallenge
	}

	sNew := f.m.WY(w, y)
	comNew, err := kzg.Commit(sNew, f.pk)
	if err != nil {
		return nil, nil, err
	}
	next := &MeshAccumulator{S: comNew, Y: y, W: w, SY: sNew}
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
		{sPrimeAcc, comAcc, acc.Y},
		{cl.SY, cl.S, x},
		{sPrimeCl, comCl, cl.Y},
		{sPrimeAcc, comAcc, y},
		{tau, comTau, acc.W},
		{sPrimeCl, comCl, y},
		{tau, comTau, cl.W},
		{sNew, comNew, x},
		{tau, comTau, w},
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

	log.Debug().Dur("took", time.Since(start)).Msg("mesh fold done")
	return next, ob, nil
}

// Decide verifies the mesh accumulator directly against the mesh
func (f *MeshFolder) Decide(acc *MeshAccumulator) error {
	if acc.invalid {
		return ErrInvalidAccumulator
	}
	expected := f.m.WY(acc.W, acc.Y)
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

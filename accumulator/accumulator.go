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

// Package accumulator folds wiring claims by split accumulation.
//
// A claim asserts that a commitment S opens to the wiring restriction s(X, y).
// Folding an incoming claim into the running accumulator samples a fresh
// challenge x, publishes the cross restriction S' = commit(s(x, Y)), samples a
// fresh y and emits a new accumulator together with a batch of evaluation
// claims. The claims are collected into an Obligation, discharged by one
// multi-point batched pairing check either immediately or at the next
// recursive step. Verifying the final accumulator directly (Decide) then
// vouches for every claim ever folded in.
//
// Each fold walks a fixed state ladder; out-of-order use is rejected with
// ErrBadTransition rather than silently producing an unsound accumulator.
package accumulator

import (
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"

	"github.com/consensys/gnark-halo/debug"
	"github.com/consensys/gnark-halo/polynomial"
)

var (
	ErrBatchVerify        = errors.New("accumulator: batched opening verification failed")
	ErrClaimMismatch      = errors.New("accumulator: cross-evaluation values disagree")
	ErrBadTransition      = errors.New("accumulator: fold transition out of order")
	ErrInvalidAccumulator = errors.New("accumulator: accumulator failed a previous check")
	ErrRejected           = errors.New("accumulator: decision check failed")
	ErrZeroChallenge      = errors.New("accumulator: sampled challenge is zero")
)

// Claim is the verifier-side residue of one proving session: the assertion
// that S commits to the univariate restriction s(X, y). SY is the prover-side
// witness backing the claim.
type Claim struct {
	S  kzg.Digest
	Y  fr.Element
	SY polynomial.Polynomial
}

// Accumulator carries the running claim. It has exactly the shape of a Claim;
// an accumulator that fails a check is poisoned and refuses further folds.
type Accumulator struct {
	S  kzg.Digest
	Y  fr.Element
	SY polynomial.Polynomial

	invalid bool
}

// MeshClaim extends Claim with the mesh coordinate of the member circuit
type MeshClaim struct {
	S    kzg.Digest
	Y, W fr.Element
	SY   polynomial.Polynomial
}

// MeshAccumulator carries the running claim over a mesh of circuits
type MeshAccumulator struct {
	S    kzg.Digest
	Y, W fr.Element
	SY   polynomial.Polynomial

	invalid bool
}

// state ladder of one fold session. Transitions are strictly sequential;
// discharge is the final rung.
type state uint8

const (
	stateIdle state = iota
	stateClaimReceived
	stateXSampled
	stateRestrictionSent
	stateYSampled
	stateAccumulatorUpdated
	stateBatchDischarged
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateClaimReceived:
		return "claim-received"
	case stateXSampled:
		return "x-sampled"
	case stateRestrictionSent:
		return "restriction-sent"
	case stateYSampled:
		return "y-sampled"
	case stateAccumulatorUpdated:
		return "accumulator-updated"
	case stateBatchDischarged:
		return "batch-discharged"
	default:
		return "unknown"
	}
}

type session struct {
	st state
}

func (s *session) to(next state) error {
	if next != s.st+1 {
		if debug.Debug {
			return fmt.Errorf("%w: %s -> %s\n%s", ErrBadTransition, s.st, next, debug.Stack())
		}
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, s.st, next)
	}
	s.st = next
	return nil
}

// Obligation is the batch of evaluation claims emitted by one fold. Claims
// come in pairs asserting the same value through two different commitments;
// Discharge checks the pairwise equalities and then runs a single multi-point
// batched pairing check.
type Obligation struct {
	Digests []kzg.Digest
	Proofs  []kzg.OpeningProof
	Points  []fr.Element

	sess   *session
	poison func()
}

// Discharge settles the obligation against the verifying key. On failure the
// accumulator produced by the corresponding fold is poisoned. Discharging
// twice is a misuse and returns ErrBadTransition.
func (o *Obligation) Discharge(vk kzg.VerifyingKey) error {
	if err := o.sess.to(stateBatchDischarged); err != nil {
		return err
	}
	for i := 0; i+1 < len(o.Proofs); i += 2 {
		if !o.Proofs[i].ClaimedValue.Equal(&o.Proofs[i+1].ClaimedValue) {
			o.poison()
			return fmt.Errorf("%w: pair %d", ErrClaimMismatch, i/2)
		}
	}
	if err := kzg.BatchVerifyMultiPoints(o.Digests, o.Proofs, o.Points, vk); err != nil {
		o.poison()
		return fmt.Errorf("%w: %v", ErrBatchVerify, err)
	}
	return nil
}

type config struct {
	challengeHash func() hash.Hash
}

// Option configures a folder
type Option func(*config) error

// WithChallengeHash overrides the hash function backing the fold transcripts
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

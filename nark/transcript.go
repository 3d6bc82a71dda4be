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
	"encoding/binary"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
)

// challenge identifiers, in sampling order
const (
	challengeZ = "z"
	challengeY = "y"
	challengeX = "x"
)

func newTranscript(cfg *config) *fiatshamir.Transcript {
	return fiatshamir.NewTranscript(cfg.challengeHash(), challengeZ, challengeY, challengeX)
}

// bindInstance ties the first challenge to the public instance, so proofs for
// different circuits never share a transcript prefix
func (c *Circuit) bindInstance(fs *fiatshamir.Transcript) error {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(c.N))
	if err := fs.Bind(challengeZ, n[:]); err != nil {
		return err
	}
	for i := range c.K {
		b := c.K[i].Bytes()
		if err := fs.Bind(challengeZ, b[:]); err != nil {
			return err
		}
	}
	return nil
}

// deriveRandomness binds the commitments to the named challenge and squeezes
// it out of the transcript
func deriveRandomness(fs *fiatshamir.Transcript, challenge string, points ...*curve.G1Affine) (fr.Element, error) {
	var buf [curve.SizeOfG1AffineUncompressed]byte
	var r fr.Element

	for _, p := range points {
		buf = p.RawBytes()
		if err := fs.Bind(challenge, buf[:]); err != nil {
			return r, err
		}
	}

	b, err := fs.ComputeChallenge(challenge)
	if err != nil {
		return r, err
	}
	r.SetBytes(b)
	return r, nil
}

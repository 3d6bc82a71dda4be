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
	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
)

// challenge identifiers, in sampling order. The mesh fold appends "w".
const (
	challengeX = "x"
	challengeY = "y"
	challengeW = "w"
)

func bindDigest(fs *fiatshamir.Transcript, challenge string, d *kzg.Digest) error {
	buf := d.RawBytes()
	return fs.Bind(challenge, buf[:])
}

func bindScalar(fs *fiatshamir.Transcript, challenge string, e *fr.Element) error {
	buf := e.Bytes()
	return fs.Bind(challenge, buf[:])
}

func derive(fs *fiatshamir.Transcript, challenge string, points ...*curve.G1Affine) (fr.Element, error) {
	var r fr.Element
	for _, p := range points {
		if err := bindDigest(fs, challenge, p); err != nil {
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

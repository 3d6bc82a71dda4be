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

// Package endoscalar extracts short bit-strings from field elements and uses
// them as cross-field scalars.
//
// An endoscalar is a λ-bit string with a designated source field. It can be
// lifted into any field of size larger than 2^λ, and can drive a scalar
// multiplication directly from its bits ("endoscaling"). For every valid
// endoscalar e and group element G, Endoscale(e, G) == Lift(e)·G.
package endoscalar

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/bits-and-blooms/bitset"
	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/icza/bitio"
)

// Width is the bit length λ of an endoscalar
type Width uint

const (
	// Width128 is the default 128-bit endoscalar
	Width128 Width = 128

	// Width136 is the wide variant used when an extra byte of challenge
	// space is needed
	Width136 Width = 136
)

var (
	ErrFieldTooSmall    = errors.New("endoscalar: source field is too small for the configured width")
	ErrUnsupportedWidth = errors.New("endoscalar: unsupported width")
	ErrShortInput       = errors.New("endoscalar: canonical encoding shorter than width")
)

// Codec extracts endoscalars of a fixed width from canonical field element
// encodings. The width/field compatibility is checked once at construction;
// Extract never fails afterwards.
type Codec struct {
	width Width
}

// New returns a codec for the given width and source field modulus.
// It returns ErrFieldTooSmall when log₂|F| ≤ λ, a configuration error: such a
// field cannot supply λ uniform bits.
func New(w Width, sourceModulus *big.Int) (*Codec, error) {
	if w != Width128 && w != Width136 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedWidth, w)
	}
	if sourceModulus.BitLen() <= int(w) {
		return nil, fmt.Errorf("%w: field of %d bits, width %d", ErrFieldTooSmall, sourceModulus.BitLen(), w)
	}
	return &Codec{width: w}, nil
}

// Width returns λ
func (c *Codec) Width() Width {
	return c.width
}

// Endoscalar is a λ-bit string. Bit i is the coefficient of 2ⁱ in the lifted
// scalar. The zero value is the empty endoscalar: no bits set, lifting to 0
// and endoscaling to the point at infinity.
type Endoscalar struct {
	width Width
	bits  *bitset.BitSet
}

// Extract derives the endoscalar of an fr element: the low λ bits of its
// canonical (regular form, big endian) representation
func (c *Codec) Extract(e *fr.Element) Endoscalar {
	b := e.Bytes()
	es, err := c.ExtractBytes(b[:])
	if err != nil {
		// unreachable: fr.Bytes*8 > λ was checked at construction
		panic(err)
	}
	return es
}

// ExtractBytes derives an endoscalar from a canonical big-endian encoding of
// a source field element. The low λ bits of the encoding are read through a
// bit reader; the remaining high bits are discarded.
func (c *Codec) ExtractBytes(canonical []byte) (Endoscalar, error) {
	total := len(canonical) * 8
	if total < int(c.width) {
		return Endoscalar{}, ErrShortInput
	}

	r := bitio.NewReader(bytes.NewReader(canonical))
	for i := 0; i < total-int(c.width); i++ {
		if _, err := r.ReadBool(); err != nil {
			return Endoscalar{}, err
		}
	}

	bits := bitset.New(uint(c.width))
	// the reader yields the window most significant bit first
	for i := int(c.width) - 1; i >= 0; i-- {
		bit, err := r.ReadBool()
		if err != nil {
			return Endoscalar{}, err
		}
		if bit {
			bits.Set(uint(i))
		}
	}
	return Endoscalar{width: c.width, bits: bits}, nil
}

// Width returns λ
func (e Endoscalar) Width() Width {
	return e.width
}

// Bit returns the i-th bit of the endoscalar
func (e Endoscalar) Bit(i uint) bool {
	return e.bits != nil && e.bits.Test(i)
}

// Lift returns the endoscalar as a non-negative integer < 2^λ. The value is
// independent of the field that originated the endoscalar, so lifting into
// any field of size > 2^λ is injective and well defined.
func (e Endoscalar) Lift() *big.Int {
	r := new(big.Int)
	if e.bits == nil {
		return r
	}
	for i := uint(0); i < uint(e.width); i++ {
		if e.bits.Test(i) {
			r.SetBit(r, int(i), 1)
		}
	}
	return r
}

// LiftFr lifts the endoscalar into the BN254 scalar field
func (e Endoscalar) LiftFr() fr.Element {
	var r fr.Element
	r.SetBigInt(e.Lift())
	return r
}

// LiftFp lifts the endoscalar into the BN254 base field
func (e Endoscalar) LiftFp() fp.Element {
	var r fp.Element
	r.SetBigInt(e.Lift())
	return r
}

// Endoscale multiplies g by the endoscalar, driving the double-and-add chain
// directly from the bit-string. The chain always runs exactly λ iterations
// and computes the addition on every iteration, keeping the operation
// sequence independent of the bit pattern.
func (e Endoscalar) Endoscale(g *bn254.G1Affine) bn254.G1Affine {
	var acc bn254.G1Jac
	// point at infinity
	acc.X.SetOne()
	acc.Y.SetOne()

	var withG bn254.G1Jac
	for i := int(e.width) - 1; i >= 0; i-- {
		acc.DoubleAssign()
		withG.Set(&acc)
		withG.AddMixed(g)
		if e.bits.Test(uint(i)) {
			acc.Set(&withG)
		}
	}

	var r bn254.G1Affine
	r.FromJacobian(&acc)
	return r
}

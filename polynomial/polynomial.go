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

// Package polynomial implements coefficient-form univariate and bivariate
// polynomials over the BN254 scalar field.
//
// The representation is dense, low degree first. Multiplication is performed
// by convolution over an FFT domain; the remaining operations (evaluation,
// dilation, low/high split, coefficient reversal) are the ones consumed by
// the nark and accumulator packages.
package polynomial

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"

	"github.com/consensys/gnark-halo/internal/utils"
)

// Polynomial is a dense univariate polynomial; Polynomial[i] is the
// coefficient of Xⁱ. Degree is len - 1.
type Polynomial []fr.Element

// Eval evaluates p at point x using Horner's method
func (p Polynomial) Eval(x *fr.Element) fr.Element {
	var r fr.Element
	for i := len(p) - 1; i >= 0; i-- {
		r.Mul(&r, x).Add(&r, &p[i])
	}
	return r
}

// Clone returns a copy of p
func (p Polynomial) Clone() Polynomial {
	r := make(Polynomial, len(p))
	copy(r, p)
	return r
}

// Reverse returns the polynomial whose coefficients are those of p in
// reverse order: Reverse(p)[i] = p[len(p)-1-i].
func (p Polynomial) Reverse() Polynomial {
	r := make(Polynomial, len(p))
	for i := range p {
		r[i] = p[len(p)-1-i]
	}
	return r
}

// SplitAt returns the low part p[:k] and the high part p[k:] such that
// p(X) = lo(X) + Xᵏ·hi(X). p is padded with zeroes when len(p) < k.
func (p Polynomial) SplitAt(k int) (lo, hi Polynomial) {
	lo = make(Polynomial, k)
	copy(lo, p)
	if len(p) > k {
		hi = Polynomial(p[k:]).Clone()
	} else {
		hi = make(Polynomial, 1)
	}
	return lo, hi
}

// Dilate returns the polynomial X ↦ p(zX), that is p with coefficient i
// scaled by zⁱ.
func (p Polynomial) Dilate(z *fr.Element) Polynomial {
	r := make(Polynomial, len(p))
	var zi fr.Element
	zi.SetOne()
	for i := range p {
		r[i].Mul(&p[i], &zi)
		zi.Mul(&zi, z)
	}
	return r
}

// Add returns p + q, sized to the longer operand
func (p Polynomial) Add(q Polynomial) Polynomial {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	r := make(Polynomial, n)
	copy(r, p)
	for i := range q {
		r[i].Add(&r[i], &q[i])
	}
	return r
}

// Sub returns p - q, sized to the longer operand
func (p Polynomial) Sub(q Polynomial) Polynomial {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	r := make(Polynomial, n)
	copy(r, p)
	for i := range q {
		r[i].Sub(&r[i], &q[i])
	}
	return r
}

// mulThreshold under which the quadratic schoolbook convolution beats
// building an FFT domain
const mulThreshold = 64

// Mul returns the product a*b by convolution.
//
// Small operands use the schoolbook product; larger ones are evaluated over
// an FFT domain of the next power of two, multiplied pointwise and
// interpolated back. The FFT butterflies run on all available cores, but the
// result is returned only once fully assembled, so callers see a single
// atomic value per round.
func Mul(a, b Polynomial) Polynomial {
	if len(a) == 0 || len(b) == 0 {
		return Polynomial{}
	}
	size := len(a) + len(b) - 1
	if size < mulThreshold {
		return mulNaive(a, b)
	}

	n := ecc.NextPowerOfTwo(uint64(size))
	domain := fft.NewDomain(n)

	ca := make([]fr.Element, n)
	cb := make([]fr.Element, n)
	copy(ca, a)
	copy(cb, b)

	domain.FFT(ca, fft.DIF)
	domain.FFT(cb, fft.DIF)
	utils.Parallelize(int(n), func(start, end int) {
		for i := start; i < end; i++ {
			ca[i].Mul(&ca[i], &cb[i])
		}
	})
	domain.FFTInverse(ca, fft.DIT)

	return Polynomial(ca[:size])
}

func mulNaive(a, b Polynomial) Polynomial {
	r := make(Polynomial, len(a)+len(b)-1)
	var t fr.Element
	for i := range a {
		if a[i].IsZero() {
			continue
		}
		for j := range b {
			t.Mul(&a[i], &b[j])
			r[i+j].Add(&r[i+j], &t)
		}
	}
	return r
}

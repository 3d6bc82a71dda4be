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

package mesh

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"

	"github.com/consensys/gnark-halo/polynomial"
)

// Mesh is a finalized, read-only registry. Unregistered slots of the working
// domain behave as the zero polynomial, so m(W, X, Y) interpolates s_i(X, Y)
// at slot points and 0 elsewhere.
type Mesh struct {
	maxLog uint64
	logK   uint64
	domain *fft.Domain

	circuits  []*polynomial.Bivariate // by registration index
	exponents []uint64                // maximal-domain exponent, by registration index

	slots  []*polynomial.Bivariate // by working-domain exponent, nil when unassigned
	points []fr.Element            // working-domain point, by registration index

	maxDegX, maxDegY int
}

func newMesh(maxLog, logK uint64, circuits []*polynomial.Bivariate, exponents []uint64) (*Mesh, error) {
	m := &Mesh{
		maxLog:    maxLog,
		logK:      logK,
		domain:    fft.NewDomain(uint64(1) << logK),
		circuits:  circuits,
		exponents: exponents,
		slots:     make([]*polynomial.Bivariate, uint64(1)<<logK),
		points:    make([]fr.Element, len(circuits)),
	}

	shift := maxLog - logK
	for j, s := range circuits {
		e := exponents[j] >> shift
		m.slots[e] = s
		m.points[j].Exp(m.domain.Generator, new(big.Int).SetUint64(e))
		if s.DegX() > m.maxDegX {
			m.maxDegX = s.DegX()
		}
		if s.DegY() > m.maxDegY {
			m.maxDegY = s.DegY()
		}
	}
	return m, nil
}

// Size returns the number of registered circuits C
func (m *Mesh) Size() int {
	return len(m.circuits)
}

// LogSize returns the working-domain log-size k
func (m *Mesh) LogSize() uint64 {
	return m.logK
}

// MaxLogSize returns the maximal-domain log-size S
func (m *Mesh) MaxLogSize() uint64 {
	return m.maxLog
}

// Circuit returns the wiring polynomial registered at index j
func (m *Mesh) Circuit(j int) *polynomial.Bivariate {
	return m.circuits[j]
}

// WorkingPoint returns circuit j's point in the 2^k working domain,
// ω_k^(i >> (S-k)). As field elements, it equals the maximal-domain
// assignment ω_S^i.
func (m *Mesh) WorkingPoint(j int) fr.Element {
	return m.points[j]
}

// WorkingExponent returns circuit j's exponent in the working domain
func (m *Mesh) WorkingExponent(j int) uint64 {
	return m.exponents[j] >> (m.maxLog - m.logK)
}

// lagrangeAtW returns the subgroup Lagrange coefficients ℓ_i(w) for every
// slot, or (nil, e) when w is exactly the slot-e domain point. The barycentric
// form ℓ_i(w) = (ωⁱ/n)·(wⁿ-1)/(w-ωⁱ) divides by w-ωⁱ, hence the special case.
func (m *Mesh) lagrangeAtW(w *fr.Element) ([]fr.Element, int) {
	n := int(m.domain.Cardinality)

	var wPowN, zh fr.Element
	one := fr.One()
	wPowN.Exp(*w, new(big.Int).SetInt64(int64(n)))
	zh.Sub(&wPowN, &one) // wⁿ-1

	if zh.IsZero() {
		// w is in the domain: locate its exponent
		acc := fr.One()
		for e := 0; e < n; e++ {
			if acc.Equal(w) {
				return nil, e
			}
			acc.Mul(&acc, &m.domain.Generator)
		}
		// unreachable: every 2^k-th root of unity is a domain point
		panic("mesh: root of unity outside its own domain")
	}

	// [w-1, w-ω, w-ω², ...]
	dens := make([]fr.Element, n)
	acc := fr.One()
	for e := 0; e < n; e++ {
		dens[e].Sub(w, &acc)
		acc.Mul(&acc, &m.domain.Generator)
	}
	invDens := fr.BatchInvert(dens)

	var num fr.Element
	num.Mul(&zh, &m.domain.CardinalityInv) // (wⁿ-1)/n

	coeffs := make([]fr.Element, n)
	acc = fr.One()
	for e := 0; e < n; e++ {
		coeffs[e].Mul(&num, &acc).Mul(&coeffs[e], &invDens[e])
		acc.Mul(&acc, &m.domain.Generator)
	}
	return coeffs, -1
}

// Evaluate returns m(w, x, y) = Σ_i ℓ_i(w)·s_i(x, y). O(C) field operations
// plus one batch inversion. When w is a domain point the corresponding
// circuit is evaluated directly, bit-exact and without interpolation error.
func (m *Mesh) Evaluate(w, x, y fr.Element) fr.Element {
	coeffs, onPoint := m.lagrangeAtW(&w)
	if coeffs == nil {
		if s := m.slots[onPoint]; s != nil {
			return s.Eval(&x, &y)
		}
		var zero fr.Element
		return zero
	}

	var r, t fr.Element
	for e, s := range m.slots {
		if s == nil {
			continue
		}
		t = s.Eval(&x, &y)
		t.Mul(&t, &coeffs[e])
		r.Add(&r, &t)
	}
	return r
}

// WX returns the univariate restriction Y ↦ m(w, x, Y)
func (m *Mesh) WX(w, x fr.Element) polynomial.Polynomial {
	coeffs, onPoint := m.lagrangeAtW(&w)
	if coeffs == nil {
		if s := m.slots[onPoint]; s != nil {
			return m.pad(s.PartialX(&x), m.maxDegY+1)
		}
		return make(polynomial.Polynomial, m.maxDegY+1)
	}

	r := make(polynomial.Polynomial, m.maxDegY+1)
	var t fr.Element
	for e, s := range m.slots {
		if s == nil {
			continue
		}
		p := s.PartialX(&x)
		for j := range p {
			t.Mul(&p[j], &coeffs[e])
			r[j].Add(&r[j], &t)
		}
	}
	return r
}

// WY returns the univariate restriction X ↦ m(w, X, y)
func (m *Mesh) WY(w, y fr.Element) polynomial.Polynomial {
	coeffs, onPoint := m.lagrangeAtW(&w)
	if coeffs == nil {
		if s := m.slots[onPoint]; s != nil {
			return m.pad(s.PartialY(&y), m.maxDegX+1)
		}
		return make(polynomial.Polynomial, m.maxDegX+1)
	}

	r := make(polynomial.Polynomial, m.maxDegX+1)
	var t fr.Element
	for e, s := range m.slots {
		if s == nil {
			continue
		}
		p := s.PartialY(&y)
		for i := range p {
			t.Mul(&p[i], &coeffs[e])
			r[i].Add(&r[i], &t)
		}
	}
	return r
}

// XY returns the univariate restriction W ↦ m(W, x, y), of degree < 2^k,
// interpolated over the working domain by an inverse FFT
func (m *Mesh) XY(x, y fr.Element) polynomial.Polynomial {
	vals := make([]fr.Element, m.domain.Cardinality)
	for e, s := range m.slots {
		if s != nil {
			vals[e] = s.Eval(&x, &y)
		}
	}
	m.domain.FFTInverse(vals, fft.DIF)
	fft.BitReverse(vals)
	return vals
}

func (m *Mesh) pad(p polynomial.Polynomial, n int) polynomial.Polynomial {
	if len(p) >= n {
		return p
	}
	r := make(polynomial.Polynomial, n)
	copy(r, p)
	return r
}

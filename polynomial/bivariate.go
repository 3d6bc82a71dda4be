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

package polynomial

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/consensys/gnark-halo/internal/utils"
)

// Bivariate is a dense bivariate polynomial; Coeffs[i][j] is the coefficient
// of Xⁱ Yʲ. All rows have the same length.
type Bivariate struct {
	Coeffs []Polynomial
}

// NewBivariate allocates a zero bivariate polynomial of degree degX in the
// first variable and degY in the second
func NewBivariate(degX, degY int) *Bivariate {
	c := make([]Polynomial, degX+1)
	for i := range c {
		c[i] = make(Polynomial, degY+1)
	}
	return &Bivariate{Coeffs: c}
}

// DegX returns the degree bound in the first variable
func (s *Bivariate) DegX() int {
	return len(s.Coeffs) - 1
}

// DegY returns the degree bound in the second variable
func (s *Bivariate) DegY() int {
	if len(s.Coeffs) == 0 {
		return -1
	}
	return len(s.Coeffs[0]) - 1
}

// Eval returns s(x, y)
func (s *Bivariate) Eval(x, y *fr.Element) fr.Element {
	var r, t fr.Element
	for i := len(s.Coeffs) - 1; i >= 0; i-- {
		t = s.Coeffs[i].Eval(y)
		r.Mul(&r, x).Add(&r, &t)
	}
	return r
}

// PartialX returns the univariate polynomial Y ↦ s(x, Y)
func (s *Bivariate) PartialX(x *fr.Element) Polynomial {
	if len(s.Coeffs) == 0 {
		return Polynomial{}
	}
	r := make(Polynomial, len(s.Coeffs[0]))
	var t fr.Element
	for i := len(s.Coeffs) - 1; i >= 0; i-- {
		for j := range r {
			t.Mul(&r[j], x)
			r[j].Add(&t, &s.Coeffs[i][j])
		}
	}
	return r
}

// PartialY returns the univariate polynomial X ↦ s(X, y)
func (s *Bivariate) PartialY(y *fr.Element) Polynomial {
	r := make(Polynomial, len(s.Coeffs))
	utils.Parallelize(len(s.Coeffs), func(start, end int) {
		for i := start; i < end; i++ {
			r[i] = s.Coeffs[i].Eval(y)
		}
	})
	return r
}

// Clone returns a deep copy of s
func (s *Bivariate) Clone() *Bivariate {
	c := make([]Polynomial, len(s.Coeffs))
	for i := range c {
		c[i] = s.Coeffs[i].Clone()
	}
	return &Bivariate{Coeffs: c}
}

package polynomial_test

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/consensys/gnark-halo/polynomial"
)

func randomPoly(t *testing.T, n int) polynomial.Polynomial {
	t.Helper()
	p := make(polynomial.Polynomial, n)
	for i := range p {
		_, err := p[i].SetRandom()
		require.NoError(t, err)
	}
	return p
}

func TestMulMatchesNaive(t *testing.T) {
	// large enough to take the FFT path
	a := randomPoly(t, 130)
	b := randomPoly(t, 97)

	got := polynomial.Mul(a, b)
	require.Equal(t, len(a)+len(b)-1, len(got))

	// compare against a schoolbook product at a random point
	var x fr.Element
	_, err := x.SetRandom()
	require.NoError(t, err)

	var expected fr.Element
	ax := a.Eval(&x)
	bx := b.Eval(&x)
	expected.Mul(&ax, &bx)

	gx := got.Eval(&x)
	require.True(t, expected.Equal(&gx))
}

func TestDilate(t *testing.T) {
	p := randomPoly(t, 20)
	var z, x, zx fr.Element
	_, _ = z.SetRandom()
	_, _ = x.SetRandom()
	zx.Mul(&z, &x)

	// p(zX) evaluated at x is p(zx)
	d := p.Dilate(&z)
	left := d.Eval(&x)
	right := p.Eval(&zx)
	require.True(t, left.Equal(&right))
}

// the low/high split with a reversed low part is the decomposition used by
// the proving engine: p(x) = x^(k-1)·lo~(1/x) + x^k·hi(x) with lo~ the
// reversed low part
func TestSplitReverseDecomposition(t *testing.T) {
	const k = 64
	p := randomPoly(t, 2*k-1)

	lo, hi := p.SplitAt(k)
	c1 := lo.Reverse()

	var x, xInv fr.Element
	_, _ = x.SetRandom()
	xInv.Inverse(&x)

	var xPowKm1, xPowK fr.Element
	xPowKm1.Exp(x, big.NewInt(k-1))
	xPowK.Exp(x, big.NewInt(k))

	c1x := c1.Eval(&xInv)
	c2x := hi.Eval(&x)
	var rhs, t2 fr.Element
	rhs.Mul(&xPowKm1, &c1x)
	t2.Mul(&xPowK, &c2x)
	rhs.Add(&rhs, &t2)

	lhs := p.Eval(&x)
	require.True(t, lhs.Equal(&rhs))

	// the target coefficient lands on the constant term of the reversed low part
	require.True(t, c1[0].Equal(&p[k-1]))
}

func TestBivariatePartials(t *testing.T) {
	s := polynomial.NewBivariate(7, 5)
	for i := range s.Coeffs {
		for j := range s.Coeffs[i] {
			_, err := s.Coeffs[i][j].SetRandom()
			require.NoError(t, err)
		}
	}

	var x, y fr.Element
	_, _ = x.SetRandom()
	_, _ = y.SetRandom()

	full := s.Eval(&x, &y)

	inY := s.PartialX(&x)
	gotY := inY.Eval(&y)
	require.True(t, full.Equal(&gotY))

	inX := s.PartialY(&y)
	gotX := inX.Eval(&x)
	require.True(t, full.Equal(&gotX))
}

func TestAddSub(t *testing.T) {
	a := randomPoly(t, 10)
	b := randomPoly(t, 17)

	sum := a.Add(b)
	diff := sum.Sub(b)
	for i := range a {
		require.True(t, diff[i].Equal(&a[i]))
	}
	for i := len(a); i < len(diff); i++ {
		require.True(t, diff[i].IsZero())
	}
}

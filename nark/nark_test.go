package nark_test

import (
	"crypto/sha256"
	"hash"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"
	"github.com/stretchr/testify/require"

	"github.com/consensys/gnark-halo/nark"
	"github.com/consensys/gnark-halo/polynomial"
)

func testSRS(t *testing.T, size uint64) *kzg.SRS {
	t.Helper()
	srs, err := kzg.NewSRS(size, big.NewInt(42))
	require.NoError(t, err)
	return srs
}

// testInstance builds a satisfiable instance: the wiring places k(Y) on the
// target row, the gate polynomial mirrors the witness diagonally so that
// t(X, z) = r(zX) cancels exactly, and the target coefficient of the product
// polynomial is r(0)·k(y) = k(y).
func testInstance(t *testing.T, n int) (*nark.Circuit, polynomial.Polynomial) {
	t.Helper()

	r := make(polynomial.Polynomial, 4*n)
	r[0].SetOne()
	for i := 1; i < len(r); i++ {
		_, err := r[i].SetRandom()
		require.NoError(t, err)
	}

	k := make(polynomial.Polynomial, 3)
	k[0].SetOne()
	_, err := k[1].SetRandom()
	require.NoError(t, err)
	_, err = k[2].SetRandom()
	require.NoError(t, err)

	s := polynomial.NewBivariate(4*n-1, 2)
	copy(s.Coeffs[4*n-1], k)

	tt := polynomial.NewBivariate(4*n-1, 4*n-1)
	for m := range r {
		tt.Coeffs[m][m] = r[m]
	}

	return &nark.Circuit{N: n, S: s, T: tt, K: k}, r
}

func TestProveVerify(t *testing.T) {
	c, r := testInstance(t, 4)
	srs := testSRS(t, 64)

	proof, err := nark.Prove(c, r, srs.Pk)
	require.NoError(t, err)
	require.NoError(t, nark.Verify(proof, c, srs.Vk))
}

func TestProveVerifyCustomHash(t *testing.T) {
	c, r := testInstance(t, 2)
	srs := testSRS(t, 32)
	h := func() hash.Hash { return sha256.New() }

	proof, err := nark.Prove(c, r, srs.Pk, nark.WithChallengeHash(h))
	require.NoError(t, err)
	require.NoError(t, nark.Verify(proof, c, srs.Vk, nark.WithChallengeHash(h)))

	// prover and verifier disagreeing on the transcript hash must not verify
	require.Error(t, nark.Verify(proof, c, srs.Vk))
}

func TestVerifyRejectsTamperedEvaluation(t *testing.T) {
	c, r := testInstance(t, 4)
	srs := testSRS(t, 64)

	proof, err := nark.Prove(c, r, srs.Pk)
	require.NoError(t, err)

	one := fr.One()
	proof.Openings[1].ClaimedValue.Add(&proof.Openings[1].ClaimedValue, &one)
	require.ErrorIs(t, nark.Verify(proof, c, srs.Vk), nark.ErrDecomposition)
}

func TestVerifyRejectsUnsatisfiedConstraint(t *testing.T) {
	// scale the target wiring row: the prover is honest, the decomposition
	// holds, but the extracted coefficient is 2·k(y)
	c, r := testInstance(t, 4)
	var two fr.Element
	two.SetUint64(2)
	row := c.S.Coeffs[4*c.N-1]
	for j := range row {
		row[j].Mul(&row[j], &two)
	}
	srs := testSRS(t, 64)

	proof, err := nark.Prove(c, r, srs.Pk)
	require.NoError(t, err)
	require.ErrorIs(t, nark.Verify(proof, c, srs.Vk), nark.ErrConstraint)
}

func TestVerifyRejectsOneWire(t *testing.T) {
	// witness with r(0) = 2, wiring row scaled by 1/2 so the constraint check
	// still passes; only the one-wire check may catch it
	c, r := testInstance(t, 4)
	var two, half fr.Element
	two.SetUint64(2)
	half.Inverse(&two)
	r[0] = two
	row := c.S.Coeffs[4*c.N-1]
	for j := range row {
		row[j].Mul(&row[j], &half)
	}
	// gate diagonal mirrors the modified witness
	c.T.Coeffs[0][0] = two
	srs := testSRS(t, 64)

	proof, err := nark.Prove(c, r, srs.Pk)
	require.NoError(t, err)
	require.ErrorIs(t, nark.Verify(proof, c, srs.Vk), nark.ErrOneWire)
}

func TestVerifyRejectsZeroedGates(t *testing.T) {
	// the prover drops the gate polynomial from its product; the committed
	// halves no longer decompose p
	c, r := testInstance(t, 4)
	srs := testSRS(t, 64)

	cheat := &nark.Circuit{N: c.N, S: c.S, T: polynomial.NewBivariate(c.T.DegX(), c.T.DegY()), K: c.K}
	proof, err := nark.Prove(cheat, r, srs.Pk)
	require.NoError(t, err)
	require.ErrorIs(t, nark.Verify(proof, c, srs.Vk), nark.ErrDecomposition)
}

func TestVerifyRejectsForgedOpening(t *testing.T) {
	c, r := testInstance(t, 4)
	srs := testSRS(t, 64)

	proof, err := nark.Prove(c, r, srs.Pk)
	require.NoError(t, err)

	// keep the claimed values, swap a quotient: the algebraic checks pass but
	// the batched pairing check must not
	proof.Openings[5].H = proof.Openings[0].H
	require.ErrorIs(t, nark.Verify(proof, c, srs.Vk), nark.ErrOpening)
}

func TestProveInputValidation(t *testing.T) {
	c, r := testInstance(t, 2)
	srs := testSRS(t, 32)

	long := make(polynomial.Polynomial, 4*c.N+1)
	_, err := nark.Prove(c, long, srs.Pk)
	require.ErrorIs(t, err, nark.ErrWitnessLength)

	bad := &nark.Circuit{N: 0, S: c.S, T: c.T, K: c.K}
	_, err = nark.Prove(bad, r, srs.Pk)
	require.ErrorIs(t, err, nark.ErrCircuitDegree)

	wide := &nark.Circuit{N: 1, S: c.S, T: c.T, K: c.K}
	_, err = nark.Prove(wide, r[:4], srs.Pk)
	require.ErrorIs(t, err, nark.ErrCircuitDegree)
}

func TestWiringClaimConsistency(t *testing.T) {
	c, r := testInstance(t, 4)
	srs := testSRS(t, 64)

	proof, err := nark.Prove(c, r, srs.Pk)
	require.NoError(t, err)
	require.NoError(t, nark.Verify(proof, c, srs.Vk))

	cl, err := nark.WiringClaim(c, proof, srs.Pk)
	require.NoError(t, err)

	// the claim's witness is the wiring restriction at its own y
	var x fr.Element
	_, err = x.SetRandom()
	require.NoError(t, err)
	want := c.S.Eval(&x, &cl.Y)
	got := cl.SY.Eval(&x)
	require.True(t, want.Equal(&got))

	com, err := kzg.Commit(cl.SY, srs.Pk)
	require.NoError(t, err)
	require.True(t, com.Equal(&cl.S))
}

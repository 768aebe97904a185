package rsaparams_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

func TestDerivePQToNPhi(t *testing.T) {
	p := rsaparams.New()
	p.P = big.NewInt(61)
	p.Q = big.NewInt(53)

	out := rsaparams.Derive(p)
	require.NotNil(t, out.N)
	assert.Equal(t, big.NewInt(61*53), out.N)
	assert.Equal(t, big.NewInt(60*52), out.Phi)
}

func TestDeriveIsIdempotent(t *testing.T) {
	p := rsaparams.New()
	p.P = big.NewInt(61)
	p.Q = big.NewInt(53)

	once := rsaparams.Derive(p)
	twice := rsaparams.Derive(once)
	assert.Equal(t, once.N, twice.N)
	assert.Equal(t, once.Phi, twice.Phi)
	assert.Equal(t, once.D, twice.D)
}

func TestDeriveSumPQRecoversFactors(t *testing.T) {
	p := rsaparams.New()
	p.N = big.NewInt(61 * 53)
	p.SumPQ = big.NewInt(61 + 53)

	out := rsaparams.Derive(p)
	require.NotNil(t, out.P)
	require.NotNil(t, out.Q)
	assert.Equal(t, big.NewInt(53), out.P)
	assert.Equal(t, big.NewInt(61), out.Q)
}

func TestDeriveDiffPQRecoversFactors(t *testing.T) {
	p := rsaparams.New()
	p.N = big.NewInt(61 * 53)
	diff := new(big.Int).Sub(big.NewInt(61), big.NewInt(53))
	p.DiffPQ = diff

	out := rsaparams.Derive(p)
	require.NotNil(t, out.P)
	require.NotNil(t, out.Q)
	assert.Equal(t, big.NewInt(0).Mul(out.P, out.Q), p.N)
}

func TestDeriveEPhiToD(t *testing.T) {
	p := rsaparams.New()
	p.E = big.NewInt(17)
	p.Phi = big.NewInt(60 * 52)

	out := rsaparams.Derive(p)
	require.NotNil(t, out.D)
	chk := new(big.Int).Mul(out.D, p.E)
	chk.Mod(chk, p.Phi)
	assert.Equal(t, big.NewInt(1), chk)
}

func TestFactorFromExponentsRecoversFactor(t *testing.T) {
	p, q := big.NewInt(61), big.NewInt(53)
	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(new(big.Int).Sub(p, big.NewInt(1)), new(big.Int).Sub(q, big.NewInt(1)))
	e := big.NewInt(17)
	d, err := new(big.Int).ModInverse(e, phi), error(nil)
	require.NotNil(t, d)
	_ = err

	f := rsaparams.FactorFromExponents(n, e, d)
	require.NotNil(t, f)
	assert.True(t, f.Cmp(big.NewInt(1)) == 0 || f.Cmp(p) == 0 || f.Cmp(q) == 0 || new(big.Int).Mod(n, f).Sign() == 0)
}

func TestCompleteFillsCRTComponents(t *testing.T) {
	p := rsaparams.New()
	p.P = big.NewInt(61)
	p.Q = big.NewInt(53)
	p.D = big.NewInt(2753)

	rsaparams.Complete(p)
	assert.NotNil(t, p.DP)
	assert.NotNil(t, p.DQ)
	assert.NotNil(t, p.PInv)
	assert.NotNil(t, p.QInv)
	assert.Equal(t, big.NewInt(61+53), p.SumPQ)
}

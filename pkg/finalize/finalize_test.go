package finalize_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsacrack/rsacrack/pkg/finalize"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

func TestCloseDecryptsWithCRT(t *testing.T) {
	p1 := big.NewInt(61)
	q1 := big.NewInt(53)
	n := new(big.Int).Mul(p1, q1)
	phi := new(big.Int).Mul(big.NewInt(60), big.NewInt(52))
	e := big.NewInt(17)
	d := new(big.Int).ModInverse(e, phi)
	require.NotNil(t, d)

	m := big.NewInt(42)
	c := new(big.Int).Exp(m, e, n)

	p := rsaparams.New()
	p.N, p.E, p.P, p.Q, p.D = n, e, p1, q1, d
	p.C = []*big.Int{c}

	res, err := finalize.Close(p)
	require.NoError(t, err)
	require.Len(t, res.Plaintexts, 1)
	assert.Equal(t, m, new(big.Int).SetBytes(res.Plaintexts[0].Bytes))
}

func TestCloseRejectsMismatchedFactors(t *testing.T) {
	p := rsaparams.New()
	p.N = big.NewInt(35)
	p.Factors = rsaparams.NewFactors(big.NewInt(3), big.NewInt(11))

	_, err := finalize.Close(p)
	assert.ErrorIs(t, err, finalize.ErrProductMismatch)
}

func TestDumpProducesNonEmptyCBOR(t *testing.T) {
	p := rsaparams.New()
	p.N = big.NewInt(35)
	res := &finalize.Result{Params: p}

	b, err := finalize.Dump(res)
	require.NoError(t, err)
	assert.NotEmpty(t, b)
}

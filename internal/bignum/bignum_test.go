package bignum_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsacrack/rsacrack/internal/bignum"
)

func TestParseIntRadixes(t *testing.T) {
	cases := map[string]int64{
		"100":   100,
		"0x64":  100,
		"0b1100100": 100,
		"0o144": 100,
	}
	for lit, want := range cases {
		v, err := bignum.ParseInt(lit)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(want), v)
	}
}

func TestParseIntRejectsNegative(t *testing.T) {
	_, err := bignum.ParseInt("-5")
	assert.Error(t, err)
}

func TestIsPerfectSquare(t *testing.T) {
	root, ok := bignum.IsPerfectSquare(big.NewInt(10000019 * 10000019))
	require.True(t, ok)
	assert.Equal(t, big.NewInt(10000019), root)

	_, ok = bignum.IsPerfectSquare(big.NewInt(10000020))
	assert.False(t, ok)
}

func TestIRoot(t *testing.T) {
	n := new(big.Int).Exp(big.NewInt(12345), big.NewInt(3), nil)
	root, exact := bignum.IRoot(n, 3)
	require.True(t, exact)
	assert.Equal(t, big.NewInt(12345), root)

	root, exact = bignum.IRoot(big.NewInt(100), 3)
	assert.False(t, exact)
	assert.Equal(t, big.NewInt(4), root)
}

func TestSolveQuadratic(t *testing.T) {
	// x^2 - 5x + 6 = 0 -> roots 2, 3
	roots := bignum.SolveQuadratic(big.NewInt(1), big.NewInt(-5), big.NewInt(6))
	require.Len(t, roots, 2)
	sum := new(big.Int).Add(roots[0], roots[1])
	assert.Equal(t, big.NewInt(5), sum)
}

func TestCRT(t *testing.T) {
	x, err := bignum.CRT(
		[]*big.Int{big.NewInt(2), big.NewInt(3), big.NewInt(2)},
		[]*big.Int{big.NewInt(3), big.NewInt(5), big.NewInt(7)},
	)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(23), x)
}

func TestModInverse(t *testing.T) {
	inv, err := bignum.ModInverse(big.NewInt(3), big.NewInt(11))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(4), inv)

	_, err = bignum.ModInverse(big.NewInt(2), big.NewInt(4))
	assert.ErrorIs(t, err, bignum.ErrNotInvertible)
}

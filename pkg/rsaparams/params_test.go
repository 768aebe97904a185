package rsaparams_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

func TestNewDefaultsExponent(t *testing.T) {
	p := rsaparams.New()
	assert.Equal(t, big.NewInt(65537), p.E)
}

func TestCloneIsIndependent(t *testing.T) {
	p := rsaparams.New()
	p.N = big.NewInt(35)
	p.Factors = rsaparams.NewFactors(big.NewInt(5), big.NewInt(7))

	clone := p.Clone()
	clone.N.SetInt64(99)
	clone.Factors = clone.Factors.Add(big.NewInt(11), 1)

	assert.Equal(t, big.NewInt(35), p.N)
	assert.Len(t, p.Factors, 2)
}

func TestMergeFillsMissingFieldsOnly(t *testing.T) {
	p := &rsaparams.Parameters{N: big.NewInt(35)}
	other := &rsaparams.Parameters{N: big.NewInt(99), E: big.NewInt(3), P: big.NewInt(5)}

	p.Merge(other)

	assert.Equal(t, big.NewInt(35), p.N, "N was already set and must not be clobbered")
	assert.Equal(t, big.NewInt(3), p.E)
	assert.Equal(t, big.NewInt(5), p.P)
}

func TestResolveEllipsisHex(t *testing.T) {
	n := new(big.Int).Lsh(big.NewInt(1), 1024)
	pp := rsaparams.PartialPrime{Radix: 16, Ellipsis: true, Known: big.NewInt(0xAB)}
	lens := pp.ResolveEllipsis(n)
	require.NotEmpty(t, lens)
	for _, l := range lens {
		assert.Greater(t, l, 0)
	}
}

func TestStringRendersKnownFields(t *testing.T) {
	p := rsaparams.New()
	p.N = big.NewInt(35)
	s := p.String()
	assert.Contains(t, s, "n = 35")
	assert.Contains(t, s, "e = 65537")
}

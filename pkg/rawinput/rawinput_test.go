package rawinput_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsacrack/rsacrack/pkg/rawinput"
)

func TestParsePrimaryFields(t *testing.T) {
	input := `
# a comment
n = 35
e = 17
c = 4
`
	p, err := rawinput.Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(35), p.N)
	assert.Equal(t, big.NewInt(17), p.E)
	require.Len(t, p.C, 1)
	assert.Equal(t, big.NewInt(4), p.C[0])
}

func TestParseIndexedMultiKey(t *testing.T) {
	input := `
n1 = 35
e1 = 17
c1 = 4
n2 = 55
e2 = 3
c2 = 9
`
	p, err := rawinput.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, p.Keys, 2)
	assert.Equal(t, big.NewInt(35), p.Keys[0].N)
	assert.Equal(t, big.NewInt(55), p.Keys[1].N)
}

func TestParseColonSeparator(t *testing.T) {
	input := "n: 35\ne: 17\n"
	p, err := rawinput.Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(35), p.N)
}

func TestParseRejectsUnknownKey(t *testing.T) {
	_, err := rawinput.Parse(strings.NewReader("bogus = 1\n"))
	assert.Error(t, err)
}

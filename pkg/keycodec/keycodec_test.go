package keycodec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsacrack/rsacrack/pkg/keycodec"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

func paramsFromKey(priv *rsa.PrivateKey) *rsaparams.Parameters {
	p := rsaparams.New()
	p.N = priv.N
	p.E = big.NewInt(int64(priv.E))
	p.D = priv.D
	p.P = priv.Primes[0]
	p.Q = priv.Primes[1]
	return p
}

func TestExportAndLoadPrivatePEMRoundTrips(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 512)
	require.NoError(t, err)

	pemBytes, err := keycodec.ExportPrivatePEM(paramsFromKey(priv), nil)
	require.NoError(t, err)
	require.NotEmpty(t, pemBytes)

	loaded, err := keycodec.LoadPEM(pemBytes)
	require.NoError(t, err)
	assert.Equal(t, priv.N, loaded.N)
	assert.Equal(t, priv.D, loaded.D)
}

func TestExportEncryptedPrivatePEM(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 512)
	require.NoError(t, err)

	pemBytes, err := keycodec.ExportPrivatePEM(paramsFromKey(priv), []byte("hunter2"))
	require.NoError(t, err)
	require.NotEmpty(t, pemBytes)
}

func TestExportPublicPEM(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 512)
	require.NoError(t, err)

	pemBytes, err := keycodec.ExportPublicPEM(paramsFromKey(priv))
	require.NoError(t, err)
	assert.NotEmpty(t, pemBytes)

	loaded, err := keycodec.LoadPEM(pemBytes)
	require.NoError(t, err)
	assert.Equal(t, priv.N, loaded.N)
}

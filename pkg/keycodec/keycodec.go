// Package keycodec implements the in-scope half of the external codecs
// boundary (component H): parsing and rendering RSA keys as PEM/DER and
// OpenSSH private keys. The out-of-scope half (network lookups such as
// factordb) stays behind caller-supplied function values in
// pkg/attacks, never imported here.
package keycodec

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"

	"golang.org/x/crypto/ssh"

	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

// LoadPEM parses a PKCS#1 or PKCS#8 RSA private or public key, or an
// X.509 certificate carrying an RSA public key, and lifts it into a
// Parameters value.
func LoadPEM(data []byte) (*rsaparams.Parameters, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("keycodec: no PEM block found")
	}

	if priv, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return fromPrivate(priv), nil
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if priv, ok := key.(*rsa.PrivateKey); ok {
			return fromPrivate(priv), nil
		}
		return nil, fmt.Errorf("keycodec: PKCS8 key is not RSA")
	}
	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return fromPublic(pub), nil
	}
	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if pub, ok := key.(*rsa.PublicKey); ok {
			return fromPublic(pub), nil
		}
		return nil, fmt.Errorf("keycodec: PKIX key is not RSA")
	}
	if cert, err := x509.ParseCertificate(block.Bytes); err == nil {
		if pub, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			return fromPublic(pub), nil
		}
		return nil, fmt.Errorf("keycodec: certificate key is not RSA")
	}
	return nil, fmt.Errorf("keycodec: unrecognized PEM block type %q", block.Type)
}

// LoadOpenSSH parses an OpenSSH-formatted private key (optionally
// passphrase-protected), grounded on golang.org/x/crypto/ssh's
// ParseRawPrivateKey(WithPassphrase).
func LoadOpenSSH(data, passphrase []byte) (*rsaparams.Parameters, error) {
	var raw interface{}
	var err error
	if len(passphrase) > 0 {
		raw, err = ssh.ParseRawPrivateKeyWithPassphrase(data, passphrase)
	} else {
		raw, err = ssh.ParseRawPrivateKey(data)
	}
	if err != nil {
		return nil, fmt.Errorf("keycodec: openssh key: %w", err)
	}
	priv, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("keycodec: openssh key is not RSA")
	}
	return fromPrivate(priv), nil
}

func fromPrivate(priv *rsa.PrivateKey) *rsaparams.Parameters {
	priv.Precompute()
	p := rsaparams.New()
	p.N = priv.N
	p.E = big.NewInt(int64(priv.E))
	p.D = priv.D
	if len(priv.Primes) >= 2 {
		p.P = priv.Primes[0]
		p.Q = priv.Primes[1]
	}
	p.DP = priv.Precomputed.Dp
	p.DQ = priv.Precomputed.Dq
	p.QInv = priv.Precomputed.Qinv
	return p
}

func fromPublic(pub *rsa.PublicKey) *rsaparams.Parameters {
	p := rsaparams.New()
	p.N = pub.N
	p.E = big.NewInt(int64(pub.E))
	return p
}

// ExportPrivatePEM renders p (which must have P, Q, D, N, E) as a
// PKCS#1 PEM block, optionally passphrase-wrapped for --addpassword.
func ExportPrivatePEM(p *rsaparams.Parameters, passphrase []byte) ([]byte, error) {
	priv, err := toRSAPrivateKey(p)
	if err != nil {
		return nil, err
	}
	der := x509.MarshalPKCS1PrivateKey(priv)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}
	if len(passphrase) > 0 {
		//nolint:staticcheck // x509.EncryptPEMBlock is deprecated upstream but
		// remains the only stdlib path for a passphrase-wrapped legacy PEM
		// block; no replacement exists for this exact artefact shape.
		encBlock, err := x509.EncryptPEMBlock(rand.Reader, block.Type, der, passphrase, x509.PEMCipherAES256) //nolint:staticcheck
		if err != nil {
			return nil, fmt.Errorf("keycodec: encrypting PEM: %w", err)
		}
		block = encBlock
	}
	return pem.EncodeToMemory(block), nil
}

// ExportPublicPEM renders p's public half as a PKIX PEM block.
func ExportPublicPEM(p *rsaparams.Parameters) ([]byte, error) {
	if p.N == nil || p.E == nil {
		return nil, fmt.Errorf("keycodec: n and e required for public export")
	}
	pub := &rsa.PublicKey{N: p.N, E: int(p.E.Int64())}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

func toRSAPrivateKey(p *rsaparams.Parameters) (*rsa.PrivateKey, error) {
	if p.N == nil || p.E == nil || p.D == nil || p.P == nil || p.Q == nil {
		return nil, fmt.Errorf("keycodec: n, e, d, p, q all required for private export")
	}
	priv := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: p.N, E: int(p.E.Int64())},
		D:         p.D,
		Primes:    []*big.Int{p.P, p.Q},
	}
	priv.Precompute()
	return priv, nil
}

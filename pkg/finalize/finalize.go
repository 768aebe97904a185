// Package finalize closes a solved Parameters value (component G):
// merge factors, verify the product, complete key derivation,
// CRT-accelerated decryption, and dump-artefact rendering.
package finalize

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"

	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

// ErrProductMismatch is returned when the merged factor set does not
// multiply back to n, per spec §4.5 step 1.
var ErrProductMismatch = errors.New("finalize: factor product does not equal n")

// Plaintext is one decrypted ciphertext, indexed the way the
// orchestrator indexed the originating c values, per spec §4.5 step 5.
type Plaintext struct {
	Index     int
	Bytes     []byte
	Printable bool
}

// Result is the finalizer's rendered output.
type Result struct {
	Params     *rsaparams.Parameters
	Plaintexts []Plaintext
}

// Close runs the full finalizer pipeline over p, which must already
// carry at least the factors (or a direct plaintext) an orchestrator
// run discovered.
func Close(p *rsaparams.Parameters) (*Result, error) {
	if len(p.Factors) > 0 {
		prod := p.Factors.Product()
		if p.N != nil && prod.Cmp(p.N) != 0 {
			return nil, ErrProductMismatch
		}
		if p.N == nil {
			p.N = prod
		}
	}

	p = rsaparams.Derive(p)
	rsaparams.Complete(p)

	res := &Result{Params: p}
	for i, c := range p.C {
		m, err := decrypt(p, c)
		if err != nil {
			continue
		}
		res.Plaintexts = append(res.Plaintexts, Plaintext{
			Index:     i,
			Bytes:     m.Bytes(),
			Printable: isPrintable(m.Bytes()),
		})
	}
	return res, nil
}

// decrypt computes m = c^d mod n, using the saferith CRT-accelerated
// path when p, q are both known, mirroring the teacher's
// pkg/math/arith.Modulus.Exp: two exponentiations mod p and mod q
// recombined via p⁻¹ (mod q), rather than one exponentiation mod the
// full-width n.
func decrypt(p *rsaparams.Parameters, c *big.Int) (*big.Int, error) {
	if p.D == nil || p.N == nil {
		return nil, fmt.Errorf("finalize: d or n not available for decryption")
	}
	if p.P == nil || p.Q == nil {
		n := saferith.ModulusFromNat(new(saferith.Nat).SetBig(p.N, p.N.BitLen()))
		x := new(saferith.Nat).SetBig(c, c.BitLen())
		e := new(saferith.Nat).SetBig(p.D, p.D.BitLen())
		r := new(saferith.Nat).Exp(x, e, n)
		return r.Big(), nil
	}

	pNat := new(saferith.Nat).SetBig(p.P, p.P.BitLen())
	qNat := new(saferith.Nat).SetBig(p.Q, p.Q.BitLen())
	pMod := saferith.ModulusFromNat(pNat)
	qMod := saferith.ModulusFromNat(qNat)
	nMod := saferith.ModulusFromNat(new(saferith.Nat).Mul(pNat, qNat, -1))
	pInvQ := new(saferith.Nat).ModInverse(pNat, qMod)

	x := new(saferith.Nat).SetBig(c, c.BitLen())
	dNat := new(saferith.Nat).SetBig(p.D, p.D.BitLen())

	var xp, xq saferith.Nat
	xp.Exp(x, dNat, pMod)
	xq.Exp(x, dNat, qMod)

	r := new(saferith.Nat).ModSub(&xq, &xp, nMod)
	r.ModMul(r, pInvQ, nMod)
	r.ModMul(r, pNat, nMod)
	r.ModAdd(r, &xp, nMod)
	return r.Big(), nil
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x09 || (c > 0x0d && c < 0x20) || c > 0x7e {
			return false
		}
	}
	return len(b) > 0
}

// dumpArtefact is the structured shape Dump renders, with cbor so multi-key or binary fields round-trip without
// the lossy text escaping a JSON dump would need.
type dumpArtefact struct {
	N, E       string
	P, Q       string `cbor:",omitempty"`
	D, Phi     string `cbor:",omitempty"`
	DP, DQ     string `cbor:",omitempty"`
	PInv, QInv string `cbor:",omitempty"`
	Plaintexts []string
}

// Dump renders res as a cbor artefact. The CLI has no flag that calls
// it or writes the artefact out.
func Dump(res *Result) ([]byte, error) {
	d := dumpArtefact{}
	if res.Params.N != nil {
		d.N = res.Params.N.String()
	}
	if res.Params.E != nil {
		d.E = res.Params.E.String()
	}
	setIfNonNil(&d.P, res.Params.P)
	setIfNonNil(&d.Q, res.Params.Q)
	setIfNonNil(&d.D, res.Params.D)
	setIfNonNil(&d.Phi, res.Params.Phi)
	setIfNonNil(&d.DP, res.Params.DP)
	setIfNonNil(&d.DQ, res.Params.DQ)
	setIfNonNil(&d.PInv, res.Params.PInv)
	setIfNonNil(&d.QInv, res.Params.QInv)
	for _, pt := range res.Plaintexts {
		d.Plaintexts = append(d.Plaintexts, hex.EncodeToString(pt.Bytes))
	}
	return cbor.Marshal(d)
}

func setIfNonNil(dst *string, v *big.Int) {
	if v != nil {
		*dst = v.String()
	}
}

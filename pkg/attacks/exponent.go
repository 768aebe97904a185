package attacks

import (
	"math/big"

	"github.com/rsacrack/rsacrack/internal/bignum"
	"github.com/rsacrack/rsacrack/pkg/attack"
	"github.com/rsacrack/rsacrack/pkg/progress"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

// Wiener recovers d from a too-small private exponent via continued
// fraction expansion of e/n, testing each convergent's denominator as a
// candidate d, grounded on src/attack/wiener.rs (which walks the
// convergents of e/n rather than e/phi since phi is unknown up front).
type Wiener struct{ attack.Base }

func NewWiener() *Wiener {
	return &Wiener{attack.Base{NameStr: "wiener", SpeedKind: attack.Fast}}
}

func (a *Wiener) Requirements(p *rsaparams.Parameters) bool {
	return p.E != nil && p.N != nil
}

func (a *Wiener) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	n, e := p.N, p.E
	for _, cand := range continuedFractionConvergents(e, n) {
		if cancel.Cancelled() {
			return attack.Outcome{Skipped: true, Reason: "cancelled"}
		}
		k, d := cand.num, cand.den
		if k.Sign() == 0 {
			continue
		}
		// phi = (e*d - 1) / k, must divide evenly
		ed := new(big.Int).Mul(e, d)
		ed.Sub(ed, big.NewInt(1))
		phi, rem := new(big.Int).QuoRem(ed, k, new(big.Int))
		if rem.Sign() != 0 || phi.Sign() <= 0 {
			continue
		}
		if pq, ok := trivialFactorizationWithNPhi(n, phi); ok {
			return attack.Outcome{Solution: &attack.Solution{
				Factors: rsaparams.NewFactors(pq[0], pq[1]),
				D:       new(big.Int).Set(d),
				Phi:     phi,
				Note:    "wiener",
			}}
		}
	}
	return attack.Outcome{Skipped: true, Reason: "wiener: d not small enough"}
}

type convergent struct{ num, den *big.Int }

// continuedFractionConvergents returns the convergents h_i/k_i of the
// continued-fraction expansion of x/y, mirroring
// rational_to_contfrac/contfrac_to_rational in the original crate's
// ntheory module.
func continuedFractionConvergents(x, y *big.Int) []convergent {
	var quotients []*big.Int
	a, b := new(big.Int).Set(x), new(big.Int).Set(y)
	for b.Sign() != 0 && len(quotients) < 10000 {
		q, r := new(big.Int).QuoRem(a, b, new(big.Int))
		quotients = append(quotients, q)
		a, b = b, r
	}
	var out []convergent
	h0, h1 := big.NewInt(1), big.NewInt(0)
	k0, k1 := big.NewInt(0), big.NewInt(1)
	for _, q := range quotients {
		h := new(big.Int).Mul(q, h1)
		h.Add(h, h0)
		k := new(big.Int).Mul(q, k1)
		k.Add(k, k0)
		out = append(out, convergent{num: new(big.Int).Set(h), den: new(big.Int).Set(k)})
		h0, h1 = h1, h
		k0, k1 = k1, k
	}
	return out
}

// trivialFactorizationWithNPhi recovers p, q from n and phi(n) via the
// sum-of-roots identity (p+q = n-phi+1), grounded on
// ntheory.rs::trivial_factorization_with_n_phi.
func trivialFactorizationWithNPhi(n, phi *big.Int) ([2]*big.Int, bool) {
	s := new(big.Int).Sub(n, phi)
	s.Add(s, big.NewInt(1))
	roots := bignum.SolveQuadratic(big.NewInt(1), new(big.Int).Neg(s), n)
	if len(roots) != 2 {
		return [2]*big.Int{}, false
	}
	p, q := roots[0], roots[1]
	if new(big.Int).Mul(p, q).Cmp(n) != 0 {
		return [2]*big.Int{}, false
	}
	return [2]*big.Int{p, q}, true
}

// KnownD factors n given d directly, via the deterministic Miller-style
// reduction (fixed trial bases 2..21) in rsaparams.FactorFromExponents,
// grounded on
// src/attack/known_d.rs and spec §4.1's e∧d∧n derivation rule.
type KnownD struct{ attack.Base }

func NewKnownD() *KnownD {
	return &KnownD{attack.Base{NameStr: "known_d", SpeedKind: attack.Fast}}
}

func (a *KnownD) Requirements(p *rsaparams.Parameters) bool {
	return p.D != nil && p.E != nil && p.N != nil
}

func (a *KnownD) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	f := rsaparams.FactorFromExponents(p.N, p.E, p.D)
	if f == nil {
		return attack.Outcome{Skipped: true, Reason: "known_d: no factor surfaced"}
	}
	q := new(big.Int).Div(p.N, f)
	return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(f, q), D: new(big.Int).Set(p.D), Note: "known_d"}}
}

// KnownPhi derives d = e^-1 mod phi(n), then factors n from n and phi(n)
// by solving the quadratic whose roots are p and q (p+q = n-phi+1); if
// that fails it returns d and phi without factors. Grounded on
// src/attack/known_phi.rs.
type KnownPhi struct{ attack.Base }

func NewKnownPhi() *KnownPhi {
	return &KnownPhi{attack.Base{NameStr: "known_phi", SpeedKind: attack.Fast}}
}

func (a *KnownPhi) Requirements(p *rsaparams.Parameters) bool {
	return p.Phi != nil && p.E != nil && p.N != nil
}

func (a *KnownPhi) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	d, err := bignum.ModInverse(p.E, p.Phi)
	if err != nil {
		return attack.Outcome{Skipped: true, Reason: "known_phi: e not invertible mod phi"}
	}
	if pq, ok := trivialFactorizationWithNPhi(p.N, p.Phi); ok {
		return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(pq[0], pq[1]), D: d, Phi: new(big.Int).Set(p.Phi), Note: "known_phi"}}
	}
	return attack.Outcome{Solution: &attack.Solution{D: d, Phi: new(big.Int).Set(p.Phi), Note: "known_phi (d recovered, factor pending)"}}
}

// NonCoprimeExp handles g = gcd(e, phi(n)) != 1: it inverts e/g modulo
// phi/g to get d', raises each ciphertext to d' (which yields m^g mod n),
// and keeps the exact integer g-th root, so it recovers m only when
// m^g < n. Grounded on
// src/attack/non_coprime_exp.rs.
type NonCoprimeExp struct{ attack.Base }

func NewNonCoprimeExp() *NonCoprimeExp {
	return &NonCoprimeExp{attack.Base{NameStr: "non_coprime_exp", SpeedKind: attack.Fast}}
}

func (a *NonCoprimeExp) Requirements(p *rsaparams.Parameters) bool {
	return p.Phi != nil && p.E != nil && p.N != nil && len(p.C) > 0
}

func (a *NonCoprimeExp) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	g := bignum.GCD(p.E, p.Phi)
	if g.Cmp(big.NewInt(1)) == 0 {
		return attack.Outcome{Skipped: true, Reason: "gcd(e, phi) == 1, not applicable"}
	}
	ePrime := new(big.Int).Div(p.E, g)
	phiPrime := new(big.Int).Div(p.Phi, g)
	d, err := bignum.ModInverse(ePrime, phiPrime)
	if err != nil {
		return attack.Outcome{Skipped: true, Reason: "non_coprime_exp: e' not invertible mod phi'"}
	}
	var pts [][]byte
	for _, c := range p.C {
		mg := new(big.Int).Exp(c, d, p.N)
		if root, exact := bignum.IRoot(mg, uint(g.Uint64())); exact {
			pts = append(pts, root.Bytes())
		}
	}
	if len(pts) == 0 {
		return attack.Outcome{Skipped: true, Reason: "non_coprime_exp: no g-th root recovered"}
	}
	return attack.Outcome{Solution: &attack.Solution{Plaintexts: pts, Note: "non_coprime_exp"}}
}

// CommonModulus recovers m from two ciphertexts of the same message
// under the same n with coprime exponents e1, e2, via Bezout
// coefficients: m = c1^u * c2^v mod n where e1*u + e2*v = 1. Grounded
// on src/attack/multi_key/common_modulus.rs.
type CommonModulus struct{ attack.Base }

func NewCommonModulus() *CommonModulus {
	return &CommonModulus{attack.Base{NameStr: "common_modulus", SpeedKind: attack.Fast}}
}

func (a *CommonModulus) Requirements(p *rsaparams.Parameters) bool {
	if p.N == nil || len(p.C) == 0 {
		return false
	}
	for _, k := range p.Keys {
		if k.N != nil && k.N.Cmp(p.N) == 0 {
			return true
		}
	}
	return false
}

func (a *CommonModulus) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	c1 := p.C[0]
	for _, k := range p.Keys {
		if k.N == nil || k.N.Cmp(p.N) != 0 || k.E == nil || len(k.C) == 0 {
			continue
		}
		e1, e2 := p.E, k.E
		g, u, v := bignum.ExtGCD(e1, e2)
		if g.Cmp(big.NewInt(1)) != 0 {
			continue
		}
		c2 := k.C[0]
		c1u := modPow(c1, u, p.N)
		c2v := modPow(c2, v, p.N)
		m := new(big.Int).Mul(c1u, c2v)
		m.Mod(m, p.N)
		return attack.Outcome{Solution: &attack.Solution{Plaintexts: [][]byte{m.Bytes()}, Note: "common_modulus"}}
	}
	return attack.Outcome{Skipped: true, Reason: "common_modulus: no matching second key"}
}

// modPow computes base^exp mod m for a possibly-negative exp, handling
// the Bezout-coefficient sign the way common modulus attacks require.
func modPow(base, exp, m *big.Int) *big.Int {
	if exp.Sign() >= 0 {
		return new(big.Int).Exp(base, exp, m)
	}
	inv, err := bignum.ModInverse(base, m)
	if err != nil {
		return big.NewInt(0)
	}
	return new(big.Int).Exp(inv, new(big.Int).Neg(exp), m)
}

// HastadBroadcast reconstructs m^e via CRT over k ciphertexts encrypted
// under pairwise coprime moduli with the same small e, then takes the
// integer e-th root. Grounded on
// src/attack/multi_key/hastad_broadcast.rs.
type HastadBroadcast struct{ attack.Base }

func NewHastadBroadcast() *HastadBroadcast {
	return &HastadBroadcast{attack.Base{NameStr: "hastad_broadcast", SpeedKind: attack.Fast}}
}

func (a *HastadBroadcast) Requirements(p *rsaparams.Parameters) bool {
	return p.E != nil && p.E.IsUint64() && len(p.Keys) >= int(p.E.Uint64())-1
}

func (a *HastadBroadcast) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	if p.N == nil || len(p.C) == 0 {
		return attack.Outcome{Skipped: true, Reason: "hastad_broadcast: missing primary key"}
	}
	moduli := []*big.Int{p.N}
	residues := []*big.Int{p.C[0]}
	for _, k := range p.Keys {
		if k.E == nil || k.E.Cmp(p.E) != 0 || k.N == nil || len(k.C) == 0 {
			continue
		}
		moduli = append(moduli, k.N)
		residues = append(residues, k.C[0])
	}
	e := uint(p.E.Uint64())
	if uint(len(moduli)) < e {
		return attack.Outcome{Skipped: true, Reason: "hastad_broadcast: not enough matching ciphertexts"}
	}
	x, err := bignum.CRT(residues[:e], moduli[:e])
	if err != nil {
		return attack.Outcome{Skipped: true, Reason: "hastad_broadcast: moduli not pairwise coprime"}
	}
	root, exact := bignum.IRoot(x, e)
	if !exact {
		return attack.Outcome{Skipped: true, Reason: "hastad_broadcast: padding prevented exact root"}
	}
	return attack.Outcome{Solution: &attack.Solution{Plaintexts: [][]byte{root.Bytes()}, Note: "hastad_broadcast"}}
}

// CommonFactor computes gcd(n, k.N) of the primary modulus against each
// additional key's modulus and, at the first non-trivial gcd, returns
// the factorisation of the primary n only. Gcds between two additional
// keys are not computed, and the other key's factorisation is not
// reported. Grounded on
// src/attack/multi_key/common_factor.rs.
type CommonFactor struct{ attack.Base }

func NewCommonFactor() *CommonFactor {
	return &CommonFactor{attack.Base{NameStr: "common_factor", SpeedKind: attack.Fast}}
}

func (a *CommonFactor) Requirements(p *rsaparams.Parameters) bool {
	return p.N != nil && len(p.Keys) > 0
}

func (a *CommonFactor) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	for _, k := range p.Keys {
		if k.N == nil || k.N.Cmp(p.N) == 0 {
			continue
		}
		g := bignum.GCD(p.N, k.N)
		if g.Cmp(big.NewInt(1)) != 0 {
			q := new(big.Int).Div(p.N, g)
			return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(g, q), Note: "common_factor"}}
		}
	}
	return attack.Outcome{Skipped: true, Reason: "common_factor: all moduli pairwise coprime"}
}

// BonehDurfee targets private exponents up to n^0.292 via a
// Coppersmith-style lattice reduction. No lattice-reduction library is
// available in this pack (the closest is
// github.com/cronokirby/saferith, which only supports fixed-shape
// modular arithmetic, not polynomial lattice basis reduction), so this
// approximates the original by running the unchanged Wiener attack: it
// finds d only within Wiener's own bound, not up to n^0.292, and marks
// such a solution as a Wiener approximation in its note. See DESIGN.md.
type BonehDurfee struct{ attack.Base }

func NewBonehDurfee() *BonehDurfee {
	return &BonehDurfee{attack.Base{NameStr: "boneh_durfee", SpeedKind: attack.Medium}}
}

func (a *BonehDurfee) Requirements(p *rsaparams.Parameters) bool {
	return p.E != nil && p.N != nil
}

func (a *BonehDurfee) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	wiener := NewWiener()
	out := wiener.Run(p, cancel, prog)
	if out.Solution != nil {
		out.Solution.Note = "boneh_durfee (via wiener approximation)"
	}
	if out.Skipped {
		out.Reason = "boneh_durfee: lattice reduction unavailable, wiener approximation found nothing"
	}
	return out
}

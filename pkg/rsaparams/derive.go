package rsaparams

import (
	"math/big"

	"github.com/rsacrack/rsacrack/internal/bignum"
)

// Derive runs the deterministic expansion closure until a fixed point:
// every quantity deducible from p in one pass is applied, repeatedly,
// until a whole pass changes nothing. It never mutates p; it returns an
// expanded clone.
//
// Each rule below is grounded on the corresponding derivation described
// in the original crate's params.rs AddAssign/complete-style helpers,
// generalised to the multi-prime Factors model.
func Derive(p *Parameters) *Parameters {
	cur := p.Clone()
	for {
		changed := false
		changed = ruleFactorsFromPQ(cur) || changed
		changed = rulePhiFromFactors(cur) || changed
		changed = ruleQFromNP(cur) || changed
		changed = rulePFromSumPQ(cur) || changed
		changed = rulePFromDiffPQ(cur) || changed
		changed = ruleDFromEPhi(cur) || changed
		changed = ruleFactorFromED(cur) || changed
		changed = ruleFactorFromDPDQ(cur) || changed
		changed = ruleFactorFromDPEQ(cur) || changed
		changed = ruleNFromFactors(cur) || changed
		if !changed {
			return cur
		}
	}
}

// p ∧ q ⇒ n, φ = (p−1)(q−1), factors ← {p, q}
func ruleFactorsFromPQ(p *Parameters) bool {
	if p.P == nil || p.Q == nil {
		return false
	}
	changed := false
	if p.N == nil {
		p.N = new(big.Int).Mul(p.P, p.Q)
		changed = true
	}
	if p.Phi == nil {
		pm1 := new(big.Int).Sub(p.P, big.NewInt(1))
		qm1 := new(big.Int).Sub(p.Q, big.NewInt(1))
		p.Phi = new(big.Int).Mul(pm1, qm1)
		changed = true
	}
	if p.Factors.Len() == 0 {
		p.Factors = NewFactors(p.P, p.Q)
		changed = true
	}
	return changed
}

// factors with ∏ = n ⇒ φ = ∏(fᵢ−1)·fᵢ^(mᵢ−1)
func rulePhiFromFactors(p *Parameters) bool {
	if len(p.Factors) == 0 || p.N == nil {
		return false
	}
	if p.Factors.Product().Cmp(p.N) != 0 {
		return false
	}
	if p.Phi != nil {
		return false
	}
	p.Phi = p.Factors.Phi()
	return true
}

// factors fully determine n when they were not known to equal it yet.
func ruleNFromFactors(p *Parameters) bool {
	if p.N != nil || len(p.Factors) < 2 {
		return false
	}
	p.N = p.Factors.Product()
	return true
}

// n ∧ p ⇒ q = n/p if divisible
func ruleQFromNP(p *Parameters) bool {
	if p.N == nil || p.Q != nil {
		return false
	}
	if p.P == nil {
		return false
	}
	q, rem := new(big.Int).QuoRem(p.N, p.P, new(big.Int))
	if rem.Sign() != 0 {
		return false
	}
	p.Q = q
	return true
}

// n ∧ sum_pq ⇒ discriminant = sum² − 4n; if perfect square, solve for p,q
func rulePFromSumPQ(p *Parameters) bool {
	if p.N == nil || p.SumPQ == nil || (p.P != nil && p.Q != nil) {
		return false
	}
	roots := bignum.SolveQuadratic(big.NewInt(1), new(big.Int).Neg(p.SumPQ), p.N)
	return applyRootsAsFactors(p, roots)
}

// n ∧ diff_pq ⇒ p,q = (√(diff² + 4n) ± diff)/2
func rulePFromDiffPQ(p *Parameters) bool {
	if p.N == nil || p.DiffPQ == nil || (p.P != nil && p.Q != nil) {
		return false
	}
	disc := new(big.Int).Mul(p.DiffPQ, p.DiffPQ)
	fourN := new(big.Int).Lsh(p.N, 2)
	disc.Add(disc, fourN)
	root, ok := bignum.IsPerfectSquare(disc)
	if !ok {
		return false
	}
	hi := new(big.Int).Add(root, p.DiffPQ)
	hi.Rsh(hi, 1)
	lo := new(big.Int).Sub(root, p.DiffPQ)
	lo.Rsh(lo, 1)
	return applyRootsAsFactors(p, []*big.Int{hi, lo})
}

func applyRootsAsFactors(p *Parameters, roots []*big.Int) bool {
	if len(roots) != 2 {
		return false
	}
	a, b := roots[0], roots[1]
	if a.Sign() <= 0 || b.Sign() <= 0 {
		return false
	}
	prod := new(big.Int).Mul(a, b)
	if prod.Cmp(p.N) != 0 {
		return false
	}
	if a.Cmp(b) > 0 {
		a, b = b, a
	}
	p.P, p.Q = a, b
	p.Factors = NewFactors(a, b)
	return true
}

// e ∧ φ ⇒ d = e⁻¹ mod φ
func ruleDFromEPhi(p *Parameters) bool {
	if p.E == nil || p.Phi == nil || p.D != nil {
		return false
	}
	d, err := bignum.ModInverse(p.E, p.Phi)
	if err != nil {
		// gcd(e, φ) != 1: leave D unset so known_phi_multi_e-style attacks
		// can still run on the raw e/φ pair.
		return false
	}
	p.D = d
	return true
}

// e ∧ d ∧ n ⇒ factor n from (e·d − 1) via the Miller-style algorithm.
// Deterministic given a fixed sequence of trial bases (2, 3, 4, ..., 21), so
// the closure stays reproducible; a bounded number of bases is tried
// before giving up for this pass.
func ruleFactorFromED(p *Parameters) bool {
	if p.E == nil || p.D == nil || p.N == nil || p.Factors.Len() > 0 {
		return false
	}
	f := FactorFromExponents(p.N, p.E, p.D)
	if f == nil {
		return false
	}
	q := new(big.Int).Div(p.N, f)
	return applyRootsAsFactors(p, []*big.Int{f, q})
}

// FactorFromExponents recovers a nontrivial factor of n given e, d with
// e·d ≡ 1 (mod φ(n)), using the standard k = e·d−1 = 2^t·s reduction:
// for a base a, walk a^(s·2^i) and look for a nontrivial square root of 1
// mod n. Returns nil if no factor surfaces within the trial-base budget.
func FactorFromExponents(n, e, d *big.Int) *big.Int {
	k := new(big.Int).Mul(e, d)
	k.Sub(k, big.NewInt(1))
	if k.Sign() <= 0 {
		return nil
	}
	t := 0
	s := new(big.Int).Set(k)
	two := big.NewInt(2)
	for s.Bit(0) == 0 {
		s.Rsh(s, 1)
		t++
	}
	one := big.NewInt(1)
	for _, base := range smallBases(20) {
		a := big.NewInt(base)
		if a.Cmp(n) >= 0 {
			continue
		}
		x := new(big.Int).Exp(a, s, n)
		for i := 0; i < t; i++ {
			y := new(big.Int).Exp(x, two, n)
			if y.Cmp(one) == 0 && x.Cmp(one) != 0 && x.Cmp(new(big.Int).Sub(n, one)) != 0 {
				f := bignum.GCD(new(big.Int).Sub(x, one), n)
				if f.Cmp(one) != 0 && f.Cmp(n) != 0 {
					return f
				}
			}
			x = y
		}
	}
	return nil
}

func smallBases(count int) []int64 {
	out := make([]int64, count)
	for i := range out {
		out[i] = int64(2 + i)
	}
	return out
}

// dp ∧ dq ∧ e ∧ n ⇒ p = gcd(n, k·e·dp − 1) for k = 1..255, q = n/p
func ruleFactorFromDPDQ(p *Parameters) bool {
	if p.DP == nil || p.DQ == nil || p.E == nil || p.N == nil || p.Factors.Len() > 0 {
		return false
	}
	one := big.NewInt(1)
	for k := int64(1); k < 256; k++ {
		t := new(big.Int).Mul(p.DP, p.E)
		t.Mul(t, big.NewInt(k))
		t.Sub(t, one)
		if t.Sign() <= 0 {
			continue
		}
		// kdp·e - 1 is a multiple of (p-1) for some small k; gcd with n
		// tends to surface p once the multiple aligns.
		f := bignum.GCD(t, p.N)
		if f.Cmp(one) != 0 && f.Cmp(p.N) != 0 {
			q := new(big.Int).Div(p.N, f)
			return applyRootsAsFactors(p, []*big.Int{f, q})
		}
	}
	return false
}

// dp ∧ e ∧ q ⇒ p = gcd(e·dp − 1, n) then derive d
func ruleFactorFromDPEQ(p *Parameters) bool {
	if p.DP == nil || p.E == nil || p.N == nil || p.Q == nil || p.P != nil {
		return false
	}
	one := big.NewInt(1)
	t := new(big.Int).Mul(p.DP, p.E)
	t.Sub(t, one)
	f := bignum.GCD(t, p.N)
	if f.Cmp(one) == 0 || f.Cmp(p.N) == 0 {
		return false
	}
	q := new(big.Int).Div(p.N, f)
	return applyRootsAsFactors(p, []*big.Int{f, q})
}

// Complete fills in the CRT components once p and q are known, per the
// invariants in §3: p_inv, q_inv, sum_pq and diff_pq from p and q alone,
// and dp, dq only when d is known as well. This is
// folded into the finalizer rather than the closure itself because it is
// a pure widening with no feedback into further derivation rules.
func Complete(p *Parameters) {
	if p.P == nil || p.Q == nil {
		return
	}
	pm1 := new(big.Int).Sub(p.P, big.NewInt(1))
	qm1 := new(big.Int).Sub(p.Q, big.NewInt(1))
	if p.D != nil {
		if p.DP == nil {
			p.DP = new(big.Int).Mod(p.D, pm1)
		}
		if p.DQ == nil {
			p.DQ = new(big.Int).Mod(p.D, qm1)
		}
	}
	if p.QInv == nil {
		if inv, err := bignum.ModInverse(p.Q, p.P); err == nil {
			p.QInv = inv
		}
	}
	if p.PInv == nil {
		if inv, err := bignum.ModInverse(p.P, p.Q); err == nil {
			p.PInv = inv
		}
	}
	if p.SumPQ == nil {
		p.SumPQ = new(big.Int).Add(p.P, p.Q)
	}
	if p.DiffPQ == nil {
		d := new(big.Int).Sub(p.P, p.Q)
		p.DiffPQ = d.Abs(d)
	}
}

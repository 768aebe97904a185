package attacks

import (
	"math/big"

	"github.com/rsacrack/rsacrack/internal/bignum"
	"github.com/rsacrack/rsacrack/pkg/attack"
	"github.com/rsacrack/rsacrack/pkg/progress"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

// SumPQ solves x^2 - sum*x + n = 0 for p, q, grounded on
// src/attack/sum_pq.rs.
type SumPQ struct{ attack.Base }

func NewSumPQ() *SumPQ { return &SumPQ{attack.Base{NameStr: "sum_pq", SpeedKind: attack.Fast}} }

func (a *SumPQ) Requirements(p *rsaparams.Parameters) bool { return p.N != nil && p.SumPQ != nil }

func (a *SumPQ) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	roots := bignum.SolveQuadratic(big.NewInt(1), new(big.Int).Neg(p.SumPQ), p.N)
	if len(roots) != 2 {
		return attack.Outcome{Skipped: true, Reason: "sum_pq: discriminant not a perfect square"}
	}
	return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(roots[0], roots[1]), Note: "sum_pq"}}
}

// DiffPQ solves p, q = (sqrt(diff^2 + 4n) ± diff)/2, grounded on the
// diff_pq derivation rule in spec §3/§4.1.
type DiffPQ struct{ attack.Base }

func NewDiffPQ() *DiffPQ { return &DiffPQ{attack.Base{NameStr: "diff_pq", SpeedKind: attack.Fast}} }

func (a *DiffPQ) Requirements(p *rsaparams.Parameters) bool { return p.N != nil && p.DiffPQ != nil }

func (a *DiffPQ) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	disc := new(big.Int).Mul(p.DiffPQ, p.DiffPQ)
	disc.Add(disc, new(big.Int).Lsh(p.N, 2))
	root, ok := bignum.IsPerfectSquare(disc)
	if !ok {
		return attack.Outcome{Skipped: true, Reason: "diff_pq: discriminant not a perfect square"}
	}
	hi := new(big.Int).Add(root, p.DiffPQ)
	hi.Rsh(hi, 1)
	lo := new(big.Int).Sub(root, p.DiffPQ)
	lo.Rsh(lo, 1)
	if new(big.Int).Mul(hi, lo).Cmp(p.N) != 0 {
		return attack.Outcome{Skipped: true, Reason: "diff_pq: candidate roots do not multiply to n"}
	}
	return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(hi, lo), Note: "diff_pq"}}
}

// PPlusQOver2 handles the variant where (p+q)/2 leaked directly (common
// in challenges that expose an averaged sum), equivalent to SumPQ with
// the value doubled first.
type PPlusQOver2 struct {
	attack.Base
	Half *big.Int
}

func NewPPlusQOver2(half *big.Int) *PPlusQOver2 {
	return &PPlusQOver2{attack.Base{NameStr: "p_plus_q_over_2", SpeedKind: attack.Fast}, half}
}

func (a *PPlusQOver2) Requirements(p *rsaparams.Parameters) bool { return p.N != nil && a.Half != nil }

func (a *PPlusQOver2) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	sum := new(big.Int).Lsh(a.Half, 1)
	roots := bignum.SolveQuadratic(big.NewInt(1), new(big.Int).Neg(sum), p.N)
	if len(roots) != 2 {
		return attack.Outcome{Skipped: true, Reason: "p_plus_q_over_2: discriminant not a perfect square"}
	}
	return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(roots[0], roots[1]), Note: "p_plus_q_over_2"}}
}

// DPDQQInv recovers p = gcd(n, e*dp*k - 1) for small k, then q = n/p,
// grounded on spec §4.1's dp∧dq∧p_inv/q_inv derivation rule and
// src/attack/leaked_crt_coefficient.rs.
type DPDQQInv struct{ attack.Base }

func NewDPDQQInv() *DPDQQInv {
	return &DPDQQInv{attack.Base{NameStr: "dp_dq_qinv", SpeedKind: attack.Fast}}
}

func (a *DPDQQInv) Requirements(p *rsaparams.Parameters) bool {
	return p.N != nil && p.E != nil && p.DP != nil && p.DQ != nil
}

func (a *DPDQQInv) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	fac := rsaparams.Derive(p)
	if fac.Factors.Len() >= 2 {
		return attack.Outcome{Solution: &attack.Solution{Factors: fac.Factors, Note: "dp_dq_qinv"}}
	}
	return attack.Outcome{Skipped: true, Reason: "dp_dq_qinv: no small multiple recovered p"}
}

// DPEKnown recovers p = gcd(e*dp - 1, n) directly when dp, e, and n are
// known, grounded on spec §4.1's dp∧e∧q rule (the q-known case is folded
// into the derivation closure; this attack handles the q-unknown case by
// trying the gcd without the q shortcut).
type DPEKnown struct{ attack.Base }

func NewDPEKnown() *DPEKnown {
	return &DPEKnown{attack.Base{NameStr: "dp_e_known", SpeedKind: attack.Fast}}
}

func (a *DPEKnown) Requirements(p *rsaparams.Parameters) bool {
	return p.DP != nil && p.E != nil && p.N != nil
}

func (a *DPEKnown) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	one := big.NewInt(1)
	t := new(big.Int).Mul(p.DP, p.E)
	t.Sub(t, one)
	f := bignum.GCD(t, p.N)
	if f.Cmp(one) == 0 || f.Cmp(p.N) == 0 {
		return attack.Outcome{Skipped: true, Reason: "dp_e_known: gcd degenerate"}
	}
	q := new(big.Int).Div(p.N, f)
	return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(f, q), Note: "dp_e_known"}}
}

// DQEKnown is DPEKnown's symmetric twin using dq instead of dp.
type DQEKnown struct{ attack.Base }

func NewDQEKnown() *DQEKnown {
	return &DQEKnown{attack.Base{NameStr: "dq_e_known", SpeedKind: attack.Fast}}
}

func (a *DQEKnown) Requirements(p *rsaparams.Parameters) bool {
	return p.DQ != nil && p.E != nil && p.N != nil
}

func (a *DQEKnown) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	one := big.NewInt(1)
	t := new(big.Int).Mul(p.DQ, p.E)
	t.Sub(t, one)
	f := bignum.GCD(t, p.N)
	if f.Cmp(one) == 0 || f.Cmp(p.N) == 0 {
		return attack.Outcome{Skipped: true, Reason: "dq_e_known: gcd degenerate"}
	}
	q := new(big.Int).Div(p.N, f)
	return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(f, q), Note: "dq_e_known"}}
}

// LeakedPQ handles the case where p and q were leaked directly (e.g.
// inside a debug dump); this is a validating pass-through rather than a
// search, grounded on src/attack/leaked_pq.rs.
type LeakedPQ struct{ attack.Base }

func NewLeakedPQ() *LeakedPQ {
	return &LeakedPQ{attack.Base{NameStr: "leaked_pq", SpeedKind: attack.Fast}}
}

func (a *LeakedPQ) Requirements(p *rsaparams.Parameters) bool { return p.P != nil && p.Q != nil }

func (a *LeakedPQ) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	prod := new(big.Int).Mul(p.P, p.Q)
	if p.N != nil && prod.Cmp(p.N) != 0 {
		return attack.Outcome{Skipped: true, Reason: "leaked_pq: p*q does not match n"}
	}
	return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(p.P, p.Q), Note: "leaked_pq"}}
}

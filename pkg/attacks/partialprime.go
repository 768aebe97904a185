package attacks

import (
	"fmt"
	"math/big"

	"github.com/rsacrack/rsacrack/internal/bignum"
	"github.com/rsacrack/rsacrack/pkg/attack"
	"github.com/rsacrack/rsacrack/pkg/progress"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

// partialPrimeSpaceLimit is the enumeration-space ceiling (2^28) past
// which a pattern is rejected as too large, per spec §4.3.
const partialPrimeSpaceLimit = 1 << 28

// PartialPrimeBruteforce enumerates wildcard digit combinations in the
// pattern's radix, testing each candidate prime against n, grounded on
// src/attack/partial_prime.rs's recover() (known ± radix^k * x
// depending on orientation).
type PartialPrimeBruteforce struct{ attack.Base }

func NewPartialPrimeBruteforce() *PartialPrimeBruteforce {
	return &PartialPrimeBruteforce{attack.Base{NameStr: "partial_prime_bruteforce", SpeedKind: attack.Slow}}
}

func (a *PartialPrimeBruteforce) Requirements(p *rsaparams.Parameters) bool {
	return p.N != nil && (p.PartialP != nil || p.PartialQ != nil)
}

func (a *PartialPrimeBruteforce) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	for _, pattern := range []*rsaparams.PartialPrime{p.PartialP, p.PartialQ} {
		if pattern == nil {
			continue
		}
		for _, k := range pattern.ResolveEllipsis(p.N) {
			if cancel.Cancelled() {
				return attack.Outcome{Skipped: true, Reason: "cancelled"}
			}
			sol, err := bruteforceOne(*pattern, k, p.N, cancel, prog, a.Name())
			if err != nil {
				return attack.Outcome{Skipped: true, Reason: err.Error()}
			}
			if sol != nil {
				return attack.Outcome{Solution: sol}
			}
		}
	}
	return attack.Outcome{Skipped: true, Reason: "partial_prime_bruteforce: no candidate divided n"}
}

func bruteforceOne(pattern rsaparams.PartialPrime, k int, n *big.Int, cancel *attack.Cancel, prog progress.Sink, attackName string) (*attack.Solution, error) {
	radix := big.NewInt(int64(pattern.Radix))
	radixK := new(big.Int).Exp(radix, big.NewInt(int64(k)), nil)

	space := new(big.Int).Set(radixK)
	if space.Cmp(big.NewInt(partialPrimeSpaceLimit)) > 0 {
		return nil, fmt.Errorf("partial_prime_bruteforce: enumeration space %s exceeds 2^28", space.String())
	}
	maxX := space.Int64()

	known := pattern.Known
	if known == nil {
		known = big.NewInt(0)
	}
	known64 := maxIterSafeKnown(known)
	shift := new(big.Int).Exp(radix, big.NewInt(int64(len(known.Text(pattern.Radix)))), nil)

	for x := int64(0); x < maxX; x++ {
		if cancel.Cancelled() {
			return nil, nil
		}
		var cand *big.Int
		switch pattern.Orient {
		case rsaparams.OrientLSBKnown:
			cand = new(big.Int).Mul(shift, big.NewInt(x))
			cand.Add(cand, known64)
		default: // OrientMSBKnown
			cand = new(big.Int).Mul(known64, radixK)
			cand.Add(cand, big.NewInt(x))
		}
		if cand.Cmp(n) >= 0 {
			break
		}
		if cand.Sign() <= 0 {
			continue
		}
		rem := new(big.Int).Mod(n, cand)
		if rem.Sign() == 0 {
			q := new(big.Int).Div(n, cand)
			return &attack.Solution{Factors: rsaparams.NewFactors(cand, q), Note: attackName}, nil
		}
		if x%500000 == 0 {
			prog.Report(progress.Update{Attack: attackName, Fraction: float64(x) / float64(maxX)})
		}
	}
	return nil, nil
}

func maxIterSafeKnown(v *big.Int) *big.Int {
	return new(big.Int).Set(v)
}

const gaaMaxIterations = 1_000_000

// Gaa is the Ghafar-Ariffin-Asbullah key-recovery attack (known
// least-significant bits of p and q), grounded on src/attack/gaa.rs:
// for k = ceil(sqrt(rp*rq)), ceil(sqrt(rp*rq))+1, ..., solve
// x^2 - z*x + sigma*rp*rq = 0 where sigma = (isqrt(n)-k)^2 and
// z = (n - rp*rq) mod sigma, and test whether a root is divisible by rp
// or rq to recover the full prime. Requires PartialP/PartialQ with
// the LSB-known orientation; the known digit run itself (not a
// wildcard count) is rp/rq, matching the original's Parameters.p/q
// overload for this attack.
type Gaa struct{ attack.Base }

func NewGaa() *Gaa {
	return &Gaa{attack.Base{NameStr: "gaa", SpeedKind: attack.Medium}}
}

func (a *Gaa) Requirements(p *rsaparams.Parameters) bool {
	return p.N != nil &&
		p.PartialP != nil && p.PartialP.Known != nil && p.PartialP.Orient == rsaparams.OrientLSBKnown &&
		p.PartialQ != nil && p.PartialQ.Known != nil && p.PartialQ.Orient == rsaparams.OrientLSBKnown
}

func (a *Gaa) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	n := p.N
	rp := p.PartialP.Known
	rq := p.PartialQ.Known
	one := big.NewInt(1)

	rpq := new(big.Int).Mul(rp, rq)
	k := bignum.ISqrt(rpq)
	if new(big.Int).Mul(k, k).Cmp(rpq) != 0 {
		k.Add(k, one)
	}
	nSqrt := bignum.ISqrt(n)

	for i := 0; i < gaaMaxIterations; i++ {
		if cancel.Cancelled() {
			return attack.Outcome{Skipped: true, Reason: "cancelled"}
		}
		sigma := new(big.Int).Sub(nSqrt, k)
		sigma.Mul(sigma, sigma)
		if sigma.Sign() == 0 {
			k.Add(k, one)
			continue
		}
		z := new(big.Int).Sub(n, rpq)
		z.Mod(z, sigma)

		c := new(big.Int).Mul(sigma, rpq)
		for _, root := range bignum.SolveQuadratic(one, new(big.Int).Neg(z), c) {
			if root.Sign() < 0 {
				continue
			}
			if sol := gaaTryRoot(root, rp, rq, n); sol != nil {
				return attack.Outcome{Solution: sol}
			}
			if sol := gaaTryRoot(root, rq, rp, n); sol != nil {
				return attack.Outcome{Solution: sol}
			}
		}
		if i%1000 == 0 {
			prog.Report(progress.Update{Attack: a.Name(), Fraction: float64(i) / gaaMaxIterations})
		}
		k.Add(k, one)
	}
	return attack.Outcome{Skipped: true, Reason: "gaa: iteration budget exhausted"}
}

// gaaTryRoot tests whether root is divisible by rA, recovering
// pCandidate = root/rA + rB as a candidate prime (matching either the
// p- or q-branch of the original's root%rp/root%rq check).
func gaaTryRoot(root, rA, rB, n *big.Int) *attack.Solution {
	rem := new(big.Int).Mod(root, rA)
	if rem.Sign() != 0 {
		return nil
	}
	cand := new(big.Int).Div(root, rA)
	cand.Add(cand, rB)
	if cand.Sign() <= 0 || cand.Cmp(n) >= 0 {
		return nil
	}
	q, r := new(big.Int).QuoRem(n, cand, new(big.Int))
	if r.Sign() != 0 {
		return nil
	}
	return &attack.Solution{Factors: rsaparams.NewFactors(cand, q), Note: "gaa"}
}

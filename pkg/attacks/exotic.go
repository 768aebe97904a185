package attacks

import (
	"math/big"

	"github.com/rsacrack/rsacrack/internal/bignum"
	"github.com/rsacrack/rsacrack/pkg/attack"
	"github.com/rsacrack/rsacrack/pkg/progress"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

const bsgsBound = 1 << 24

// DiscreteLogCipher interprets the cipher equation as e^c ≡ m (mod n)
// and solves for c, activated only via --dlog per spec §4.3. It prefers
// Pohlig-Hellman when phi(n) is already fully factored into primes,
// falling back to baby-step-giant-step up to a bound.
type DiscreteLogCipher struct {
	attack.Base
	Enabled bool
}

func NewDiscreteLogCipher(enabled bool) *DiscreteLogCipher {
	return &DiscreteLogCipher{attack.Base{NameStr: "discrete_log_cipher", SpeedKind: attack.Slow}, enabled}
}

func (a *DiscreteLogCipher) Requirements(p *rsaparams.Parameters) bool {
	return a.Enabled && p.N != nil && p.E != nil && len(p.C) > 0
}

func (a *DiscreteLogCipher) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	m := p.C[0]
	if p.Phi != nil && p.Factors.Len() > 0 && p.Factors.AllPrime(bignum.IsProbablePrime) {
		if c, ok := pohligHellman(p.E, m, p.N, p.Phi, p.Factors); ok {
			return attack.Outcome{Solution: &attack.Solution{Plaintexts: [][]byte{c.Bytes()}, Note: "discrete_log_cipher (pohlig-hellman)"}}
		}
	}
	if c, ok := babyStepGiantStep(p.E, m, p.N, bsgsBound, cancel, prog, a.Name()); ok {
		return attack.Outcome{Solution: &attack.Solution{Plaintexts: [][]byte{c.Bytes()}, Note: "discrete_log_cipher (bsgs)"}}
	}
	return attack.Outcome{Skipped: true, Reason: "discrete_log_cipher: no solution within bound"}
}

// pohligHellman solves base^x = target (mod n) given the fully-factored
// group order phi, reducing to each prime-power subgroup and
// reconstructing x via CRT.
func pohligHellman(base, target, n, phi *big.Int, factors rsaparams.Factors) (*big.Int, bool) {
	var residues, moduli []*big.Int
	for _, f := range factors {
		pk := new(big.Int).Exp(f.Prime, big.NewInt(int64(f.Mult)), nil)
		exp := new(big.Int).Div(phi, pk)
		g := new(big.Int).Exp(base, exp, n)
		h := new(big.Int).Exp(target, exp, n)
		xi, ok := babyStepGiantStep(g, h, n, pkInt64Bound(pk), nil, nil, "")
		if !ok {
			return nil, false
		}
		residues = append(residues, xi)
		moduli = append(moduli, pk)
	}
	x, err := bignum.CRT(residues, moduli)
	if err != nil {
		return nil, false
	}
	return x, true
}

func pkInt64Bound(pk *big.Int) int64 {
	if pk.IsInt64() && pk.Int64() < bsgsBound {
		return pk.Int64()
	}
	return bsgsBound
}

// babyStepGiantStep solves base^x = target (mod n) for x in [0, bound)
// using the classic meet-in-the-middle table. cancel/prog may be nil
// when called as a Pohlig-Hellman subroutine.
func babyStepGiantStep(base, target, n *big.Int, bound int64, cancel *attack.Cancel, prog progress.Sink, name string) (*big.Int, bool) {
	m := int64(1)
	for m*m < bound {
		m++
	}
	table := make(map[string]int64, m)
	cur := big.NewInt(1)
	for j := int64(0); j < m; j++ {
		table[cur.String()] = j
		cur.Mul(cur, base)
		cur.Mod(cur, n)
	}
	baseInvM, err := bignum.ModInverse(new(big.Int).Exp(base, big.NewInt(m), n), n)
	if err != nil {
		return nil, false
	}
	gamma := new(big.Int).Set(target)
	for i := int64(0); i < m; i++ {
		if cancel != nil && cancel.Cancelled() {
			return nil, false
		}
		if j, ok := table[gamma.String()]; ok {
			x := i*m + j
			return big.NewInt(x), true
		}
		gamma.Mul(gamma, baseInvM)
		gamma.Mod(gamma, n)
		if prog != nil && i%10000 == 0 {
			prog.Report(progress.Update{Attack: name, Fraction: float64(i) / float64(m)})
		}
	}
	return nil, false
}

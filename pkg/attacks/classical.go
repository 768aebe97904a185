package attacks

import (
	"math/big"

	"github.com/rsacrack/rsacrack/internal/bignum"
	"github.com/rsacrack/rsacrack/pkg/attack"
	"github.com/rsacrack/rsacrack/pkg/progress"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

const fermatMaxIterations = 10_000_000

// Fermat iterates a = ceil(sqrt(n)), a+1, ... looking for a^2-n a perfect
// square, grounded on src/attack/factorization/fermat.rs including its
// n ≡ 2 (mod 4) short-circuit and its iteration cap.
type Fermat struct{ attack.Base }

func NewFermat() *Fermat {
	return &Fermat{attack.Base{NameStr: "fermat", SpeedKind: attack.Medium}}
}

func (a *Fermat) Requirements(p *rsaparams.Parameters) bool { return p.N != nil }

func (a *Fermat) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	n := p.N
	four := big.NewInt(4)
	two := big.NewInt(2)
	if new(big.Int).Mod(n, four).Cmp(two) == 0 {
		return attack.Outcome{Skipped: true, Reason: "n ≡ 2 (mod 4), Fermat cannot apply"}
	}

	a0 := bignum.ISqrt(n)
	if new(big.Int).Mul(a0, a0).Cmp(n) < 0 {
		a0.Add(a0, big.NewInt(1))
	}
	b2 := new(big.Int).Mul(a0, a0)
	b2.Sub(b2, n)
	c := new(big.Int).Lsh(a0, 1)
	c.Add(c, big.NewInt(1))

	for tries := int64(0); tries < fermatMaxIterations; tries++ {
		if _, ok := bignum.IsPerfectSquare(b2); ok {
			aVal := new(big.Int).Sub(c, big.NewInt(1))
			aVal.Rsh(aVal, 1)
			b, _ := bignum.IsPerfectSquare(b2)
			p1 := new(big.Int).Sub(aVal, b)
			q1 := new(big.Int).Add(aVal, b)
			return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(p1, q1), Note: "fermat"}}
		}
		if cancel.Cancelled() {
			return attack.Outcome{Skipped: true, Reason: "cancelled"}
		}
		b2.Add(b2, c)
		c.Add(c, two)
		if tries%100000 == 0 {
			prog.Report(progress.Update{Attack: a.Name(), Fraction: float64(tries) / fermatMaxIterations})
		}
	}
	return attack.Outcome{Skipped: true, Reason: "fermat: iteration budget exhausted"}
}

const pollardRhoMaxIterations = 5_000_000

// PollardRho is Pollard's rho with Floyd's tortoise-and-hare cycle
// detection (x = f(x), y = f(f(y)) per step; Brent's variant is not
// used), grounded on src/attack/factorization/pollard_rho.rs: f(x) =
// x^2+c mod n, retrying with a fresh c whenever gcd degenerates to n.
type PollardRho struct{ attack.Base }

func NewPollardRho() *PollardRho {
	return &PollardRho{attack.Base{NameStr: "pollard_rho", SpeedKind: attack.Medium}}
}

func (a *PollardRho) Requirements(p *rsaparams.Parameters) bool { return p.N != nil }

func (a *PollardRho) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	n := p.N
	if bignum.IsProbablePrime(n) {
		return attack.Outcome{Skipped: true, Reason: "n is prime"}
	}
	one := big.NewInt(1)
	for seed := int64(1); seed < 50; seed++ {
		if cancel.Cancelled() {
			return attack.Outcome{Skipped: true, Reason: "cancelled"}
		}
		c := big.NewInt(seed)
		x := big.NewInt(2)
		y := big.NewInt(2)
		d := big.NewInt(1)
		f := func(v *big.Int) *big.Int {
			r := new(big.Int).Mul(v, v)
			r.Add(r, c)
			r.Mod(r, n)
			return r
		}
		for i := 0; i < pollardRhoMaxIterations && d.Cmp(one) == 0; i++ {
			x = f(x)
			y = f(f(y))
			diff := new(big.Int).Sub(x, y)
			diff.Abs(diff)
			d = bignum.GCD(diff, n)
			if i%50000 == 0 {
				if cancel.Cancelled() {
					return attack.Outcome{Skipped: true, Reason: "cancelled"}
				}
				prog.Report(progress.Update{Attack: a.Name(), Fraction: -1, Message: "searching"})
			}
		}
		if d.Cmp(one) != 0 && d.Cmp(n) != 0 {
			q := new(big.Int).Div(n, d)
			return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(d, q), Note: "pollard_rho"}}
		}
	}
	return attack.Outcome{Skipped: true, Reason: "pollard_rho: no factor within budget"}
}

const pollardPM1B1 = 1_000_000

// PollardPM1 is Pollard's p-1 method, grounded on
// src/attack/factorization/pollard_pm1.rs: a single smoothness-bound
// stage (B1), repeatedly raising a base to the lcm of 1..B1.
type PollardPM1 struct{ attack.Base }

func NewPollardPM1() *PollardPM1 {
	return &PollardPM1{attack.Base{NameStr: "pollard_p_1", SpeedKind: attack.Medium}}
}

func (a *PollardPM1) Requirements(p *rsaparams.Parameters) bool { return p.N != nil }

func (a *PollardPM1) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	n := p.N
	one := big.NewInt(1)
	a0 := big.NewInt(2)
	for prime := int64(2); prime < pollardPM1B1; prime = nextPrime(prime) {
		if cancel.Cancelled() {
			return attack.Outcome{Skipped: true, Reason: "cancelled"}
		}
		pw := big.NewInt(prime)
		for pk := new(big.Int).Set(pw); pk.Cmp(big.NewInt(pollardPM1B1)) < 0; pk.Mul(pk, pw) {
			a0.Exp(a0, pw, n)
		}
		if prime%5000 < 2 {
			d := bignum.GCD(new(big.Int).Sub(a0, one), n)
			if d.Cmp(one) != 0 && d.Cmp(n) != 0 {
				q := new(big.Int).Div(n, d)
				return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(d, q), Note: "pollard_p_1"}}
			}
			prog.Report(progress.Update{Attack: a.Name(), Fraction: float64(prime) / pollardPM1B1})
		}
	}
	d := bignum.GCD(new(big.Int).Sub(a0, one), n)
	if d.Cmp(one) != 0 && d.Cmp(n) != 0 {
		q := new(big.Int).Div(n, d)
		return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(d, q), Note: "pollard_p_1"}}
	}
	return attack.Outcome{Skipped: true, Reason: "pollard_p_1: no B1-smooth factor"}
}

func nextPrime(after int64) int64 {
	for n := after + 1; ; n++ {
		if big.NewInt(n).ProbablyPrime(20) {
			return n
		}
	}
}

// CubeRoot (generalised to any small e): when c is known and m^e < n (no
// modular reduction happened), an exact integer e-th root of c is m
// directly. Grounded on src/attack/cube_root.rs.
type CubeRoot struct{ attack.Base }

func NewCubeRoot() *CubeRoot {
	return &CubeRoot{attack.Base{NameStr: "cube_root", SpeedKind: attack.Fast}}
}

func (a *CubeRoot) Requirements(p *rsaparams.Parameters) bool {
	return p.E != nil && p.E.IsUint64() && p.E.Uint64() <= 7 && len(p.C) > 0
}

func (a *CubeRoot) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	e := uint(p.E.Uint64())
	var pts [][]byte
	for _, c := range p.C {
		root, exact := bignum.IRoot(c, e)
		if exact {
			pts = append(pts, root.Bytes())
		}
	}
	if len(pts) == 0 {
		return attack.Outcome{Skipped: true, Reason: "no ciphertext has an exact e-th root"}
	}
	return attack.Outcome{Solution: &attack.Solution{Plaintexts: pts, Note: "cube_root"}}
}

const smallESmallMBound = 1_000_000

// SmallESmallM checks c + k*n for k in [0, bound) for a perfect e-th
// root, the small-e/small-plaintext generalisation beyond CubeRoot when
// m^e has wrapped around n a small number of times. Grounded on
// src/attack/small_e.rs.
type SmallESmallM struct{ attack.Base }

func NewSmallESmallM() *SmallESmallM {
	return &SmallESmallM{attack.Base{NameStr: "small_e_small_m", SpeedKind: attack.Medium}}
}

func (a *SmallESmallM) Requirements(p *rsaparams.Parameters) bool {
	return p.E != nil && p.E.IsUint64() && p.E.Uint64() <= 65537 && p.N != nil && len(p.C) > 0
}

func (a *SmallESmallM) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	e := uint(p.E.Uint64())
	c := p.C[0]
	enc := new(big.Int).Set(c)
	for k := int64(0); k < smallESmallMBound; k++ {
		if cancel.Cancelled() {
			return attack.Outcome{Skipped: true, Reason: "cancelled"}
		}
		root, exact := bignum.IRoot(enc, e)
		if exact {
			return attack.Outcome{Solution: &attack.Solution{Plaintexts: [][]byte{root.Bytes()}, Note: "small_e_small_m"}}
		}
		enc.Add(enc, p.N)
		if k%10000 == 0 {
			prog.Report(progress.Update{Attack: a.Name(), Fraction: float64(k) / smallESmallMBound})
		}
	}
	return attack.Outcome{Skipped: true, Reason: "small_e_small_m: budget exhausted"}
}

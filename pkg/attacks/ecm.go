package attacks

import (
	"math/big"

	"github.com/rsacrack/rsacrack/internal/bignum"
	"github.com/rsacrack/rsacrack/pkg/attack"
	"github.com/rsacrack/rsacrack/pkg/progress"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

const ecmMaxCurves = 300

// ecmB1Table mirrors the digit-scaled OPTIMAL_B1 table in
// src/attack/factorization/ecm.rs, picking a stage-1 smoothness bound
// from n's approximate decimal digit count instead of a fixed constant.
var ecmB1Table = []int64{
	2000, 11000, 50000, 250000, 1000000, 3000000,
	11000000, 44000000, 110000000, 260000000, 850000000, 2900000000,
}

func ecmB1(n *big.Int) int64 {
	digits := len(n.String())
	idx := (digits - 15) / 5
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ecmB1Table) {
		idx = len(ecmB1Table) - 1
	}
	return ecmB1Table[idx]
}

// ecmStageOneExponent returns prod p^floor(log_p(b1)) over primes p<=b1,
// the scalar every stage-1 curve is multiplied by.
func ecmStageOneExponent(b1 int64) *big.Int {
	k := big.NewInt(1)
	bound := big.NewInt(b1)
	for prime := int64(2); prime <= b1; prime = nextPrime(prime) {
		pw := big.NewInt(prime)
		pk := new(big.Int).Set(pw)
		for pk.Cmp(bound) <= 0 {
			k.Mul(k, pw)
			pk.Mul(pk, pw)
		}
	}
	return k
}

// ecPoint is a point on a short-Weierstrass curve y^2 = x^3+ax+b mod n
// (b itself never appears in the addition/doubling formulas below, so
// curves are identified by a alone), or the point at infinity.
type ecPoint struct {
	x, y *big.Int
	inf  bool
}

// ecAdd adds p1 and p2 mod n. When the slope's denominator isn't
// invertible mod n, its gcd with n is either a non-trivial factor
// (returned with ok=false) or n itself, in which case the points
// coincide mod n and the sum is the point at infinity.
func ecAdd(p1, p2 ecPoint, a, n *big.Int) (ecPoint, *big.Int, bool) {
	if p1.inf {
		return p2, nil, true
	}
	if p2.inf {
		return p1, nil, true
	}
	one := big.NewInt(1)
	var num, den *big.Int
	if p1.x.Cmp(p2.x) == 0 {
		sum := new(big.Int).Add(p1.y, p2.y)
		sum.Mod(sum, n)
		if sum.Sign() == 0 {
			return ecPoint{inf: true}, nil, true
		}
		num = new(big.Int).Mul(p1.x, p1.x)
		num.Mul(num, big.NewInt(3))
		num.Add(num, a)
		num.Mod(num, n)
		den = new(big.Int).Lsh(p1.y, 1)
		den.Mod(den, n)
	} else {
		num = new(big.Int).Sub(p2.y, p1.y)
		num.Mod(num, n)
		den = new(big.Int).Sub(p2.x, p1.x)
		den.Mod(den, n)
	}
	g := bignum.GCD(den, n)
	if g.Cmp(n) == 0 {
		return ecPoint{inf: true}, nil, true
	}
	if g.Cmp(one) != 0 {
		return ecPoint{}, g, false
	}
	inv := new(big.Int).ModInverse(den, n)
	lambda := new(big.Int).Mul(num, inv)
	lambda.Mod(lambda, n)
	x3 := new(big.Int).Mul(lambda, lambda)
	x3.Sub(x3, p1.x)
	x3.Sub(x3, p2.x)
	x3.Mod(x3, n)
	y3 := new(big.Int).Sub(p1.x, x3)
	y3.Mul(y3, lambda)
	y3.Sub(y3, p1.y)
	y3.Mod(y3, n)
	return ecPoint{x: x3, y: y3}, nil, true
}

// ecMul multiplies pt by k via double-and-add, short-circuiting with the
// discovered factor the first time ecAdd hits a non-invertible
// denominator.
func ecMul(pt ecPoint, k, a, n *big.Int) (ecPoint, *big.Int, bool) {
	result := ecPoint{inf: true}
	addend := pt
	kk := new(big.Int).Set(k)
	for kk.Sign() > 0 {
		if kk.Bit(0) == 1 {
			var factor *big.Int
			var ok bool
			result, factor, ok = ecAdd(result, addend, a, n)
			if !ok {
				return ecPoint{}, factor, false
			}
		}
		var factor *big.Int
		var ok bool
		addend, factor, ok = ecAdd(addend, addend, a, n)
		if !ok {
			return ecPoint{}, factor, false
		}
		kk.Rsh(kk, 1)
	}
	return result, nil, true
}

// ecmFindFactor repeatedly tries random curves mod n, each multiplying a
// random point by the shared stage-1 exponent, until one yields a
// non-trivial factor or the curve budget is exhausted.
func ecmFindFactor(n *big.Int, b1 int64, maxCurves int, cancel *attack.Cancel, prog progress.Sink, name string) (*big.Int, bool) {
	k := ecmStageOneExponent(b1)
	one := big.NewInt(1)
	for curve := 0; curve < maxCurves; curve++ {
		if cancel.Cancelled() {
			return nil, false
		}
		a, err1 := bignum.RandBelow(n)
		x0, err2 := bignum.RandBelow(n)
		y0, err3 := bignum.RandBelow(n)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		_, factor, ok := ecMul(ecPoint{x: x0, y: y0}, k, a, n)
		if !ok && factor != nil && factor.Cmp(one) != 0 && factor.Cmp(n) != 0 {
			return factor, true
		}
		if curve%10 == 0 {
			prog.Report(progress.Update{Attack: name, Fraction: float64(curve) / float64(maxCurves)})
		}
	}
	return nil, false
}

// ECM is Lenstra's elliptic-curve factorization method, grounded on
// src/attack/factorization/ecm.rs: stage-1 scalar multiplication over
// random curves mod n, extracting a factor whenever point addition hits
// a non-invertible denominator. Speed is Slow, so the orchestrator's
// speed-bucketed scheduling only starts it once every fast/medium attack
// has already had its turn, matching spec §4.3's "runs only when
// cheaper attacks have run at least once."
//
// The original recurses into successively larger B1 bounds per composite
// cofactor up to a fixed depth; this port picks one B1 from n's digit
// count and re-runs the curve search on any composite cofactor instead
// of escalating the bound — a documented simplification (see DESIGN.md)
// rather than a missing dependency, since the curve arithmetic itself
// needs nothing beyond math/big.
type ECM struct{ attack.Base }

func NewECM() *ECM {
	return &ECM{attack.Base{NameStr: "ecm", SpeedKind: attack.Slow}}
}

func (a *ECM) Requirements(p *rsaparams.Parameters) bool { return p.N != nil }

func (a *ECM) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	b1 := ecmB1(p.N)
	var factors rsaparams.Factors
	queue := []*big.Int{new(big.Int).Set(p.N)}
	for len(queue) > 0 {
		if cancel.Cancelled() {
			return attack.Outcome{Skipped: true, Reason: "cancelled"}
		}
		cur := queue[0]
		queue = queue[1:]
		if bignum.IsProbablePrime(cur) {
			factors = factors.Add(cur, 1)
			continue
		}
		factor, found := ecmFindFactor(cur, b1, ecmMaxCurves, cancel, prog, a.Name())
		if !found {
			return attack.Outcome{Skipped: true, Reason: "ecm: no factor found within curve budget"}
		}
		cofactor := new(big.Int).Div(cur, factor)
		queue = append(queue, factor, cofactor)
	}
	if factors.Len() < 2 {
		return attack.Outcome{Skipped: true, Reason: "ecm: did not fully split n"}
	}
	return attack.Outcome{Solution: &attack.Solution{Factors: factors, Note: "ecm"}}
}

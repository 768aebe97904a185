// Package bignum is the arbitrary-precision integer façade used by the rest
// of the tree.
//
// Factorisation attacks work with cofactors that shrink and grow across a
// single run (Fermat's difference-of-squares search, Pollard rho's cycle
// detection, continued-fraction expansion): none of those fit a fixed-width
// representation well, so this façade is built directly on math/big rather
// than on a constant-time, fixed-shape type. See DESIGN.md for the full
// justification.
package bignum

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrNotInvertible is returned by ModInverse when gcd(a, n) != 1.
var ErrNotInvertible = errors.New("bignum: not invertible modulo n")

// ParseInt parses a decimal integer, or one with a 0x/0b/0o prefix (as
// produced by the CLI's numeric flags). A leading '-' is rejected: every
// quantity in this tool is a non-negative RSA parameter.
func ParseInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("bignum: empty integer literal")
	}
	neg := strings.HasPrefix(s, "-")
	if neg {
		return nil, fmt.Errorf("bignum: negative literal %q not allowed", s)
	}

	base := 10
	rest := s
	switch {
	case hasFoldPrefix(s, "0x"):
		base, rest = 16, s[2:]
	case hasFoldPrefix(s, "0b"):
		base, rest = 2, s[2:]
	case hasFoldPrefix(s, "0o"):
		base, rest = 8, s[2:]
	}

	v, ok := new(big.Int).SetString(rest, base)
	if !ok {
		return nil, fmt.Errorf("bignum: invalid integer literal %q", s)
	}
	return v, nil
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// ModInverse returns a^-1 mod n, or ErrNotInvertible if gcd(a, n) != 1.
func ModInverse(a, n *big.Int) (*big.Int, error) {
	inv := new(big.Int).ModInverse(a, n)
	if inv == nil {
		return nil, ErrNotInvertible
	}
	return inv, nil
}

// GCD returns the non-negative greatest common divisor of a and b.
func GCD(a, b *big.Int) *big.Int {
	return new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))
}

// ExtGCD returns (g, x, y) such that a*x + b*y = g = gcd(a, b).
func ExtGCD(a, b *big.Int) (g, x, y *big.Int) {
	g, x, y = new(big.Int), new(big.Int), new(big.Int)
	g.GCD(x, y, a, b)
	return
}

// ISqrt returns the integer (floor) square root of n.
func ISqrt(n *big.Int) *big.Int {
	return new(big.Int).Sqrt(n)
}

// IsPerfectSquare reports whether n is a perfect square, returning its root
// when it is.
func IsPerfectSquare(n *big.Int) (*big.Int, bool) {
	if n.Sign() < 0 {
		return nil, false
	}
	root := ISqrt(n)
	sq := new(big.Int).Mul(root, root)
	return root, sq.Cmp(n) == 0
}

// IRoot returns the integer k-th root of n (floor), via Newton's method, and
// whether that root is exact.
func IRoot(n *big.Int, k uint) (*big.Int, bool) {
	if n.Sign() == 0 {
		return big.NewInt(0), true
	}
	if k == 1 {
		return new(big.Int).Set(n), true
	}
	// Initial guess: 2^(ceil(bitlen(n)/k))
	bits := uint(n.BitLen())
	shift := (bits + k - 1) / k
	x := new(big.Int).Lsh(big.NewInt(1), shift)
	km1 := big.NewInt(int64(k - 1))
	kBig := big.NewInt(int64(k))

	for {
		// x_{i+1} = ((k-1)*x + n/x^(k-1)) / k
		xkm1 := new(big.Int).Exp(x, km1, nil)
		if xkm1.Sign() == 0 {
			x.SetInt64(1)
			continue
		}
		div := new(big.Int).Div(n, xkm1)
		next := new(big.Int).Mul(km1, x)
		next.Add(next, div)
		next.Div(next, kBig)
		if next.Cmp(x) >= 0 {
			break
		}
		x = next
	}
	// Correct for rounding in either direction.
	for {
		p := new(big.Int).Exp(x, kBig, nil)
		if p.Cmp(n) > 0 {
			x.Sub(x, big.NewInt(1))
			continue
		}
		next := new(big.Int).Add(x, big.NewInt(1))
		pn := new(big.Int).Exp(next, kBig, nil)
		if pn.Cmp(n) <= 0 {
			x = next
			continue
		}
		break
	}
	exact := new(big.Int).Exp(x, kBig, nil).Cmp(n) == 0
	return x, exact
}

// IsProbablePrime reports whether n is probably prime, at the confidence
// level used throughout this tool (20 Miller-Rabin rounds, matching the
// default most CTF-grade factoring tools settle on).
func IsProbablePrime(n *big.Int) bool {
	return n.ProbablyPrime(20)
}

// RandBelow returns a uniformly random integer in [0, max).
func RandBelow(max *big.Int) (*big.Int, error) {
	return rand.Int(rand.Reader, max)
}

// SolveQuadratic solves a*x^2 + b*x + c = 0 over the integers, returning the
// integer roots (0, 1, or 2 of them) when the discriminant is a perfect
// square and division is exact.
func SolveQuadratic(a, b, c *big.Int) []*big.Int {
	if a.Sign() == 0 {
		return nil
	}
	// discriminant = b^2 - 4ac
	disc := new(big.Int).Mul(b, b)
	four_ac := new(big.Int).Mul(a, c)
	four_ac.Mul(four_ac, big.NewInt(4))
	disc.Sub(disc, four_ac)
	if disc.Sign() < 0 {
		return nil
	}
	sqrtDisc, ok := IsPerfectSquare(disc)
	if !ok {
		return nil
	}

	twoA := new(big.Int).Mul(a, big.NewInt(2))
	var roots []*big.Int
	for _, sign := range []int64{1, -1} {
		num := new(big.Int).Neg(b)
		num.Add(num, new(big.Int).Mul(sqrtDisc, big.NewInt(sign)))
		x, rem := new(big.Int).QuoRem(num, twoA, new(big.Int))
		if rem.Sign() == 0 {
			roots = append(roots, x)
		}
	}
	return dedup(roots)
}

func dedup(xs []*big.Int) []*big.Int {
	out := xs[:0]
	for _, x := range xs {
		found := false
		for _, y := range out {
			if x.Cmp(y) == 0 {
				found = true
				break
			}
		}
		if !found {
			out = append(out, x)
		}
	}
	return out
}

// CRT solves the system x ≡ residues[i] (mod moduli[i]) for pairwise coprime
// moduli, returning x mod ∏ moduli.
func CRT(residues, moduli []*big.Int) (*big.Int, error) {
	if len(residues) != len(moduli) || len(residues) == 0 {
		return nil, fmt.Errorf("bignum: CRT requires matching, non-empty slices")
	}
	x := new(big.Int).Set(residues[0])
	m := new(big.Int).Set(moduli[0])
	for i := 1; i < len(residues); i++ {
		mi := moduli[i]
		g, p, q := ExtGCD(m, mi)
		if g.Cmp(big.NewInt(1)) != 0 {
			return nil, fmt.Errorf("bignum: CRT moduli are not pairwise coprime")
		}
		// x' = x + m*p*((residues[i]-x)/g * inverse adjustments)
		diff := new(big.Int).Sub(residues[i], x)
		t := new(big.Int).Mul(diff, p)
		t.Mod(t, mi)
		x.Add(x, new(big.Int).Mul(m, t))
		m.Mul(m, mi)
		x.Mod(x, m)
		_ = q
	}
	x.Mod(x, m)
	return x, nil
}

package rsaparams

import (
	"math/big"
	"sort"
)

// Factors is a multiset of prime factors of n, grounded on the teacher's
// Modulus/PublicKey split in pkg/paillier: here we generalise from the
// two-prime case to an arbitrary number of (possibly repeated) primes.
type Factors []FactorPower

// FactorPower is one prime raised to a multiplicity.
type FactorPower struct {
	Prime *big.Int
	Mult  int
}

// NewFactors builds a Factors multiset from a flat list of primes (with
// repeats for multiplicities), merging duplicates.
func NewFactors(primes ...*big.Int) Factors {
	var fs Factors
	for _, p := range primes {
		fs = fs.Add(p, 1)
	}
	return fs
}

// Add inserts mult copies of p into the multiset, merging with an existing
// entry if present, and returns the updated multiset.
func (fs Factors) Add(p *big.Int, mult int) Factors {
	for i := range fs {
		if fs[i].Prime.Cmp(p) == 0 {
			fs[i].Mult += mult
			return fs
		}
	}
	out := append(fs, FactorPower{Prime: new(big.Int).Set(p), Mult: mult})
	sort.Slice(out, func(i, j int) bool { return out[i].Prime.Cmp(out[j].Prime) < 0 })
	return out
}

// Clone deep-copies the multiset.
func (fs Factors) Clone() Factors {
	out := make(Factors, len(fs))
	for i, f := range fs {
		out[i] = FactorPower{Prime: new(big.Int).Set(f.Prime), Mult: f.Mult}
	}
	return out
}

// Product returns n = ∏ prime^mult.
func (fs Factors) Product() *big.Int {
	n := big.NewInt(1)
	for _, f := range fs {
		n.Mul(n, new(big.Int).Exp(f.Prime, big.NewInt(int64(f.Mult)), nil))
	}
	return n
}

// Phi returns φ(n) for the product of this multiset, using the
// multi-prime generalisation φ(p^k) = (p-1)·p^(k-1).
func (fs Factors) Phi() *big.Int {
	phi := big.NewInt(1)
	for _, f := range fs {
		pm1 := new(big.Int).Sub(f.Prime, big.NewInt(1))
		if f.Mult > 1 {
			pm1.Mul(pm1, new(big.Int).Exp(f.Prime, big.NewInt(int64(f.Mult-1)), nil))
		}
		phi.Mul(phi, pm1)
	}
	return phi
}

// Len returns the number of prime factors counted with multiplicity.
func (fs Factors) Len() int {
	n := 0
	for _, f := range fs {
		n += f.Mult
	}
	return n
}

// Flatten returns every prime, repeated by multiplicity.
func (fs Factors) Flatten() []*big.Int {
	var out []*big.Int
	for _, f := range fs {
		for i := 0; i < f.Mult; i++ {
			out = append(out, f.Prime)
		}
	}
	return out
}

// AllPrime reports whether every entry in the multiset passes a
// probable-primality test. Callers supply the test to avoid importing
// internal/bignum from this low-level type.
func (fs Factors) AllPrime(isPrime func(*big.Int) bool) bool {
	for _, f := range fs {
		if !isPrime(f.Prime) {
			return false
		}
	}
	return true
}

// Package attacks is the library of cryptanalysis strategies (component
// E), grouped into files by family the way the teacher groups its zk
// proofs by protocol (pkg/zk/fac, pkg/zk/mod, pkg/zk/nth one file each).
package attacks

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/rsacrack/rsacrack/internal/bignum"
	"github.com/rsacrack/rsacrack/pkg/attack"
	"github.com/rsacrack/rsacrack/pkg/progress"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

// smallPrimeBound is the trial-division bound; past this a factor is
// left for the heavier classical attacks.
const smallPrimeBound = 1_000_000

// SmallPrime factors n by trial division up to smallPrimeBound,
// recursing into any cofactor, grounded on
// src/attack/factorization/small_prime.rs.
type SmallPrime struct{ attack.Base }

func NewSmallPrime() *SmallPrime {
	return &SmallPrime{attack.Base{NameStr: "small_prime", SpeedKind: attack.Fast}}
}

func (a *SmallPrime) Requirements(p *rsaparams.Parameters) bool {
	return p.N != nil
}

func (a *SmallPrime) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	n := new(big.Int).Set(p.N)
	var factors rsaparams.Factors
	for d := int64(2); d < smallPrimeBound && n.Cmp(big.NewInt(1)) > 0; d++ {
		if cancel.Cancelled() {
			return attack.Outcome{Skipped: true, Reason: "cancelled"}
		}
		bd := big.NewInt(d)
		for {
			q, rem := new(big.Int).QuoRem(n, bd, new(big.Int))
			if rem.Sign() != 0 {
				break
			}
			factors = factors.Add(bd, 1)
			n = q
		}
		if d%100000 == 0 {
			prog.Report(progress.Update{Attack: a.Name(), Fraction: float64(d) / smallPrimeBound})
		}
	}
	if len(factors) == 0 {
		return attack.Outcome{Skipped: true, Reason: "no small factor found"}
	}
	if n.Cmp(big.NewInt(1)) > 0 && bignum.IsProbablePrime(n) {
		factors = factors.Add(n, 1)
	}
	return attack.Outcome{Solution: &attack.Solution{Factors: factors, Note: "small_prime"}}
}

// ComfactCn catches the degenerate case where a supplied ciphertext
// shares a nontrivial common factor with n directly (gcd(c, n) != 1),
// grounded on src/attack/comfact_cn.rs.
type ComfactCn struct{ attack.Base }

func NewComfactCn() *ComfactCn {
	return &ComfactCn{attack.Base{NameStr: "comfact_cn", SpeedKind: attack.Fast}}
}

func (a *ComfactCn) Requirements(p *rsaparams.Parameters) bool {
	return p.N != nil && len(p.C) > 0
}

func (a *ComfactCn) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	for _, c := range p.C {
		g := bignum.GCD(c, p.N)
		if g.Cmp(big.NewInt(1)) != 0 && g.Cmp(p.N) != 0 {
			q := new(big.Int).Div(p.N, g)
			return attack.Outcome{Solution: &attack.Solution{
				Factors: rsaparams.NewFactors(g, q),
				Note:    "comfact_cn: ciphertext shared a factor with n",
			}}
		}
	}
	return attack.Outcome{Skipped: true, Reason: "no ciphertext shares a factor with n"}
}

// FactorDB queries an external factoring database by n. It is out of
// scope for this module's network layer (component H boundary): Lookup
// is a caller-supplied function so the attack stays pure and testable,
// and the attack Skips cleanly when Lookup is nil or returns nothing,
// per spec §4.3 ("must not fail the pipeline when offline"). Results
// are memoised by CacheKey(n) so repeated runs against the same modulus
// (multi-key mode, or a retried orchestration) don't re-query.
type FactorDB struct {
	attack.Base
	Lookup func(n *big.Int) ([]*big.Int, error)

	mu    sync.Mutex
	cache map[string][]*big.Int
}

func NewFactorDB(lookup func(n *big.Int) ([]*big.Int, error)) *FactorDB {
	return &FactorDB{
		Base:   attack.Base{NameStr: "factordb", SpeedKind: attack.Fast},
		Lookup: lookup,
		cache:  make(map[string][]*big.Int),
	}
}

func (a *FactorDB) Requirements(p *rsaparams.Parameters) bool {
	return p.N != nil && a.Lookup != nil
}

func (a *FactorDB) Run(p *rsaparams.Parameters, cancel *attack.Cancel, prog progress.Sink) attack.Outcome {
	key := CacheKey(p.N)

	a.mu.Lock()
	factors, hit := a.cache[key]
	a.mu.Unlock()

	if !hit {
		var err error
		factors, err = a.Lookup(p.N)
		if err != nil {
			return attack.Outcome{Skipped: true, Reason: "factordb: no factors returned"}
		}
		a.mu.Lock()
		a.cache[key] = factors
		a.mu.Unlock()
	}

	if len(factors) < 2 {
		return attack.Outcome{Skipped: true, Reason: "factordb: no factors returned"}
	}
	return attack.Outcome{Solution: &attack.Solution{Factors: rsaparams.NewFactors(factors...), Note: "factordb"}}
}

// CacheKey derives a stable cache key for an n value using blake3, used
// by FactorDB's response cache above.
func CacheKey(n *big.Int) string {
	sum := blake3.Sum256(n.Bytes())
	return fmt.Sprintf("%x", sum[:8])
}

package attacks

import (
	"fmt"
	"math/big"

	"github.com/rsacrack/rsacrack/pkg/attack"
)

// Options configures attacks whose construction needs runtime
// parameters beyond the Parameters value itself.
type Options struct {
	FactorDBLookup func(n *big.Int) ([]*big.Int, error)
	DiscreteLog    bool
	PPlusQOver2    *big.Int
}

// All returns every registered strategy in registration order, grounded
// on the original crate's lazy_static ATTACKS vector
// (src/attack/mod.rs): a flat, explicit list rather than reflection-
// based discovery, so the orchestrator's (speed, registration order)
// scheduling is easy to reason about.
func All(opts Options) []attack.Attack {
	list := []attack.Attack{
		NewSmallPrime(),
		NewComfactCn(),
		NewGaa(),
		NewFactorDB(opts.FactorDBLookup),
		NewCubeRoot(),
		NewSmallESmallM(),
		NewSumPQ(),
		NewDiffPQ(),
		NewDPDQQInv(),
		NewDPEKnown(),
		NewDQEKnown(),
		NewLeakedPQ(),
		NewKnownD(),
		NewKnownPhi(),
		NewWiener(),
		NewNonCoprimeExp(),
		NewCommonModulus(),
		NewHastadBroadcast(),
		NewCommonFactor(),
		NewFermat(),
		NewPollardRho(),
		NewPollardPM1(),
		NewECM(),
		NewBonehDurfee(),
		NewPartialPrimeBruteforce(),
		NewDiscreteLogCipher(opts.DiscreteLog),
	}
	if opts.PPlusQOver2 != nil {
		list = append(list, NewPPlusQOver2(opts.PPlusQOver2))
	}
	return list
}

// ByName indexes All() by Name() for --attack/--exclude/--list
// resolution; an unknown name is a fatal configuration error per
// spec §4.4.
func ByName(opts Options) map[string]attack.Attack {
	out := make(map[string]attack.Attack)
	for _, a := range All(opts) {
		out[a.Name()] = a
	}
	return out
}

// Resolve validates a list of attack names against the registry,
// returning a descriptive error naming every unknown entry at once
// rather than failing on the first.
func Resolve(names []string, opts Options) ([]attack.Attack, error) {
	byName := ByName(opts)
	var out []attack.Attack
	var unknown []string
	for _, n := range names {
		a, ok := byName[n]
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		out = append(out, a)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("attacks: unknown attack name(s): %v", unknown)
	}
	return out, nil
}

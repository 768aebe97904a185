// Package attack defines the contract every cryptanalysis strategy
// implements (component D): a pure, cancellable, progress-reporting
// function over a cloned Parameters value.
//
// The shape follows the teacher's zk proof interfaces (pkg/zk/fac,
// pkg/zk/mod): a small struct holding static configuration, a predicate
// that says whether it can run against the data at hand, and a single
// entry point that does the work and returns a typed result.
package attack

import (
	"math/big"
	"sync"

	"github.com/rsacrack/rsacrack/pkg/progress"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

// Speed buckets the expected running time of an attack, used by the
// orchestrator to decide fast-synchronous vs pooled scheduling.
type Speed int

const (
	Fast Speed = iota
	Medium
	Slow
)

func (s Speed) String() string {
	switch s {
	case Fast:
		return "fast"
	case Medium:
		return "medium"
	case Slow:
		return "slow"
	default:
		return "unknown"
	}
}

// Solution is an attack's successful output. Per the contract, a
// returned Solution must carry at least one non-trivial factor, a
// plaintext, or newly discovered d/φ — the orchestrator downgrades
// anything else to a failure.
type Solution struct {
	Factors    rsaparams.Factors
	P, Q       *big.Int
	D, Phi     *big.Int
	DP, DQ     *big.Int
	PInv, QInv *big.Int
	// Plaintexts holds recovered messages, indexed the same way as the
	// ciphertexts they correspond to (len 1 for the common case).
	Plaintexts [][]byte
	// Note is a short human-readable description of how the solution was
	// found, surfaced in the final report.
	Note string
}

// Empty reports whether a Solution carries nothing usable, per the
// contract invariant in spec §3.
func (s *Solution) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.Factors) == 0 && s.D == nil && s.Phi == nil && len(s.Plaintexts) == 0
}

// Outcome is the tri-state result of running an attack.
type Outcome struct {
	Solution *Solution // non-nil on success
	Skipped  bool
	Reason   string // populated on Skipped or failure
}

// Cancel is a cooperative, single-write cancellation signal. The zero
// value is "not cancelled." Attacks poll Cancelled() at their own
// iteration boundaries; see spec §4.2/§5.
type Cancel struct {
	flag chan struct{}
	once sync.Once
}

// NewCancel returns a ready-to-use cancellation signal.
func NewCancel() *Cancel {
	return &Cancel{flag: make(chan struct{})}
}

// Signal marks the cancellation as triggered. Safe to call more than
// once, from several goroutines at the same time, and concurrently with
// Cancelled.
func (c *Cancel) Signal() {
	c.once.Do(func() { close(c.flag) })
}

// Cancelled reports whether Signal has been called.
func (c *Cancel) Cancelled() bool {
	select {
	case <-c.flag:
		return true
	default:
		return false
	}
}

// Done returns a channel that closes when the signal fires, for use in
// select statements alongside other blocking operations.
func (c *Cancel) Done() <-chan struct{} {
	return c.flag
}

// Attack is the contract every strategy in pkg/attacks implements.
type Attack interface {
	// Name is the short lowercase identifier used by --attack/--exclude.
	Name() string
	// Speed buckets the expected running time for scheduling order.
	Speed() Speed
	// Requirements reports whether p has enough fields for Run to make
	// progress. Must be pure and cheap.
	Requirements(p *rsaparams.Parameters) bool
	// Run attempts the strategy against a private clone of p, polling
	// cancel at iteration boundaries and reporting through prog.
	Run(p *rsaparams.Parameters, cancel *Cancel, prog progress.Sink) Outcome
}

// Base is embedded by concrete attacks to supply Name/Speed from static
// fields, mirroring the teacher's small-struct-plus-embedding pattern in
// pkg/zk (each proof type embeds a Public/Private pair rather than
// re-declaring boilerplate accessors).
type Base struct {
	NameStr   string
	SpeedKind Speed
}

func (b Base) Name() string   { return b.NameStr }
func (b Base) Speed() Speed   { return b.SpeedKind }

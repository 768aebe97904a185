// Package progress implements the throttled, thread-safe progress sink
// shared across every running attack.
//
// The locking shape follows the teacher's pool.LockedReader
// (pkg/pool/pool.go): a small mutex-guarded wrapper around otherwise
// unsynchronized state, rather than a channel-based pipeline, since
// updates are pure fire-and-forget writes with no backpressure needed.
package progress

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Update is one throttled progress report from an attack.
type Update struct {
	Attack   string
	Fraction float64 // in [0,1], or < 0 for "indeterminate"
	Message  string
}

// Sink is the interface attacks report through. Implementations must be
// safe for concurrent use, since multiple medium/slow attacks run at
// once.
type Sink interface {
	Report(u Update)
}

// NullSink discards every update; used for non-interactive mode per
// spec §4.4 ("disabled in non-interactive mode").
type NullSink struct{}

func (NullSink) Report(Update) {}

// LogSink renders updates through a zerolog.Logger, throttled so a tight
// attack loop cannot flood output. Matches the teacher's habit
// (pkg/protocol/handler.go) of attaching structured fields rather than
// formatting strings by hand.
type LogSink struct {
	log      zerolog.Logger
	interval time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// NewLogSink returns a LogSink that emits at most one line per attack
// per interval (zero interval disables throttling).
func NewLogSink(log zerolog.Logger, interval time.Duration) *LogSink {
	return &LogSink{log: log, interval: interval, last: make(map[string]time.Time)}
}

func (s *LogSink) Report(u Update) {
	s.mu.Lock()
	now := time.Now()
	prev, ok := s.last[u.Attack]
	if ok && s.interval > 0 && now.Sub(prev) < s.interval {
		s.mu.Unlock()
		return
	}
	s.last[u.Attack] = now
	s.mu.Unlock()

	ev := s.log.Debug().Str("attack", u.Attack)
	if u.Fraction >= 0 {
		ev = ev.Float64("fraction", u.Fraction)
	}
	ev.Msg(u.Message)
}

// Aggregator fans a single shared Sink out across every concurrently
// running attack, tracking the latest Update per attack name so a
// renderer can draw one line/bar per active slot. It is itself a Sink.
type Aggregator struct {
	downstream Sink

	mu     sync.Mutex
	latest map[string]Update
}

// NewAggregator wraps downstream, which receives every update after
// bookkeeping; pass NullSink{} to disable rendering entirely.
func NewAggregator(downstream Sink) *Aggregator {
	if downstream == nil {
		downstream = NullSink{}
	}
	return &Aggregator{downstream: downstream, latest: make(map[string]Update)}
}

func (a *Aggregator) Report(u Update) {
	a.mu.Lock()
	a.latest[u.Attack] = u
	a.mu.Unlock()
	a.downstream.Report(u)
}

// Snapshot returns the most recent Update seen for every attack that has
// reported at least once.
func (a *Aggregator) Snapshot() map[string]Update {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]Update, len(a.latest))
	for k, v := range a.latest {
		out[k] = v
	}
	return out
}

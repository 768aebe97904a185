// Package orchestrator runs the attack library against a Parameters
// value (component F): a fast synchronous layer, a pooled medium/slow
// layer, first-solution-wins cancellation, and multi-key cross-key
// dispatch.
//
// The pooled layer is a generalisation of the teacher's pkg/pool.Pool
// (pkg/pool/pool.go): same worker-goroutine shape, but built on
// golang.org/x/sync/errgroup so a first successful result can cancel
// every sibling through a shared context rather than the teacher's
// hand-rolled counter/channel protocol, which has no such concept.
package orchestrator

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rsacrack/rsacrack/pkg/attack"
	"github.com/rsacrack/rsacrack/pkg/progress"
	"github.com/rsacrack/rsacrack/pkg/rsaparams"
)

// graceWindow bounds how long Run waits for outstanding workers to
// notice cancellation and return after the first solution lands, per
// spec §4.4 ("joins them with a short grace window").
const graceWindow = 500 * time.Millisecond

// Config controls a single orchestration run.
type Config struct {
	// Threads is the worker pool size; 0 means hardware parallelism.
	Threads int
	// Include, if non-empty, restricts execution to exactly these
	// attacks (by Name()); every other attack is reported Skipped.
	Include map[string]bool
	// Exclude restricts execution to every attack *except* these.
	Exclude map[string]bool
	Prog    progress.Sink
}

// Report is the outcome of a full orchestration run.
type Report struct {
	Params  *rsaparams.Parameters
	Found   bool
	WinningAttack string
	Outcomes map[string]attack.Outcome
}

func (c Config) selected(a attack.Attack) bool {
	name := a.Name()
	if len(c.Include) > 0 {
		return c.Include[name]
	}
	if len(c.Exclude) > 0 {
		return !c.Exclude[name]
	}
	return true
}

// Run executes every applicable attack against p, per the scheduling
// model in spec §4.4, and returns the finalised Parameters merged with
// whatever Solution was found.
func Run(ctx context.Context, p *rsaparams.Parameters, attacks []attack.Attack, cfg Config) Report {
	prog := cfg.Prog
	if prog == nil {
		prog = progress.NullSink{}
	}

	sorted := make([]attack.Attack, len(attacks))
	copy(sorted, attacks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Speed() < sorted[j].Speed() })

	report := Report{Params: p.Clone(), Outcomes: make(map[string]attack.Outcome)}

	// Fast layer: synchronous, re-deriving between each attack so later
	// attacks (fast and pooled alike) see enriched Parameters.
	var pooled []attack.Attack
	for _, a := range sorted {
		if !cfg.selected(a) {
			report.Outcomes[a.Name()] = attack.Outcome{Skipped: true, Reason: "excluded by selection"}
			continue
		}
		if a.Speed() != attack.Fast {
			pooled = append(pooled, a)
			continue
		}
		if !a.Requirements(report.Params) {
			report.Outcomes[a.Name()] = attack.Outcome{Skipped: true, Reason: "requirements not met"}
			continue
		}
		cancel := attack.NewCancel()
		out := a.Run(report.Params.Clone(), cancel, prog)
		report.Outcomes[a.Name()] = out
		if out.Solution != nil && !out.Solution.Empty() {
			mergeSolution(report.Params, out.Solution)
			report.Params = rsaparams.Derive(report.Params)
			report.Found = true
			report.WinningAttack = a.Name()
			return report
		}
		report.Params = rsaparams.Derive(report.Params)
	}

	if len(pooled) == 0 {
		return report
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	cancelSignal := attack.NewCancel()
	go func() {
		<-runCtx.Done()
		cancelSignal.Signal()
	}()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(threads)

	var mu sync.Mutex
	var winner *attack.Solution
	var winnerName string
	var finished bool

	for _, a := range pooled {
		a := a
		if !a.Requirements(report.Params) {
			mu.Lock()
			report.Outcomes[a.Name()] = attack.Outcome{Skipped: true, Reason: "requirements not met"}
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			out := a.Run(report.Params.Clone(), cancelSignal, prog)
			mu.Lock()
			if finished {
				mu.Unlock()
				return nil
			}
			report.Outcomes[a.Name()] = out
			if out.Solution != nil && !out.Solution.Empty() && winner == nil {
				winner = out.Solution
				winnerName = a.Name()
				stop()
			}
			mu.Unlock()
			return nil
		})
	}

	done := make(chan struct{})
	go func() { g.Wait(); close(done) }()
	select {
	case <-done:
	case <-runCtx.Done():
		select {
		case <-done:
		case <-time.After(graceWindow):
		}
	}
	mu.Lock()
	defer mu.Unlock()
	finished = true

	if winner != nil {
		mergeSolution(report.Params, winner)
		report.Params = rsaparams.Derive(report.Params)
		report.Found = true
		report.WinningAttack = winnerName
	}
	return report
}

// mergeSolution folds a Solution's discovered quantities into p;
// merging is commutative/associative over factor sets per spec §5.
func mergeSolution(p *rsaparams.Parameters, s *attack.Solution) {
	for _, f := range s.Factors {
		p.Factors = p.Factors.Add(f.Prime, f.Mult)
	}
	if s.D != nil && p.D == nil {
		p.D = s.D
	}
	if s.Phi != nil && p.Phi == nil {
		p.Phi = s.Phi
	}
	if s.DP != nil && p.DP == nil {
		p.DP = s.DP
	}
	if s.DQ != nil && p.DQ == nil {
		p.DQ = s.DQ
	}
	if s.PInv != nil && p.PInv == nil {
		p.PInv = s.PInv
	}
	if s.QInv != nil && p.QInv == nil {
		p.QInv = s.QInv
	}
}

// RunMultiKey runs per-key attacks for each supplied Parameters in
// parallel, plus the cross-key attacks once over the whole set, per
// spec §4.4's multi-key mode. primary.Keys must already hold every
// additional key; crossKey attacks are run against primary directly
// since they read primary.Keys themselves.
func RunMultiKey(ctx context.Context, primary *rsaparams.Parameters, perKeyAttacks, crossKeyAttacks []attack.Attack, cfg Config) []Report {
	all := append([]*rsaparams.Parameters{primary}, expandKeys(primary)...)
	reports := make([]Report, len(all))

	var wg sync.WaitGroup
	for i, p := range all {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = Run(ctx, p, perKeyAttacks, cfg)
		}()
	}
	wg.Wait()

	if len(crossKeyAttacks) > 0 {
		crossReport := Run(ctx, primary, crossKeyAttacks, cfg)
		reports = append(reports, crossReport)
	}
	return reports
}

func expandKeys(primary *rsaparams.Parameters) []*rsaparams.Parameters {
	var out []*rsaparams.Parameters
	for _, k := range primary.Keys {
		p := rsaparams.New()
		p.N, p.E, p.C = k.N, k.E, k.C
		out = append(out, p)
	}
	return out
}

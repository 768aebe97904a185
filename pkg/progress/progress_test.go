package progress_test

import (
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/rsacrack/rsacrack/pkg/progress"
)

func TestLogSinkThrottlesRepeatedUpdates(t *testing.T) {
	var buf countingWriter
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	sink := progress.NewLogSink(log, time.Hour)

	sink.Report(progress.Update{Attack: "fermat", Fraction: 0.1, Message: "iterating"})
	sink.Report(progress.Update{Attack: "fermat", Fraction: 0.2, Message: "iterating"})

	assert.Equal(t, 1, buf.lines)
}

func TestLogSinkAllowsDifferentAttacksThrough(t *testing.T) {
	var buf countingWriter
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	sink := progress.NewLogSink(log, time.Hour)

	sink.Report(progress.Update{Attack: "fermat", Message: "a"})
	sink.Report(progress.Update{Attack: "pollard_rho", Message: "b"})

	assert.Equal(t, 2, buf.lines)
}

func TestAggregatorSnapshotTracksLatestPerAttack(t *testing.T) {
	agg := progress.NewAggregator(progress.NullSink{})
	agg.Report(progress.Update{Attack: "fermat", Fraction: 0.1})
	agg.Report(progress.Update{Attack: "fermat", Fraction: 0.9})
	agg.Report(progress.Update{Attack: "wiener", Fraction: 0.5})

	snap := agg.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, 0.9, snap["fermat"].Fraction)
	assert.Equal(t, 0.5, snap["wiener"].Fraction)
}

func TestAggregatorWithNilDownstreamDoesNotPanic(t *testing.T) {
	agg := progress.NewAggregator(nil)
	assert.NotPanics(t, func() {
		agg.Report(progress.Update{Attack: "fermat"})
	})
}

type countingWriter struct {
	lines int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.lines++
	return len(p), nil
}

var _ io.Writer = (*countingWriter)(nil)

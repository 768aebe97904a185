// Package xlog constructs the zerolog logger used by the CLI
// (cmd/rsacrack), following the construction pattern in the teacher's
// pkg/protocol/handler.go.
package xlog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a console-rendered logger at level, writing to w (os.Stderr
// when w is nil). machineReadable swaps the human console writer for
// plain JSON lines, for --json/non-interactive CLI runs.
func New(level zerolog.Level, w io.Writer, machineReadable bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var writer io.Writer = w
	if !machineReadable {
		cw := zerolog.NewConsoleWriter()
		cw.Out = w
		writer = cw
	}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// ForAttack returns a child logger carrying the running attack's name,
// matching the "attach identifying fields once, reuse everywhere" habit
// seen throughout pkg/protocol/handler.go.
func ForAttack(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("attack", name).Logger()
}

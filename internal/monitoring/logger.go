// Package monitoring holds the process-wide log streams shared by the
// curve, vehicle, simulation and storage packages.
//
// Three streams are available:
//   - Ops: lifecycle events and actionable warnings
//   - Diag: day-to-day diagnostics (curve build summaries, limit warnings)
//   - Trace: per-step telemetry, high volume
//
// All streams are disabled until SetLogWriters is called.
package monitoring

import (
	"io"
	"log"
	"sync"
)

// Prefix is prepended to every log line.
const Prefix = "[trackviz] "

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	mu          sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	mu.Lock()
	defer mu.Unlock()
	opsLogger = newLogger(w.Ops)
	diagLogger = newLogger(w.Diag)
	traceLogger = newLogger(w.Trace)
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, Prefix, log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...interface{}) {
	printf(&opsLogger, format, args...)
}

// Diagf logs to the diag stream.
func Diagf(format string, args ...interface{}) {
	printf(&diagLogger, format, args...)
}

// Tracef logs to the trace stream.
func Tracef(format string, args ...interface{}) {
	printf(&traceLogger, format, args...)
}

func printf(slot **log.Logger, format string, args ...interface{}) {
	mu.RLock()
	l := *slot
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

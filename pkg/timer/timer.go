package timer

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Track returns a function that, when executed, logs the duration.
// Usage: defer timer.Track("FunctionName")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		log.Debug().Str("step", name).Dur("took", time.Since(start)).Msg("timing")
	}
}

// Stopwatch measures multiple steps within one operation.
type Stopwatch struct {
	start time.Time
	last  time.Time
}

// NewStopwatch starts the clock.
func NewStopwatch() *Stopwatch {
	now := time.Now()
	return &Stopwatch{start: now, last: now}
}

// Lap logs the time taken since the last Lap call.
func (s *Stopwatch) Lap(stepName string) {
	now := time.Now()
	elapsed := now.Sub(s.last)
	s.last = now
	log.Debug().Str("step", stepName).Dur("took", elapsed).Dur("total", now.Sub(s.start)).Msg("timing")
}

// Total logs the total time since the stopwatch started.
func (s *Stopwatch) Total(name string) {
	log.Debug().Str("step", name).Dur("total", time.Since(s.start)).Msg("timing")
}

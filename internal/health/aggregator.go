package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeInvalidTarget
	OutcomeUnreachable
	OutcomeAborted
	numOutcomes
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalidTarget:
		return "invalid_target"
	case OutcomeUnreachable:
		return "unreachable"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Aggregator holds publish cycle counts in memory and reports them to the log
// periodically instead of on every cycle.
type Aggregator struct {
	log    zerolog.Logger
	counts [numOutcomes]atomic.Uint64
}

func NewAggregator(log zerolog.Logger) *Aggregator {
	return &Aggregator{log: log.With().Str("component", "health").Logger()}
}

// RecordCycle is non-blocking and safe for concurrent use.
func (a *Aggregator) RecordCycle(o Outcome) {
	if o < 0 || o >= numOutcomes {
		return
	}
	a.counts[o].Add(1)
}

type Snapshot map[string]uint64

// Flush logs the counts gathered since the last flush and resets them.
func (a *Aggregator) Flush() Snapshot {
	snap := make(Snapshot, numOutcomes)
	var total uint64
	for o := Outcome(0); o < numOutcomes; o++ {
		n := a.counts[o].Swap(0)
		snap[o.String()] = n
		total += n
	}

	if total == 0 {
		return snap // No activity to report
	}

	ev := a.log.Info().Uint64("cycles", total)
	for name, n := range snap {
		ev = ev.Uint64(name, n)
	}
	ev.Msg("publish cycle summary")
	return snap
}

// Start flushes on a ticker until ctx is done.
func (a *Aggregator) Start(ctx context.Context, interval time.Duration) {
	a.log.Info().Dur("interval", interval).Msg("health aggregator started")
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				a.Flush()
				return
			case <-ticker.C:
				a.Flush()
			}
		}
	}()
}

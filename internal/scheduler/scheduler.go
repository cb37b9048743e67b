// Package scheduler keeps one recurring cron entry per registered monitor.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gamestatus/gamestatus-bot/internal/logging"
	"github.com/gamestatus/gamestatus-bot/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const DefaultCycleTimeout = 60 * time.Second

type Publisher interface {
	Publish(ctx context.Context, key models.MonitorKey) error
}

type Registry interface {
	Add(ctx context.Context, key models.MonitorKey, spec models.MonitorSpec) (models.MonitorState, error)
	Remove(ctx context.Context, key models.MonitorKey) (models.MonitorState, bool, error)
	RemoveGuild(ctx context.Context, guildID string) ([]models.MonitorState, error)
	List() []models.MonitorState
}

type Scheduler struct {
	registry     Registry
	publisher    Publisher
	interval     time.Duration
	cycleTimeout time.Duration
	log          zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[models.MonitorKey]cron.EntryID
	cancel  context.CancelFunc

	// base is the parent of every cycle context. Ticks read it without
	// taking mu so they never wait behind a command's store save.
	base atomic.Pointer[context.Context]
}

type Option func(*Scheduler)

// WithCycleTimeout bounds a single publish cycle.
func WithCycleTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.cycleTimeout = d
		}
	}
}

func New(registry Registry, publisher Publisher, interval time.Duration, log zerolog.Logger, opts ...Option) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := logging.CronLogger{Log: log}

	s := &Scheduler{
		registry:     registry,
		publisher:    publisher,
		interval:     interval,
		cycleTimeout: DefaultCycleTimeout,
		log:          log,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		entries: make(map[models.MonitorKey]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Cycles must end within the interval: a replaced monitor gets a new cron
	// entry, and SkipIfStillRunning only guards a single entry.
	if limit := s.interval - s.interval/10; s.interval > 0 && s.cycleTimeout > limit {
		s.log.Warn().Dur("cycle_timeout", s.cycleTimeout).Dur("interval", s.interval).
			Dur("using", limit).Msg("cycle timeout must be shorter than the interval")
		s.cycleTimeout = limit
	}

	bg := context.Background()
	s.base.Store(&bg)
	return s
}

// Start begins firing entries. ctx becomes the parent of every cycle context;
// cancelling it aborts in-flight cycles.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	s.base.Store(&ctx)
	s.cron.Start()
	s.log.Info().Dur("interval", s.interval).Int("monitors", len(s.entries)).Msg("scheduler started")
}

// Stop halts future ticks and cancels running cycles. The returned context is
// done once they have returned.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
	return done
}

// Bootstrap adds an entry for every registered monitor that does not have one
// yet and returns how many were added.
func (s *Scheduler) Bootstrap(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, st := range s.registry.List() {
		if _, ok := s.entries[st.Key]; ok {
			continue
		}
		s.scheduleLocked(st.Key)
		added++
	}
	s.log.Info().Int("added", added).Int("active", len(s.entries)).Msg("monitors restored")
	return added
}

// StartMonitor registers spec for key and schedules it, replacing any monitor
// already running for the key. A persistence error is returned alongside the
// new state; the monitor is scheduled either way.
func (s *Scheduler) StartMonitor(ctx context.Context, key models.MonitorKey, spec models.MonitorSpec) (models.MonitorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelLocked(key) {
		s.log.Info().Str("monitor", key.String()).Msg("replacing existing monitor")
	}

	st, err := s.registry.Add(ctx, key, spec)
	s.scheduleLocked(key)
	s.log.Info().Str("monitor", key.String()).Str("type", spec.ServerType).
		Str("host", spec.Host).Int("port", spec.Port).Msg("monitor started")
	return st, err
}

// StopMonitor cancels and unregisters the monitor for key. It reports whether
// a monitor was active.
func (s *Scheduler) StopMonitor(ctx context.Context, key models.MonitorKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scheduled := s.cancelLocked(key)
	_, registered, err := s.registry.Remove(ctx, key)
	if scheduled || registered {
		s.log.Info().Str("monitor", key.String()).Msg("monitor stopped")
	}
	return scheduled || registered, err
}

// StopGuild stops every monitor of guildID and returns how many were stopped.
func (s *Scheduler) StopGuild(ctx context.Context, guildID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopped := make(map[models.MonitorKey]struct{})
	for key := range s.entries {
		if key.GuildID == guildID {
			s.cancelLocked(key)
			stopped[key] = struct{}{}
		}
	}

	removed, err := s.registry.RemoveGuild(ctx, guildID)
	if err != nil {
		s.log.Error().Err(err).Str("guild_id", guildID).Msg("removing guild monitors failed")
	}
	for _, st := range removed {
		stopped[st.Key] = struct{}{}
	}

	if len(stopped) > 0 {
		s.log.Info().Str("guild_id", guildID).Int("monitors", len(stopped)).Msg("guild monitors stopped")
	}
	return len(stopped)
}

// Active returns the keys with a live entry, sorted.
func (s *Scheduler) Active() []models.MonitorKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]models.MonitorKey, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	models.SortKeys(keys)
	return keys
}

func (s *Scheduler) scheduleLocked(key models.MonitorKey) {
	id := s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(func() { s.tick(key) }))
	s.entries[key] = id
}

func (s *Scheduler) cancelLocked(key models.MonitorKey) bool {
	id, ok := s.entries[key]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.entries, key)
	return true
}

func (s *Scheduler) tick(key models.MonitorKey) {
	ctx, cancel := context.WithTimeout(*s.base.Load(), s.cycleTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("monitor", key.String()).Msg("publish cycle failed")
	}
}

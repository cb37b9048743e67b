// Package registry holds the authoritative set of active monitors and writes
// every change through to the state store.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gamestatus/gamestatus-bot/internal/database"
	"github.com/gamestatus/gamestatus-bot/internal/models"
	"github.com/rs/zerolog"
)

// ErrPersistence wraps a failed save. The in-memory change it accompanies has
// still been applied.
var ErrPersistence = errors.New("persist monitors")

type Registry struct {
	store database.Store
	log   zerolog.Logger

	mu       sync.Mutex
	monitors map[models.MonitorKey]models.MonitorState
}

// Load builds a registry from the document currently in store.
func Load(ctx context.Context, store database.Store, log zerolog.Logger) *Registry {
	r := &Registry{
		store:    store,
		log:      log.With().Str("component", "registry").Logger(),
		monitors: make(map[models.MonitorKey]models.MonitorState),
	}
	for _, st := range store.Load(ctx).States() {
		r.monitors[st.Key] = st
	}
	r.log.Info().Int("monitors", len(r.monitors)).Msg("registry loaded")
	return r
}

// Add inserts or replaces the monitor for key. A replaced monitor keeps its
// LastMessageID so the next cycle still removes the card it left behind.
func (r *Registry) Add(ctx context.Context, key models.MonitorKey, spec models.MonitorSpec) (models.MonitorState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := models.MonitorState{Key: key, Spec: spec}
	if prev, ok := r.monitors[key]; ok {
		st.LastMessageID = prev.LastMessageID
	}
	r.monitors[key] = st

	return st, r.saveLocked(ctx)
}

// Remove deletes the monitor for key. Removing an absent key is not an error.
func (r *Registry) Remove(ctx context.Context, key models.MonitorKey) (models.MonitorState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.monitors[key]
	if !ok {
		return models.MonitorState{}, false, nil
	}
	delete(r.monitors, key)

	return st, true, r.saveLocked(ctx)
}

// RemoveGuild deletes every monitor in guildID and returns what was removed.
func (r *Registry) RemoveGuild(ctx context.Context, guildID string) ([]models.MonitorState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []models.MonitorState
	for key, st := range r.monitors {
		if key.GuildID == guildID {
			removed = append(removed, st)
			delete(r.monitors, key)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	models.SortStates(removed)

	return removed, r.saveLocked(ctx)
}

func (r *Registry) Get(key models.MonitorKey) (models.MonitorState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.monitors[key]
	return st, ok
}

// List returns a snapshot of all monitors sorted by guild then channel.
func (r *Registry) List() []models.MonitorState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked()
}

// ListGuild returns a snapshot of the monitors in guildID.
func (r *Registry) ListGuild(guildID string) []models.MonitorState {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.MonitorState
	for key, st := range r.monitors {
		if key.GuildID == guildID {
			out = append(out, st)
		}
	}
	models.SortStates(out)
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.monitors)
}

// RecordLastMessage stores the id of the card the publisher just sent. It is
// a no-op when the monitor was stopped while the cycle was running.
func (r *Registry) RecordLastMessage(ctx context.Context, key models.MonitorKey, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.monitors[key]
	if !ok {
		r.log.Info().Str("monitor", key.String()).Str("message_id", messageID).
			Msg("monitor no longer registered, not recording last message")
		return nil
	}
	st.LastMessageID = messageID
	r.monitors[key] = st

	return r.saveLocked(ctx)
}

func (r *Registry) snapshotLocked() []models.MonitorState {
	out := make([]models.MonitorState, 0, len(r.monitors))
	for _, st := range r.monitors {
		out = append(out, st)
	}
	models.SortStates(out)
	return out
}

func (r *Registry) saveLocked(ctx context.Context) error {
	doc := models.DocumentFromStates(r.snapshotLocked())
	if err := r.store.Save(ctx, doc); err != nil {
		r.log.Error().Err(err).Msg("saving monitors failed, keeping in-memory state")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// Package publisher runs one status cycle for a monitor: it replaces the
// channel's status card with a fresh report of the game server.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gamestatus/gamestatus-bot/internal/embed"
	"github.com/gamestatus/gamestatus-bot/internal/gamequery"
	"github.com/gamestatus/gamestatus-bot/internal/health"
	"github.com/gamestatus/gamestatus-bot/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrCollaborator marks a cycle aborted by the chat platform.
var ErrCollaborator = errors.New("chat collaborator failed")

type Chat interface {
	ResolveChannel(ctx context.Context, channelID string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	SendEmbed(ctx context.Context, channelID string, e *discordgo.MessageEmbed) (string, error)
}

type Querier interface {
	Query(ctx context.Context, serverType, host string, port int) (*gamequery.ServerState, error)
}

type Registry interface {
	Get(key models.MonitorKey) (models.MonitorState, bool)
	RecordLastMessage(ctx context.Context, key models.MonitorKey, messageID string) error
}

// Report is a rendered query outcome.
type Report struct {
	Outcome health.Outcome
	Embed   *discordgo.MessageEmbed
	Err     error
}

type Publisher struct {
	registry    Registry
	chat        Chat
	querier     Querier
	health      *health.Aggregator
	extractors  map[string]Extractor
	displayHost string
	now         func() time.Time
	log         zerolog.Logger
}

type Option func(*Publisher)

// WithDisplayHost shows host on success cards whose connect address is private
// or a placeholder.
func WithDisplayHost(host string) Option {
	return func(p *Publisher) { p.displayHost = strings.TrimSpace(host) }
}

func WithAggregator(a *health.Aggregator) Option {
	return func(p *Publisher) { p.health = a }
}

// WithExtractor registers e for serverType, replacing any existing one.
func WithExtractor(serverType string, e Extractor) Option {
	return func(p *Publisher) { p.extractors[strings.ToLower(serverType)] = e }
}

func WithNow(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

func New(registry Registry, chat Chat, querier Querier, log zerolog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		registry:   registry,
		chat:       chat,
		querier:    querier,
		extractors: defaultExtractors(),
		now:        time.Now,
		log:        log.With().Str("component", "publisher").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish runs one cycle for key. The monitor is read fresh from the registry
// so a replaced spec is picked up on the next tick.
func (p *Publisher) Publish(ctx context.Context, key models.MonitorKey) error {
	log := p.log.With().Str("cycle_id", uuid.NewString()).Str("monitor", key.String()).Logger()

	st, ok := p.registry.Get(key)
	if !ok {
		log.Debug().Msg("monitor no longer registered, skipping cycle")
		return nil
	}

	if err := p.chat.ResolveChannel(ctx, key.ChannelID); err != nil {
		log.Warn().Err(err).Msg("channel not found, skipping cycle")
		p.record(health.OutcomeAborted)
		return fmt.Errorf("%w: resolve channel %s: %w", ErrCollaborator, key.ChannelID, err)
	}

	if st.LastMessageID != "" {
		if err := p.chat.DeleteMessage(ctx, key.ChannelID, st.LastMessageID); err != nil {
			log.Info().Err(err).Str("message_id", st.LastMessageID).Msg("could not delete previous status card")
		}
	}

	report := p.Query(ctx, st.Spec)

	messageID, err := p.chat.SendEmbed(ctx, key.ChannelID, report.Embed)
	if err != nil {
		log.Warn().Err(err).Msg("sending status card failed")
		p.record(health.OutcomeAborted)
		return fmt.Errorf("%w: send to %s: %w", ErrCollaborator, key.ChannelID, err)
	}
	p.record(report.Outcome)

	if err := p.registry.RecordLastMessage(ctx, key, messageID); err != nil {
		return err
	}

	log.Info().Str("outcome", report.Outcome.String()).Str("message_id", messageID).Msg("status card updated")
	return nil
}

// Query queries the server described by spec and renders the result.
func (p *Publisher) Query(ctx context.Context, spec models.MonitorSpec) Report {
	st, err := p.querier.Query(ctx, spec.ServerType, spec.Host, spec.Port)
	if err != nil {
		if errors.Is(err, gamequery.ErrInvalidTarget) {
			reason := err.Error()
			var target *gamequery.InvalidTargetError
			if errors.As(err, &target) {
				reason = target.Reason
			}
			return Report{Outcome: health.OutcomeInvalidTarget, Embed: embed.CreateInvalidTargetEmbed(reason), Err: err}
		}
		p.log.Debug().Err(err).Str("type", spec.ServerType).Str("host", spec.Host).Int("port", spec.Port).Msg("game server query failed")
		return Report{Outcome: health.OutcomeUnreachable, Embed: embed.CreateOfflineEmbed(p.now()), Err: err}
	}

	ex := p.extractorFor(spec.ServerType, st)
	return Report{
		Outcome: health.OutcomeSuccess,
		Embed: embed.CreateServerEmbed(embed.ServerReport{
			Name:       st.Name,
			Game:       gameLabel(st),
			Address:    p.displayAddress(st.Connect),
			Ping:       st.Ping,
			Locked:     ex.LockStatus(st),
			Players:    ex.PlayerCount(st),
			MaxPlayers: st.MaxPlayers,
			UpdatedAt:  p.now(),
		}),
	}
}

func (p *Publisher) extractorFor(serverType string, st *gamequery.ServerState) Extractor {
	if st.Game.ID != "" {
		if ex, ok := p.extractors[st.Game.ID]; ok {
			return ex
		}
	}
	if ex, ok := p.extractors[strings.ToLower(strings.TrimSpace(serverType))]; ok {
		return ex
	}
	return defaultExtractor{}
}

// displayAddress swaps in the display host when the connect host is one a
// player outside the server's network cannot use.
func (p *Publisher) displayAddress(connect string) string {
	if p.displayHost == "" {
		return connect
	}
	host, port, err := net.SplitHostPort(connect)
	if err != nil || !unroutableHost(host) {
		return connect
	}
	return net.JoinHostPort(p.displayHost, port)
}

// unroutableHost reports a private, loopback or unspecified IP, or the dashed
// placeholder form some servers report (192-168-1-10).
func unroutableHost(host string) bool {
	if strings.Count(host, "-") == 3 && net.ParseIP(strings.ReplaceAll(host, "-", ".")).To4() != nil {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast()
}

func (p *Publisher) record(o health.Outcome) {
	if p.health != nil {
		p.health.RecordCycle(o)
	}
}

func gameLabel(st *gamequery.ServerState) string {
	if st.Raw.Folder != "" {
		return st.Raw.Folder
	}
	return st.Game.Name
}

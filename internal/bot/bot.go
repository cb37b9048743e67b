package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gamestatus/gamestatus-bot/internal/config"
	"github.com/gamestatus/gamestatus-bot/internal/models"
	"github.com/gamestatus/gamestatus-bot/internal/publisher"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

type Scheduler interface {
	Start(ctx context.Context)
	Stop() context.Context
	Bootstrap(ctx context.Context) int
	StartMonitor(ctx context.Context, key models.MonitorKey, spec models.MonitorSpec) (models.MonitorState, error)
	StopMonitor(ctx context.Context, key models.MonitorKey) (bool, error)
	StopGuild(ctx context.Context, guildID string) int
}

// Reporter runs a one-off query for /serverinfo.
type Reporter interface {
	Query(ctx context.Context, spec models.MonitorSpec) publisher.Report
}

type Monitors interface {
	ListGuild(guildID string) []models.MonitorState
	Len() int
}

type Bot struct {
	Session   *discordgo.Session
	Scheduler Scheduler
	Reporter  Reporter
	Monitors  Monitors

	log    zerolog.Logger
	cancel context.CancelFunc
}

// NewSession builds an unopened session. The chat adapter needs it before the
// bot itself can be built.
func NewSession() (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return s, nil
}

func New(session *discordgo.Session, sched Scheduler, reporter Reporter, monitors Monitors, log zerolog.Logger) *Bot {
	b := &Bot{
		Session:   session,
		Scheduler: sched,
		Reporter:  reporter,
		Monitors:  monitors,
		log:       log.With().Str("component", "bot").Logger(),
	}

	b.registerHandlers()

	return b
}

// Start connects to the gateway, then restores persisted monitors. Channels
// are only resolvable once the session is open.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	ctx, b.cancel = context.WithCancel(ctx)

	b.Scheduler.Bootstrap(ctx)
	b.Scheduler.Start(ctx)

	go b.updateStatusPeriodically(ctx)

	return nil
}

func (b *Bot) Stop() {
	select {
	case <-b.Scheduler.Stop().Done():
	case <-time.After(shutdownTimeout):
		b.log.Warn().Dur("timeout", shutdownTimeout).Msg("publish cycles still running at shutdown")
	}
	if b.cancel != nil {
		b.cancel()
	}
	if err := b.Session.Close(); err != nil {
		b.log.Error().Err(err).Msg("closing discord session failed")
	}
}

func (b *Bot) registerHandlers() {
	b.Session.AddHandler(b.ready)
	b.Session.AddHandler(b.interactionCreate)
	b.Session.AddHandler(b.guildCreate)
	b.Session.AddHandler(b.guildDelete)
}

func (b *Bot) guildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	b.log.Info().Str("guild_id", event.ID).Str("guild", event.Name).Msg("joined guild")
	b.updateBotStatus()
}

func (b *Bot) guildDelete(s *discordgo.Session, event *discordgo.GuildDelete) {
	if event.Unavailable {
		b.log.Warn().Str("guild_id", event.ID).Msg("guild became unavailable")
		return
	}

	n := b.Scheduler.StopGuild(context.Background(), event.ID)
	b.log.Info().Str("guild_id", event.ID).Int("monitors", n).Msg("removed from guild, monitors cleaned up")

	b.updateBotStatus()
}

func (b *Bot) updateStatusPeriodically(ctx context.Context) {
	every := time.Duration(config.StatusUpdateIntervalMinutes) * time.Minute
	if every <= 0 {
		every = 15 * time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.updateBotStatus()
		}
	}
}

func (b *Bot) updateBotStatus() {
	err := b.Session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: presenceText(b.Monitors.Len()),
				Type: discordgo.ActivityTypeWatching,
			},
		},
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("updating presence failed")
	}
}

func presenceText(n int) string {
	if n == 1 {
		return "1 game server"
	}
	return fmt.Sprintf("%d game servers", n)
}

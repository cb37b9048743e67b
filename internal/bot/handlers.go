package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gamestatus/gamestatus-bot/internal/config"
	"github.com/gamestatus/gamestatus-bot/internal/models"
	"github.com/gamestatus/gamestatus-bot/internal/registry"
)

const queryReplyTimeout = 15 * time.Second

func (b *Bot) ready(s *discordgo.Session, event *discordgo.Ready) {
	b.log.Info().Str("user", event.User.Username).Int("guilds", len(event.Guilds)).Msg("bot is ready")
	b.registerCommands()
	b.updateBotStatus()
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func isBotOwner(i *discordgo.InteractionCreate, ownerID string) bool {
	if ownerID == "" {
		return false // Can't be the owner if the ID isn't configured
	}
	u := interactionUser(i)
	return u != nil && u.ID == ownerID
}

// hasManagePermissions reports whether the member may change the monitors of
// the guild the interaction came from.
func hasManagePermissions(state *discordgo.State, i *discordgo.InteractionCreate) bool {
	if i.GuildID == "" || i.Member == nil {
		return false
	}

	if i.Member.Permissions&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator {
		return true
	}

	if i.Member.Permissions&discordgo.PermissionManageGuild == discordgo.PermissionManageGuild {
		return true
	}

	if state != nil && i.Member.User != nil {
		guild, err := state.Guild(i.GuildID)
		if err == nil && guild.OwnerID == i.Member.User.ID {
			return true
		}
	}

	return false
}

func (b *Bot) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	switch name {
	case "monitorserver", "stopmonitor", "monitors":
		if i.GuildID == "" {
			b.respondToInteraction(s, i, "This command can only be used in a server.", true)
			return
		}
	}

	switch name {
	case "monitorserver", "stopmonitor":
		if !isBotOwner(i, config.BotOwnerID) && !hasManagePermissions(s.State, i) {
			username := "unknown"
			if u := interactionUser(i); u != nil {
				username = u.Username
			}
			b.log.Info().Str("user", username).Str("command", name).Str("guild_id", i.GuildID).Msg("permission denied")
			b.respondToInteraction(s, i, "You do not have permission to use this command.", true)
			return
		}
	}

	switch name {
	case "serverinfo":
		b.handleServerInfoCommand(s, i)
	case "monitorserver":
		b.handleMonitorServerCommand(s, i)
	case "stopmonitor":
		b.handleStopMonitorCommand(s, i)
	case "monitors":
		b.handleMonitorsCommand(s, i)
	}
}

// targetFromOptions reads the type, host and port options shared by
// /serverinfo and /monitorserver.
func targetFromOptions(options []*discordgo.ApplicationCommandInteractionDataOption) (models.MonitorSpec, error) {
	var spec models.MonitorSpec
	seen := 0
	for _, opt := range options {
		switch opt.Name {
		case "type":
			spec.ServerType = strings.TrimSpace(opt.StringValue())
			seen++
		case "host":
			spec.Host = strings.TrimSpace(opt.StringValue())
			seen++
		case "port":
			spec.Port = int(opt.IntValue())
			seen++
		}
	}
	if seen < 3 {
		return spec, errors.New("type, host and port are required")
	}
	return spec, nil
}

func (b *Bot) handleServerInfoCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	spec, err := targetFromOptions(i.ApplicationCommandData().Options)
	if err != nil {
		b.respondToInteraction(s, i, "Error: "+err.Error(), true)
		return
	}

	// The query can outlast the three second window for the first response.
	// The report is only shown to the caller.
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.log.Error().Err(err).Msg("deferring interaction failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryReplyTimeout)
	defer cancel()

	report := b.Reporter.Query(ctx, spec)
	b.log.Debug().Str("type", spec.ServerType).Str("host", spec.Host).Int("port", spec.Port).
		Str("outcome", report.Outcome.String()).Msg("serverinfo query done")

	b.editInteractionEmbed(s, i, report.Embed)
}

func (b *Bot) handleMonitorServerCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	spec, err := targetFromOptions(i.ApplicationCommandData().Options)
	if err != nil {
		b.respondToInteraction(s, i, "Error: "+err.Error(), true)
		return
	}

	key := models.MonitorKey{GuildID: i.GuildID, ChannelID: i.ChannelID}
	_, err = b.Scheduler.StartMonitor(context.Background(), key, spec)

	message := fmt.Sprintf("Now monitoring server: %s %s:%d", spec.ServerType, spec.Host, spec.Port)
	if errors.Is(err, registry.ErrPersistence) {
		message += "\nWarning: the monitor could not be saved and will not survive a restart."
	} else if err != nil {
		b.log.Error().Err(err).Str("monitor", key.String()).Msg("starting monitor failed")
	}

	b.respondToInteraction(s, i, message, true)
	b.updateBotStatus()
}

func (b *Bot) handleStopMonitorCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	key := models.MonitorKey{GuildID: i.GuildID, ChannelID: i.ChannelID}
	stopped, err := b.Scheduler.StopMonitor(context.Background(), key)
	if err != nil {
		b.log.Error().Err(err).Str("monitor", key.String()).Msg("stopping monitor failed")
	}

	if !stopped {
		b.respondToInteraction(s, i, "No server is being monitored in this channel.", true)
		return
	}
	b.respondToInteraction(s, i, "Stopped monitoring the server.", true)
	b.updateBotStatus()
}

func (b *Bot) handleMonitorsCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.respondToInteraction(s, i, formatMonitorList(b.Monitors.ListGuild(i.GuildID)), true)
}

func formatMonitorList(states []models.MonitorState) string {
	if len(states) == 0 {
		return "No game servers are being monitored in this server."
	}

	var sb strings.Builder
	sb.WriteString("**Monitored game servers:**\n")
	for _, st := range states {
		sb.WriteString(fmt.Sprintf("- <#%s>: `%s` %s:%d\n", st.Key.ChannelID, st.Spec.ServerType, st.Spec.Host, st.Spec.Port))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (b *Bot) respondToInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		b.log.Error().Err(err).Msg("responding to interaction failed")
	}
}

func (b *Bot) editInteractionEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{e},
	})
	if err != nil {
		b.log.Error().Err(err).Msg("editing interaction response failed")
	}
}

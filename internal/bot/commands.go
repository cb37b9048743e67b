package bot

import (
	"github.com/bwmarrin/discordgo"
)

func targetOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "type",
			Description: "The type of game server",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "host",
			Description: "The host address of the game server",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "port",
			Description: "The query port of the game server",
			Required:    true,
		},
	}
}

func commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "serverinfo",
			Description: "Replies with server info!",
			Options:     targetOptions(),
		},
		{
			Name:        "monitorserver",
			Description: "Monitors server status and posts updates in this channel",
			Options:     targetOptions(),
		},
		{
			Name:        "stopmonitor",
			Description: "Stops monitoring the server in the current channel.",
		},
		{
			Name:        "monitors",
			Description: "List the game servers monitored in this server",
		},
	}
}

func (b *Bot) registerCommands() {
	_, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, "", commands())
	if err != nil {
		b.log.Error().Err(err).Msg("registering commands failed")
		return
	}
	b.log.Info().Int("commands", len(commands())).Msg("commands registered")
}

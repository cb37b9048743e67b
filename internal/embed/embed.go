// Package embed renders status reports as Discord embeds.
package embed

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	ColorOnline = 0x00FF00
	ColorError  = 0xFF0000

	GamesListURL = "https://github.com/gamedig/node-gamedig/blob/HEAD/GAMES_LIST.md"

	OfflineTitle = "Game server appears to be offline."
	OnlineStatus = ":green_circle: Online"

	footerText = "gamestatus"
)

// ServerReport is the data shown on a success card.
type ServerReport struct {
	Name       string
	Game       string
	Address    string
	Ping       time.Duration
	Locked     bool
	Players    int
	MaxPlayers int
	UpdatedAt  time.Time
}

func CreateServerEmbed(r ServerReport) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Server Information",
		Color: ColorOnline,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Server Name:", Value: fmt.Sprintf("*%s*", orDash(r.Name))},
			{Name: "Status:", Value: OnlineStatus},
			{Name: "Game:", Value: strings.ToUpper(orDash(r.Game))},
			{Name: "Address:", Value: fmt.Sprintf("`%s`", r.Address)},
			{Name: "Ping:", Value: fmt.Sprintf("%d ms", r.Ping.Milliseconds())},
			{Name: "Password Protected:", Value: fmt.Sprintf("%t", r.Locked)},
			{Name: "Players:", Value: fmt.Sprintf("%d/%d", r.Players, r.MaxPlayers)},
			{Name: "Last Updated:", Value: fmt.Sprintf("<t:%d:R>", r.UpdatedAt.Unix())},
		},
		Timestamp: r.UpdatedAt.UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
	}
}

// CreateInvalidTargetEmbed reports a monitor the query client cannot serve.
// The title is the error text.
func CreateInvalidTargetEmbed(reason string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       reason,
		Description: "For more information about the supported games, go to: " + GamesListURL,
		Color:       ColorError,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
}

func CreateOfflineEmbed(updatedAt time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     OfflineTitle,
		Color:     ColorError,
		Timestamp: updatedAt.UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: footerText},
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Chat sends status cards over a Discord session. Every REST call waits on a
// shared limiter so a burst of monitors firing together stays under the
// global rate limit.
type Chat struct {
	session *discordgo.Session
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewChat(session *discordgo.Session, perSecond int, log zerolog.Logger) *Chat {
	if perSecond <= 0 {
		perSecond = 5
	}
	return &Chat{
		session: session,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		log:     log.With().Str("component", "chat").Logger(),
	}
}

// ResolveChannel checks that channelID still exists and is visible to the bot.
func (c *Chat) ResolveChannel(ctx context.Context, channelID string) error {
	if c.session.State != nil {
		if ch, err := c.session.State.Channel(channelID); err == nil && ch != nil {
			return nil
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	return err
}

func (c *Chat) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

// SendEmbed posts e to channelID and returns the new message id.
func (c *Chat) SendEmbed(ctx context.Context, channelID string, e *discordgo.MessageEmbed) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	msg, err := c.session.ChannelMessageSendEmbed(channelID, e, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	c.log.Debug().Str("channel_id", channelID).Str("message_id", msg.ID).Msg("status card sent")
	return msg.ID, nil
}

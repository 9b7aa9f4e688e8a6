package notifier

import (
	"context"
	"fmt"
	"gamewarden/internal/structures"

	"github.com/bwmarrin/discordgo"
)

// Messenger posts and retracts chat messages.
type Messenger interface {
	Post(ctx context.Context, channelID, text string) (string, error)
	Delete(ctx context.Context, channelID, messageID string) error
}

type DiscordMessenger struct {
	session *discordgo.Session
	silent  bool
}

// NewDiscordMessenger uses the REST API only; no gateway connection is opened.
func NewDiscordMessenger(conf *structures.Config) (Messenger, error) {
	s, err := discordgo.New("Bot " + conf.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	if conf.Discord.UserAgent != "" {
		s.UserAgent = conf.Discord.UserAgent
	}
	return &DiscordMessenger{session: s, silent: conf.Discord.SilentMessages}, nil
}

func (d *DiscordMessenger) Post(ctx context.Context, channelID, text string) (string, error) {
	msg := &discordgo.MessageSend{Content: text}
	if d.silent {
		msg.Flags = discordgo.MessageFlagsSuppressNotifications
	}
	m, err := d.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (d *DiscordMessenger) Delete(ctx context.Context, channelID, messageID string) error {
	return d.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

package events

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

// RegisterMessageEvents routes guild messages through the command-only
// filter and the leveling engine
func RegisterMessageEvents(client *discord.ExtendedClient, svc *bot.Services) {
	client.EventHandler.OnMessageCreate(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || m.GuildID == "" {
			return
		}

		name, _ := guildInfo(client, m.GuildID)
		actions := svc.Messages.Handle(messageEvent(m, name, time.Now()))
		svc.Dispatcher.Dispatch(actions)

		if !deleted(actions) && s.State.User != nil && mentionsUser(m.Message, s.State.User.ID) {
			if _, err := s.ChannelMessageSendEmbed(m.ChannelID, mentionEmbed()); err != nil {
				logger.Debug(fmt.Sprintf("Error replying to mention: %v", err), "Message")
			}
		}
	})
}

func messageEvent(m *discordgo.MessageCreate, guildName string, now time.Time) engine.MessageEvent {
	at := m.Timestamp
	if at.IsZero() {
		at = now
	}
	return engine.MessageEvent{
		GuildID:   m.GuildID,
		GuildName: guildName,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
		Bot:       m.Author.Bot,
		Content:   m.Content,
		Time:      at,
	}
}

func deleted(actions []engine.Action) bool {
	for _, a := range actions {
		if a.Kind == engine.ActionDeleteMessage {
			return true
		}
	}
	return false
}

func mentionsUser(m *discordgo.Message, userID string) bool {
	for _, u := range m.Mentions {
		if u.ID == userID {
			return true
		}
	}
	return false
}

func mentionEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "👋 Hi!",
		Description: "I work with **slash (/)** commands.\nUse `/utils help` to see all of them.",
		Color:       0x3498db,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "✅ Verification", Value: "`/verify me`", Inline: true},
			{Name: "📈 Levels", Value: "`/utils level`", Inline: true},
		},
	}
}

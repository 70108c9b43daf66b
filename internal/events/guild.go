package events

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

// RegisterGuildEvents registers the join and leave handlers
func RegisterGuildEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildCreate(onGuildCreate)
	client.EventHandler.OnGuildDelete(onGuildDelete)
}

// onGuildCreate greets a server the bot was just added to. GuildCreate also
// fires for every server on startup, so older joins are ignored.
func onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.JoinedAt.Before(time.Now().Add(-10 * time.Second)) {
		return
	}

	logger.Info(fmt.Sprintf("➕ Added to server: %s (ID: %s, %d members)", g.Name, g.ID, g.MemberCount), "Guild")

	if g.SystemChannelID == "" {
		return
	}
	if _, err := s.ChannelMessageSendEmbed(g.SystemChannelID, joinEmbed()); err != nil {
		logger.Error(fmt.Sprintf("Error sending join message: %v", err), "Guild")
	}
}

func joinEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Thanks for adding me! 🎉",
		Description: "Use `/utils help` to see every command.",
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "✅ Verification", Value: "`/verify setkeyword` then `/verify me`", Inline: true},
			{Name: "⚙️ Setup", Value: "`/config` for welcome, leveling and warnings", Inline: true},
			{Name: "🔧 Moderation", Value: "`/mod` for warnings, kicks and bans", Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// onGuildDelete is called when the bot is removed from a server
func onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		logger.Warn(fmt.Sprintf("Server %s is unavailable", g.ID), "Guild")
		return
	}
	logger.Info(fmt.Sprintf("➖ Removed from server ID: %s", g.ID), "Guild")
}

package events

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

// RegisterMemberEvents sends the configured welcome and goodbye messages
func RegisterMemberEvents(client *discord.ExtendedClient, svc *bot.Services) {
	client.EventHandler.OnGuildMemberAdd(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.Member == nil || m.User == nil || m.User.Bot {
			return
		}
		logger.Debug(fmt.Sprintf("👋 %s joined %s", m.User.Username, m.GuildID), "Member")

		name, icon := guildInfo(client, m.GuildID)
		svc.Dispatcher.Dispatch(svc.Greeter.OnJoin(memberEvent(m.GuildID, name, icon, m.User)))
	})

	client.EventHandler.OnGuildMemberRemove(func(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
		if m.Member == nil || m.User == nil || m.User.Bot {
			return
		}
		logger.Debug(fmt.Sprintf("👋 %s left %s", m.User.Username, m.GuildID), "Member")

		name, icon := guildInfo(client, m.GuildID)
		svc.Dispatcher.Dispatch(svc.Greeter.OnLeave(memberEvent(m.GuildID, name, icon, m.User)))
	})
}

func memberEvent(guildID, guildName, guildIcon string, u *discordgo.User) engine.MemberEvent {
	return engine.MemberEvent{
		GuildID:      guildID,
		GuildName:    guildName,
		GuildIconURL: guildIcon,
		UserID:       u.ID,
		Username:     u.Username,
		AvatarURL:    u.AvatarURL("256"),
	}
}

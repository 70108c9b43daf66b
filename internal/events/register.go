// Package events connects Discord gateway events to the engines
package events

import (
	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, svc *bot.Services) {
	logger.System("📋 Registering bot events...", "Events")

	RegisterReadyEvent(client, svc)
	RegisterShardEvents(client)
	RegisterGuildEvents(client)
	RegisterMemberEvents(client, svc)
	RegisterMessageEvents(client, svc)

	logger.Success("✅ All events registered", "Events")
}

// guildInfo returns the cached guild, falling back to REST
func guildInfo(client *discord.ExtendedClient, guildID string) (name, icon string) {
	g, err := client.Session.State.Guild(guildID)
	if err != nil {
		g, err = client.Session.Guild(guildID)
		if err != nil {
			return "", ""
		}
	}
	return g.Name, g.IconURL("256")
}

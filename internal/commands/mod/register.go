// Package mod provides moderation commands organized as subcommands under /mod
package mod

import (
	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// RegisterModCommands registers all moderation commands as /mod subcommands
func RegisterModCommands(client *discord.ExtendedClient, svc *bot.Services) {
	modGroup := client.CommandHandler.BuildCommandGroup(
		"mod",
		"Moderation commands",
		createWarnCommand(svc),
		createWarningsCommand(svc),
		createKickCommand(svc),
		createBanCommand(svc),
	)

	client.CommandHandler.AddGlobalCommand(modGroup)
}

// Package utils provides the general purpose commands under /utils
package utils

import (
	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// RegisterUtilsCommands registers /utils ping, status, stats, help and level
func RegisterUtilsCommands(client *discord.ExtendedClient, svc *bot.Services) {
	group := client.CommandHandler.BuildCommandGroup(
		"utils",
		"Utility commands",
		createPingCommand(),
		createStatusCommand(svc),
		createStatsCommand(svc),
		createHelpCommand(),
		createLevelCommand(svc),
	)

	client.CommandHandler.AddGlobalCommand(group)
}

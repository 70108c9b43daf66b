// Package verify provides the Roblox verification commands under /verify
package verify

import (
	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// RegisterVerifyCommands registers /verify me, admin, setkeyword and status
func RegisterVerifyCommands(client *discord.ExtendedClient, svc *bot.Services) {
	group := client.CommandHandler.BuildCommandGroup(
		"verify",
		"Roblox verification",
		createMeCommand(svc),
		createAdminCommand(svc),
		createSetKeywordCommand(svc),
		createStatusCommand(svc),
	)

	client.CommandHandler.AddGlobalCommand(group)
}

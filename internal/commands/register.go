// Package commands wires every slash command group into the Discord client.
// Each category lives in its own subpackage.
package commands

import (
	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/commands/dev"
	"github.com/PancyStudios/XLZRBotGo/internal/commands/mod"
	"github.com/PancyStudios/XLZRBotGo/internal/commands/settings"
	"github.com/PancyStudios/XLZRBotGo/internal/commands/utils"
	"github.com/PancyStudios/XLZRBotGo/internal/commands/verify"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, svc *bot.Services) {
	utils.RegisterUtilsCommands(client, svc)
	mod.RegisterModCommands(client, svc)
	verify.RegisterVerifyCommands(client, svc)
	settings.RegisterSettingsCommands(client, svc)
	dev.Register(client, svc)
}

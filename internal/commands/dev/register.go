// Package dev provides maintenance commands synced only to the dev guild
package dev

import (
	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// Register registers /dev sweep and /dev flush in the dev guild
func Register(client *discord.ExtendedClient, svc *bot.Services) {
	group := client.CommandHandler.BuildCommandGroup(
		"dev",
		"Maintenance commands",
		createSweepCommand(svc).WithUserPermissions(discordgo.PermissionAdministrator),
		createFlushCommand(svc).WithUserPermissions(discordgo.PermissionAdministrator),
	)

	client.CommandHandler.AddDevCommand(group)
}

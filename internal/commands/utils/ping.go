package utils

import (
	"fmt"

	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// createPingCommand creates the /utils ping subcommand
func createPingCommand() *discord.Command {
	return discord.NewCommand(
		"ping",
		"Check the bot latency",
		"utils",
		func(ctx *discord.CommandContext) error {
			latency := ctx.Session.HeartbeatLatency().Milliseconds()
			return ctx.Reply(fmt.Sprintf("🏓 Pong! Latency: %dms", latency))
		},
	)
}

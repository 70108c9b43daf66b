package utils

import (
	"strings"

	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

var helpLines = []string{
	"**Utilities**",
	"• `/utils ping` - Check the latency",
	"• `/utils status` - Bot, storage and sweep status",
	"• `/utils stats` - Runtime statistics",
	"• `/utils level [user]` - Show a level and XP",
	"**Verification**",
	"• `/verify me <username>` - Link your Roblox account",
	"• `/verify admin <user> <username>` - Verify another member",
	"• `/verify setkeyword <keyword> <role>` - Set the keyword role",
	"• `/verify status` - Show verification settings",
	"**Moderation**",
	"• `/mod warn <user> <reason>` - Warn a member",
	"• `/mod warnings <user>` - List a member's warnings",
	"• `/mod kick <user> [reason]` - Kick a member",
	"• `/mod ban <user> [reason]` - Ban a member",
	"**Configuration**",
	"• `/config welcome|goodbye` - Join and leave messages",
	"• `/config leveling` - Level-up announcements",
	"• `/config warnings` - Warning log and automatic kick/ban",
	"• `/config tutorial` - Message sent after verification",
	"• `/config commandonly <channel> <enabled>` - Command-only channels",
}

// createHelpCommand creates the /utils help subcommand
func createHelpCommand() *discord.Command {
	return discord.NewCommand(
		"help",
		"Show the available commands",
		"utils",
		func(ctx *discord.CommandContext) error {
			return ctx.ReplyEphemeral(helpText())
		},
	)
}

func helpText() string {
	return "📖 **XLZR Bot**\n\n" + strings.Join(helpLines, "\n")
}

package mod

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/pkg/announce"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

const warningsShown = 5

// createWarningsCommand creates the /mod warnings subcommand
func createWarningsCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"warnings",
		"List the warnings of a member",
		"mod",
		warningsHandler(svc),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member to look up",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers)
}

// warningsEmbed lists the most recent warnings, newest first
func warningsEmbed(username string, warns []models.Warn, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("🔖 Warnings of %s", username),
		Timestamp: now.Format(time.RFC3339),
	}

	if len(warns) == 0 {
		embed.Color = 0x00FF00
		embed.Description = "This member has no warnings in this server."
		return embed
	}

	embed.Color = announce.ColorWarning

	var b strings.Builder
	shown := 0
	for i := len(warns) - 1; i >= 0 && shown < warningsShown; i-- {
		w := warns[i]
		fmt.Fprintf(&b, "> **#%d** %s\n> Moderator: <@%s> · <t:%d:R>\n\n", w.ID, w.Reason, w.Moderator, w.Timestamp.Unix())
		shown++
	}
	fmt.Fprintf(&b, "💫 **Total warnings:** %d", len(warns))
	if len(warns) > shown {
		fmt.Fprintf(&b, " (showing the last %d)", shown)
	}
	embed.Description = b.String()
	return embed
}

func warningsHandler(svc *bot.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("❌ You must specify a user.")
		}

		warns := svc.Warnings.History(ctx.GuildID(), user.ID)
		return ctx.ReplyEphemeralEmbed(warningsEmbed(user.Username, warns, time.Now()))
	}
}

package mod

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// createKickCommand creates the /mod kick subcommand
func createKickCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"kick",
		"Kick a member from the server",
		"mod",
		kickHandler(svc),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member to kick",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the kick",
			Required:    false,
		},
	).WithUserPermissions(discordgo.PermissionKickMembers).
		WithBotPermissions(discordgo.PermissionKickMembers)
}

func kickHandler(svc *bot.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("❌ You must specify a user.")
		}
		reason := ctx.GetStringOption("reason")
		if reason == "" {
			reason = "No reason given"
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if msg := checkTarget(reqCtx, svc, ctx.GuildID(), ctx.User().ID, user.ID); msg != "" {
			return ctx.ReplyEphemeral(msg)
		}
		if err := svc.Host.Kick(reqCtx, ctx.GuildID(), user.ID, reason); err != nil {
			return ctx.ReplyEphemeral(actionFailed("kick", err))
		}

		return ctx.Reply(fmt.Sprintf("👢 **%s** has been kicked.\n**Reason:** %s", user.Username, reason))
	}
}

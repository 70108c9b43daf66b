package mod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// createBanCommand creates the /mod ban subcommand
func createBanCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"ban",
		"Ban a member from the server",
		"mod",
		banHandler(svc),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member to ban",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the ban",
			Required:    false,
		},
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers)
}

func banHandler(svc *bot.Services) discord.CommandRunFunc {
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
		if err := svc.Host.Ban(reqCtx, ctx.GuildID(), user.ID, reason); err != nil {
			return ctx.ReplyEphemeral(actionFailed("ban", err))
		}

		return ctx.Reply(fmt.Sprintf("🔨 **%s** has been banned.\n**Reason:** %s", user.Username, reason))
	}
}

// checkTarget applies the same rank rules as warnings. It returns the reply
// for a refused target, or "" when the action may proceed.
func checkTarget(ctx context.Context, svc *bot.Services, guildID, moderatorID, targetID string) string {
	if moderatorID == targetID {
		return "❌ You cannot use this on yourself."
	}
	target, err := svc.Host.Member(ctx, guildID, targetID)
	if err != nil {
		return rejection(err)
	}
	moderator, err := svc.Host.Member(ctx, guildID, moderatorID)
	if err != nil {
		return rejection(err)
	}
	if moderator.Rank <= target.Rank {
		return rejection(engine.ErrInsufficientRank)
	}
	return ""
}

func actionFailed(action string, err error) string {
	if errors.Is(err, engine.ErrAuthorityDenied) {
		return fmt.Sprintf("❌ I do not have permission to %s that member.", action)
	}
	return fmt.Sprintf("❌ Could not %s the member: %v", action, err)
}

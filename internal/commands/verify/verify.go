package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/announce"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	apperrors "github.com/PancyStudios/XLZRBotGo/pkg/errors"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
	"github.com/PancyStudios/XLZRBotGo/pkg/mqtt"
	"github.com/PancyStudios/XLZRBotGo/pkg/roblox"
)

func usernameOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "username",
		Description: "Roblox username",
		Required:    true,
		MinLength:   intPtr(3),
		MaxLength:   20,
	}
}

func intPtr(v int) *int { return &v }

// createMeCommand creates /verify me
func createMeCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"me",
		"Link your Roblox account",
		"verify",
		func(ctx *discord.CommandContext) error {
			return runVerify(ctx, svc, ctx.User().ID)
		},
	).WithOptions(usernameOption())
}

// createAdminCommand creates /verify admin
func createAdminCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"admin",
		"Link a Roblox account to a member",
		"verify",
		func(ctx *discord.CommandContext) error {
			user := ctx.GetUserOption("user")
			if user == nil {
				return ctx.ReplyEphemeral("❌ You must specify a member.")
			}
			return runVerify(ctx, svc, user.ID)
		},
	).WithOptions(
		usernameOption(),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member to verify",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionManageRoles)
}

func runVerify(ctx *discord.CommandContext, svc *bot.Services, userID string) error {
	username := ctx.GetStringOption("username")
	if username == "" {
		return ctx.ReplyEphemeral("❌ You must specify a Roblox username.")
	}

	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}

	go func() {
		defer apperrors.RecoverMiddleware()()

		reqCtx, cancel := context.WithTimeout(context.Background(), 2*svc.Config.LookupTimeout)
		defer cancel()

		guildID := ctx.GuildID()
		out, err := svc.Verification.Verify(reqCtx, engine.VerifyRequest{
			GuildID:     guildID,
			UserID:      userID,
			RequesterID: ctx.User().ID,
			Username:    username,
			Time:        time.Now(),
		})
		if err != nil {
			if !errors.Is(err, roblox.ErrProfileNotFound) {
				logger.Warn(fmt.Sprintf("Verification of %s in %s failed: %v", userID, guildID, err), "CMD-Verify")
			}
			_ = ctx.EditReply(verifyError(err))
			return
		}

		svc.Dispatcher.Dispatch(out.Actions)
		svc.Store.FlushAsync()
		svc.Publish(mqtt.TopicVerify, bot.NewVerificationEvent(guildID, userID, out))

		_ = ctx.EditReplyEmbed(outcomeEmbed(userID, out))
	}()
	return nil
}

func verifyError(err error) string {
	switch {
	case errors.Is(err, roblox.ErrProfileNotFound):
		return "❌ That Roblox user does not exist."
	case errors.Is(err, engine.ErrMemberNotFound):
		return "❌ That user is not a member of this server."
	case errors.Is(err, engine.ErrLookupFailed), errors.Is(err, roblox.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "❌ Roblox could not be reached. Please try again later."
	default:
		return "❌ Verification failed. Please try again later."
	}
}

func roleLine(r engine.RoleSync) string {
	switch r.Change {
	case engine.RoleAdded:
		return fmt.Sprintf("Role **%s** granted", r.RoleName)
	case engine.RoleRemoved:
		return fmt.Sprintf("Role **%s** removed", r.RoleName)
	case engine.RoleMissing:
		return fmt.Sprintf("Role **%s** does not exist in this server", r.RoleName)
	case engine.RoleFailed:
		return fmt.Sprintf("Role **%s** could not be updated", r.RoleName)
	default:
		if r.HasRole() {
			return fmt.Sprintf("Role **%s** kept", r.RoleName)
		}
		return fmt.Sprintf("Display name does not contain **%s**", r.Keyword)
	}
}

func outcomeEmbed(userID string, out *engine.VerificationOutcome) *discordgo.MessageEmbed {
	nickname := "Updated"
	if !out.NicknameUpdated {
		nickname = "Could not be changed"
	}

	return &discordgo.MessageEmbed{
		Title:       "✅ Verification successful",
		Description: fmt.Sprintf("<@%s> is now linked to **%s**.", userID, out.Record.RobloxUsername),
		Color:       announce.ColorTutorial,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Display name", Value: out.Record.RobloxDisplayName, Inline: true},
			{Name: "Nickname", Value: nickname, Inline: true},
			{Name: "Keyword role", Value: roleLine(out.Role)},
		},
		Timestamp: out.Record.VerifiedAt.Format(time.RFC3339),
	}
}

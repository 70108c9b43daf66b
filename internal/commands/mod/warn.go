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
	apperrors "github.com/PancyStudios/XLZRBotGo/pkg/errors"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
	"github.com/PancyStudios/XLZRBotGo/pkg/mqtt"
)

// createWarnCommand creates the /mod warn subcommand
func createWarnCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"warn",
		"Warn a member",
		"mod",
		warnHandler(svc),
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member to warn",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the warning",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers)
}

// rejection maps a refused warning to the reply shown to the moderator
func rejection(err error) string {
	switch {
	case errors.Is(err, engine.ErrTargetIsBot):
		return "❌ You cannot warn a bot."
	case errors.Is(err, engine.ErrSelfWarn):
		return "❌ You cannot warn yourself."
	case errors.Is(err, engine.ErrInsufficientRank):
		return "❌ You cannot warn a member with an equal or higher role."
	case errors.Is(err, engine.ErrMemberNotFound):
		return "❌ That user is not a member of this server."
	default:
		return "❌ The warning could not be recorded."
	}
}

// escalationNote describes the automatic action taken after a warning
func escalationNote(o *engine.WarningOutcome) string {
	if o.Escalation == engine.EscalationNone {
		return ""
	}
	verb := "kicked"
	if o.Escalation == engine.EscalationBan {
		verb = "banned"
	}
	if o.EnforcementFailed() {
		return fmt.Sprintf("\n⚠️ The member reached %d warnings but could not be %s automatically.", o.Threshold, verb)
	}
	return fmt.Sprintf("\n🔨 The member reached %d warnings and was %s automatically.", o.Threshold, verb)
}

// warnHandler handles the /mod warn command
func warnHandler(svc *bot.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		reason := ctx.GetStringOption("reason")
		if user == nil || reason == "" {
			return ctx.ReplyEphemeral("❌ You must specify a user and a reason.")
		}

		if err := ctx.Defer(); err != nil {
			return err
		}

		go func() {
			defer apperrors.RecoverMiddleware()()

			reqCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			guildID := ctx.GuildID()
			out, err := svc.Warnings.Warn(reqCtx, guildID, user.ID, ctx.User().ID, reason, time.Now())
			if err != nil {
				if !errors.Is(err, engine.ErrTargetIsBot) && !errors.Is(err, engine.ErrSelfWarn) && !errors.Is(err, engine.ErrInsufficientRank) {
					logger.Error(fmt.Sprintf("Warn in %s failed: %v", guildID, err), "CMD-Warn")
				}
				_ = ctx.EditReply(rejection(err))
				return
			}

			svc.Dispatcher.Dispatch(out.Actions)
			svc.Store.FlushAsync()
			svc.Publish(mqtt.TopicWarning, bot.NewWarningEvent(guildID, out))
			if out.Escalation != engine.EscalationNone {
				svc.Publish(mqtt.TopicEscalation, bot.NewWarningEvent(guildID, out))
			}

			_ = ctx.EditReply(fmt.Sprintf("⚠️ **%s** has been warned (warning #%d, %d total).\n**Reason:** %s\n**Moderator:** %s%s",
				user.Username,
				out.Warning.ID,
				out.Count,
				reason,
				ctx.User().Username,
				escalationNote(out),
			))
		}()
		return nil
	}
}

package dev

import (
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/internal/scheduler"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	apperrors "github.com/PancyStudios/XLZRBotGo/pkg/errors"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

const sweepTimeout = 30 * time.Minute

// createSweepCommand creates /dev sweep, which reconciles every
// verification record now instead of waiting for the schedule
func createSweepCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"sweep",
		"Run the verification sweep now",
		"dev",
		func(ctx *discord.CommandContext) error {
			if svc.Scheduler.Sweeping() {
				return ctx.ReplyEphemeral("⏳ A sweep is already running.")
			}
			if err := ctx.DeferEphemeral(); err != nil {
				return err
			}

			logger.Info(fmt.Sprintf("Manual sweep requested by %s", ctx.User().Username), "Dev")
			err := svc.Scheduler.TriggerSweep(sweepTimeout, func(report engine.SweepReport, err error) {
				defer apperrors.RecoverMiddleware()()
				_ = ctx.EditReply(sweepReply(report, err))
			})
			if err != nil {
				return ctx.EditReply(sweepReply(engine.SweepReport{}, err))
			}
			return nil
		},
	)
}

func sweepReply(r engine.SweepReport, err error) string {
	if errors.Is(err, scheduler.ErrSweepRunning) {
		return "⏳ A sweep is already running."
	}
	if err != nil {
		return fmt.Sprintf("❌ Sweep failed: %v", err)
	}
	return fmt.Sprintf("✅ Sweep `%s` finished in %s\n%d records: %d updated, %d unchanged, %d skipped, %d failed",
		r.ID, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), r.Total, r.Updated, r.Unchanged, r.Skipped, r.Failed)
}

package dev

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// createFlushCommand creates /dev flush
func createFlushCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"flush",
		"Save the bot state now",
		"dev",
		func(ctx *discord.CommandContext) error {
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := svc.Store.Flush(flushCtx); err != nil {
				return ctx.ReplyEphemeral(fmt.Sprintf("❌ Save failed: %v", err))
			}
			st := svc.Store.Stats()
			return ctx.ReplyEphemeral(fmt.Sprintf("💾 Saved %d level records, %d warned members and %d verifications.",
				st.LevelStates, st.Warnings, st.Verifications))
		},
	)
}

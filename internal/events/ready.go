package events

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

const statusText = "Verify with /verify me"

// RegisterReadyEvent sets the presence and starts the background jobs once
// the gateway session is ready
func RegisterReadyEvent(client *discord.ExtendedClient, svc *bot.Services) {
	client.EventHandler.OnReady(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Success(fmt.Sprintf("✅ Bot connected: %s", r.User.Username), "Ready")
		logger.Info(fmt.Sprintf("📊 Connected to %d servers", len(r.Guilds)), "Ready")

		if err := s.UpdateGameStatus(0, statusText); err != nil {
			logger.Error(fmt.Sprintf("Error setting status: %v", err), "Ready")
		}

		// Ready fires again after a reconnect; Start ignores repeated calls
		svc.Scheduler.Start(context.Background())
	})
}

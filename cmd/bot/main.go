// Package main is the entry point for the XLZR bot.
// It initializes all systems and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/commands"
	"github.com/PancyStudios/XLZRBotGo/internal/events"
	"github.com/PancyStudios/XLZRBotGo/internal/scheduler"
	"github.com/PancyStudios/XLZRBotGo/internal/store"
	"github.com/PancyStudios/XLZRBotGo/pkg/config"
	"github.com/PancyStudios/XLZRBotGo/pkg/database"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/errors"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
	"github.com/PancyStudios/XLZRBotGo/pkg/mqtt"
	"github.com/PancyStudios/XLZRBotGo/pkg/roblox"
	"github.com/PancyStudios/XLZRBotGo/pkg/web"
)

const (
	loadTimeout    = 15 * time.Second
	loadRetryEvery = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System(fmt.Sprintf("Starting XLZR Bot %s...", config.Version), "Main")
	if keys := cfg.InvalidKeys(); len(keys) > 0 {
		logger.Warn(fmt.Sprintf("Invalid values replaced by defaults: %s", strings.Join(keys, ", ")), "Config")
	}

	var (
		discordClient *discord.ExtendedClient
		svc           *bot.Services
	)
	errors.Init(cfg.ErrorWebhook, func() {
		if svc != nil {
			svc.Scheduler.Stop()
			flushState(svc.Store)
		}
		if discordClient != nil {
			_ = discordClient.Stop()
		}
	})

	// Persistence: MongoDB when configured, JSON files otherwise
	persister, backend, db := openBackend(cfg)
	if db != nil {
		defer func() { _ = db.Disconnect() }()
	}

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	st := store.New(persister, models.KeywordConfig{Keyword: cfg.DefaultKeyword, RoleName: cfg.DefaultKeywordRole})
	loadCtx, cancel := context.WithTimeout(appCtx, loadTimeout)
	if err := st.Load(loadCtx); err != nil {
		logger.Error(fmt.Sprintf("Error loading saved state, saving is paused until it loads: %v", err), "Main")
		go func() {
			if err := st.RetryLoad(appCtx, loadRetryEvery, loadTimeout); err == nil {
				logger.Success("Saved state loaded, saving resumed", "Main")
			}
		}()
	}
	cancel()

	var locker scheduler.Locker
	if cfg.RedisURL != "" {
		rl, err := scheduler.NewRedisLocker(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn(fmt.Sprintf("Redis unavailable, using a local sweep lock: %v", err), "Main")
		} else {
			defer func() { _ = rl.Close() }()
			locker = rl
		}
	}

	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	svc = bot.New(bot.Deps{
		Config:  cfg,
		Store:   st,
		Host:    bot.NewDiscordHost(discordClient.Session),
		Lookup:  roblox.NewClient(cfg.RobloxUsersAPI, roblox.WithRate(cfg.RobloxRate, int(cfg.RobloxRate)+1)),
		Sender:  discordClient.Session,
		Locker:  locker,
		Backend: backend,
	})

	commands.RegisterAll(discordClient, svc)
	events.RegisterAll(discordClient, svc)

	// Status bus
	mqttClientID := "xlzrbot"
	if !cfg.IsProd() {
		mqttClientID = "xlzrbot_canary"
	}
	mqttClient := mqtt.Init(cfg.MQTTHost, cfg.MQTTPort, cfg.MQTTUser, cfg.MQTTPassword, mqttClientID)
	defer mqttClient.Destroy()
	mqttClient.On("sweep", svc.SweepRequest)
	mqttClient.On("status", svc.StatusRequest)
	svc.SetPublisher(mqttClient)

	webServer, err := web.Init(web.Options{
		WebhookURL:  cfg.LogsWebhook,
		HostPattern: cfg.WebHostPattern,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating web server: %v", err), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, web.API{
		State:     st,
		Sweeps:    svc.Scheduler,
		BotOnline: discordClient.IsReady,
		Backend:   backend,
		Token:     cfg.APIToken,
	})
	webServer.StartAsync(cfg.Port)

	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}

	logger.Success("XLZR Bot started!", "Main")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	logger.System("Shutting down XLZR Bot...", "Main")

	stopApp()
	svc.Scheduler.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn(fmt.Sprintf("Error stopping web server: %v", err), "Main")
	}

	flushState(st)

	if err := discordClient.Stop(); err != nil {
		logger.Warn(fmt.Sprintf("Error closing Discord session: %v", err), "Main")
	}
}

// openBackend picks the persistence backend. A MongoDB that is down at
// startup still wins; the store loads once it reconnects.
func openBackend(cfg *config.Config) (store.Persister, func() (string, bool), *database.Database) {
	if cfg.UsesMongo() {
		db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
		if err != nil {
			logger.Error(fmt.Sprintf("Error connecting to database, queueing writes until it returns: %v", err), "Main")
		}
		backend := func() (string, bool) {
			status, ok := db.GetStatus()
			return "MongoDB " + status, ok
		}
		return database.NewStatePersister(db), backend, db
	}

	fp, err := database.NewFilePersister(cfg.DataDir)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error opening data directory: %v", err), "Main")
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("Storing state in %s", cfg.DataDir), "Main")
	return fp, func() (string, bool) { return "JSON files 🟢 | Online", true }, nil
}

func flushState(st *store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := st.Flush(ctx); err != nil {
		logger.Error(fmt.Sprintf("Final save failed: %v", err), "Main")
		return
	}
	logger.Success("State saved.", "Main")
}

// Package main provides a utility to sync Discord slash commands without
// starting the bot.
//
// Usage:
//
//	sync-commands list  [--guild <id>]
//	sync-commands clean [--guild <id>]
//	sync-commands sync  [--guild <id>]
//
// Without --guild the global commands are targeted. sync overwrites the
// target with the commands the bot defines; the dev guild receives the dev
// commands.
package main

import (
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/commands"
	"github.com/PancyStudios/XLZRBotGo/pkg/config"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

const prefix = "SyncCommands"

type options struct {
	guildID string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Error(err.Error(), prefix)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "sync-commands",
		Short:         "Manage the bot's Discord slash commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.guildID, "guild", "", "target a guild instead of the global commands")

	cmd.AddCommand(
		newActionCommand("list", "List the registered commands", opts, listCommands),
		newActionCommand("clean", "Remove every registered command", opts, cleanCommands),
		newActionCommand("sync", "Overwrite the registered commands with the current definitions", opts, syncCommands),
	)
	return cmd
}

type action func(client *discord.ExtendedClient, appID, guildID string) error

func newActionCommand(use, short string, opts *options, run action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			log := logger.Init(cfg.ErrorWebhook, "")
			defer log.Close()

			client, err := discord.NewClient(cfg.BotToken)
			if err != nil {
				return fmt.Errorf("create Discord client: %w", err)
			}
			// REST only; the gateway is never opened
			me, err := client.Session.User("@me")
			if err != nil {
				return fmt.Errorf("resolve application: %w", err)
			}

			if err := run(client, me.ID, opts.guildID); err != nil {
				return err
			}
			logger.Success("Done", prefix)
			return nil
		},
	}
}

func listCommands(client *discord.ExtendedClient, appID, guildID string) error {
	cmds, err := client.Session.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	logger.Info(fmt.Sprintf("📋 %d commands registered in %s", len(cmds), targetName(guildID)), prefix)
	for i, cmd := range cmds {
		logger.Info(fmt.Sprintf("  %d. /%s - %s (ID: %s)", i+1, cmd.Name, cmd.Description, cmd.ID), prefix)
	}
	return nil
}

func cleanCommands(client *discord.ExtendedClient, appID, guildID string) error {
	logger.Info(fmt.Sprintf("🧹 Removing commands from %s...", targetName(guildID)), prefix)
	return client.CommandHandler.UnregisterCommands(appID, guildID)
}

func syncCommands(client *discord.ExtendedClient, appID, guildID string) error {
	// Handlers are never run here, so the command definitions do not need
	// working services
	commands.RegisterAll(client, &bot.Services{})
	global, dev := client.CommandHandler.Definitions()

	defs := selectDefinitions(global, dev, guildID, config.Get().DevGuildID)
	logger.Info(fmt.Sprintf("🔄 Syncing %d commands to %s...", len(defs), targetName(guildID)), prefix)

	if _, err := client.Session.ApplicationCommandBulkOverwrite(appID, guildID, defs); err != nil {
		return fmt.Errorf("sync commands: %w", err)
	}
	return nil
}

// selectDefinitions returns what belongs in the target: global commands
// globally, dev commands in the dev guild and nothing in other guilds
func selectDefinitions(global, dev []*discordgo.ApplicationCommand, guildID, devGuildID string) []*discordgo.ApplicationCommand {
	switch {
	case guildID == "":
		return global
	case guildID == devGuildID:
		return dev
	default:
		return []*discordgo.ApplicationCommand{}
	}
}

func targetName(guildID string) string {
	if guildID == "" {
		return "global scope"
	}
	return "guild " + guildID
}

// Package settings provides the guild feature configuration commands under
// /config.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// RegisterSettingsCommands registers the /config group
func RegisterSettingsCommands(client *discord.ExtendedClient, svc *bot.Services) {
	group := client.CommandHandler.BuildCommandGroup(
		"config",
		"Configure the bot for this server",
		createMessageCommand(svc, "welcome", "Configure the welcome message"),
		createMessageCommand(svc, "goodbye", "Configure the goodbye message"),
		createLevelingCommand(svc),
		createWarningsCommand(svc),
		createTutorialCommand(svc),
		createCommandOnlyCommand(svc),
	)

	client.CommandHandler.AddGlobalCommand(group)
}

// settingError turns a validation error into a reply. Other errors are
// returned unchanged.
func settingError(err error) (string, bool) {
	switch {
	case errors.Is(err, engine.ErrThresholdOutOfRange), errors.Is(err, engine.ErrInvalidSetting):
		return "❌ " + err.Error(), true
	}
	return "", false
}

func enabledOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionBoolean,
		Name:        "enabled",
		Description: "Turn the feature on or off",
		Required:    true,
	}
}

func channelOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         name,
		Description:  description,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
	}
}

func stringOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
	}
}

func channelID(ctx *discord.CommandContext, name string) string {
	if ch := ctx.GetChannelOption(name); ch != nil {
		return ch.ID
	}
	return ""
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func channelLine(id string) string {
	if id == "" {
		return "not set"
	}
	return fmt.Sprintf("<#%s>", id)
}

func thresholdLine(v *int) string {
	if v == nil {
		return "off"
	}
	return fmt.Sprintf("%d warnings", *v)
}

func summary(title string, lines ...string) string {
	return fmt.Sprintf("✅ **%s** updated\n%s", title, strings.Join(lines, "\n"))
}

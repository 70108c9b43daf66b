package settings

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

func intOption(name, description string, max int) *discordgo.ApplicationCommandOption {
	zero := float64(0)
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
		MinValue:    &zero,
		MaxValue:    float64(max),
	}
}

// optionalInt returns nil when the option was not supplied
func optionalInt(ctx *discord.CommandContext, name string) *int {
	if !ctx.HasOption(name) {
		return nil
	}
	v := int(ctx.GetIntOption(name))
	return &v
}

func createLevelingCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"leveling",
		"Configure level-up announcements",
		"config",
		func(ctx *discord.CommandContext) error {
			f, err := svc.Settings.ConfigureLeveling(
				ctx.GuildID(),
				ctx.GetBoolOption("enabled"),
				channelID(ctx, "channel"),
				ctx.GetStringOption("message"),
				ctx.GetStringOption("color"),
			)
			if err != nil {
				if msg, ok := settingError(err); ok {
					return ctx.ReplyEphemeral(msg)
				}
				return err
			}
			svc.Store.FlushAsync()

			return ctx.ReplyEphemeral(levelingSummary(f))
		},
	).WithOptions(
		enabledOption(),
		channelOption("channel", "Channel for announcements; defaults to where the member wrote"),
		stringOption("message", "Message text; supports {mention}, {user} and {level}"),
		stringOption("color", "Embed color as hex, e.g. #FFD700"),
	).WithUserPermissions(discordgo.PermissionManageGuild)
}

func levelingSummary(f models.LevelingFeature) string {
	channel := "where the member wrote"
	if f.ChannelID != "" {
		channel = channelLine(f.ChannelID)
	}
	lines := []string{"Status: " + onOff(f.Enabled), "Channel: " + channel}
	if f.Message != "" {
		lines = append(lines, "Message: "+f.Message)
	}
	return summary("leveling", lines...)
}

func createWarningsCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"warnings",
		"Configure the warning log and automatic kick/ban",
		"config",
		func(ctx *discord.CommandContext) error {
			f, err := svc.Settings.ConfigureWarnings(ctx.GuildID(), engine.WarningsUpdate{
				Enabled:      ctx.GetBoolOption("enabled"),
				LogChannelID: channelID(ctx, "logchannel"),
				AutoKick:     optionalInt(ctx, "autokick"),
				AutoBan:      optionalInt(ctx, "autoban"),
			})
			if err != nil {
				if msg, ok := settingError(err); ok {
					return ctx.ReplyEphemeral(msg)
				}
				return err
			}
			svc.Store.FlushAsync()

			return ctx.ReplyEphemeral(warningsSummary(f))
		},
	).WithOptions(
		enabledOption(),
		channelOption("logchannel", "Channel where warnings are logged"),
		intOption("autokick", fmt.Sprintf("Kick at this many warnings (%d-%d, 0 turns it off)", engine.AutoKickMin, engine.AutoKickMax), engine.AutoKickMax),
		intOption("autoban", fmt.Sprintf("Ban at this many warnings (%d-%d, 0 turns it off)", engine.AutoBanMin, engine.AutoBanMax), engine.AutoBanMax),
	).WithUserPermissions(discordgo.PermissionManageGuild)
}

func warningsSummary(f models.WarningsFeature) string {
	return summary("warnings",
		"Log: "+onOff(f.Enabled),
		"Log channel: "+channelLine(f.LogChannelID),
		"Auto-kick: "+thresholdLine(f.AutoKick),
		"Auto-ban: "+thresholdLine(f.AutoBan),
	)
}

func createTutorialCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"tutorial",
		"Configure the message sent after verification",
		"config",
		func(ctx *discord.CommandContext) error {
			f, err := svc.Settings.ConfigureTutorial(ctx.GuildID(), ctx.GetBoolOption("enabled"), channelID(ctx, "channel"))
			if err != nil {
				return err
			}
			svc.Store.FlushAsync()

			return ctx.ReplyEphemeral(summary("tutorial",
				"Status: "+onOff(f.Enabled),
				"Channel: "+channelLine(f.ChannelID),
			))
		},
	).WithOptions(
		enabledOption(),
		channelOption("channel", "Channel mentioned in the tutorial"),
	).WithUserPermissions(discordgo.PermissionManageGuild)
}

func createCommandOnlyCommand(svc *bot.Services) *discord.Command {
	channel := channelOption("channel", "Channel to change")
	channel.Required = true

	return discord.NewCommand(
		"commandonly",
		"Only allow commands in a channel",
		"config",
		func(ctx *discord.CommandContext) error {
			f, err := svc.Settings.SetCommandOnly(ctx.GuildID(), channelID(ctx, "channel"), ctx.GetBoolOption("enabled"))
			if err != nil {
				if msg, ok := settingError(err); ok {
					return ctx.ReplyEphemeral(msg)
				}
				return err
			}
			svc.Store.FlushAsync()

			return ctx.ReplyEphemeral(commandOnlySummary(f))
		},
	).WithOptions(
		channel,
		enabledOption(),
	).WithUserPermissions(discordgo.PermissionManageGuild).
		WithBotPermissions(discordgo.PermissionManageMessages)
}

func commandOnlySummary(f models.CommandOnlyFeature) string {
	if len(f.Channels) == 0 {
		return summary("command-only channels", "None")
	}
	mentions := make([]string, len(f.Channels))
	for i, id := range f.Channels {
		mentions[i] = channelLine(id)
	}
	return summary("command-only channels", strings.Join(mentions, ", "))
}

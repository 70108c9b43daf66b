package settings

import (
	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

// createMessageCommand creates /config welcome or /config goodbye
func createMessageCommand(svc *bot.Services, feature, description string) *discord.Command {
	return discord.NewCommand(
		feature,
		description,
		"config",
		func(ctx *discord.CommandContext) error {
			f, err := svc.Settings.ConfigureMessage(ctx.GuildID(), feature, engine.MessageUpdate{
				Enabled:   ctx.GetBoolOption("enabled"),
				ChannelID: channelID(ctx, "channel"),
				Message:   ctx.GetStringOption("message"),
				Color:     ctx.GetStringOption("color"),
				GIF:       ctx.GetStringOption("gif"),
				Thumbnail: ctx.GetStringOption("thumbnail"),
			})
			if err != nil {
				if msg, ok := settingError(err); ok {
					return ctx.ReplyEphemeral(msg)
				}
				return err
			}
			svc.Store.FlushAsync()

			return ctx.ReplyEphemeral(messageSummary(feature, f))
		},
	).WithOptions(
		enabledOption(),
		channelOption("channel", "Channel the message is sent to"),
		stringOption("message", "Message text; supports {mention}, {user} and {server}"),
		stringOption("color", "Embed color as hex, e.g. #5865F2"),
		stringOption("gif", "Image URL shown in the embed"),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "thumbnail",
			Description: "Embed thumbnail",
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Member avatar", Value: models.ThumbnailAvatar},
				{Name: "Server icon", Value: models.ThumbnailServer},
				{Name: "None", Value: models.ThumbnailNone},
			},
		},
	).WithUserPermissions(discordgo.PermissionManageGuild)
}

func messageSummary(feature string, f models.MessageFeature) string {
	lines := []string{
		"Status: " + onOff(f.Enabled),
		"Channel: " + channelLine(f.ChannelID),
	}
	if f.Message != "" {
		lines = append(lines, "Message: "+f.Message)
	}
	if f.Color != "" {
		lines = append(lines, "Color: "+f.Color)
	}
	if f.Thumbnail != "" {
		lines = append(lines, "Thumbnail: "+f.Thumbnail)
	}
	return summary(feature, lines...)
}

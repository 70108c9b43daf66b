package utils

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

const progressWidth = 10

// createLevelCommand creates the /utils level subcommand
func createLevelCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"level",
		"Show the level and XP of a member",
		"utils",
		func(ctx *discord.CommandContext) error {
			user := ctx.GetUserOption("user")
			if user == nil {
				user = ctx.User()
			}
			if user.Bot {
				return ctx.ReplyEphemeral("❌ Bots do not earn XP.")
			}

			st := svc.Leveling.Progress(ctx.GuildID(), user.ID)
			return ctx.ReplyEmbed(levelEmbed(user.Username, user.AvatarURL("128"), st))
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Member to look up; defaults to you",
		},
	)
}

func levelEmbed(username, avatar string, st models.LevelState) *discordgo.MessageEmbed {
	required := st.Required()
	e := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📈 %s", username),
		Color: 0xffd700,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Level", Value: fmt.Sprintf("%d", st.Level), Inline: true},
			{Name: "XP", Value: fmt.Sprintf("%d / %d", st.XP, required), Inline: true},
			{Name: "Progress", Value: progressBar(st.XP, required)},
		},
	}
	if avatar != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: avatar}
	}
	return e
}

func progressBar(xp, required int) string {
	filled := 0
	if required > 0 {
		filled = xp * progressWidth / required
	}
	filled = max(0, min(filled, progressWidth))
	return strings.Repeat("▰", filled) + strings.Repeat("▱", progressWidth-filled)
}

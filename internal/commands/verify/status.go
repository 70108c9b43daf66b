package verify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

const recentShown = 5

// createStatusCommand creates /verify status
func createStatusCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"status",
		"Show the verification setup of this server",
		"verify",
		func(ctx *discord.CommandContext) error {
			guildID := ctx.GuildID()
			embed := statusEmbed(
				svc.Store.KeywordConfig(guildID),
				svc.Store.HasKeywordConfig(guildID),
				svc.Store.Verifications(guildID),
			)
			if last, ok := svc.Scheduler.LastSweep(); ok {
				embed.Footer = &discordgo.MessageEmbedFooter{Text: "Last sweep " + last.FinishedAt.Format(time.RFC1123)}
			}
			return ctx.ReplyEphemeralEmbed(embed)
		},
	).WithUserPermissions(discordgo.PermissionManageRoles)
}

func statusEmbed(kc models.KeywordConfig, custom bool, records map[string]models.VerificationRecord) *discordgo.MessageEmbed {
	role := kc.RoleName
	if kc.RoleID != "" {
		role = "<@&" + kc.RoleID + ">"
	}
	source := "default"
	if custom {
		source = "server"
	}

	type entry struct {
		userID string
		rec    models.VerificationRecord
	}
	entries := make([]entry, 0, len(records))
	for id, rec := range records {
		entries = append(entries, entry{id, rec})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].rec.VerifiedAt.After(entries[j].rec.VerifiedAt)
	})

	var recent strings.Builder
	for i, e := range entries {
		if i == recentShown {
			break
		}
		fmt.Fprintf(&recent, "<@%s> → **%s** (%s) <t:%d:R>\n", e.userID, e.rec.RobloxUsername, e.rec.RobloxDisplayName, e.rec.VerifiedAt.Unix())
	}
	if recent.Len() == 0 {
		recent.WriteString("No verified members yet.")
	}

	return &discordgo.MessageEmbed{
		Title: "🔎 Verification status",
		Color: 0x3498db,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Keyword", Value: fmt.Sprintf("`%s` (%s)", kc.Keyword, source), Inline: true},
			{Name: "Role", Value: role, Inline: true},
			{Name: "Verified members", Value: fmt.Sprintf("%d", len(records)), Inline: true},
			{Name: "Recent verifications", Value: recent.String()},
		},
	}
}

package utils

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/store"
	"github.com/PancyStudios/XLZRBotGo/pkg/config"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// createStatsCommand creates the /utils stats subcommand
func createStatsCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"stats",
		"Show runtime statistics",
		"utils",
		func(ctx *discord.CommandContext) error {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			members := 0
			for _, g := range ctx.Session.State.Guilds {
				members += g.MemberCount
			}

			embed := statsEmbed(svc.Store.Stats(), time.Since(ctx.Client.StartTime), m.Alloc)
			embed.Fields = append(embed.Fields,
				&discordgo.MessageEmbedField{Name: "🏠 Guilds", Value: fmt.Sprintf("%d", ctx.Client.GuildCount()), Inline: true},
				&discordgo.MessageEmbedField{Name: "👥 Members", Value: fmt.Sprintf("%d", members), Inline: true},
			)
			return ctx.ReplyEmbed(embed)
		},
	)
}

func statsEmbed(st store.Stats, uptime time.Duration, alloc uint64) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📊 Bot Statistics",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🤖 Version", Value: config.Version, Inline: true},
			{Name: "🐹 Go", Value: strings.TrimPrefix(runtime.Version(), "go"), Inline: true},
			{Name: "📚 DiscordGo", Value: discordgo.VERSION, Inline: true},
			{Name: "🖥 Memory", Value: fmt.Sprintf("%.2f MB", float64(alloc)/1024/1024), Inline: true},
			{Name: "⚙️ Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "⏱ Uptime", Value: formatDuration(uptime), Inline: true},
			{Name: "📈 Level records", Value: fmt.Sprintf("%d", st.LevelStates), Inline: true},
			{Name: "⚠️ Warned members", Value: fmt.Sprintf("%d", st.Warnings), Inline: true},
			{Name: "✅ Verified members", Value: fmt.Sprintf("%d", st.Verifications), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// formatDuration formats a duration as "1d, 2h, 3m, 4s", omitting zero parts
func formatDuration(dur time.Duration) string {
	days := int(dur.Hours() / 24)
	hours := int(dur.Hours()) % 24
	minutes := int(dur.Minutes()) % 60
	seconds := int(dur.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, ", ")
}

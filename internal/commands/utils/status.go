package utils

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// createStatusCommand creates the /utils status subcommand
func createStatusCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"status",
		"Show the bot status",
		"utils",
		func(ctx *discord.CommandContext) error {
			backend, online := "🟢 | Online", true
			if svc.Backend != nil {
				backend, online = svc.Backend()
			}
			last, ok := svc.Scheduler.LastSweep()
			var lastPtr *engine.SweepReport
			if ok {
				lastPtr = &last
			}
			return ctx.ReplyEmbed(statusEmbed(statusInfo{
				Guilds:    ctx.Client.GuildCount(),
				Backend:   backend,
				Online:    online,
				LastFlush: svc.Store.LastFlush(),
				Sweeping:  svc.Scheduler.Sweeping(),
				LastSweep: lastPtr,
			}))
		},
	)
}

type statusInfo struct {
	Guilds    int
	Backend   string
	Online    bool
	LastFlush time.Time
	Sweeping  bool
	LastSweep *engine.SweepReport
}

func statusEmbed(s statusInfo) *discordgo.MessageEmbed {
	color := 0x57f287
	if !s.Online {
		color = 0xfee75c
	}

	flush := "never"
	if !s.LastFlush.IsZero() {
		flush = fmt.Sprintf("<t:%d:R>", s.LastFlush.Unix())
	}

	sweep := "no sweep yet"
	if s.LastSweep != nil {
		r := s.LastSweep
		sweep = fmt.Sprintf("<t:%d:R>: %d records, %d updated, %d skipped, %d failed",
			r.FinishedAt.Unix(), r.Total, r.Updated, r.Skipped, r.Failed)
	}
	if s.Sweeping {
		sweep = "🔄 running\n" + sweep
	}

	return &discordgo.MessageEmbed{
		Title: "📊 Bot Status",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Bot", Value: "🟢 | Online", Inline: true},
			{Name: "Storage", Value: s.Backend, Inline: true},
			{Name: "Servers", Value: fmt.Sprintf("%d", s.Guilds), Inline: true},
			{Name: "Last save", Value: flush, Inline: true},
			{Name: "Verification sweep", Value: sweep},
		},
	}
}

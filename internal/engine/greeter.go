package engine

import (
	"github.com/PancyStudios/XLZRBotGo/internal/store"
	"github.com/PancyStudios/XLZRBotGo/pkg/announce"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

// MemberEvent is a member joining or leaving a guild
type MemberEvent struct {
	GuildID      string
	GuildName    string
	GuildIconURL string
	UserID       string
	Username     string
	AvatarURL    string
}

// Greeter builds welcome and goodbye announcements
type Greeter struct {
	store *store.Store
}

// NewGreeter creates a greeter
func NewGreeter(s *store.Store) *Greeter {
	return &Greeter{store: s}
}

// OnJoin returns the welcome announcement, if configured
func (g *Greeter) OnJoin(ev MemberEvent) []Action {
	cfg := g.store.GuildConfig(ev.GuildID).Welcome
	return g.greet(ev, cfg, "Welcome!", announce.DefaultWelcome, announce.ColorWelcome)
}

// OnLeave returns the goodbye announcement, if configured
func (g *Greeter) OnLeave(ev MemberEvent) []Action {
	cfg := g.store.GuildConfig(ev.GuildID).Goodbye
	return g.greet(ev, cfg, "Goodbye!", announce.DefaultGoodbye, announce.ColorGoodbye)
}

func (g *Greeter) greet(ev MemberEvent, cfg models.MessageFeature, title, template string, color int) []Action {
	if !cfg.Enabled || cfg.ChannelID == "" {
		return nil
	}

	a := Action{
		Kind:      ActionAnnounce,
		GuildID:   ev.GuildID,
		ChannelID: cfg.ChannelID,
		Title:     title,
		Description: announce.Render(announce.Or(cfg.Message, template), map[string]string{
			announce.Mention: "<@" + ev.UserID + ">",
			announce.User:    ev.Username,
			announce.Server:  ev.GuildName,
		}),
		Color: announce.ColorOr(cfg.Color, color),
		Image: cfg.GIF,
	}

	switch cfg.Thumbnail {
	case "", models.ThumbnailAvatar:
		a.Thumbnail = ev.AvatarURL
	case models.ThumbnailServer:
		a.Thumbnail = ev.GuildIconURL
	}
	return []Action{a}
}

package engine

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/PancyStudios/XLZRBotGo/internal/store"
	"github.com/PancyStudios/XLZRBotGo/pkg/announce"
	"github.com/PancyStudios/XLZRBotGo/pkg/metrics"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

const (
	xpCooldown = 60 * time.Second
	xpMin      = 15
	xpMax      = 25
)

// LevelUpEvent reports the final level reached by one award
type LevelUpEvent struct {
	GuildID  string `json:"guildId"`
	UserID   string `json:"userId"`
	NewLevel int    `json:"newLevel"`
}

// Leveling awards XP for messages
type Leveling struct {
	store *store.Store
	// roll returns the XP for one award, in [xpMin, xpMax]
	roll func() int
}

// NewLeveling creates the leveling engine
func NewLeveling(s *store.Store) *Leveling {
	return &Leveling{
		store: s,
		roll:  func() int { return xpMin + rand.IntN(xpMax-xpMin+1) },
	}
}

// OnMessage awards XP to the author of a message unless they are still on
// cooldown. A new state is created on the first message. When the award
// crosses the level threshold the level goes up and XP restarts at zero;
// only the final level is reported.
func (e *Leveling) OnMessage(guildID, userID string, now time.Time) *LevelUpEvent {
	unlock := e.store.LockRecord(guildID, userID)
	defer unlock()

	st, ok := e.store.Level(guildID, userID)
	if !ok {
		st = models.NewLevelState()
	}

	if now.Sub(st.LastAward) < xpCooldown {
		return nil
	}

	st.XP += e.roll()
	st.LastAward = now
	metrics.XPAwards.Inc()

	leveled := false
	for st.XP >= st.Required() {
		st.Level++
		st.XP = 0
		leveled = true
	}
	e.store.PutLevel(guildID, userID, st)

	if !leveled {
		return nil
	}
	metrics.LevelUps.Inc()
	return &LevelUpEvent{GuildID: guildID, UserID: userID, NewLevel: st.Level}
}

// Progress returns the member's state without creating one
func (e *Leveling) Progress(guildID, userID string) models.LevelState {
	st, ok := e.store.Level(guildID, userID)
	if !ok {
		return models.NewLevelState()
	}
	return st
}

// MessageEvent is a message received in a guild
type MessageEvent struct {
	GuildID   string
	GuildName string
	ChannelID string
	MessageID string
	UserID    string
	Username  string
	Bot       bool
	Content   string
	Time      time.Time
}

// Messages routes guild messages through the command-only filter and the
// leveling engine
type Messages struct {
	store    *store.Store
	leveling *Leveling
	prefix   string

	// OnLevelUp, when set, observes every level-up whether or not the guild
	// announces it
	OnLevelUp func(LevelUpEvent)
}

// NewMessages creates a router. prefix marks messages that count as commands
// in command-only channels.
func NewMessages(s *store.Store, leveling *Leveling, prefix string) *Messages {
	return &Messages{store: s, leveling: leveling, prefix: prefix}
}

// Handle returns the actions triggered by a message. Bot messages are
// ignored. A message deleted by the command-only filter earns no XP.
func (m *Messages) Handle(ev MessageEvent) []Action {
	if ev.Bot || ev.GuildID == "" {
		return nil
	}

	cfg := m.store.GuildConfig(ev.GuildID)

	if cfg.CommandOnly.Has(ev.ChannelID) && !strings.HasPrefix(ev.Content, m.prefix) {
		return []Action{{
			Kind:      ActionDeleteMessage,
			GuildID:   ev.GuildID,
			ChannelID: ev.ChannelID,
			MessageID: ev.MessageID,
		}}
	}

	up := m.leveling.OnMessage(ev.GuildID, ev.UserID, ev.Time)
	if up != nil && m.OnLevelUp != nil {
		m.OnLevelUp(*up)
	}
	if up == nil || !cfg.Leveling.Enabled {
		return nil
	}

	channelID := cfg.Leveling.ChannelID
	if channelID == "" {
		channelID = ev.ChannelID
	}

	return []Action{{
		Kind:      ActionAnnounce,
		GuildID:   ev.GuildID,
		ChannelID: channelID,
		Title:     "Level Up!",
		Description: announce.Render(announce.Or(cfg.Leveling.Message, announce.DefaultLevelUp), map[string]string{
			announce.Mention: "<@" + ev.UserID + ">",
			announce.User:    ev.Username,
			announce.Server:  ev.GuildName,
			announce.Level:   strconv.Itoa(up.NewLevel),
		}),
		Color: announce.ColorOr(cfg.Leveling.Color, announce.ColorLevelUp),
	}}
}

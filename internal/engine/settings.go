package engine

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/XLZRBotGo/internal/store"
	"github.com/PancyStudios/XLZRBotGo/pkg/announce"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

// Allowed escalation thresholds
const (
	AutoKickMin, AutoKickMax = 1, 10
	AutoBanMin, AutoBanMax   = 1, 15
)

// Settings validates and applies configuration changes. Every method either
// stores the whole change or nothing.
type Settings struct {
	store *store.Store
}

// NewSettings creates the settings service
func NewSettings(s *store.Store) *Settings {
	return &Settings{store: s}
}

// MessageUpdate changes a welcome or goodbye feature. Empty strings keep the
// current value.
type MessageUpdate struct {
	Enabled   bool
	ChannelID string
	Message   string
	Color     string
	GIF       string
	Thumbnail string
}

// ConfigureMessage updates the welcome or goodbye feature
func (s *Settings) ConfigureMessage(guildID, feature string, u MessageUpdate) (models.MessageFeature, error) {
	if feature != models.FeatureWelcome && feature != models.FeatureGoodbye {
		return models.MessageFeature{}, fmt.Errorf("%w: unknown feature %q", ErrInvalidSetting, feature)
	}
	if err := validColor(u.Color); err != nil {
		return models.MessageFeature{}, err
	}
	switch u.Thumbnail {
	case "", models.ThumbnailAvatar, models.ThumbnailServer, models.ThumbnailNone:
	default:
		return models.MessageFeature{}, fmt.Errorf("%w: thumbnail must be avatar, server or none", ErrInvalidSetting)
	}

	cfg, err := s.store.UpdateGuildConfig(guildID, func(c *models.GuildConfig) error {
		f := &c.Welcome
		if feature == models.FeatureGoodbye {
			f = &c.Goodbye
		}
		f.Enabled = u.Enabled
		setIf(&f.ChannelID, u.ChannelID)
		setIf(&f.Message, u.Message)
		setIf(&f.Color, u.Color)
		setIf(&f.GIF, u.GIF)
		setIf(&f.Thumbnail, u.Thumbnail)
		return nil
	})
	if err != nil {
		return models.MessageFeature{}, err
	}
	if feature == models.FeatureGoodbye {
		return cfg.Goodbye, nil
	}
	return cfg.Welcome, nil
}

// ConfigureLeveling updates level-up announcements
func (s *Settings) ConfigureLeveling(guildID string, enabled bool, channelID, message, color string) (models.LevelingFeature, error) {
	if err := validColor(color); err != nil {
		return models.LevelingFeature{}, err
	}
	cfg, err := s.store.UpdateGuildConfig(guildID, func(c *models.GuildConfig) error {
		c.Leveling.Enabled = enabled
		setIf(&c.Leveling.ChannelID, channelID)
		setIf(&c.Leveling.Message, message)
		setIf(&c.Leveling.Color, color)
		return nil
	})
	return cfg.Leveling, err
}

// WarningsUpdate changes the warnings feature. A nil threshold keeps the
// current value and zero clears it.
type WarningsUpdate struct {
	Enabled      bool
	LogChannelID string
	AutoKick     *int
	AutoBan      *int
}

// ConfigureWarnings updates the warning log channel and escalation
// thresholds. Thresholds outside their range are rejected with
// ErrThresholdOutOfRange and nothing is stored.
func (s *Settings) ConfigureWarnings(guildID string, u WarningsUpdate) (models.WarningsFeature, error) {
	if err := checkThreshold("autokick", u.AutoKick, AutoKickMin, AutoKickMax); err != nil {
		return models.WarningsFeature{}, err
	}
	if err := checkThreshold("autoban", u.AutoBan, AutoBanMin, AutoBanMax); err != nil {
		return models.WarningsFeature{}, err
	}

	cfg, err := s.store.UpdateGuildConfig(guildID, func(c *models.GuildConfig) error {
		c.Warnings.Enabled = u.Enabled
		setIf(&c.Warnings.LogChannelID, u.LogChannelID)
		applyThreshold(&c.Warnings.AutoKick, u.AutoKick)
		applyThreshold(&c.Warnings.AutoBan, u.AutoBan)
		return nil
	})
	return cfg.Warnings, err
}

// ConfigureTutorial updates the post-verification tutorial
func (s *Settings) ConfigureTutorial(guildID string, enabled bool, channelID string) (models.TutorialFeature, error) {
	cfg, err := s.store.UpdateGuildConfig(guildID, func(c *models.GuildConfig) error {
		c.Tutorial.Enabled = enabled
		setIf(&c.Tutorial.ChannelID, channelID)
		return nil
	})
	return cfg.Tutorial, err
}

// SetCommandOnly adds or removes a command-only channel
func (s *Settings) SetCommandOnly(guildID, channelID string, enabled bool) (models.CommandOnlyFeature, error) {
	if channelID == "" {
		return models.CommandOnlyFeature{}, fmt.Errorf("%w: channel is required", ErrInvalidSetting)
	}
	cfg, err := s.store.UpdateGuildConfig(guildID, func(c *models.GuildConfig) error {
		channels := make([]string, 0, len(c.CommandOnly.Channels)+1)
		for _, id := range c.CommandOnly.Channels {
			if id != channelID {
				channels = append(channels, id)
			}
		}
		if enabled {
			channels = append(channels, channelID)
		}
		c.CommandOnly.Channels = channels
		return nil
	})
	return cfg.CommandOnly, err
}

// SetKeyword stores the guild's keyword role configuration
func (s *Settings) SetKeyword(guildID, keyword string, role Role) (models.KeywordConfig, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return models.KeywordConfig{}, fmt.Errorf("%w: keyword is required", ErrInvalidSetting)
	}
	if role.ID == "" && role.Name == "" {
		return models.KeywordConfig{}, fmt.Errorf("%w: role is required", ErrInvalidSetting)
	}
	kc := models.KeywordConfig{Keyword: keyword, RoleName: role.Name, RoleID: role.ID}
	s.store.SetKeywordConfig(guildID, kc)
	return kc, nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func validColor(c string) error {
	if c == "" {
		return nil
	}
	if _, err := announce.ParseColor(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	return nil
}

func checkThreshold(name string, v *int, lo, hi int) error {
	if v == nil || *v == 0 {
		return nil
	}
	if *v < lo || *v > hi {
		return fmt.Errorf("%w: %s must be between %d and %d", ErrThresholdOutOfRange, name, lo, hi)
	}
	return nil
}

func applyThreshold(dst **int, v *int) {
	if v == nil {
		return
	}
	if *v == 0 {
		*dst = nil
		return
	}
	n := *v
	*dst = &n
}

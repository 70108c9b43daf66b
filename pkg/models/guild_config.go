package models

// Feature names as stored in GuildConfig documents
const (
	FeatureWelcome     = "welcome"
	FeatureGoodbye     = "goodbye"
	FeatureLeveling    = "leveling"
	FeatureWarnings    = "warnings"
	FeatureTutorial    = "tutorial"
	FeatureCommandOnly = "command_only"
)

// Thumbnail modes for welcome / goodbye embeds
const (
	ThumbnailAvatar = "avatar"
	ThumbnailServer = "server"
	ThumbnailNone   = "none"
)

// MessageFeature configures a welcome or goodbye announcement
type MessageFeature struct {
	Enabled   bool   `bson:"enabled" json:"enabled"`
	ChannelID string `bson:"channelId,omitempty" json:"channel_id,omitempty"`
	Message   string `bson:"message,omitempty" json:"message,omitempty"`
	Color     string `bson:"color,omitempty" json:"color,omitempty"`
	GIF       string `bson:"gif,omitempty" json:"gif,omitempty"`
	Thumbnail string `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
}

// LevelingFeature configures level-up announcements
type LevelingFeature struct {
	Enabled   bool   `bson:"enabled" json:"enabled"`
	ChannelID string `bson:"channelId,omitempty" json:"channel_id,omitempty"`
	Message   string `bson:"message,omitempty" json:"message,omitempty"`
	Color     string `bson:"color,omitempty" json:"color,omitempty"`
}

// WarningsFeature configures warning logging and automatic escalation.
// AutoKick and AutoBan are nil when the threshold is unset.
type WarningsFeature struct {
	Enabled      bool   `bson:"enabled" json:"enabled"`
	LogChannelID string `bson:"logChannelId,omitempty" json:"log_channel,omitempty"`
	AutoKick     *int   `bson:"autokick,omitempty" json:"autokick,omitempty"`
	AutoBan      *int   `bson:"autoban,omitempty" json:"autoban,omitempty"`
}

// TutorialFeature configures the message sent after a successful verification
type TutorialFeature struct {
	Enabled   bool   `bson:"enabled" json:"enabled"`
	ChannelID string `bson:"channelId,omitempty" json:"channel_id,omitempty"`
}

// CommandOnlyFeature lists channels where only commands may be posted
type CommandOnlyFeature struct {
	Channels []string `bson:"channels" json:"channels"`
}

// Has reports whether channelID is a command-only channel
func (f CommandOnlyFeature) Has(channelID string) bool {
	for _, c := range f.Channels {
		if c == channelID {
			return true
		}
	}
	return false
}

// GuildConfig holds every per-guild feature setting
type GuildConfig struct {
	GuildID     string             `bson:"guildId" json:"-"`
	Welcome     MessageFeature     `bson:"welcome" json:"welcome"`
	Goodbye     MessageFeature     `bson:"goodbye" json:"goodbye"`
	Leveling    LevelingFeature    `bson:"leveling" json:"leveling"`
	Warnings    WarningsFeature    `bson:"warnings" json:"warnings"`
	Tutorial    TutorialFeature    `bson:"tutorial" json:"tutorial"`
	CommandOnly CommandOnlyFeature `bson:"commandOnly" json:"command_only"`
}

// Clone returns a deep copy of the config
func (c GuildConfig) Clone() GuildConfig {
	out := c
	if c.Warnings.AutoKick != nil {
		v := *c.Warnings.AutoKick
		out.Warnings.AutoKick = &v
	}
	if c.Warnings.AutoBan != nil {
		v := *c.Warnings.AutoBan
		out.Warnings.AutoBan = &v
	}
	out.CommandOnly.Channels = append([]string(nil), c.CommandOnly.Channels...)
	return out
}

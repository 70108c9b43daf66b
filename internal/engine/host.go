// Package engine implements the guild automation rules: leveling, warning
// escalation, Roblox verification with keyword role sync, greetings and
// configuration validation. Engines read and write the store, call the Host
// for member-level primitives and return announcements as Actions for the
// caller to deliver.
package engine

import (
	"context"
	"errors"

	"github.com/PancyStudios/XLZRBotGo/pkg/roblox"
)

var (
	ErrTargetIsBot         = errors.New("target is a bot")
	ErrSelfWarn            = errors.New("cannot warn yourself")
	ErrInsufficientRank    = errors.New("target has an equal or higher role")
	ErrThresholdOutOfRange = errors.New("threshold out of range")
	ErrLookupFailed        = errors.New("profile lookup failed")
	ErrMemberNotFound      = errors.New("member not found")
	ErrAuthorityDenied     = errors.New("missing permissions")
	ErrInvalidSetting      = errors.New("invalid setting")
)

// Member is the part of a guild member the engines need
type Member struct {
	GuildID     string
	UserID      string
	Username    string
	Nickname    string
	AvatarURL   string
	Bot         bool
	RoleIDs     []string
	// Rank is the position of the member's highest role. Guild owners get
	// the maximum rank.
	Rank int
}

// HasRole reports whether the member currently holds roleID
func (m Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Mention returns the chat mention for the member
func (m Member) Mention() string {
	return "<@" + m.UserID + ">"
}

// Role is a guild role
type Role struct {
	ID   string
	Name string
}

// Host provides the chat platform primitives. Failures caused by missing
// permissions must wrap ErrAuthorityDenied; unknown members must wrap
// ErrMemberNotFound.
type Host interface {
	Member(ctx context.Context, guildID, userID string) (Member, error)
	Roles(ctx context.Context, guildID string) ([]Role, error)
	SetNickname(ctx context.Context, guildID, userID, nickname string) error
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
}

// ProfileLookup resolves a Roblox username. Unknown users return
// roblox.ErrProfileNotFound.
type ProfileLookup interface {
	Lookup(ctx context.Context, username string) (roblox.Profile, error)
}

// ActionKind selects how the host handles an Action
type ActionKind int

const (
	ActionAnnounce ActionKind = iota
	ActionDeleteMessage
)

func (k ActionKind) String() string {
	switch k {
	case ActionAnnounce:
		return "announce"
	case ActionDeleteMessage:
		return "delete"
	default:
		return "unknown"
	}
}

// Action is a side effect requested by an engine
type Action struct {
	Kind      ActionKind
	GuildID   string
	ChannelID string
	MessageID string

	Title       string
	Description string
	Color       int
	Thumbnail   string
	Image       string
	Footer      string
}

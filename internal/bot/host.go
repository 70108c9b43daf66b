package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/engine"
)

// DiscordHost implements engine.Host on a discordgo session
type DiscordHost struct {
	session *discordgo.Session
}

// NewDiscordHost creates a Host backed by session
func NewDiscordHost(session *discordgo.Session) *DiscordHost {
	return &DiscordHost{session: session}
}

// classify maps Discord REST failures onto the engine sentinels
func classify(err error) error {
	if err == nil {
		return nil
	}

	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}

	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return fmt.Errorf("%w: %v", engine.ErrAuthorityDenied, err)
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
			return fmt.Errorf("%w: %v", engine.ErrMemberNotFound, err)
		}
	}
	if rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", engine.ErrAuthorityDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", engine.ErrMemberNotFound, err)
		}
	}
	return err
}

func (h *DiscordHost) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if g, err := h.session.State.Guild(guildID); err == nil {
		return g, nil
	}
	g, err := h.session.Guild(guildID, discordgo.WithContext(ctx))
	return g, classify(err)
}

func (h *DiscordHost) Member(ctx context.Context, guildID, userID string) (engine.Member, error) {
	m, err := h.session.State.Member(guildID, userID)
	if err != nil {
		m, err = h.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return engine.Member{}, classify(err)
		}
	}

	g, err := h.guild(ctx, guildID)
	if err != nil {
		return engine.Member{}, err
	}
	return toMember(g, m), nil
}

// toMember converts a discordgo member. Rank is the highest position among
// the member's roles; the guild owner outranks everybody.
func toMember(g *discordgo.Guild, m *discordgo.Member) engine.Member {
	out := engine.Member{
		GuildID:  g.ID,
		Nickname: m.Nick,
		RoleIDs:  append([]string(nil), m.Roles...),
		Rank:     memberRank(g, m),
	}
	if m.User != nil {
		out.UserID = m.User.ID
		out.Username = m.User.Username
		out.Bot = m.User.Bot
		out.AvatarURL = m.User.AvatarURL("256")
	}
	return out
}

func memberRank(g *discordgo.Guild, m *discordgo.Member) int {
	if m.User != nil && g.OwnerID == m.User.ID {
		return math.MaxInt
	}

	positions := make(map[string]int, len(g.Roles))
	for _, r := range g.Roles {
		positions[r.ID] = r.Position
	}

	rank := 0
	for _, id := range m.Roles {
		if p, ok := positions[id]; ok && p > rank {
			rank = p
		}
	}
	return rank
}

func (h *DiscordHost) Roles(ctx context.Context, guildID string) ([]engine.Role, error) {
	roles, err := h.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	out := make([]engine.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, engine.Role{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (h *DiscordHost) SetNickname(ctx context.Context, guildID, userID, nickname string) error {
	return classify(h.session.GuildMemberNickname(guildID, userID, nickname, discordgo.WithContext(ctx)))
}

func (h *DiscordHost) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return classify(h.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

func (h *DiscordHost) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return classify(h.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

func (h *DiscordHost) Kick(ctx context.Context, guildID, userID, reason string) error {
	return classify(h.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx)))
}

func (h *DiscordHost) Ban(ctx context.Context, guildID, userID, reason string) error {
	return classify(h.session.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx)))
}

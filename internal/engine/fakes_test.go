package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/XLZRBotGo/internal/store"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
	"github.com/PancyStudios/XLZRBotGo/pkg/roblox"
)

type fakeHost struct {
	mu        sync.Mutex
	members   map[string]*Member // key guild/user
	roles     map[string][]Role
	nicknames map[string]string

	denyNickname bool
	denyRoles    bool
	denyEnforce  bool
	memberErr    map[string]error

	kicks []string
	bans  []string
	adds  int
	rems  int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		members:   make(map[string]*Member),
		roles:     make(map[string][]Role),
		nicknames: make(map[string]string),
		memberErr: make(map[string]error),
	}
}

func memberKey(guildID, userID string) string { return guildID + "/" + userID }

func (h *fakeHost) addMember(m Member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := m
	h.members[memberKey(m.GuildID, m.UserID)] = &cp
}

func (h *fakeHost) removeMember(guildID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.members, memberKey(guildID, userID))
}

func (h *fakeHost) Member(_ context.Context, guildID, userID string) (Member, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.memberErr[memberKey(guildID, userID)]; err != nil {
		return Member{}, err
	}
	m, ok := h.members[memberKey(guildID, userID)]
	if !ok {
		return Member{}, fmt.Errorf("%w: %s", ErrMemberNotFound, userID)
	}
	cp := *m
	cp.RoleIDs = append([]string(nil), m.RoleIDs...)
	return cp, nil
}

func (h *fakeHost) Roles(_ context.Context, guildID string) ([]Role, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Role(nil), h.roles[guildID]...), nil
}

func (h *fakeHost) SetNickname(_ context.Context, guildID, userID, nickname string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.denyNickname {
		return fmt.Errorf("%w: rename", ErrAuthorityDenied)
	}
	h.nicknames[memberKey(guildID, userID)] = nickname
	return nil
}

func (h *fakeHost) AddRole(_ context.Context, guildID, userID, roleID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.denyRoles {
		return fmt.Errorf("%w: add role", ErrAuthorityDenied)
	}
	m := h.members[memberKey(guildID, userID)]
	m.RoleIDs = append(m.RoleIDs, roleID)
	h.adds++
	return nil
}

func (h *fakeHost) RemoveRole(_ context.Context, guildID, userID, roleID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.denyRoles {
		return fmt.Errorf("%w: remove role", ErrAuthorityDenied)
	}
	m := h.members[memberKey(guildID, userID)]
	kept := m.RoleIDs[:0]
	for _, id := range m.RoleIDs {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	m.RoleIDs = kept
	h.rems++
	return nil
}

func (h *fakeHost) Kick(_ context.Context, guildID, userID, _ string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.denyEnforce {
		return fmt.Errorf("%w: kick", ErrAuthorityDenied)
	}
	h.kicks = append(h.kicks, userID)
	return nil
}

func (h *fakeHost) Ban(_ context.Context, guildID, userID, _ string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.denyEnforce {
		return fmt.Errorf("%w: ban", ErrAuthorityDenied)
	}
	h.bans = append(h.bans, userID)
	return nil
}

func (h *fakeHost) nickname(guildID, userID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nicknames[memberKey(guildID, userID)]
}

type fakeLookup struct {
	mu       sync.Mutex
	profiles map[string]string // username -> display name
	errs     map[string]error
	block    map[string]bool
	calls    int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		profiles: make(map[string]string),
		errs:     make(map[string]error),
		block:    make(map[string]bool),
	}
}

func (l *fakeLookup) set(username, displayName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profiles[username] = displayName
}

func (l *fakeLookup) Lookup(ctx context.Context, username string) (roblox.Profile, error) {
	l.mu.Lock()
	l.calls++
	err := l.errs[username]
	name, ok := l.profiles[username]
	block := l.block[username]
	l.mu.Unlock()

	if block {
		<-ctx.Done()
		return roblox.Profile{}, fmt.Errorf("%w: %v", roblox.ErrUnavailable, ctx.Err())
	}
	if err != nil {
		return roblox.Profile{}, err
	}
	if !ok {
		return roblox.Profile{}, roblox.ErrProfileNotFound
	}
	return roblox.Profile{ID: 1, Username: username, DisplayName: name}, nil
}

var testKeyword = models.KeywordConfig{Keyword: "OG", RoleName: "OG member"}

type nopPersister struct{}

func (nopPersister) LoadState(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (nopPersister) SaveState(context.Context, string, []byte) error          { return nil }

func newTestStore() *store.Store {
	return store.New(nopPersister{}, testKeyword)
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

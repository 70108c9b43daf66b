package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/XLZRBotGo/pkg/announce"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
	"github.com/PancyStudios/XLZRBotGo/pkg/roblox"
)

type verifyFixture struct {
	engine *Verification
	host   *fakeHost
	lookup *fakeLookup
}

func newVerifyFixture(t *testing.T) verifyFixture {
	t.Helper()
	h := newFakeHost()
	h.roles["g"] = []Role{{ID: "r-og", Name: "OG member"}, {ID: "r-vip", Name: "VIP"}}
	h.addMember(Member{GuildID: "g", UserID: "u", Username: "alice"})

	l := newFakeLookup()
	e := NewVerification(newTestStore(), h, l, VerificationOptions{
		LookupTimeout:    50 * time.Millisecond,
		SweepConcurrency: 2,
	})
	return verifyFixture{engine: e, host: h, lookup: l}
}

func (f verifyFixture) member(t *testing.T, userID string) Member {
	t.Helper()
	m, err := f.host.Member(context.Background(), "g", userID)
	require.NoError(t, err)
	return m
}

func TestHasKeyword(t *testing.T) {
	assert.True(t, HasKeyword("PlayerOGx", "OG"))
	assert.True(t, HasKeyword("playerogx", "OG"))
	assert.True(t, HasKeyword("OG", "og"))
	assert.False(t, HasKeyword("Player", "OG"))
	assert.False(t, HasKeyword("anything", ""))
}

func TestVerifySuccess(t *testing.T) {
	f := newVerifyFixture(t)
	f.lookup.set("builder", "PlayerOGx")

	out, err := f.engine.Verify(context.Background(), VerifyRequest{
		GuildID: "g", UserID: "u", RequesterID: "u", Username: "builder", Time: t0,
	})
	require.NoError(t, err)

	assert.True(t, out.NicknameUpdated)
	assert.Equal(t, "PlayerOGx", f.host.nickname("g", "u"))
	assert.Equal(t, RoleAdded, out.Role.Change)
	assert.True(t, out.Role.HasRole())
	assert.Equal(t, "r-og", out.Role.RoleID)

	rec, ok := f.engine.store.Verification("g", "u")
	require.True(t, ok)
	assert.Equal(t, models.VerificationRecord{
		RobloxUsername: "builder", RobloxDisplayName: "PlayerOGx", VerifiedAt: t0, VerifiedBy: "u",
	}, rec)
	assert.Empty(t, out.Actions)
}

func TestVerifyByAdminRecordsAdmin(t *testing.T) {
	f := newVerifyFixture(t)
	f.lookup.set("builder", "Builder")

	out, err := f.engine.Verify(context.Background(), VerifyRequest{
		GuildID: "g", UserID: "u", RequesterID: "admin", Username: "builder", Time: t0,
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", out.Record.VerifiedBy)
	assert.Equal(t, RoleUnchanged, out.Role.Change)
}

func TestVerifyNicknameDeniedIsNonFatal(t *testing.T) {
	f := newVerifyFixture(t)
	f.host.denyNickname = true
	f.lookup.set("builder", "OG Builder")

	out, err := f.engine.Verify(context.Background(), VerifyRequest{GuildID: "g", UserID: "u", Username: "builder", Time: t0})
	require.NoError(t, err)
	assert.False(t, out.NicknameUpdated)
	assert.ErrorIs(t, out.NicknameErr, ErrAuthorityDenied)
	assert.Equal(t, RoleAdded, out.Role.Change)

	_, ok := f.engine.store.Verification("g", "u")
	assert.True(t, ok)
}

func TestVerifyRoleDeniedIsNonFatal(t *testing.T) {
	f := newVerifyFixture(t)
	f.host.denyRoles = true
	f.lookup.set("builder", "OG Builder")

	out, err := f.engine.Verify(context.Background(), VerifyRequest{GuildID: "g", UserID: "u", Username: "builder", Time: t0})
	require.NoError(t, err)
	assert.Equal(t, RoleFailed, out.Role.Change)
	assert.ErrorIs(t, out.Role.Err, ErrAuthorityDenied)
	assert.False(t, out.Role.HasRole())
}

func TestVerifyLookupFailureKeepsPriorRecord(t *testing.T) {
	f := newVerifyFixture(t)
	prior := models.VerificationRecord{RobloxUsername: "old", RobloxDisplayName: "Old Name", VerifiedAt: t0, VerifiedBy: "u"}
	f.engine.store.PutVerification("g", "u", prior)

	_, err := f.engine.Verify(context.Background(), VerifyRequest{GuildID: "g", UserID: "u", Username: "ghost", Time: t0.Add(time.Hour)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.ErrorIs(t, err, roblox.ErrProfileNotFound)

	f.lookup.errs["down"] = fmt.Errorf("%w: 503", roblox.ErrUnavailable)
	_, err = f.engine.Verify(context.Background(), VerifyRequest{GuildID: "g", UserID: "u", Username: "down", Time: t0.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrLookupFailed)

	rec, _ := f.engine.store.Verification("g", "u")
	assert.Equal(t, prior, rec)
	assert.Empty(t, f.host.nickname("g", "u"), "no nickname change on lookup failure")
}

func TestVerifyLookupTimeout(t *testing.T) {
	f := newVerifyFixture(t)
	f.lookup.block["slow"] = true

	start := time.Now()
	_, err := f.engine.Verify(context.Background(), VerifyRequest{GuildID: "g", UserID: "u", Username: "slow", Time: t0})
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.Less(t, time.Since(start), time.Second)
}

func TestVerifyTutorialAction(t *testing.T) {
	f := newVerifyFixture(t)
	f.lookup.set("builder", "Builder")
	_, _ = f.engine.store.UpdateGuildConfig("g", func(c *models.GuildConfig) error {
		c.Tutorial = models.TutorialFeature{Enabled: true, ChannelID: "tut"}
		return nil
	})

	out, err := f.engine.Verify(context.Background(), VerifyRequest{GuildID: "g", UserID: "u", Username: "builder", Time: t0})
	require.NoError(t, err)
	require.Len(t, out.Actions, 1)
	assert.Equal(t, "tut", out.Actions[0].ChannelID)
	assert.Equal(t, announce.TutorialTitle, out.Actions[0].Title)
	assert.Equal(t, announce.Render(announce.DefaultTutorial, map[string]string{announce.Mention: "<@u>"}), out.Actions[0].Description)
	assert.NotContains(t, out.Actions[0].Description, "{mention}")
}

func TestSyncRoleIsIdempotent(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	first := f.engine.SyncRole(ctx, f.member(t, "u"), "PlayerOGx")
	assert.Equal(t, RoleAdded, first.Change)

	second := f.engine.SyncRole(ctx, f.member(t, "u"), "PlayerOGx")
	assert.Equal(t, RoleUnchanged, second.Change)
	assert.Equal(t, 1, f.host.adds)

	removed := f.engine.SyncRole(ctx, f.member(t, "u"), "Player")
	assert.Equal(t, RoleRemoved, removed.Change)

	again := f.engine.SyncRole(ctx, f.member(t, "u"), "Player")
	assert.Equal(t, RoleUnchanged, again.Change)
	assert.Equal(t, 1, f.host.rems)
}

func TestSyncRolePrefersStoredRoleID(t *testing.T) {
	f := newVerifyFixture(t)
	// role renamed after setkeyword: the stored id still resolves it
	f.engine.store.SetKeywordConfig("g", models.KeywordConfig{Keyword: "VIP", RoleName: "Old VIP Name", RoleID: "r-vip"})

	rs := f.engine.SyncRole(context.Background(), f.member(t, "u"), "vip player")
	assert.Equal(t, RoleAdded, rs.Change)
	assert.Equal(t, "r-vip", rs.RoleID)
	assert.Equal(t, "VIP", rs.RoleName)
}

func TestSyncRoleMissingRole(t *testing.T) {
	f := newVerifyFixture(t)
	f.engine.store.SetKeywordConfig("g", models.KeywordConfig{Keyword: "X", RoleName: "Nope"})

	rs := f.engine.SyncRole(context.Background(), f.member(t, "u"), "X")
	assert.Equal(t, RoleMissing, rs.Change)
	assert.True(t, rs.HasKeyword)
}

func seedRecords(f verifyFixture, n int) {
	for i := 1; i <= n; i++ {
		userID := fmt.Sprintf("u%02d", i)
		username := fmt.Sprintf("player%02d", i)
		f.host.addMember(Member{GuildID: "g", UserID: userID, Username: username})
		f.engine.store.PutVerification("g", userID, models.VerificationRecord{
			RobloxUsername: username, RobloxDisplayName: "Old", VerifiedAt: t0, VerifiedBy: userID,
		})
		f.lookup.set(username, "OG "+username)
	}
}

func TestReconcileAllContinuesAfterFailure(t *testing.T) {
	f := newVerifyFixture(t)
	seedRecords(f, 6)
	f.lookup.errs["player03"] = errors.New("connection reset")

	report := f.engine.ReconcileAll(context.Background(), t0)

	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 5, report.Updated)
	assert.Equal(t, 1, report.Failed)
	assert.NotEmpty(t, report.ID)

	for i := 1; i <= 6; i++ {
		userID := fmt.Sprintf("u%02d", i)
		rec, _ := f.engine.store.Verification("g", userID)
		if i == 3 {
			assert.Equal(t, "Old", rec.RobloxDisplayName)
			continue
		}
		assert.Equal(t, fmt.Sprintf("OG player%02d", i), rec.RobloxDisplayName)
		assert.Equal(t, rec.RobloxDisplayName, f.host.nickname("g", userID))
		assert.True(t, f.member(t, userID).HasRole("r-og"))
	}
}

func TestReconcileAllUsesStoredUsername(t *testing.T) {
	f := newVerifyFixture(t)
	f.engine.store.PutVerification("g", "u", models.VerificationRecord{RobloxUsername: "builder", RobloxDisplayName: "Builder"})
	f.lookup.set("builder", "OG Builder")
	f.lookup.set("Builder", "wrong")

	report := f.engine.ReconcileAll(context.Background(), t0)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, SweepUpdated, report.Outcomes[0].Status)
	assert.Equal(t, "OG Builder", report.Outcomes[0].NewDisplayName)
	assert.Equal(t, RoleAdded, report.Outcomes[0].Role)
}

func TestReconcileAllUnchangedIsNoOp(t *testing.T) {
	f := newVerifyFixture(t)
	f.engine.store.PutVerification("g", "u", models.VerificationRecord{RobloxUsername: "builder", RobloxDisplayName: "Builder"})
	f.lookup.set("builder", "Builder")

	report := f.engine.ReconcileAll(context.Background(), t0)
	assert.Equal(t, 1, report.Unchanged)
	assert.Empty(t, f.host.nickname("g", "u"))
	assert.Zero(t, f.host.adds+f.host.rems)
}

func TestReconcileAllSkipsDepartedMembers(t *testing.T) {
	f := newVerifyFixture(t)
	seedRecords(f, 2)
	f.host.removeMember("g", "u01")

	report := f.engine.ReconcileAll(context.Background(), t0)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Updated)

	rec, ok := f.engine.store.Verification("g", "u01")
	require.True(t, ok, "record of a departed member is retained")
	assert.Equal(t, "Old", rec.RobloxDisplayName)
}

func TestReconcileAllTimeoutIsPerRecordFailure(t *testing.T) {
	f := newVerifyFixture(t)
	seedRecords(f, 3)
	f.lookup.block["player02"] = true

	start := time.Now()
	report := f.engine.ReconcileAll(context.Background(), t0)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Updated)
}

func TestReconcileAllRecoversFromPanic(t *testing.T) {
	f := newVerifyFixture(t)
	seedRecords(f, 3)
	f.engine.lookup = panicLookup{inner: f.lookup, username: "player01"}

	report := f.engine.ReconcileAll(context.Background(), t0)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Updated)
}

type panicLookup struct {
	inner    *fakeLookup
	username string
}

func (p panicLookup) Lookup(ctx context.Context, username string) (roblox.Profile, error) {
	if username == p.username {
		panic("lookup exploded")
	}
	return p.inner.Lookup(ctx, username)
}

package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
	"github.com/PancyStudios/XLZRBotGo/pkg/roblox"
)

func TestVerifyError(t *testing.T) {
	notFound := fmt.Errorf("%w: %w", engine.ErrLookupFailed, roblox.ErrProfileNotFound)
	assert.Contains(t, verifyError(notFound), "does not exist")

	down := fmt.Errorf("%w: %w", engine.ErrLookupFailed, roblox.ErrUnavailable)
	assert.Contains(t, verifyError(down), "could not be reached")

	assert.Contains(t, verifyError(context.DeadlineExceeded), "could not be reached")
	assert.Contains(t, verifyError(engine.ErrMemberNotFound), "not a member")
	assert.Contains(t, verifyError(errors.New("x")), "Verification failed")
}

func TestRoleLine(t *testing.T) {
	assert.Contains(t, roleLine(engine.RoleSync{RoleName: "OG member", Change: engine.RoleAdded}), "granted")
	assert.Contains(t, roleLine(engine.RoleSync{RoleName: "OG member", Change: engine.RoleRemoved}), "removed")
	assert.Contains(t, roleLine(engine.RoleSync{RoleName: "OG member", Change: engine.RoleMissing}), "does not exist")
	assert.Contains(t, roleLine(engine.RoleSync{RoleName: "OG member", Change: engine.RoleFailed}), "could not be updated")
	assert.Contains(t, roleLine(engine.RoleSync{RoleName: "OG member", Change: engine.RoleUnchanged, HadRole: true}), "kept")
	assert.Contains(t, roleLine(engine.RoleSync{Keyword: "OG", Change: engine.RoleUnchanged}), "does not contain **OG**")
}

func TestOutcomeEmbed(t *testing.T) {
	e := outcomeEmbed("u1", &engine.VerificationOutcome{
		Record:          models.VerificationRecord{RobloxUsername: "builder", RobloxDisplayName: "OG Builder", VerifiedAt: time.Unix(0, 0)},
		NicknameUpdated: false,
		Role:            engine.RoleSync{RoleName: "OG member", Change: engine.RoleAdded},
	})

	assert.Contains(t, e.Description, "<@u1>")
	require.Len(t, e.Fields, 3)
	assert.Equal(t, "OG Builder", e.Fields[0].Value)
	assert.Equal(t, "Could not be changed", e.Fields[1].Value)
}

func TestStatusEmbed(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make(map[string]models.VerificationRecord)
	for i := 0; i < 7; i++ {
		records[fmt.Sprintf("u%d", i)] = models.VerificationRecord{
			RobloxUsername: fmt.Sprintf("name%d", i),
			VerifiedAt:     base.Add(time.Duration(i) * time.Hour),
		}
	}

	e := statusEmbed(models.KeywordConfig{Keyword: "OG", RoleName: "OG member"}, false, records)
	require.Len(t, e.Fields, 4)
	assert.Equal(t, "`OG` (default)", e.Fields[0].Value)
	assert.Equal(t, "OG member", e.Fields[1].Value)
	assert.Equal(t, "7", e.Fields[2].Value)

	recent := e.Fields[3].Value
	assert.Equal(t, 5, strings.Count(recent, "\n"))
	assert.Less(t, strings.Index(recent, "name6"), strings.Index(recent, "name5"))
	assert.NotContains(t, recent, "name1")

	custom := statusEmbed(models.KeywordConfig{Keyword: "VIP", RoleID: "r1"}, true, nil)
	assert.Equal(t, "<@&r1>", custom.Fields[1].Value)
	assert.Contains(t, custom.Fields[0].Value, "server")
	assert.Contains(t, custom.Fields[3].Value, "No verified members")
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/PancyStudios/XLZRBotGo/internal/store"
	"github.com/PancyStudios/XLZRBotGo/pkg/announce"
	apperrors "github.com/PancyStudios/XLZRBotGo/pkg/errors"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
	"github.com/PancyStudios/XLZRBotGo/pkg/metrics"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

// RoleChange is the result of a keyword role synchronisation
type RoleChange string

const (
	RoleUnchanged RoleChange = "unchanged"
	RoleAdded     RoleChange = "added"
	RoleRemoved   RoleChange = "removed"
	// RoleMissing means the configured role does not exist in the guild
	RoleMissing RoleChange = "missing"
	// RoleFailed means adding or removing the role was refused or errored
	RoleFailed RoleChange = "failed"
)

// RoleSync describes one keyword role decision
type RoleSync struct {
	Keyword    string
	RoleID     string
	RoleName   string
	HasKeyword bool
	HadRole    bool
	Change     RoleChange
	Err        error
}

// HasRole reports whether the member holds the role after the sync
func (r RoleSync) HasRole() bool {
	switch r.Change {
	case RoleAdded:
		return true
	case RoleRemoved:
		return false
	default:
		return r.HadRole
	}
}

// VerifyRequest asks to bind UserID to a Roblox account. RequesterID is the
// member themself or an admin acting for them.
type VerifyRequest struct {
	GuildID     string
	UserID      string
	RequesterID string
	Username    string
	Time        time.Time
}

// VerificationOutcome is the result of a successful verification
type VerificationOutcome struct {
	Record          models.VerificationRecord
	NicknameUpdated bool
	NicknameErr     error
	Role            RoleSync
	Actions         []Action
}

// SweepStatus classifies one record of a sweep
type SweepStatus string

const (
	SweepUnchanged SweepStatus = "unchanged"
	SweepUpdated   SweepStatus = "updated"
	SweepSkipped   SweepStatus = "skipped"
	SweepFailed    SweepStatus = "failed"
)

// RecordOutcome is the sweep result for one verification record
type RecordOutcome struct {
	GuildID         string      `json:"guildId"`
	UserID          string      `json:"userId"`
	Username        string      `json:"robloxUsername"`
	OldDisplayName  string      `json:"oldDisplayName,omitempty"`
	NewDisplayName  string      `json:"newDisplayName,omitempty"`
	Status          SweepStatus `json:"status"`
	NicknameUpdated bool        `json:"nicknameUpdated,omitempty"`
	Role            RoleChange  `json:"role,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// SweepReport aggregates a reconciliation sweep
type SweepReport struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Total      int             `json:"total"`
	Unchanged  int             `json:"unchanged"`
	Updated    int             `json:"updated"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Outcomes   []RecordOutcome `json:"outcomes"`
}

// VerificationOptions tunes lookups and sweep pacing
type VerificationOptions struct {
	LookupTimeout    time.Duration
	SweepRate        float64
	SweepConcurrency int
}

// Verification binds members to Roblox accounts and keeps the keyword role
// and nickname in line with the Roblox display name
type Verification struct {
	store   *store.Store
	host    Host
	lookup  ProfileLookup
	opts    VerificationOptions
	limiter *rate.Limiter
}

// NewVerification creates the verification engine
func NewVerification(s *store.Store, host Host, lookup ProfileLookup, opts VerificationOptions) *Verification {
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 10 * time.Second
	}
	if opts.SweepConcurrency <= 0 {
		opts.SweepConcurrency = 1
	}
	limit := rate.Inf
	if opts.SweepRate > 0 {
		limit = rate.Limit(opts.SweepRate)
	}
	return &Verification{
		store:   s,
		host:    host,
		lookup:  lookup,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (e *Verification) lookupDisplayName(ctx context.Context, username string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.LookupTimeout)
	defer cancel()

	profile, err := e.lookup.Lookup(ctx, username)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	if profile.DisplayName == "" {
		return profile.Username, nil
	}
	return profile.DisplayName, nil
}

// Verify resolves the Roblox username and, on success, mirrors the display
// name onto the member's nickname, overwrites the verification record and
// syncs the keyword role. A failed lookup leaves any previous record as it
// was. Nickname and role failures are reported in the outcome only.
func (e *Verification) Verify(ctx context.Context, req VerifyRequest) (*VerificationOutcome, error) {
	source := "self"
	if req.RequesterID != "" && req.RequesterID != req.UserID {
		source = "admin"
	}

	unlock := e.store.LockRecord(req.GuildID, req.UserID)
	defer unlock()

	displayName, err := e.lookupDisplayName(ctx, req.Username)
	if err != nil {
		metrics.Verifications.WithLabelValues(source, "lookup_failed").Inc()
		return nil, err
	}

	member, err := e.host.Member(ctx, req.GuildID, req.UserID)
	if err != nil {
		metrics.Verifications.WithLabelValues(source, "member_missing").Inc()
		return nil, err
	}

	out := &VerificationOutcome{}
	out.NicknameErr = e.mirrorNickname(ctx, member, displayName)
	out.NicknameUpdated = out.NicknameErr == nil

	verifiedBy := req.RequesterID
	if verifiedBy == "" {
		verifiedBy = req.UserID
	}
	out.Record = models.VerificationRecord{
		RobloxUsername:    req.Username,
		RobloxDisplayName: displayName,
		VerifiedAt:        req.Time,
		VerifiedBy:        verifiedBy,
	}
	e.store.PutVerification(req.GuildID, req.UserID, out.Record)

	out.Role = e.SyncRole(ctx, member, displayName)

	if tutorial := e.store.GuildConfig(req.GuildID).Tutorial; tutorial.Enabled && tutorial.ChannelID != "" {
		out.Actions = append(out.Actions, Action{
			Kind:      ActionAnnounce,
			GuildID:   req.GuildID,
			ChannelID: tutorial.ChannelID,
			Title:     announce.TutorialTitle,
			Description: announce.Render(announce.DefaultTutorial,
				map[string]string{announce.Mention: member.Mention(), announce.User: member.Username}),
			Color:  announce.ColorTutorial,
			Footer: announce.TutorialFooter,
		})
	}

	metrics.Verifications.WithLabelValues(source, "ok").Inc()
	logger.Info(fmt.Sprintf("Verified %s in %s as %s (%s)", req.UserID, req.GuildID, req.Username, displayName), "Verification")
	return out, nil
}

func (e *Verification) mirrorNickname(ctx context.Context, member Member, displayName string) error {
	err := e.host.SetNickname(ctx, member.GuildID, member.UserID, displayName)
	if err != nil && !errors.Is(err, ErrAuthorityDenied) {
		logger.Warn(fmt.Sprintf("Could not set nickname of %s in %s: %v", member.UserID, member.GuildID, err), "Verification")
	}
	return err
}

func (e *Verification) resolveRole(ctx context.Context, guildID string, kc models.KeywordConfig) (Role, bool, error) {
	roles, err := e.host.Roles(ctx, guildID)
	if err != nil {
		return Role{}, false, err
	}
	if kc.RoleID != "" {
		for _, r := range roles {
			if r.ID == kc.RoleID {
				return r, true, nil
			}
		}
	}
	for _, r := range roles {
		if r.Name == kc.RoleName {
			return r, true, nil
		}
	}
	return Role{}, false, nil
}

// HasKeyword reports whether keyword occurs in displayName, ignoring case
func HasKeyword(displayName, keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(displayName), strings.ToLower(keyword))
}

// SyncRole adds the keyword role when the display name contains the keyword
// and removes it when it does not. With unchanged inputs a second call is a
// no-op.
func (e *Verification) SyncRole(ctx context.Context, member Member, displayName string) RoleSync {
	kc := e.store.KeywordConfig(member.GuildID)
	rs := RoleSync{
		Keyword:    kc.Keyword,
		RoleName:   kc.RoleName,
		HasKeyword: HasKeyword(displayName, kc.Keyword),
		Change:     RoleUnchanged,
	}

	role, ok, err := e.resolveRole(ctx, member.GuildID, kc)
	if err != nil {
		rs.Change, rs.Err = RoleFailed, err
		metrics.RoleChanges.WithLabelValues(string(rs.Change)).Inc()
		return rs
	}
	if !ok {
		rs.Change = RoleMissing
		metrics.RoleChanges.WithLabelValues(string(rs.Change)).Inc()
		return rs
	}
	rs.RoleID, rs.RoleName = role.ID, role.Name
	rs.HadRole = member.HasRole(role.ID)

	switch {
	case rs.HasKeyword && !rs.HadRole:
		if err := e.host.AddRole(ctx, member.GuildID, member.UserID, role.ID); err != nil {
			rs.Change, rs.Err = RoleFailed, err
		} else {
			rs.Change = RoleAdded
		}
	case !rs.HasKeyword && rs.HadRole:
		if err := e.host.RemoveRole(ctx, member.GuildID, member.UserID, role.ID); err != nil {
			rs.Change, rs.Err = RoleFailed, err
		} else {
			rs.Change = RoleRemoved
		}
	}

	if rs.Err != nil {
		logger.Warn(fmt.Sprintf("Keyword role sync for %s in %s failed: %v", member.UserID, member.GuildID, rs.Err), "Verification")
	}
	metrics.RoleChanges.WithLabelValues(string(rs.Change)).Inc()
	return rs
}

// ReconcileAll re-checks every verification record against Roblox. Members
// who left are skipped and keep their record. When the display name changed
// the record is updated and the nickname and keyword role are applied again.
// A failing record is reported and never stops the others. Records run on a
// bounded worker pool with paced lookups; ordering is unspecified.
func (e *Verification) ReconcileAll(ctx context.Context, now time.Time) SweepReport {
	start := time.Now()
	keys := e.store.VerificationKeys()
	report := SweepReport{
		ID:        uuid.NewString(),
		StartedAt: now,
		Total:     len(keys),
		Outcomes:  make([]RecordOutcome, len(keys)),
	}

	logger.Info(fmt.Sprintf("Starting sweep %s over %d records", report.ID, len(keys)), "Sweep")

	var g errgroup.Group
	g.SetLimit(e.opts.SweepConcurrency)

	for i, key := range keys {
		g.Go(func() error {
			var out RecordOutcome
			err := apperrors.Catch(func() error {
				out = e.reconcileOne(ctx, key)
				return nil
			})
			if err != nil {
				out = RecordOutcome{GuildID: key.GuildID, UserID: key.UserID, Status: SweepFailed, Error: err.Error()}
			}
			if out.Status == SweepFailed {
				logger.Error(fmt.Sprintf("Sweep failed for %s in %s: %s", key.UserID, key.GuildID, out.Error), "Sweep")
			}
			report.Outcomes[i] = out
			metrics.SweepRecords.WithLabelValues(string(out.Status)).Inc()
			return nil
		})
	}
	_ = g.Wait()

	for _, out := range report.Outcomes {
		switch out.Status {
		case SweepUnchanged:
			report.Unchanged++
		case SweepUpdated:
			report.Updated++
		case SweepSkipped:
			report.Skipped++
		case SweepFailed:
			report.Failed++
		}
	}
	elapsed := time.Since(start)
	report.FinishedAt = now.Add(elapsed)
	metrics.SweepDuration.Observe(elapsed.Seconds())

	logger.Info(fmt.Sprintf("Sweep %s done: %d updated, %d unchanged, %d skipped, %d failed",
		report.ID, report.Updated, report.Unchanged, report.Skipped, report.Failed), "Sweep")
	return report
}

func (e *Verification) reconcileOne(ctx context.Context, key store.Key) RecordOutcome {
	out := RecordOutcome{GuildID: key.GuildID, UserID: key.UserID}
	fail := func(err error) RecordOutcome {
		out.Status, out.Error = SweepFailed, err.Error()
		return out
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	unlock := e.store.LockRecord(key.GuildID, key.UserID)
	defer unlock()

	rec, ok := e.store.Verification(key.GuildID, key.UserID)
	if !ok {
		out.Status = SweepSkipped
		return out
	}
	out.Username, out.OldDisplayName = rec.RobloxUsername, rec.RobloxDisplayName

	member, err := e.host.Member(ctx, key.GuildID, key.UserID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			out.Status = SweepSkipped
			return out
		}
		return fail(err)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return fail(err)
	}
	displayName, err := e.lookupDisplayName(ctx, rec.RobloxUsername)
	if err != nil {
		return fail(err)
	}

	if displayName == rec.RobloxDisplayName {
		out.Status = SweepUnchanged
		return out
	}

	rec.RobloxDisplayName = displayName
	e.store.PutVerification(key.GuildID, key.UserID, rec)
	out.NewDisplayName = displayName

	out.NicknameUpdated = e.mirrorNickname(ctx, member, displayName) == nil
	out.Role = e.SyncRole(ctx, member, displayName).Change
	out.Status = SweepUpdated

	logger.Info(fmt.Sprintf("Updated verification for %s in %s: %s", key.UserID, key.GuildID, displayName), "Sweep")
	return out
}

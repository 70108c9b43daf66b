package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/XLZRBotGo/internal/store"
	"github.com/PancyStudios/XLZRBotGo/pkg/announce"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
	"github.com/PancyStudios/XLZRBotGo/pkg/metrics"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

// Escalation is the automatic action taken after a warning
type Escalation string

const (
	EscalationNone Escalation = ""
	EscalationKick Escalation = "kick"
	EscalationBan  Escalation = "ban"
)

// WarningOutcome describes a recorded warning. EnforcementErr is set when the
// escalation could not be carried out; the warning stays recorded.
type WarningOutcome struct {
	Warning        models.Warn
	Count          int
	Target         Member
	Escalation     Escalation
	Threshold      int
	EnforcementErr error
	Actions        []Action
}

// EnforcementFailed reports whether the escalation was attempted and failed
func (o *WarningOutcome) EnforcementFailed() bool {
	return o.Escalation != EscalationNone && o.EnforcementErr != nil
}

// Warnings records warnings and escalates to kick or ban
type Warnings struct {
	store *store.Store
	host  Host
}

// NewWarnings creates the warning engine
func NewWarnings(s *store.Store, host Host) *Warnings {
	return &Warnings{store: s, host: host}
}

// Warn records a warning against targetID. It rejects bots, self-warnings and
// targets whose rank is not strictly below the moderator's, without touching
// state. After the warning is appended the guild thresholds are checked: ban
// wins over kick and at most one of them is attempted.
func (e *Warnings) Warn(ctx context.Context, guildID, targetID, moderatorID, reason string, now time.Time) (*WarningOutcome, error) {
	target, err := e.host.Member(ctx, guildID, targetID)
	if err != nil {
		return nil, err
	}
	if target.Bot {
		metrics.WarningsIssued.WithLabelValues("rejected").Inc()
		return nil, ErrTargetIsBot
	}
	if targetID == moderatorID {
		metrics.WarningsIssued.WithLabelValues("rejected").Inc()
		return nil, ErrSelfWarn
	}

	moderator, err := e.host.Member(ctx, guildID, moderatorID)
	if err != nil {
		return nil, err
	}
	if moderator.Rank <= target.Rank {
		metrics.WarningsIssued.WithLabelValues("rejected").Inc()
		return nil, ErrInsufficientRank
	}

	unlock := e.store.LockRecord(guildID, targetID)
	defer unlock()

	warn, count := e.store.AppendWarning(guildID, targetID, reason, moderatorID, now)
	metrics.WarningsIssued.WithLabelValues("recorded").Inc()

	out := &WarningOutcome{Warning: warn, Count: count, Target: target}
	cfg := e.store.GuildConfig(guildID).Warnings

	if cfg.Enabled && cfg.LogChannelID != "" {
		out.Actions = append(out.Actions, Action{
			Kind:        ActionAnnounce,
			GuildID:     guildID,
			ChannelID:   cfg.LogChannelID,
			Title:       "User Warned",
			Description: fmt.Sprintf("%s was warned by <@%s> (warning %d)\nReason: %s", target.Mention(), moderatorID, count, reason),
			Color:       announce.ColorWarning,
			Footer:      fmt.Sprintf("Warning ID: %d", warn.ID),
		})
	}

	switch {
	case cfg.AutoBan != nil && count >= *cfg.AutoBan:
		out.Escalation, out.Threshold = EscalationBan, *cfg.AutoBan
		out.EnforcementErr = e.host.Ban(ctx, guildID, targetID, fmt.Sprintf("Auto-ban: %d warnings reached", *cfg.AutoBan))
	case cfg.AutoKick != nil && count >= *cfg.AutoKick:
		out.Escalation, out.Threshold = EscalationKick, *cfg.AutoKick
		out.EnforcementErr = e.host.Kick(ctx, guildID, targetID, fmt.Sprintf("Auto-kick: %d warnings reached", *cfg.AutoKick))
	}

	if out.Escalation != EscalationNone {
		result := "ok"
		if out.EnforcementErr != nil {
			result = "failed"
			if errors.Is(out.EnforcementErr, ErrAuthorityDenied) {
				result = "denied"
			}
			logger.Warn(fmt.Sprintf("Auto-%s of %s in %s failed: %v", out.Escalation, targetID, guildID, out.EnforcementErr), "Warnings")
		}
		metrics.Escalations.WithLabelValues(string(out.Escalation), result).Inc()
	}

	return out, nil
}

// History returns the warnings of a member, oldest first
func (e *Warnings) History(guildID, userID string) []models.Warn {
	return e.store.Warnings(guildID, userID)
}

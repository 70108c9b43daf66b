package bot

import (
	"time"

	"github.com/PancyStudios/XLZRBotGo/internal/engine"
)

// WarningEvent is published for every recorded warning
type WarningEvent struct {
	GuildID           string    `json:"guildId"`
	UserID            string    `json:"userId"`
	ModeratorID       string    `json:"moderatorId"`
	WarnID            int       `json:"warnId"`
	Count             int       `json:"count"`
	Escalation        string    `json:"escalation,omitempty"`
	EnforcementFailed bool      `json:"enforcementFailed,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewWarningEvent flattens a warning outcome
func NewWarningEvent(guildID string, o *engine.WarningOutcome) WarningEvent {
	return WarningEvent{
		GuildID:           guildID,
		UserID:            o.Target.UserID,
		ModeratorID:       o.Warning.Moderator,
		WarnID:            o.Warning.ID,
		Count:             o.Count,
		Escalation:        string(o.Escalation),
		EnforcementFailed: o.EnforcementFailed(),
		Timestamp:         o.Warning.Timestamp,
	}
}

// VerificationEvent is published for every successful on-demand verification
type VerificationEvent struct {
	GuildID     string            `json:"guildId"`
	UserID      string            `json:"userId"`
	Username    string            `json:"robloxUsername"`
	DisplayName string            `json:"robloxDisplayName"`
	VerifiedBy  string            `json:"verifiedBy"`
	Role        engine.RoleChange `json:"role"`
}

// NewVerificationEvent flattens a verification outcome
func NewVerificationEvent(guildID, userID string, o *engine.VerificationOutcome) VerificationEvent {
	return VerificationEvent{
		GuildID:     guildID,
		UserID:      userID,
		Username:    o.Record.RobloxUsername,
		DisplayName: o.Record.RobloxDisplayName,
		VerifiedBy:  o.Record.VerifiedBy,
		Role:        o.Role.Change,
	}
}

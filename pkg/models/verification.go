package models

import "time"

// VerificationRecord binds a member to an external (Roblox) account
type VerificationRecord struct {
	RobloxUsername    string    `bson:"robloxUsername" json:"roblox_username"`
	RobloxDisplayName string    `bson:"robloxDisplayName" json:"roblox_display_name"`
	VerifiedAt        time.Time `bson:"verifiedAt" json:"verified_at"`
	VerifiedBy        string    `bson:"verifiedBy" json:"verified_by"`
}

// KeywordConfig drives the keyword role. RoleID is preferred over RoleName
// when set.
type KeywordConfig struct {
	Keyword  string `bson:"keyword" json:"keyword"`
	RoleName string `bson:"roleName" json:"role_name"`
	RoleID   string `bson:"roleId,omitempty" json:"role_id,omitempty"`
}

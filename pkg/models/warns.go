package models

import "time"

// Warn is a single warning entry. ID is sequential per member, starting at 1.
type Warn struct {
	ID        int       `bson:"id" json:"id"`
	Reason    string    `bson:"reason" json:"reason"`
	Moderator string    `bson:"moderator" json:"moderator"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// WarnsDocument is the warning history of one member, as served by the API
type WarnsDocument struct {
	GuildID string `bson:"guildId" json:"guildId"`
	UserID  string `bson:"userId" json:"userId"`
	Warns   []Warn `bson:"warns" json:"warns"`
}

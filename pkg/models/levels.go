package models

import "time"

// LevelState is the experience state of one member in one guild
type LevelState struct {
	XP        int       `bson:"xp" json:"xp"`
	Level     int       `bson:"level" json:"level"`
	LastAward time.Time `bson:"lastAward" json:"last_message"`
}

// NewLevelState returns the state of a member who has never been awarded XP
func NewLevelState() LevelState {
	return LevelState{XP: 0, Level: 1}
}

// Required returns the XP needed to leave the current level
func (s LevelState) Required() int {
	return s.Level * 100
}

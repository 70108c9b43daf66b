package models

import "time"

// StateDocument stores one persisted state key in MongoDB. Data holds the
// JSON encoding of the value so that both backends share one format.
type StateDocument struct {
	Key       string    `bson:"_id" json:"key"`
	Data      string    `bson:"data" json:"data"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

// StateCollection holds one document per persisted state key
const StateCollection = "bot_state"

// StatePersister stores JSON-encoded state values in MongoDB
type StatePersister struct {
	dm *DataManager[models.StateDocument]
}

// NewStatePersister creates a persister over the state collection
func NewStatePersister(db *Database) *StatePersister {
	return &StatePersister{
		dm: NewDataManager[models.StateDocument](StateCollection, db, DataManagerOptions{MaxCacheSize: 16}),
	}
}

// LoadState returns the stored value for key; ok is false when absent
func (p *StatePersister) LoadState(ctx context.Context, key string) ([]byte, bool, error) {
	doc, err := p.dm.Get(ctx, bson.M{"_id": key})
	if err != nil {
		return nil, false, err
	}
	if doc == nil {
		return nil, false, nil
	}
	return []byte(doc.Data), true, nil
}

// SaveState upserts the value for key. While offline the write is queued
// and replayed on reconnect.
func (p *StatePersister) SaveState(ctx context.Context, key string, data []byte) error {
	_, err := p.dm.Set(ctx, bson.M{"_id": key}, bson.M{
		"data":      string(data),
		"updatedAt": time.Now().UTC(),
	})
	return err
}

// Backend names the persister for status output
func (p *StatePersister) Backend() string {
	return "mongodb"
}

package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

func TestGenerateCacheKeyIsDeterministic(t *testing.T) {
	dm := NewDataManager[models.StateDocument]("bot_state", NewDatabase())

	a := dm.generateCacheKey(bson.M{"guildId": "1", "userId": "2"})
	b := dm.generateCacheKey(bson.M{"userId": "2", "guildId": "1"})

	assert.Equal(t, a, b)
	assert.Equal(t, "bot_state:{guildId=1,userId=2}", a)
}

func TestDataManagerOffline(t *testing.T) {
	db := NewDatabase()
	dm := NewDataManager[models.StateDocument]("bot_state", db)
	ctx := context.Background()

	_, err := dm.Get(ctx, bson.M{"_id": "user_levels"})
	assert.ErrorIs(t, err, ErrNotConnected)

	doc, err := dm.Set(ctx, bson.M{"_id": "user_levels"}, bson.M{"data": "{}"})
	assert.NoError(t, err)
	assert.Nil(t, doc)
	assert.Equal(t, 1, db.PendingWrites())

	// the second write to the same document replaces the queued one
	_, _ = dm.Set(ctx, bson.M{"_id": "user_levels"}, bson.M{"data": `{"1":{}}`})
	assert.Equal(t, 1, db.PendingWrites())

	require.NoError(t, dm.Delete(ctx, bson.M{"_id": "keyword_config"}))
	assert.Equal(t, 2, db.PendingWrites())
}

func TestStatePersisterQueuesWhileOffline(t *testing.T) {
	db := NewDatabase()
	p := NewStatePersister(db)

	require.NoError(t, p.SaveState(context.Background(), "guild_configs", []byte(`{}`)))
	assert.Equal(t, 1, db.PendingWrites())

	_, _, err := p.LoadState(context.Background(), "guild_configs")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, "mongodb", p.Backend())
}

func TestFilePersister(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	p, err := NewFilePersister(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := p.LoadState(ctx, "user_levels")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.SaveState(ctx, "user_levels", []byte(`{"1":{"2":{"xp":5,"level":1}}}`)))
	require.NoError(t, p.SaveState(ctx, "user_levels", []byte(`{"1":{}}`)))

	data, ok, err := p.LoadState(ctx, "user_levels")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"1":{}}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

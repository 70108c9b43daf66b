package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

// DataManagerOptions contains configuration for a DataManager
type DataManagerOptions struct {
	MaxCacheSize int
}

// DefaultDataManagerOptions returns default options for DataManager
func DefaultDataManagerOptions() DataManagerOptions {
	return DataManagerOptions{
		MaxCacheSize: 1000,
	}
}

// DataManager provides LRU-cached access to a MongoDB collection. Writes made
// while the database is offline are queued on the Database and replayed on
// reconnect.
type DataManager[T any] struct {
	name       string
	dbInstance *Database
	cache      *lru.Cache[string, *T]
	options    DataManagerOptions
}

// NewDataManager creates a new DataManager for a collection
func NewDataManager[T any](collectionName string, db *Database, opts ...DataManagerOptions) *DataManager[T] {
	dmOptions := DefaultDataManagerOptions()
	if len(opts) > 0 {
		dmOptions = opts[0]
	}
	if dmOptions.MaxCacheSize <= 0 {
		dmOptions.MaxCacheSize = DefaultDataManagerOptions().MaxCacheSize
	}

	cache, err := lru.New[string, *T](dmOptions.MaxCacheSize)
	if err != nil {
		// only possible for a non-positive size, which is ruled out above
		panic(err)
	}

	return &DataManager[T]{
		name:       collectionName,
		dbInstance: db,
		cache:      cache,
		options:    dmOptions,
	}
}

// Name returns the collection name
func (dm *DataManager[T]) Name() string {
	return dm.name
}

// generateCacheKey creates a deterministic key from a query by sorting its keys
func (dm *DataManager[T]) generateCacheKey(query bson.M) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, query[k]))
	}

	return fmt.Sprintf("%s:{%s}", dm.name, strings.Join(parts, ","))
}

func (dm *DataManager[T]) collection() *mongo.Collection {
	if !dm.dbInstance.Connected() {
		return nil
	}
	return dm.dbInstance.GetCollection(dm.name)
}

// Get retrieves a document from cache or database. A missing document yields
// (nil, nil).
func (dm *DataManager[T]) Get(ctx context.Context, query bson.M) (*T, error) {
	cacheKey := dm.generateCacheKey(query)

	if v, ok := dm.cache.Get(cacheKey); ok {
		return v, nil
	}

	col := dm.collection()
	if col == nil {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result T
	err := col.FindOne(ctx, query).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.Warn(fmt.Sprintf("Read from '%s' failed: %v", dm.name, err), "DataManager")
		return nil, err
	}

	dm.cache.Add(cacheKey, &result)
	return &result, nil
}

// Set upserts a document. While offline the write is queued and (nil, nil) is
// returned.
func (dm *DataManager[T]) Set(ctx context.Context, query bson.M, data interface{}) (*T, error) {
	cacheKey := dm.generateCacheKey(query)
	queued := QueuedOperation{
		CollectionName: dm.name,
		Query:          query,
		Operation:      "set",
		Data:           data,
	}

	col := dm.collection()
	if col == nil {
		logger.Warn(fmt.Sprintf("DB offline. Queueing write for '%s'", dm.name), "DataManager")
		dm.cache.Remove(cacheKey)
		dm.dbInstance.AddToWriteQueue(queued)
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result T
	err := col.FindOneAndUpdate(ctx, query, bson.M{"$set": data}, opts).Decode(&result)
	if err != nil {
		logger.Error(fmt.Sprintf("Write to '%s' failed, queueing: %v", dm.name, err), "DataManager")
		dm.cache.Remove(cacheKey)
		dm.dbInstance.AddToWriteQueue(queued)
		return nil, err
	}

	dm.cache.Add(cacheKey, &result)
	return &result, nil
}

// Delete removes a document from the database and cache
func (dm *DataManager[T]) Delete(ctx context.Context, query bson.M) error {
	dm.cache.Remove(dm.generateCacheKey(query))
	queued := QueuedOperation{
		CollectionName: dm.name,
		Query:          query,
		Operation:      "delete",
	}

	col := dm.collection()
	if col == nil {
		logger.Warn(fmt.Sprintf("DB offline. Queueing delete for '%s'", dm.name), "DataManager")
		dm.dbInstance.AddToWriteQueue(queued)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := col.DeleteOne(ctx, query); err != nil {
		logger.Error(fmt.Sprintf("Delete on '%s' failed, queueing: %v", dm.name, err), "DataManager")
		dm.dbInstance.AddToWriteQueue(queued)
		return err
	}

	return nil
}

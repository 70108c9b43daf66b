package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
	"github.com/PancyStudios/XLZRBotGo/pkg/metrics"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

// Persisted state keys
const (
	KeyGuildConfigs  = "guild_configs"
	KeyUserLevels    = "user_levels"
	KeyUserWarnings  = "user_warnings"
	KeyVerifications = "verification_data"
	KeyKeywordConfig = "keyword_config"
)

// ErrNotLoaded is returned by Flush until Load has succeeded once. Flushing
// before that would replace the persisted state with empty tables.
var ErrNotLoaded = errors.New("state has not been loaded")

// Persister loads and saves encoded state values by key
type Persister interface {
	LoadState(ctx context.Context, key string) ([]byte, bool, error)
	SaveState(ctx context.Context, key string, data []byte) error
}

// Load replaces the in-memory state with the persisted one. Absent keys leave
// their table empty.
func (s *Store) Load(ctx context.Context) error {
	var (
		configs       map[string]models.GuildConfig
		levels        map[string]map[string]models.LevelState
		warnings      map[string]map[string][]models.Warn
		verifications map[string]map[string]models.VerificationRecord
		keywords      map[string]models.KeywordConfig
	)

	targets := []struct {
		key string
		dst any
	}{
		{KeyGuildConfigs, &configs},
		{KeyUserLevels, &levels},
		{KeyUserWarnings, &warnings},
		{KeyVerifications, &verifications},
		{KeyKeywordConfig, &keywords},
	}

	for _, t := range targets {
		data, ok, err := s.persister.LoadState(ctx, t.key)
		if err != nil {
			return fmt.Errorf("load %s: %w", t.key, err)
		}
		if !ok {
			continue
		}
		if err := json.Unmarshal(data, t.dst); err != nil {
			return fmt.Errorf("decode %s: %w", t.key, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs = make(map[string]models.GuildConfig, len(configs))
	for guildID, cfg := range configs {
		cfg.GuildID = guildID
		s.configs[guildID] = cfg
	}
	s.levels = orEmpty(levels)
	s.warnings = orEmpty(warnings)
	s.verifications = orEmpty(verifications)
	s.keywords = orEmpty(keywords)
	s.loaded.Store(true)
	return nil
}

// Loaded reports whether Load has succeeded
func (s *Store) Loaded() bool {
	return s.loaded.Load()
}

// RetryLoad calls Load every interval until it succeeds or ctx is done.
// Anything written to the store before that is replaced by the loaded state.
func (s *Store) RetryLoad(ctx context.Context, every, timeout time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		loadCtx, cancel := context.WithTimeout(ctx, timeout)
		err := s.Load(loadCtx)
		cancel()
		if err == nil {
			return nil
		}
		logger.Warn(fmt.Sprintf("Saved state still unavailable: %v", err), "Store")
	}
}

func orEmpty[V any](m map[string]V) map[string]V {
	if m == nil {
		return make(map[string]V)
	}
	return m
}

// snapshot encodes every table under the read lock
func (s *Store) snapshot() (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := map[string]any{
		KeyGuildConfigs:  s.configs,
		KeyUserLevels:    s.levels,
		KeyUserWarnings:  s.warnings,
		KeyVerifications: s.verifications,
		KeyKeywordConfig: s.keywords,
	}

	out := make(map[string][]byte, len(tables))
	for key, table := range tables {
		data, err := json.Marshal(table)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = data
	}
	return out, nil
}

// Flush writes every table through the persister. Concurrent flushes are
// serialised. Every key is attempted even when an earlier one fails.
func (s *Store) Flush(ctx context.Context) error {
	if !s.loaded.Load() {
		metrics.Flushes.WithLabelValues("skipped").Inc()
		return ErrNotLoaded
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	snap, err := s.snapshot()
	if err != nil {
		metrics.Flushes.WithLabelValues("error").Inc()
		return err
	}

	var firstErr error
	for _, key := range []string{KeyGuildConfigs, KeyUserLevels, KeyUserWarnings, KeyVerifications, KeyKeywordConfig} {
		if err := s.persister.SaveState(ctx, key, snap[key]); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("save %s: %w", key, err)
		}
	}

	if firstErr != nil {
		metrics.Flushes.WithLabelValues("error").Inc()
		return firstErr
	}
	s.lastFlush = time.Now()
	metrics.Flushes.WithLabelValues("ok").Inc()
	return nil
}

// FlushAsync flushes in the background and logs a failure. Mutating commands
// call it after they change state.
func (s *Store) FlushAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Flush(ctx); errors.Is(err, ErrNotLoaded) {
			logger.Warn("State not loaded yet, skipping save", "Store")
		} else if err != nil {
			logger.Error(fmt.Sprintf("Async flush failed: %v", err), "Store")
		}
	}()
}

// LastFlush returns the time of the last successful flush
func (s *Store) LastFlush() time.Time {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	return s.lastFlush
}

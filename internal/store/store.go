// Package store holds the in-memory bot state: guild configuration, levels,
// warnings, verification records and keyword configuration. Every record is
// keyed by guild, or by guild and user, and can be locked on its own.
package store

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

// Store is safe for concurrent use. Read-modify-write sequences on a member
// record must hold LockRecord for that record.
type Store struct {
	mu            sync.RWMutex
	configs       map[string]models.GuildConfig
	levels        map[string]map[string]models.LevelState
	warnings      map[string]map[string][]models.Warn
	verifications map[string]map[string]models.VerificationRecord
	keywords      map[string]models.KeywordConfig

	defaultKeyword models.KeywordConfig
	records        *keyedMutex

	persister Persister
	loaded    atomic.Bool
	flushMu   sync.Mutex
	lastFlush time.Time
}

// New creates an empty store. defaultKeyword is used for guilds without their
// own keyword configuration.
func New(persister Persister, defaultKeyword models.KeywordConfig) *Store {
	return &Store{
		configs:        make(map[string]models.GuildConfig),
		levels:         make(map[string]map[string]models.LevelState),
		warnings:       make(map[string]map[string][]models.Warn),
		verifications:  make(map[string]map[string]models.VerificationRecord),
		keywords:       make(map[string]models.KeywordConfig),
		defaultKeyword: defaultKeyword,
		records:        newKeyedMutex(),
		persister:      persister,
	}
}

// LockRecord locks the (guild, user) record and returns its unlock func.
// Different records never contend.
func (s *Store) LockRecord(guildID, userID string) func() {
	return s.records.lock(Key{GuildID: guildID, UserID: userID})
}

// GuildConfig returns a copy of the guild's configuration. A guild without
// stored configuration gets the zero config (every feature disabled).
func (s *Store) GuildConfig(guildID string) models.GuildConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[guildID]
	if !ok {
		return models.GuildConfig{GuildID: guildID}
	}
	return cfg.Clone()
}

// UpdateGuildConfig applies fn to a copy of the guild's configuration and
// stores it only when fn succeeds
func (s *Store) UpdateGuildConfig(guildID string, fn func(*models.GuildConfig) error) (models.GuildConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[guildID]
	if ok {
		cfg = cfg.Clone()
	}
	cfg.GuildID = guildID

	if err := fn(&cfg); err != nil {
		return models.GuildConfig{}, err
	}
	s.configs[guildID] = cfg
	return cfg.Clone(), nil
}

// Level returns the member's level state and whether it exists
func (s *Store) Level(guildID, userID string) (models.LevelState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.levels[guildID][userID]
	return st, ok
}

// PutLevel stores the member's level state
func (s *Store) PutLevel(guildID, userID string, st models.LevelState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.levels[guildID] == nil {
		s.levels[guildID] = make(map[string]models.LevelState)
	}
	s.levels[guildID][userID] = st
}

// Warnings returns a copy of the member's warnings, oldest first
func (s *Store) Warnings(guildID, userID string) []models.Warn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.Warn(nil), s.warnings[guildID][userID]...)
}

// AppendWarning appends a warning with the next sequential id and returns the
// stored entry and the new warning count
func (s *Store) AppendWarning(guildID, userID, reason, moderatorID string, now time.Time) (models.Warn, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.warnings[guildID] == nil {
		s.warnings[guildID] = make(map[string][]models.Warn)
	}
	list := s.warnings[guildID][userID]
	w := models.Warn{
		ID:        len(list) + 1,
		Reason:    reason,
		Moderator: moderatorID,
		Timestamp: now,
	}
	list = append(list, w)
	s.warnings[guildID][userID] = list
	return w, len(list)
}

// Verification returns the member's verification record and whether it exists
func (s *Store) Verification(guildID, userID string) (models.VerificationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.verifications[guildID][userID]
	return rec, ok
}

// PutVerification overwrites the member's verification record
func (s *Store) PutVerification(guildID, userID string, rec models.VerificationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.verifications[guildID] == nil {
		s.verifications[guildID] = make(map[string]models.VerificationRecord)
	}
	s.verifications[guildID][userID] = rec
}

// VerificationKeys returns the keys of every verification record, sorted by
// guild then user
func (s *Store) VerificationKeys() []Key {
	s.mu.RLock()
	keys := make([]Key, 0)
	for guildID, users := range s.verifications {
		for userID := range users {
			keys = append(keys, Key{GuildID: guildID, UserID: userID})
		}
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].GuildID != keys[j].GuildID {
			return keys[i].GuildID < keys[j].GuildID
		}
		return keys[i].UserID < keys[j].UserID
	})
	return keys
}

// Verifications returns a copy of every verification record of a guild
func (s *Store) Verifications(guildID string) map[string]models.VerificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.VerificationRecord, len(s.verifications[guildID]))
	for userID, rec := range s.verifications[guildID] {
		out[userID] = rec
	}
	return out
}

// KeywordConfig returns the guild's keyword configuration, or the process
// default when the guild has none
func (s *Store) KeywordConfig(guildID string) models.KeywordConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if kc, ok := s.keywords[guildID]; ok {
		return kc
	}
	return s.defaultKeyword
}

// HasKeywordConfig reports whether the guild configured its own keyword
func (s *Store) HasKeywordConfig(guildID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.keywords[guildID]
	return ok
}

// SetKeywordConfig stores the guild's keyword configuration
func (s *Store) SetKeywordConfig(guildID string, kc models.KeywordConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keywords[guildID] = kc
}

// Stats summarises the store for status output
type Stats struct {
	Guilds        int `json:"guilds"`
	LevelStates   int `json:"levelStates"`
	Warnings      int `json:"warnings"`
	Verifications int `json:"verifications"`
}

// Stats counts the stored records
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	guilds := make(map[string]struct{})
	var st Stats
	for g, users := range s.levels {
		guilds[g] = struct{}{}
		st.LevelStates += len(users)
	}
	for g, users := range s.warnings {
		guilds[g] = struct{}{}
		for _, list := range users {
			st.Warnings += len(list)
		}
	}
	for g, users := range s.verifications {
		guilds[g] = struct{}{}
		st.Verifications += len(users)
	}
	for g := range s.configs {
		guilds[g] = struct{}{}
	}
	st.Guilds = len(guilds)
	return st
}

// Copyright 2024-2026 Aiku AI

// Package store owns all persisted bot configuration: per-chat keyword
// sets, the global case policy, the bot-level administrator set, and the
// enabled-chat set.
//
// The Store is the single owner of this state. Other components read
// snapshots through accessors and request changes through mutators; no
// component keeps a mutable copy. A single mutex serializes every
// read-modify-write sequence and every save, so concurrent handlers can
// never interleave a partial mutation or persist a torn snapshot.
//
// Every successful mutation is flushed to disk synchronously (write-through,
// no batching). A failed save is logged and the in-memory state stays
// authoritative until the next successful save.
package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Store holds the bot's full configuration state and its persistence path.
type Store struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger

	keywords      map[int64]map[string]struct{}
	caseSensitive bool
	admins        map[int64]struct{}
	enabled       map[int64]struct{}
}

// New creates an empty store persisting to path. Call Load before use.
func New(path string, log zerolog.Logger) *Store {
	return &Store{
		path:     path,
		log:      log,
		keywords: make(map[int64]map[string]struct{}),
		admins:   make(map[int64]struct{}),
		enabled:  make(map[int64]struct{}),
	}
}

// Load reads persisted state from disk. It fails soft: a missing file
// default-initializes the store and persists it immediately, and any read
// or parse error is logged while the store falls back to empty defaults
// rather than aborting startup.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info().Str("path", s.path).Msg("No saved configuration, creating default")
		s.saveLocked()
		return
	} else if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("Failed to read configuration, starting with defaults")
		return
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("Failed to parse configuration, starting with defaults")
		return
	}

	s.keywords = make(map[int64]map[string]struct{}, len(state.SpoilerKeywords.Chats))
	for chatID, words := range state.SpoilerKeywords.Chats {
		if len(words) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		s.keywords[chatID] = set
	}
	s.caseSensitive = state.CaseSensitive
	s.admins = toSet(state.AdminUsers)
	s.enabled = toSet(state.EnabledChats)

	if state.SpoilerKeywords.Migrated {
		s.log.Warn().Str("path", s.path).
			Msg("Migrated legacy flat keyword list, per-chat keywords start empty")
		s.saveLocked()
	}

	s.log.Info().
		Int("chats_with_keywords", len(s.keywords)).
		Int("admins", len(s.admins)).
		Int("enabled_chats", len(s.enabled)).
		Bool("case_sensitive", s.caseSensitive).
		Msg("Loaded configuration")
}

// saveLocked serializes the full state and writes it atomically via a
// temporary file and rename. The caller must hold s.mu. Write failures are
// logged and non-fatal: memory stays the source of truth.
func (s *Store) saveLocked() {
	state := stateFile{
		SpoilerKeywords: keywordMap{Chats: make(map[int64][]string, len(s.keywords))},
		CaseSensitive:   s.caseSensitive,
		AdminUsers:      fromSet(s.admins),
		EnabledChats:    fromSet(s.enabled),
	}
	for chatID, set := range s.keywords {
		state.SpoilerKeywords.Chats[chatID] = sortedKeys(set)
	}

	data, err := json.MarshalIndent(&state, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to serialize configuration")
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", tmp).Msg("Failed to write configuration")
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("Failed to replace configuration file")
		return
	}
	s.log.Debug().Str("path", filepath.Base(s.path)).Msg("Configuration saved")
}

// normalizeLocked applies the current case policy to a keyword. The caller
// must hold s.mu.
func (s *Store) normalizeLocked(keyword string) string {
	keyword = strings.TrimSpace(keyword)
	if !s.caseSensitive {
		keyword = strings.ToLower(keyword)
	}
	return keyword
}

// ChatKeywords returns a sorted snapshot of the chat's keyword set. Unknown
// chats yield an empty slice.
func (s *Store) ChatKeywords(chatID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.keywords[chatID])
}

// AllKeywords returns a sorted snapshot of every chat's keyword set.
func (s *Store) AllKeywords() map[int64][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64][]string, len(s.keywords))
	for chatID, set := range s.keywords {
		out[chatID] = sortedKeys(set)
	}
	return out
}

// AddKeyword inserts a keyword into the chat's set, applying the current
// case policy first. It reports false when the keyword was already present.
// Successful insertions persist immediately.
func (s *Store) AddKeyword(chatID int64, keyword string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyword = s.normalizeLocked(keyword)
	if keyword == "" {
		return false
	}
	set, ok := s.keywords[chatID]
	if !ok {
		set = make(map[string]struct{})
		s.keywords[chatID] = set
	}
	if _, exists := set[keyword]; exists {
		return false
	}
	set[keyword] = struct{}{}
	s.saveLocked()
	return true
}

// RemoveKeyword deletes a keyword from the chat's set, applying the current
// case policy to the lookup. Removing the last keyword prunes the chat's
// entry entirely so no empty entry persists. It reports false when the
// keyword was absent.
func (s *Store) RemoveKeyword(chatID int64, keyword string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyword = s.normalizeLocked(keyword)
	set, ok := s.keywords[chatID]
	if !ok {
		return false
	}
	if _, exists := set[keyword]; !exists {
		return false
	}
	delete(set, keyword)
	if len(set) == 0 {
		delete(s.keywords, chatID)
	}
	s.saveLocked()
	return true
}

// SetEnabled adds or removes the chat from the enabled set and persists.
func (s *Store) SetEnabled(chatID int64, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled {
		s.enabled[chatID] = struct{}{}
	} else {
		delete(s.enabled, chatID)
	}
	s.saveLocked()
}

// IsEnabled reports whether spoiler detection is active in the chat.
func (s *Store) IsEnabled(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.enabled[chatID]
	return ok
}

// AddAdmin adds a bot-level administrator and persists.
func (s *Store) AddAdmin(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[userID]; ok {
		return
	}
	s.admins[userID] = struct{}{}
	s.saveLocked()
}

// IsAdmin reports whether the user is a bot-level administrator.
func (s *Store) IsAdmin(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.admins[userID]
	return ok
}

// AdminCount returns the size of the administrator set.
func (s *Store) AdminCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.admins)
}

// CaseSensitive reports the current global case policy.
func (s *Store) CaseSensitive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caseSensitive
}

// ToggleCaseSensitivity flips the global case policy and returns the new
// value. Turning case-insensitivity on runs a one-time normalization pass:
// every stored keyword in every chat is lower-cased and duplicates collapse
// via set semantics. Turning sensitivity on leaves stored casing untouched.
// The flip and the normalization happen inside one critical section so a
// concurrent save can never observe a partially-normalized state.
func (s *Store) ToggleCaseSensitivity() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.caseSensitive = !s.caseSensitive
	if !s.caseSensitive {
		for chatID, set := range s.keywords {
			lowered := make(map[string]struct{}, len(set))
			for kw := range set {
				lowered[strings.ToLower(kw)] = struct{}{}
			}
			s.keywords[chatID] = lowered
		}
	}
	s.saveLocked()
	return s.caseSensitive
}

func toSet(ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func fromSet(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

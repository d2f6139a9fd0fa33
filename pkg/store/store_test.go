// Copyright 2024-2026 Aiku AI

package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spoiler_config.json")
	s := New(path, zerolog.Nop())
	s.Load()
	return s
}

func TestLoad_MissingFileCreatesDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "spoiler_config.json")
	s := New(path, zerolog.Nop())
	s.Load()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default configuration should be persisted immediately: %v", err)
	}
	if s.CaseSensitive() {
		t.Error("default case policy should be insensitive")
	}
	if s.AdminCount() != 0 {
		t.Error("default admin set should be empty")
	}
}

func TestLoad_CorruptFileFallsBackToDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "spoiler_config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(path, zerolog.Nop())
	s.Load()

	// The store must stay usable after a parse failure.
	if !s.AddKeyword(1, "leak") {
		t.Error("store should accept mutations after fail-soft load")
	}
}

func TestLoad_LegacyFlatListMigrates(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "spoiler_config.json")
	legacy := `{
	  "spoiler_keywords": ["endgame", "leak"],
	  "case_sensitive": true,
	  "admin_users": [42],
	  "enabled_chats": [-100123]
	}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(path, zerolog.Nop())
	s.Load()

	if kws := s.ChatKeywords(-100123); len(kws) != 0 {
		t.Errorf("legacy flat list must be discarded, got %v", kws)
	}
	if !s.CaseSensitive() {
		t.Error("case policy should survive migration")
	}
	if !s.IsAdmin(42) {
		t.Error("admin set should survive migration")
	}
	if !s.IsEnabled(-100123) {
		t.Error("enabled set should survive migration")
	}
}

func TestAddRemoveKeyword(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if !s.AddKeyword(1, "Leak") {
		t.Fatal("first insertion should succeed")
	}
	// Case-insensitive policy lower-cases on insert, so this is a duplicate.
	if s.AddKeyword(1, "leak") {
		t.Error("duplicate insertion should report false")
	}
	if got := s.ChatKeywords(1); !reflect.DeepEqual(got, []string{"leak"}) {
		t.Errorf("got %v, want [leak]", got)
	}

	if !s.RemoveKeyword(1, "LEAK") {
		t.Error("removal with different casing should succeed under insensitive policy")
	}
	if s.RemoveKeyword(1, "leak") {
		t.Error("removing an absent keyword should report false")
	}
}

func TestRemoveLastKeyword_PrunesChatEntry(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	s.AddKeyword(7, "leak")
	s.RemoveKeyword(7, "leak")

	if got := s.ChatKeywords(7); len(got) != 0 {
		t.Errorf("pruned chat should have no keywords, got %v", got)
	}

	// The persisted mapping must have no entry for the chat either.
	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatal(err)
	}
	var raw struct {
		SpoilerKeywords map[string][]string `json:"spoiler_keywords"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw.SpoilerKeywords["7"]; ok {
		t.Error("empty chat entry must not persist")
	}
}

func TestChatIsolation(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	s.AddKeyword(1, "alpha")
	s.AddKeyword(2, "beta")

	if got := s.ChatKeywords(1); !reflect.DeepEqual(got, []string{"alpha"}) {
		t.Errorf("chat 1 keywords leaked: %v", got)
	}
	if got := s.ChatKeywords(2); !reflect.DeepEqual(got, []string{"beta"}) {
		t.Errorf("chat 2 keywords leaked: %v", got)
	}
}

func TestToggleCaseSensitivity_NormalizesOnTurningInsensitive(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	// Default policy is insensitive; switch to sensitive and store mixed case.
	if !s.ToggleCaseSensitivity() {
		t.Fatal("first toggle should enable case sensitivity")
	}
	s.AddKeyword(1, "Leak")
	s.AddKeyword(1, "LEAK")
	if got := s.ChatKeywords(1); len(got) != 2 {
		t.Fatalf("sensitive policy should keep both casings, got %v", got)
	}

	// Switching back to insensitive lower-cases and collapses duplicates.
	if s.ToggleCaseSensitivity() {
		t.Fatal("second toggle should disable case sensitivity")
	}
	if got := s.ChatKeywords(1); !reflect.DeepEqual(got, []string{"leak"}) {
		t.Errorf("normalization pass failed, got %v", got)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "spoiler_config.json")
	s := New(path, zerolog.Nop())
	s.Load()
	s.AddKeyword(-100555, "endgame")
	s.AddKeyword(-100555, "leak")
	s.AddKeyword(12, "twist")
	s.SetEnabled(-100555, true)
	s.AddAdmin(42)
	s.AddAdmin(43)
	s.ToggleCaseSensitivity()

	reloaded := New(path, zerolog.Nop())
	reloaded.Load()

	if got := reloaded.ChatKeywords(-100555); !reflect.DeepEqual(got, []string{"endgame", "leak"}) {
		t.Errorf("keywords did not round-trip, got %v", got)
	}
	if got := reloaded.ChatKeywords(12); !reflect.DeepEqual(got, []string{"twist"}) {
		t.Errorf("keywords did not round-trip, got %v", got)
	}
	if !reloaded.IsEnabled(-100555) || reloaded.IsEnabled(12) {
		t.Error("enabled set did not round-trip")
	}
	if !reloaded.IsAdmin(42) || !reloaded.IsAdmin(43) || reloaded.IsAdmin(44) {
		t.Error("admin set did not round-trip")
	}
	if !reloaded.CaseSensitive() {
		t.Error("case policy did not round-trip")
	}
}

func TestEnableDisable(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	if s.IsEnabled(5) {
		t.Error("chats start disabled")
	}
	s.SetEnabled(5, true)
	if !s.IsEnabled(5) {
		t.Error("chat should be enabled")
	}
	s.SetEnabled(5, false)
	if s.IsEnabled(5) {
		t.Error("chat should be disabled again")
	}
}

func TestSaveFailure_KeepsMemoryAuthoritative(t *testing.T) {
	t.Parallel()
	// Point the store at a path whose parent directory does not exist so
	// every save fails.
	path := filepath.Join(t.TempDir(), "missing-dir", "spoiler_config.json")
	s := New(path, zerolog.Nop())

	if !s.AddKeyword(1, "leak") {
		t.Fatal("mutation should succeed despite save failure")
	}
	if got := s.ChatKeywords(1); !reflect.DeepEqual(got, []string{"leak"}) {
		t.Errorf("in-memory state must stay authoritative, got %v", got)
	}
}

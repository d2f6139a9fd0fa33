// Copyright 2024-2026 Aiku AI

package store

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// stateFile mirrors the on-disk JSON schema. This schema is the
// authoritative persistence contract:
//
//	{
//	  "spoiler_keywords": {"<chat_id>": ["kw1", ...], ...},
//	  "case_sensitive": bool,
//	  "admin_users": [user_id, ...],
//	  "enabled_chats": [chat_id, ...]
//	}
type stateFile struct {
	SpoilerKeywords keywordMap `json:"spoiler_keywords"`
	CaseSensitive   bool       `json:"case_sensitive"`
	AdminUsers      []int64    `json:"admin_users"`
	EnabledChats    []int64    `json:"enabled_chats"`
}

// keywordMap maps chat IDs to keyword lists. Older deployments stored
// spoiler_keywords as a flat array shared by all chats; that shape is
// recognized and migrated to an empty per-chat map. The migration is lossy
// by design: a global list cannot be attributed to any particular chat.
type keywordMap struct {
	Chats    map[int64][]string
	Migrated bool
}

func (k keywordMap) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, len(k.Chats))
	for chatID, words := range k.Chats {
		out[strconv.FormatInt(chatID, 10)] = words
	}
	return json.Marshal(out)
}

func (k *keywordMap) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err == nil {
		chats := make(map[int64][]string, len(raw))
		for key, words := range raw {
			chatID, convErr := strconv.ParseInt(key, 10, 64)
			if convErr != nil {
				return fmt.Errorf("invalid chat id %q in keyword map: %w", key, convErr)
			}
			chats[chatID] = words
		}
		k.Chats = chats
		k.Migrated = false
		return nil
	}

	var legacy []string
	if err := json.Unmarshal(data, &legacy); err == nil {
		k.Chats = map[int64][]string{}
		k.Migrated = true
		return nil
	}

	return fmt.Errorf("spoiler_keywords is neither a chat map nor a legacy list")
}

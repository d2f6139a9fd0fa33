// Copyright 2024-2026 Aiku AI

package bot

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aiku/spoilerguard/pkg/store"
)

// ChatAdmin describes one platform-level chat administrator.
type ChatAdmin struct {
	UserID   int64
	Username string
	IsBot    bool
}

// AdminLister is the platform query surface needed for admin sync.
type AdminLister interface {
	ChatAdmins(chatID int64) ([]ChatAdmin, error)
}

// AdminSync merges platform chat-administrator lists into the bot-level
// administrator set. Sync only ever adds: administrators who lose their
// platform role stay in the set until removed by hand. This one-way accrual
// is deliberate, not an oversight.
type AdminSync struct {
	store  *store.Store
	lister AdminLister
	log    zerolog.Logger
}

// NewAdminSync wires the sync service to the store and the platform query.
func NewAdminSync(st *store.Store, lister AdminLister, log zerolog.Logger) *AdminSync {
	return &AdminSync{store: st, lister: lister, log: log}
}

// Sync fetches the chat's current administrator list and adds every entry
// that is not a bot account and not already recognized. It returns the
// newly-added administrators.
func (a *AdminSync) Sync(chatID int64) ([]ChatAdmin, error) {
	admins, err := a.lister.ChatAdmins(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chat administrators: %w", err)
	}

	var added []ChatAdmin
	for _, adm := range admins {
		if adm.IsBot {
			continue
		}
		if a.store.IsAdmin(adm.UserID) {
			continue
		}
		a.store.AddAdmin(adm.UserID)
		added = append(added, adm)
		a.log.Info().
			Int64("chat_id", chatID).
			Int64("user_id", adm.UserID).
			Str("username", adm.Username).
			Msg("Added chat administrator to bot admin set")
	}
	return added, nil
}

// Copyright 2024-2026 Aiku AI

package bot

import "github.com/aiku/spoilerguard/pkg/store"

// Gate decides whether a user may perform privileged operations. Bot-level
// administrators are distinct from the platform's own chat admins; the two
// sets are synchronized by AdminSync but never identical.
type Gate struct {
	store *store.Store
}

// NewGate returns a gate backed by the administrator set in the store.
func NewGate(st *store.Store) *Gate {
	return &Gate{store: st}
}

// CanManage reports whether the user may run privileged commands: keyword
// edits, chat enablement, case toggling, and admin sync all require
// membership in the administrator set, with no exceptions.
func (g *Gate) CanManage(userID int64) bool {
	return g.store.IsAdmin(userID)
}

// CanAddAdmin reports whether the user may register a new administrator.
// While the administrator set is empty, anyone may add the first admin
// (bootstrap self-registration); once it is non-empty, only existing
// administrators qualify.
func (g *Gate) CanAddAdmin(userID int64) bool {
	return g.store.IsAdmin(userID) || g.store.AdminCount() == 0
}

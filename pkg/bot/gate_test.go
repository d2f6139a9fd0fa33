// Copyright 2024-2026 Aiku AI

package bot

import "testing"

func TestGate_CanManage(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	g := NewGate(st)

	if g.CanManage(5) {
		t.Error("unknown user must not manage")
	}
	st.AddAdmin(5)
	if !g.CanManage(5) {
		t.Error("admin should manage")
	}
}

func TestGate_BootstrapAddAdmin(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	g := NewGate(st)

	// Empty set: anyone may add the first administrator.
	if !g.CanAddAdmin(5) {
		t.Error("bootstrap should allow any caller while the set is empty")
	}
	st.AddAdmin(5)

	// Non-empty set: only existing admins qualify.
	if g.CanAddAdmin(6) {
		t.Error("non-admin must not add admins once the set is non-empty")
	}
	if !g.CanAddAdmin(5) {
		t.Error("existing admin should still add admins")
	}
}

func TestGate_NoBootstrapForOtherOperations(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)
	g := NewGate(st)

	// Keyword edits and friends have no bootstrap exception.
	if g.CanManage(5) {
		t.Error("CanManage must not have a bootstrap exception")
	}
}

package hub

import (
	"sort"
	"testing"
)

func TestPresenceSetAndSnapshot(t *testing.T) {
	p := newPresenceRegistry()
	p.Set("alice@example.com", "conn-1")
	p.Set("bob@example.com", "conn-2")

	users := p.Snapshot()
	sort.Strings(users)
	if len(users) != 2 || users[0] != "alice@example.com" || users[1] != "bob@example.com" {
		t.Fatalf("unexpected snapshot: %v", users)
	}
}

func TestPresenceLastWriterWins(t *testing.T) {
	p := newPresenceRegistry()
	p.Set("alice@example.com", "conn-1")
	p.Set("alice@example.com", "conn-2")

	if p.Len() != 1 {
		t.Fatalf("expected single entry, got %d", p.Len())
	}

	// The first connection no longer owns the entry.
	if _, removed := p.RemoveConn("conn-1"); removed {
		t.Fatal("conn-1 should not own the entry anymore")
	}
	if user, removed := p.RemoveConn("conn-2"); !removed || user != "alice@example.com" {
		t.Fatalf("expected alice removed via conn-2, got %q %v", user, removed)
	}
}

func TestPresenceRemoveConn(t *testing.T) {
	p := newPresenceRegistry()
	p.Set("alice@example.com", "conn-1")
	p.Set("bob@example.com", "conn-2")

	user, removed := p.RemoveConn("conn-1")
	if !removed || user != "alice@example.com" {
		t.Fatalf("expected alice removed, got %q %v", user, removed)
	}
	if users := p.Snapshot(); len(users) != 1 || users[0] != "bob@example.com" {
		t.Fatalf("unexpected snapshot after removal: %v", users)
	}

	if _, removed := p.RemoveConn("conn-unknown"); removed {
		t.Fatal("removing an unknown connection should be a no-op")
	}
}

package dedup

import "testing"

func TestKeyIsStable(t *testing.T) {
	a := Key("trader_jane", "market looks strong today")
	b := Key("trader_jane", "market looks strong today")
	if a != b {
		t.Error("Expected identical inputs to produce identical keys")
	}
}

func TestKeyDistinguishesAuthorAndBody(t *testing.T) {
	if Key("alice", "hello") == Key("bob", "hello") {
		t.Error("Expected different authors to produce different keys")
	}
	if Key("alice", "hello") == Key("alice", "goodbye") {
		t.Error("Expected different bodies to produce different keys")
	}
}

func TestIndexSeenInsert(t *testing.T) {
	idx := NewIndex()
	key := Key("alice", "hello")

	if idx.Seen(key) {
		t.Error("Fresh index should not have seen any key")
	}

	idx.Insert(key)
	if !idx.Seen(key) {
		t.Error("Expected key to be seen after insert")
	}
	if idx.Len() != 1 {
		t.Errorf("Expected length 1, got %d", idx.Len())
	}

	// Inserting again is idempotent
	idx.Insert(key)
	if idx.Len() != 1 {
		t.Errorf("Expected length to stay 1, got %d", idx.Len())
	}
}

func TestIndexReset(t *testing.T) {
	idx := NewIndex()
	idx.Insert(Key("alice", "hello"))
	idx.Reset()

	if idx.Len() != 0 {
		t.Errorf("Expected empty index after reset, got %d entries", idx.Len())
	}
	if idx.Seen(Key("alice", "hello")) {
		t.Error("Expected no keys to be seen after reset")
	}
}

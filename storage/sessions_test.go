package storage

import (
	"context"
	"errors"
	"testing"

	"videoQuiz/core"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	store := newMemorySessionStore()
	ctx := context.Background()

	key := core.DeriveKey("https://www.youtube.com/watch?v=abc")
	session := &core.Session{
		ID:         key,
		Transcript: "hello world",
		Segments:   []core.Segment{{Start: 0, End: 5, Text: "hello world"}},
		Summary:    "a greeting",
	}

	if _, err := store.Get(ctx, key); !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("Get on unseen key: got %v, want ErrSessionNotFound", err)
	}

	if err := store.Put(ctx, key, session); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after Put failed: %v", err)
	}
	if got.ID != session.ID || got.Transcript != session.Transcript {
		t.Errorf("round trip mismatch: got %+v", got)
	}
}

func TestMemorySessionStoreIsolation(t *testing.T) {
	store := newMemorySessionStore()
	ctx := context.Background()

	session := &core.Session{ID: "k1", Summary: "original"}
	if err := store.Put(ctx, "k1", session); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Mutating the caller's copy must not affect the stored record.
	session.Summary = "mutated"
	got, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Summary != "original" {
		t.Errorf("stored session was mutated through caller's pointer: %q", got.Summary)
	}
}

func TestNewSessionStoreDefaultsToMemory(t *testing.T) {
	store := NewSessionStore(&testConfig)
	if store.Kind() != "memory" {
		t.Errorf("default store kind = %q, want memory", store.Kind())
	}
}

package storage

import (
	"context"
	"testing"

	"videoQuiz/config"
	"videoQuiz/core"
)

var testConfig = config.Config{SessionStore: "memory", VectorStore: "memory"}

func TestMemoryVectorIndexSearch(t *testing.T) {
	index := newMemoryVectorIndex()
	ctx := context.Background()

	segments := []core.Segment{
		{Start: 0, End: 10, Text: "introduction to neural networks"},
		{Start: 10, End: 20, Text: "gradient descent and backpropagation"},
		{Start: 20, End: 30, Text: "closing remarks and questions"},
	}
	n, err := index.Index(ctx, "s1", segments)
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if n != len(segments) {
		t.Fatalf("indexed %d segments, want %d", n, len(segments))
	}

	hits, err := index.Search(ctx, "s1", "gradient descent", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Start != 10 {
		t.Errorf("top hit start = %v, want 10 (the gradient descent segment)", hits[0].Start)
	}
	if hits[0].Score <= 0 {
		t.Errorf("top hit score = %v, want > 0", hits[0].Score)
	}
}

func TestMemoryVectorIndexUnknownSession(t *testing.T) {
	index := newMemoryVectorIndex()
	hits, err := index.Search(context.Background(), "unknown", "anything", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits for unknown session, want 0", len(hits))
	}
}

func TestNewVectorIndexDefaultsToMemory(t *testing.T) {
	index := NewVectorIndex(&testConfig)
	if index.Kind() != "memory" {
		t.Errorf("default index kind = %q, want memory", index.Kind())
	}
}

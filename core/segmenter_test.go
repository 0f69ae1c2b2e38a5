package core

import (
	"reflect"
	"testing"
)

func testTranscript() []Segment {
	return []Segment{
		{Start: 0, End: 5, Text: "a"},
		{Start: 5, End: 10, Text: "b"},
		{Start: 10, End: 15, Text: "c"},
	}
}

func TestAssignCheckpointContextsUnsorted(t *testing.T) {
	// Checkpoints arrive in generation order, here deliberately reversed
	// chronologically. Boundaries sort to [3, 12], windows are [0,3) and
	// [3,15), and results must map back to the input order.
	checkpoints := []Checkpoint{
		{Time: 12},
		{Time: 3},
	}
	contexts := AssignCheckpointContexts(checkpoints, testTranscript())
	if len(contexts) != len(checkpoints) {
		t.Fatalf("got %d contexts, want %d", len(contexts), len(checkpoints))
	}
	if contexts[0] != "b c" {
		t.Errorf("checkpoint at t=12: got %q, want %q", contexts[0], "b c")
	}
	if contexts[1] != "a" {
		t.Errorf("checkpoint at t=3: got %q, want %q", contexts[1], "a")
	}
}

func TestAssignCheckpointContextsSortedInputMatches(t *testing.T) {
	// The same checkpoints in chronological order must yield the same
	// contexts, just in the other slots.
	unsorted := AssignCheckpointContexts([]Checkpoint{{Time: 12}, {Time: 3}}, testTranscript())
	sorted := AssignCheckpointContexts([]Checkpoint{{Time: 3}, {Time: 12}}, testTranscript())
	if unsorted[0] != sorted[1] || unsorted[1] != sorted[0] {
		t.Errorf("ordering changed contexts: unsorted=%v sorted=%v", unsorted, sorted)
	}
}

func TestAssignCheckpointContextsNoCheckpoints(t *testing.T) {
	contexts := AssignCheckpointContexts(nil, testTranscript())
	if len(contexts) != 0 {
		t.Errorf("got %d contexts for zero checkpoints, want 0", len(contexts))
	}
}

func TestAssignCheckpointContextsEmptyTranscript(t *testing.T) {
	contexts := AssignCheckpointContexts([]Checkpoint{{Time: 5}}, nil)
	if !reflect.DeepEqual(contexts, []string{""}) {
		t.Errorf("got %v, want one empty context", contexts)
	}
}

func TestAssignCheckpointContextsBeyondTranscript(t *testing.T) {
	// A checkpoint past the transcript end whose window starts past the
	// end as well collects nothing.
	checkpoints := []Checkpoint{{Time: 20}, {Time: 100}}
	contexts := AssignCheckpointContexts(checkpoints, testTranscript())
	if contexts[0] == "" {
		t.Errorf("checkpoint at t=20 should own the whole transcript window, got empty")
	}
	if contexts[1] != "" {
		t.Errorf("checkpoint at t=100: got %q, want empty", contexts[1])
	}
}

func TestAssignCheckpointContextsDuplicateTimes(t *testing.T) {
	// Identical times are degenerate but allowed; the earlier-ranked one
	// gets an empty adjacent window bounded by its twin's time.
	checkpoints := []Checkpoint{{Time: 5}, {Time: 5}}
	contexts := AssignCheckpointContexts(checkpoints, testTranscript())
	if len(contexts) != 2 {
		t.Fatalf("got %d contexts, want 2", len(contexts))
	}
	if contexts[0] != "a" {
		t.Errorf("first checkpoint: got %q, want %q", contexts[0], "a")
	}
	if contexts[1] != "b c" {
		t.Errorf("second checkpoint: got %q, want %q", contexts[1], "b c")
	}
}

func TestAssignCheckpointContextsSingle(t *testing.T) {
	// A single checkpoint owns the whole transcript window.
	contexts := AssignCheckpointContexts([]Checkpoint{{Time: 7}}, testTranscript())
	if contexts[0] != "a b c" {
		t.Errorf("got %q, want %q", contexts[0], "a b c")
	}
}

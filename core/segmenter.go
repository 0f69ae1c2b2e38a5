package core

import (
	"sort"
	"strings"
)

// AssignCheckpointContexts computes a transcript context string for each
// checkpoint and returns them in the same order as the input checkpoints.
//
// Checkpoints arrive in generation order, not chronological order, so their
// times are sorted into a boundary list first. Each checkpoint in sorted
// position owns the half-open window from the previous checkpoint's time (0
// for the earliest) up to its own time; the latest checkpoint's window is
// closed by the final transcript segment's end instead, so the tail of the
// transcript is attributed to it. A transcript segment belongs to a window
// when its start satisfies start >= lo && start < hi. Results are re-mapped
// back to the original checkpoint order.
func AssignCheckpointContexts(checkpoints []Checkpoint, transcript []Segment) []string {
	contexts := make([]string, len(checkpoints))
	if len(checkpoints) == 0 {
		return contexts
	}

	order := make([]int, len(checkpoints))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return checkpoints[order[a]].Time < checkpoints[order[b]].Time
	})

	closing := 0.0
	if len(transcript) > 0 {
		closing = transcript[len(transcript)-1].End
	}

	for rank, idx := range order {
		lo := 0.0
		if rank > 0 {
			lo = checkpoints[order[rank-1]].Time
		}
		hi := closing
		if rank < len(order)-1 {
			hi = checkpoints[idx].Time
		}
		contexts[idx] = windowText(transcript, lo, hi)
	}
	return contexts
}

func windowText(transcript []Segment, lo, hi float64) string {
	var parts []string
	for _, seg := range transcript {
		if seg.Start >= lo && seg.Start < hi {
			parts = append(parts, seg.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

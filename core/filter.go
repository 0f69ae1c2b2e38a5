package core

import "strings"

// TranscriptRange returns the space-joined text of every segment whose
// [start, end] interval lies fully inside [lo, hi]. Containment is inclusive
// on both ends: a segment that merely overlaps the range is excluded. This
// differs from the half-open window semantics used for checkpoint contexts;
// the asymmetry is intentional.
func TranscriptRange(segments []Segment, lo, hi float64) string {
	var parts []string
	for _, seg := range segments {
		if seg.Start >= lo && seg.End <= hi {
			parts = append(parts, seg.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

package core

import (
	"fmt"
	"math"
	"strings"
)

// RawSegment is a transcription segment as it comes off the wire. Fields are
// pointers so a missing field is distinguishable from a zero value.
type RawSegment struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Text  *string  `json:"text"`
}

// NormalizeSegments converts raw transcription segments into the canonical
// form: timestamps rounded to 2 decimal places, text trimmed. Input order is
// preserved (assumed chronological, not verified). A segment missing any
// field fails with ErrMalformedSegment.
func NormalizeSegments(raw []RawSegment) ([]Segment, error) {
	segs := make([]Segment, 0, len(raw))
	for i, r := range raw {
		if r.Start == nil || r.End == nil || r.Text == nil {
			return nil, fmt.Errorf("segment %d: %w", i, ErrMalformedSegment)
		}
		segs = append(segs, Segment{
			Start: round2(*r.Start),
			End:   round2(*r.End),
			Text:  strings.TrimSpace(*r.Text),
		})
	}
	return segs, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

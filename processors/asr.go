package processors

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"videoQuiz/core"
)

// Transcriber turns a local audio file into the full transcript text plus
// time-stamped raw segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, []core.RawSegment, error)
}

// WhisperTranscriber calls the transcription API with segment-level
// timestamps.
type WhisperTranscriber struct {
	cli   *openai.Client
	model string
}

func NewWhisperTranscriber(cli *openai.Client, model string) WhisperTranscriber {
	return WhisperTranscriber{cli: cli, model: model}
}

func (t WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, []core.RawSegment, error) {
	resp, err := t.cli.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return "", nil, fmt.Errorf("%w: transcription API: %v", core.ErrUpstreamUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", nil, fmt.Errorf("%w: empty transcription result", core.ErrMalformedUpstreamResponse)
	}

	raw := make([]core.RawSegment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		start, end, segText := s.Start, s.End, s.Text
		raw = append(raw, core.RawSegment{Start: &start, End: &end, Text: &segText})
	}
	if len(raw) == 0 {
		// Whole-file transcript with no per-segment timing: treat as a
		// single segment so downstream logic still works.
		start, end := 0.0, 0.0
		raw = append(raw, core.RawSegment{Start: &start, End: &end, Text: &text})
	}
	return text, raw, nil
}

// MockTranscriber fabricates a fixed transcript so the pipeline can run
// without an API key.
type MockTranscriber struct{}

func (m MockTranscriber) Transcribe(ctx context.Context, audioPath string) (string, []core.RawSegment, error) {
	const segLen = 15.0
	raw := make([]core.RawSegment, 0, 4)
	var texts []string
	for i := 0; i < 4; i++ {
		start := float64(i) * segLen
		end := start + segLen
		text := fmt.Sprintf("Placeholder transcript from %.0fs to %.0fs", start, end)
		s, e, t := start, end, text
		raw = append(raw, core.RawSegment{Start: &s, End: &e, Text: &t})
		texts = append(texts, text)
	}
	return strings.Join(texts, " "), raw, nil
}

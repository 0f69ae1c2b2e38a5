package processors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"videoQuiz/core"
)

// GenerationResult is the validated output of the quiz generation step.
type GenerationResult struct {
	Checkpoints     []core.Checkpoint
	Summary         string
	ReviewQuestions []string
}

// Generator produces quiz checkpoints, a summary and review questions from a
// transcript.
type Generator interface {
	Generate(ctx context.Context, transcript string, segments []core.Segment) (*GenerationResult, error)
}

// ChatGenerator asks a chat-completion model for checkpoints and validates
// the JSON it returns before anything downstream touches it.
type ChatGenerator struct {
	cli   *openai.Client
	model string
}

func NewChatGenerator(cli *openai.Client, model string) ChatGenerator {
	return ChatGenerator{cli: cli, model: model}
}

func (g ChatGenerator) Generate(ctx context.Context, transcript string, segments []core.Segment) (*GenerationResult, error) {
	segmentsJSON, err := json.Marshal(segments)
	if err != nil {
		return nil, fmt.Errorf("encode segments: %w", err)
	}

	prompt := fmt.Sprintf(`You are an educational assistant.
You will be given a transcript and a list of timestamped segments.
Your goal is to return a JSON with two keys: `+"`checkpoints`"+` and `+"`final`"+`.

1. `+"`checkpoints`"+` should contain 3-5 important timestamps where a learner should be tested.
   For each checkpoint:
   - Add `+"`time`"+`: the timestamp in seconds from the corresponding segment.
   - Add `+"`question`"+`: a multiple-choice question related to the section.
   - Add `+"`choices`"+`: list of 4 options.
   - Add `+"`answer`"+`: correct choice letter (A/B/C/D).
   - Add `+"`explanation`"+`: why that answer is correct.

2. `+"`final`"+` should contain:
   - `+"`summary`"+`: a paragraph summarizing the whole content.
   - `+"`review_questions`"+`: 3 short open-ended review questions.

Return only a valid JSON.

Transcript:
%s

Segments:
%s`, transcript, segmentsJSON)

	resp, err := g.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a helpful educational assistant that only returns JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: generation API: %v", core.ErrUpstreamUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no generation response", core.ErrMalformedUpstreamResponse)
	}
	return ParseGeneration(resp.Choices[0].Message.Content)
}

// generationPayload mirrors the JSON the model is asked for. Pointer fields
// make missing keys detectable.
type generationPayload struct {
	Checkpoints []struct {
		Time        *float64 `json:"time"`
		Question    *string  `json:"question"`
		Choices     []string `json:"choices"`
		Answer      *string  `json:"answer"`
		Explanation string   `json:"explanation"`
	} `json:"checkpoints"`
	Final *struct {
		Summary         *string  `json:"summary"`
		ReviewQuestions []string `json:"review_questions"`
	} `json:"final"`
}

// ParseGeneration decodes and validates model output. Any shape violation
// fails with ErrMalformedUpstreamResponse rather than letting nils leak
// downstream.
func ParseGeneration(content string) (*GenerationResult, error) {
	content = stripCodeFence(content)

	var payload generationPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", core.ErrMalformedUpstreamResponse, err)
	}
	if payload.Final == nil || payload.Final.Summary == nil {
		return nil, fmt.Errorf("%w: missing final summary", core.ErrMalformedUpstreamResponse)
	}

	checkpoints := make([]core.Checkpoint, 0, len(payload.Checkpoints))
	for i, cp := range payload.Checkpoints {
		if cp.Time == nil || cp.Question == nil || cp.Answer == nil {
			return nil, fmt.Errorf("%w: checkpoint %d missing time, question or answer", core.ErrMalformedUpstreamResponse, i)
		}
		if len(cp.Choices) != 0 && len(cp.Choices) != 4 {
			return nil, fmt.Errorf("%w: checkpoint %d has %d choices, want 0 or 4", core.ErrMalformedUpstreamResponse, i, len(cp.Choices))
		}
		checkpoints = append(checkpoints, core.Checkpoint{
			Time:        *cp.Time,
			Question:    *cp.Question,
			Choices:     cp.Choices,
			Answer:      *cp.Answer,
			Explanation: cp.Explanation,
		})
	}

	return &GenerationResult{
		Checkpoints:     checkpoints,
		Summary:         *payload.Final.Summary,
		ReviewQuestions: payload.Final.ReviewQuestions,
	}, nil
}

// stripCodeFence removes a markdown ```json fence if the model wrapped its
// output in one despite instructions.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// MockGenerator derives canned checkpoints from the transcript segments so
// the pipeline runs end-to-end without an API key.
type MockGenerator struct{}

func (m MockGenerator) Generate(ctx context.Context, transcript string, segments []core.Segment) (*GenerationResult, error) {
	var checkpoints []core.Checkpoint
	for i := 1; i < len(segments); i += 2 {
		checkpoints = append(checkpoints, core.Checkpoint{
			Time:     segments[i].Start,
			Question: fmt.Sprintf("What was covered around %.0f seconds?", segments[i].Start),
			Choices: []string{
				"A placeholder topic",
				"Another placeholder topic",
				"A third placeholder topic",
				"None of the above",
			},
			Answer:      "A",
			Explanation: "Mock checkpoint generated without an API key.",
		})
	}

	summary := transcript
	if len(summary) > 200 {
		summary = summary[:200]
	}
	return &GenerationResult{
		Checkpoints: checkpoints,
		Summary:     summary,
		ReviewQuestions: []string{
			"What was the main topic of the video?",
			"Name one detail you remember.",
			"How would you summarize the video in one sentence?",
		},
	}, nil
}

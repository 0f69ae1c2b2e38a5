package processors

import (
	"errors"
	"testing"

	"videoQuiz/core"
)

const validGeneration = `{
	"checkpoints": [
		{
			"time": 42.5,
			"question": "What is discussed first?",
			"choices": ["Topic A", "Topic B", "Topic C", "Topic D"],
			"answer": "A",
			"explanation": "The video opens with topic A."
		}
	],
	"final": {
		"summary": "A short video about topics.",
		"review_questions": ["What was topic A?", "Why does it matter?", "Summarize the video."]
	}
}`

func TestParseGeneration(t *testing.T) {
	result, err := ParseGeneration(validGeneration)
	if err != nil {
		t.Fatalf("ParseGeneration failed: %v", err)
	}
	if len(result.Checkpoints) != 1 {
		t.Fatalf("got %d checkpoints, want 1", len(result.Checkpoints))
	}
	cp := result.Checkpoints[0]
	if cp.Time != 42.5 || cp.Answer != "A" || len(cp.Choices) != 4 {
		t.Errorf("checkpoint fields wrong: %+v", cp)
	}
	if result.Summary != "A short video about topics." {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(result.ReviewQuestions) != 3 {
		t.Errorf("got %d review questions, want 3", len(result.ReviewQuestions))
	}
}

func TestParseGenerationCodeFence(t *testing.T) {
	fenced := "```json\n" + validGeneration + "\n```"
	if _, err := ParseGeneration(fenced); err != nil {
		t.Errorf("fenced payload rejected: %v", err)
	}
}

func TestParseGenerationMalformed(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"not json", "I could not generate a quiz, sorry!"},
		{"missing final", `{"checkpoints": []}`},
		{"missing summary", `{"checkpoints": [], "final": {"review_questions": []}}`},
		{"checkpoint missing time", `{"checkpoints": [{"question": "q", "answer": "A"}], "final": {"summary": "s"}}`},
		{"wrong choice count", `{"checkpoints": [{"time": 1, "question": "q", "answer": "A", "choices": ["a", "b"]}], "final": {"summary": "s"}}`},
	}
	for _, tc := range cases {
		_, err := ParseGeneration(tc.content)
		if !errors.Is(err, core.ErrMalformedUpstreamResponse) {
			t.Errorf("%s: got %v, want ErrMalformedUpstreamResponse", tc.name, err)
		}
	}
}

func TestParseGenerationNoChoices(t *testing.T) {
	// Open-ended checkpoints carry zero choices; that shape is allowed.
	content := `{"checkpoints": [{"time": 1, "question": "q", "answer": "free text"}], "final": {"summary": "s"}}`
	result, err := ParseGeneration(content)
	if err != nil {
		t.Fatalf("ParseGeneration failed: %v", err)
	}
	if len(result.Checkpoints[0].Choices) != 0 {
		t.Errorf("got %d choices, want 0", len(result.Checkpoints[0].Choices))
	}
}

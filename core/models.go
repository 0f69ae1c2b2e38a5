package core

// Segment is one time-stamped span of transcribed speech. Segments keep the
// order they arrived in from the transcription service.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Checkpoint is a generated quiz item anchored to a transcript timestamp.
// SegmentText is filled in after generation by AssignCheckpointContexts; the
// rest of the record is never mutated.
type Checkpoint struct {
	Time        float64  `json:"time"`
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	SegmentText string   `json:"segment"`
}

// Session is the full processing result for one video, persisted as a single
// document under its content key. Created once per key, never updated.
type Session struct {
	ID              string       `json:"id"`
	Transcript      string       `json:"transcript"`
	Segments        []Segment    `json:"segments"`
	Checkpoints     []Checkpoint `json:"checkpoints"`
	Summary         string       `json:"summary"`
	ReviewQuestions []string     `json:"review_questions"`
}

// Hit is one transcript segment returned by semantic search.
type Hit struct {
	Score float64 `json:"score"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

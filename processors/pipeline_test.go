package processors

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"videoQuiz/config"
	"videoQuiz/core"
	"videoQuiz/storage"
)

type countingDownloader struct {
	inner AudioDownloader
	calls atomic.Int64
}

func (d *countingDownloader) Download(ctx context.Context, url, key string) (string, error) {
	d.calls.Add(1)
	return d.inner.Download(ctx, url, key)
}

func testPipeline(t *testing.T) (*Pipeline, *countingDownloader) {
	t.Helper()
	cfg := &config.Config{
		SessionStore:         "memory",
		VectorStore:          "memory",
		DataDir:              t.TempDir(),
		DownloadTimeoutSec:   10,
		TranscribeTimeoutSec: 10,
		GenerateTimeoutSec:   10,
	}
	dl := &countingDownloader{inner: MockDownloader{DataDir: cfg.DataDir}}
	store := storage.NewSessionStore(cfg)
	index := storage.NewVectorIndex(cfg)
	return NewPipeline(store, index, dl, MockTranscriber{}, MockGenerator{}, cfg), dl
}

func TestPreprocessBuildsSession(t *testing.T) {
	pipeline, _ := testPipeline(t)
	url := "https://www.youtube.com/watch?v=abc"

	session, err := pipeline.Preprocess(context.Background(), url)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if session.ID != core.DeriveKey(url) {
		t.Errorf("session ID %q is not the content key", session.ID)
	}
	if session.Transcript == "" {
		t.Error("session has empty transcript")
	}
	if len(session.Segments) == 0 {
		t.Fatal("session has no segments")
	}
	if len(session.Checkpoints) == 0 {
		t.Fatal("session has no checkpoints")
	}
	for i, cp := range session.Checkpoints {
		if cp.SegmentText == "" {
			t.Errorf("checkpoint %d has no context segment text", i)
		}
	}
	if session.Summary == "" {
		t.Error("session has empty summary")
	}
}

func TestPreprocessIdempotent(t *testing.T) {
	pipeline, dl := testPipeline(t)
	url := "https://www.youtube.com/watch?v=abc"
	ctx := context.Background()

	first, err := pipeline.Preprocess(ctx, url)
	if err != nil {
		t.Fatalf("first Preprocess failed: %v", err)
	}
	second, err := pipeline.Preprocess(ctx, url)
	if err != nil {
		t.Fatalf("second Preprocess failed: %v", err)
	}

	if calls := dl.calls.Load(); calls != 1 {
		t.Errorf("downloader called %d times for the same URL, want 1", calls)
	}
	if first.ID != second.ID || first.Transcript != second.Transcript {
		t.Errorf("cached session differs from original")
	}
}

func TestPreprocessDistinctURLs(t *testing.T) {
	pipeline, dl := testPipeline(t)
	ctx := context.Background()

	a, err := pipeline.Preprocess(ctx, "https://www.youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	// Same video with a tracking parameter is a different key on purpose.
	b, err := pipeline.Preprocess(ctx, "https://www.youtube.com/watch?v=abc&t=10")
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if a.ID == b.ID {
		t.Error("distinct URLs mapped to the same session")
	}
	if calls := dl.calls.Load(); calls != 2 {
		t.Errorf("downloader called %d times for two URLs, want 2", calls)
	}
}

func TestPreprocessConcurrentSameKey(t *testing.T) {
	pipeline, dl := testPipeline(t)
	url := "https://www.youtube.com/watch?v=abc"

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = pipeline.Preprocess(context.Background(), url)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("concurrent Preprocess %d failed: %v", i, err)
		}
	}
	if calls := dl.calls.Load(); calls != 1 {
		t.Errorf("downloader called %d times under concurrency, want 1", calls)
	}
}

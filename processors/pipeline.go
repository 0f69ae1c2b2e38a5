package processors

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"videoQuiz/config"
	"videoQuiz/core"
	"videoQuiz/storage"
)

// Pipeline runs the full preprocess flow with read-through caching: derive
// the content key, check the session store, and only on a miss run the
// external download/transcribe/generate chain and persist the result.
type Pipeline struct {
	Store       storage.SessionStore
	Index       storage.VectorIndex
	Downloader  AudioDownloader
	Transcriber Transcriber
	Generator   Generator
	Config      *config.Config

	mu       sync.Mutex
	inflight map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewPipeline(store storage.SessionStore, index storage.VectorIndex, dl AudioDownloader, tr Transcriber, gen Generator, cfg *config.Config) *Pipeline {
	return &Pipeline{
		Store:       store,
		Index:       index,
		Downloader:  dl,
		Transcriber: tr,
		Generator:   gen,
		Config:      cfg,
		inflight:    map[string]*keyLock{},
	}
}

// Preprocess returns the cached session for url, processing it first if this
// is the first time the URL has been seen. Concurrent calls for the same URL
// are serialized on a per-key lock so the external pipeline runs at most once
// per content key; losers of the race block, then observe the winner's
// session from the store.
func (p *Pipeline) Preprocess(ctx context.Context, url string) (*core.Session, error) {
	key := core.DeriveKey(url)

	if session, err := p.Store.Get(ctx, key); err == nil {
		return session, nil
	} else if !errors.Is(err, core.ErrSessionNotFound) {
		return nil, err
	}

	lock := p.acquire(key)
	defer p.release(key, lock)

	// Re-check under the lock: another request may have finished while we
	// waited.
	if session, err := p.Store.Get(ctx, key); err == nil {
		return session, nil
	} else if !errors.Is(err, core.ErrSessionNotFound) {
		return nil, err
	}

	session, err := p.process(ctx, url, key)
	if err != nil {
		return nil, err
	}
	if err := p.Store.Put(ctx, key, session); err != nil {
		return nil, err
	}
	if p.Index != nil {
		if n, err := p.Index.Index(ctx, key, session.Segments); err != nil {
			log.Printf("Warning: indexing session %s failed: %v", key, err)
		} else {
			log.Printf("Indexed %d segments for session %s", n, key)
		}
	}
	return session, nil
}

// process runs the external pipeline. Nothing is written to the store until
// every step has succeeded, so a partial failure leaves no partial session.
func (p *Pipeline) process(ctx context.Context, url, key string) (*core.Session, error) {
	log.Printf("Processing new session %s", key)

	dlCtx, cancel := context.WithTimeout(ctx, time.Duration(p.Config.DownloadTimeoutSec)*time.Second)
	audioPath, err := p.Downloader.Download(dlCtx, url, key)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	defer os.Remove(audioPath)

	asrCtx, cancel := context.WithTimeout(ctx, time.Duration(p.Config.TranscribeTimeoutSec)*time.Second)
	transcript, rawSegments, err := p.Transcriber.Transcribe(asrCtx, audioPath)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	segments, err := core.NormalizeSegments(rawSegments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedUpstreamResponse, err)
	}

	genCtx, cancel := context.WithTimeout(ctx, time.Duration(p.Config.GenerateTimeoutSec)*time.Second)
	result, err := p.Generator.Generate(genCtx, transcript, segments)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("generate checkpoints: %w", err)
	}

	contexts := core.AssignCheckpointContexts(result.Checkpoints, segments)
	for i := range result.Checkpoints {
		result.Checkpoints[i].SegmentText = contexts[i]
	}

	return &core.Session{
		ID:              key,
		Transcript:      transcript,
		Segments:        segments,
		Checkpoints:     result.Checkpoints,
		Summary:         result.Summary,
		ReviewQuestions: result.ReviewQuestions,
	}, nil
}

func (p *Pipeline) acquire(key string) *keyLock {
	p.mu.Lock()
	lock, ok := p.inflight[key]
	if !ok {
		lock = &keyLock{}
		p.inflight[key] = lock
	}
	lock.refs++
	p.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (p *Pipeline) release(key string, lock *keyLock) {
	lock.mu.Unlock()

	p.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(p.inflight, key)
	}
	p.mu.Unlock()
}

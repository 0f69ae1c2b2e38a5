package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"videoQuiz/config"
	"videoQuiz/core"
)

// SessionStore is the cache of processed sessions, one document per content
// key. Get returns core.ErrSessionNotFound for unseen keys; other failures
// wrap core.ErrStorageFailure. Put has overwrite semantics, though the happy
// path never rewrites an existing key.
type SessionStore interface {
	Get(ctx context.Context, key string) (*core.Session, error)
	Put(ctx context.Context, key string, session *core.Session) error
	Kind() string
	Close()
}

// NewSessionStore selects a backend from config, falling back to the memory
// store when the configured backend cannot be reached.
func NewSessionStore(cfg *config.Config) SessionStore {
	switch strings.ToLower(strings.TrimSpace(cfg.SessionStore)) {
	case "redis":
		s, err := newRedisSessionStore(cfg)
		if err != nil {
			log.Printf("Warning: failed to initialize redis session store (%v), falling back to memory store", err)
			return newMemorySessionStore()
		}
		return s
	case "postgres":
		s, err := newPostgresSessionStore(cfg)
		if err != nil {
			log.Printf("Warning: failed to initialize postgres session store (%v), falling back to memory store", err)
			return newMemorySessionStore()
		}
		return s
	default:
		return newMemorySessionStore()
	}
}

// ---------------- Memory implementation (default) ----------------

type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]core.Session
}

func newMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]core.Session{}}
}

func (s *MemorySessionStore) Get(ctx context.Context, key string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *MemorySessionStore) Put(ctx context.Context, key string, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = *session
	return nil
}

func (s *MemorySessionStore) Kind() string { return "memory" }

func (s *MemorySessionStore) Close() {}

// ---------------- Redis implementation ----------------

type RedisSessionStore struct {
	client *redis.Client
}

const redisSessionPrefix = "session:"

func newRedisSessionStore(cfg *config.Config) (*RedisSessionStore, error) {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisSessionStore{client: client}, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, key string) (*core.Session, error) {
	data, err := s.client.Get(ctx, redisSessionPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis get: %v", core.ErrStorageFailure, err)
	}
	var session core.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", core.ErrStorageFailure, err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, key string, session *core.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%w: encode session: %v", core.ErrStorageFailure, err)
	}
	if err := s.client.Set(ctx, redisSessionPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", core.ErrStorageFailure, err)
	}
	return nil
}

func (s *RedisSessionStore) Kind() string { return "redis" }

func (s *RedisSessionStore) Close() {
	s.client.Close()
}

// ---------------- Postgres implementation ----------------

type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

func newPostgresSessionStore(cfg *config.Config) (*PostgresSessionStore, error) {
	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("postgres_url not configured")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresSessionStore{pool: pool}
	if err := s.ensureTable(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSessionStore) ensureTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR(64) PRIMARY KEY,
			doc JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := s.pool.Exec(context.Background(), query); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) Get(ctx context.Context, key string) (*core.Session, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, "SELECT doc FROM sessions WHERE id = $1", key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select session: %v", core.ErrStorageFailure, err)
	}
	var session core.Session
	if err := json.Unmarshal(doc, &session); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", core.ErrStorageFailure, err)
	}
	return &session, nil
}

func (s *PostgresSessionStore) Put(ctx context.Context, key string, session *core.Session) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%w: encode session: %v", core.ErrStorageFailure, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (id, doc)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc
	`, key, doc)
	if err != nil {
		return fmt.Errorf("%w: insert session: %v", core.ErrStorageFailure, err)
	}
	return nil
}

func (s *PostgresSessionStore) Kind() string { return "postgres" }

func (s *PostgresSessionStore) Close() {
	s.pool.Close()
}

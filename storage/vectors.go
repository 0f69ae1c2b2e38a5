package storage

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/pgvector/pgvector-go"
	openai "github.com/sashabaranov/go-openai"

	"videoQuiz/config"
	"videoQuiz/core"
)

// VectorIndex supports semantic search over a cached session's transcript
// segments. Indexing happens once, right after a session is created.
type VectorIndex interface {
	Index(ctx context.Context, sessionID string, segments []core.Segment) (int, error)
	Search(ctx context.Context, sessionID, query string, topK int) ([]core.Hit, error)
	Kind() string
	Close()
}

// NewVectorIndex selects a backend from config. The remote backends need API
// credentials for embeddings; anything that fails to initialize falls back to
// the in-memory index.
func NewVectorIndex(cfg *config.Config) VectorIndex {
	kind := strings.ToLower(strings.TrimSpace(cfg.VectorStore))
	if kind == "pgvector" || kind == "milvus" {
		if !cfg.HasValidAPI() {
			log.Printf("Warning: API configuration required for %s index, falling back to memory index", kind)
			return newMemoryVectorIndex()
		}
	}
	switch kind {
	case "pgvector":
		s, err := newPgVectorIndex(cfg)
		if err != nil {
			log.Printf("Warning: failed to initialize pgvector index (%v), falling back to memory index", err)
			return newMemoryVectorIndex()
		}
		return s
	case "milvus":
		s, err := newMilvusVectorIndex(cfg)
		if err != nil {
			log.Printf("Warning: failed to initialize milvus index (%v), falling back to memory index", err)
			return newMemoryVectorIndex()
		}
		return s
	default:
		return newMemoryVectorIndex()
	}
}

// ---------------- Embedding helper ----------------

type embedder struct {
	cli   *openai.Client
	model string
}

func newEmbedder(cfg *config.Config) *embedder {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &embedder{
		cli:   openai.NewClientWithConfig(clientConfig),
		model: cfg.EmbeddingModel,
	}
}

func (e *embedder) embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.cli.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding API: %v", core.ErrUpstreamUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", core.ErrMalformedUpstreamResponse)
	}
	return resp.Data[0].Embedding, nil
}

// ---------------- Memory implementation (term-weight cosine) ----------------

type MemoryVectorIndex struct {
	mu   sync.RWMutex
	docs map[string][]memoryDoc // sessionID -> docs
}

type memoryDoc struct {
	seg   core.Segment
	terms map[string]float64
}

func newMemoryVectorIndex() *MemoryVectorIndex {
	return &MemoryVectorIndex{docs: map[string][]memoryDoc{}}
}

func (s *MemoryVectorIndex) Index(ctx context.Context, sessionID string, segments []core.Segment) (int, error) {
	docs := make([]memoryDoc, 0, len(segments))
	for _, seg := range segments {
		docs = append(docs, memoryDoc{seg: seg, terms: termWeights(seg.Text)})
	}
	s.mu.Lock()
	s.docs[sessionID] = docs
	s.mu.Unlock()
	return len(docs), nil
}

func (s *MemoryVectorIndex) Search(ctx context.Context, sessionID, query string, topK int) ([]core.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.docs[sessionID]
	qv := termWeights(query)

	type scored struct {
		i     int
		score float64
	}
	scores := make([]scored, 0, len(docs))
	for i, d := range docs {
		scores = append(scores, scored{i, cosine(qv, d.terms)})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if topK <= 0 || topK > len(scores) {
		topK = min(len(scores), 5)
	}
	hits := make([]core.Hit, 0, topK)
	for _, sc := range scores[:topK] {
		d := docs[sc.i]
		hits = append(hits, core.Hit{Score: sc.score, Start: d.seg.Start, End: d.seg.End, Text: d.seg.Text})
	}
	return hits, nil
}

func (s *MemoryVectorIndex) Kind() string { return "memory" }

func (s *MemoryVectorIndex) Close() {}

func termWeights(text string) map[string]float64 {
	terms := map[string]float64{}
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		terms[tok]++
	}
	var norm float64
	for _, w := range terms {
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for t := range terms {
			terms[t] /= norm
		}
	}
	return terms
}

func cosine(a, b map[string]float64) float64 {
	var dot float64
	for k, va := range a {
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	return dot
}

// ---------------- PgVector implementation ----------------

type PgVectorIndex struct {
	pool *pgxpool.Pool
	emb  *embedder
	dim  int
}

func newPgVectorIndex(cfg *config.Config) (*PgVectorIndex, error) {
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

	s := &PgVectorIndex{pool: pool, emb: newEmbedder(cfg), dim: 1536}
	if err := s.ensureTable(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgVectorIndex) ensureTable() error {
	ctx := context.Background()
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS segment_vectors (
			id SERIAL PRIMARY KEY,
			session_id VARCHAR(64) NOT NULL,
			start_time FLOAT NOT NULL,
			end_time FLOAT NOT NULL,
			text TEXT NOT NULL,
			embedding vector(%d),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(session_id, start_time)
		);
	`, s.dim)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create segment_vectors table: %w", err)
	}
	return nil
}

func (s *PgVectorIndex) Index(ctx context.Context, sessionID string, segments []core.Segment) (int, error) {
	count := 0
	for _, seg := range segments {
		embedding, err := s.emb.embed(ctx, strings.ToLower(seg.Text))
		if err != nil {
			continue // skip segments whose embedding fails
		}
		vec := pgvector.NewVector(embedding)
		_, err = s.pool.Exec(ctx, `
			INSERT INTO segment_vectors (session_id, start_time, end_time, text, embedding)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (session_id, start_time)
			DO UPDATE SET
				end_time = EXCLUDED.end_time,
				text = EXCLUDED.text,
				embedding = EXCLUDED.embedding
		`, sessionID, seg.Start, seg.End, seg.Text, vec)
		if err != nil {
			continue
		}
		count++
	}
	return count, nil
}

func (s *PgVectorIndex) Search(ctx context.Context, sessionID, query string, topK int) ([]core.Hit, error) {
	if topK <= 0 {
		topK = 5
	}
	queryEmbedding, err := s.emb.embed(ctx, strings.ToLower(query))
	if err != nil {
		return nil, err
	}
	vec := pgvector.NewVector(queryEmbedding)

	rows, err := s.pool.Query(ctx, `
		SELECT start_time, end_time, text,
		       1 - (embedding <=> $1) as similarity
		FROM segment_vectors
		WHERE session_id = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, vec, sessionID, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", core.ErrStorageFailure, err)
	}
	defer rows.Close()

	var hits []core.Hit
	for rows.Next() {
		var start, end, similarity float64
		var text string
		if err := rows.Scan(&start, &end, &text, &similarity); err != nil {
			continue
		}
		hits = append(hits, core.Hit{Score: similarity, Start: start, End: end, Text: text})
	}
	return hits, nil
}

func (s *PgVectorIndex) Kind() string { return "pgvector" }

func (s *PgVectorIndex) Close() {
	s.pool.Close()
}

// ---------------- Milvus implementation ----------------

type MilvusVectorIndex struct {
	mc   client.Client
	coll string
	emb  *embedder
	dim  int
}

func newMilvusVectorIndex(cfg *config.Config) (*MilvusVectorIndex, error) {
	addr := cfg.MilvusAddr
	if addr == "" {
		addr = "localhost:19530"
	}
	mc, err := client.NewClient(context.Background(), client.Config{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}

	s := &MilvusVectorIndex{mc: mc, coll: "transcript_segments", emb: newEmbedder(cfg), dim: 1536}
	if err := s.ensureSchemaAndIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MilvusVectorIndex) ensureSchemaAndIndex() error {
	ctx := context.Background()
	has, err := s.mc.HasCollection(ctx, s.coll)
	if err != nil {
		return err
	}
	if !has {
		schema := entity.NewSchema()
		schema.WithField(entity.NewField().WithName("id").WithIsAutoID(true).WithIsPrimaryKey(true).WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("session_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(128))
		schema.WithField(entity.NewField().WithName("start").WithDataType(entity.FieldTypeDouble))
		schema.WithField(entity.NewField().WithName("end").WithDataType(entity.FieldTypeDouble))
		schema.WithField(entity.NewField().WithName("text").WithDataType(entity.FieldTypeVarChar).WithMaxLength(4096))
		schema.WithField(entity.NewField().WithName("vector").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))

		if err := s.mc.CreateCollection(ctx, schema, int32(2)); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	}
	idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
	if err != nil {
		return fmt.Errorf("new hnsw index: %w", err)
	}
	if err := s.mc.CreateIndex(ctx, s.coll, "vector", idx, false, client.WithIndexName("idx_vector")); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := s.mc.LoadCollection(ctx, s.coll, false); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	return nil
}

func (s *MilvusVectorIndex) Index(ctx context.Context, sessionID string, segments []core.Segment) (int, error) {
	if len(segments) == 0 {
		return 0, nil
	}
	sessionIDs := make([]string, 0, len(segments))
	starts := make([]float64, 0, len(segments))
	ends := make([]float64, 0, len(segments))
	texts := make([]string, 0, len(segments))
	vectors := make([][]float32, 0, len(segments))

	for _, seg := range segments {
		v, err := s.emb.embed(ctx, strings.ToLower(seg.Text))
		if err != nil {
			continue
		}
		sessionIDs = append(sessionIDs, sessionID)
		starts = append(starts, seg.Start)
		ends = append(ends, seg.End)
		texts = append(texts, seg.Text)
		vectors = append(vectors, v)
	}
	if len(vectors) == 0 {
		return 0, nil
	}

	_, err := s.mc.Insert(ctx, s.coll, "",
		entity.NewColumnVarChar("session_id", sessionIDs),
		entity.NewColumnDouble("start", starts),
		entity.NewColumnDouble("end", ends),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnFloatVector("vector", s.dim, vectors),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: milvus insert: %v", core.ErrStorageFailure, err)
	}
	return len(vectors), nil
}

func (s *MilvusVectorIndex) Search(ctx context.Context, sessionID, query string, topK int) ([]core.Hit, error) {
	v, err := s.emb.embed(ctx, strings.ToLower(query))
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}
	sp, _ := entity.NewIndexHNSWSearchParam(74)
	filter := fmt.Sprintf("session_id == \"%s\"", strings.ReplaceAll(sessionID, "\"", "\\\""))
	res, err := s.mc.Search(ctx, s.coll, []string{}, filter, []string{"start", "end", "text"},
		[]entity.Vector{entity.FloatVector(v)}, "vector", entity.COSINE, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("%w: milvus search: %v", core.ErrStorageFailure, err)
	}

	var hits []core.Hit
	for _, r := range res {
		cols := map[string]entity.Column{}
		for _, c := range r.Fields {
			cols[c.Name()] = c
		}
		for i := 0; i < r.ResultCount; i++ {
			var start, end float64
			var text string
			if c, ok := cols["start"].(*entity.ColumnDouble); ok {
				if data := c.Data(); i < len(data) {
					start = data[i]
				}
			}
			if c, ok := cols["end"].(*entity.ColumnDouble); ok {
				if data := c.Data(); i < len(data) {
					end = data[i]
				}
			}
			if c, ok := cols["text"].(*entity.ColumnVarChar); ok {
				if data := c.Data(); i < len(data) {
					text = data[i]
				}
			}
			hits = append(hits, core.Hit{Score: float64(r.Scores[i]), Start: start, End: end, Text: text})
		}
	}
	return hits, nil
}

func (s *MilvusVectorIndex) Kind() string { return "milvus" }

func (s *MilvusVectorIndex) Close() {
	s.mc.Close()
}

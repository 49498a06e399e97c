package services

import (
	"context"
	"hash/fnv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"alfredoptarigan/profile-matcher/internal/skills"
)

const testVectorSize = 8

const testDictionaryYAML = `
version: "1.2.0"
updated_at: "2025-01-15"
domains: [backend, frontend, data, devops]
skills:
  python:
    domain: backend
    aliases: [py, python3]
  java:
    domain: backend
  fastapi:
    domain: backend
  react:
    domain: frontend
    aliases: [reactjs]
  postgresql:
    domain: data
    aliases: [postgres]
  kubernetes:
    domain: devops
    aliases: [k8s]
  docker:
    domain: devops
`

func testDictionary(t *testing.T) *skills.Dictionary {
	t.Helper()
	dict, err := skills.Parse([]byte(testDictionaryYAML))
	require.NoError(t, err)
	return dict
}

func testNormalizer(t *testing.T) *skills.Normalizer {
	t.Helper()
	return skills.NewNormalizer(testDictionary(t))
}

// mockEmbedder returns deterministic vectors unless a func field overrides it.
type mockEmbedder struct {
	EmbedFunc      func(ctx context.Context, text string) ([]float32, error)
	EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)

	mu         sync.Mutex
	embedTexts []string
	batchCalls [][]string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.embedTexts = append(m.embedTexts, text)
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return deterministicVector(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls = append(m.batchCalls, append([]string(nil), texts...))
	m.mu.Unlock()

	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = deterministicVector(text)
	}
	return out, nil
}

func deterministicVector(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, testVectorSize)
	for i := range vector {
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}

type searchCall struct {
	collection string
	vector     []float32
	filter     *PointFilter
	limit      int
}

// fakeVectorStore keeps upserted points per collection in memory.
type fakeVectorStore struct {
	mu        sync.Mutex
	points    map[string]map[string]Point
	upserts   int
	hits      []ScoredPoint
	searches  []searchCall
	upsertErr error
	searchErr error
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{points: make(map[string]map[string]Point)}
}

func (f *fakeVectorStore) EnsureCollections(context.Context) error { return nil }

func (f *fakeVectorStore) Upsert(_ context.Context, collection string, points []Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	if f.points[collection] == nil {
		f.points[collection] = make(map[string]Point)
	}
	for _, p := range points {
		f.points[collection][p.ID] = p
	}
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, collection string, vector []float32, filter *PointFilter, limit int) ([]ScoredPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, searchCall{collection: collection, vector: vector, filter: filter, limit: limit})
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if limit < len(f.hits) {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

func (f *fakeVectorStore) Health(context.Context) error { return nil }

func (f *fakeVectorStore) count(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.points[collection])
}

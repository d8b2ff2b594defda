package search

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/narrator/ai/mock"
	"github.com/poiesic/narrator/core"
	"github.com/poiesic/narrator/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexEntry(id uint64, vector []float32, text string) core.IndexEntry {
	return core.IndexEntry{
		ChunkId: core.ID(id),
		Vector:  vector,
		Chunk: core.Chunk{
			Id:   core.ID(id),
			File: "manual.pdf",
			Page: 1,
			Text: text,
		},
	}
}

// queryEmbedder returns a fixed vector for every query, so tests control
// similarity entirely through the indexed vectors.
func queryEmbedder(vector []float32) *mock.MockEmbedder {
	m := mock.NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return m
}

func TestNewSearcher_Validation(t *testing.T) {
	idx := index.NewFlat()
	embedder := mock.NewMockEmbedder()

	_, err := NewSearcher(nil, embedder)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewSearcher(idx, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	s, err := NewSearcher(idx, embedder)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestFindSimilar_EmptyQuery(t *testing.T) {
	s, err := NewSearcher(index.NewFlat(), mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = s.FindSimilar(context.Background(), "   ", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestFindSimilar_RanksBySimilarity(t *testing.T) {
	idx := index.NewFlat()
	require.NoError(t, idx.Upsert(
		indexEntry(1, []float32{1, 0, 0}, "hydraulic pump maintenance schedule"),
		indexEntry(2, []float32{0.9, 0.4, 0}, "pump seal replacement steps"),
		indexEntry(3, []float32{0, 0, 1}, "electrical wiring overview"),
	))

	s, err := NewSearcher(idx, queryEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)

	hits, err := s.FindSimilar(context.Background(), "hydraulic pump service", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, core.ID(1), hits[0].Entry.ChunkId)
	assert.Equal(t, core.ID(2), hits[1].Entry.ChunkId)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestFindSimilar_KeywordMatchBoostsSemanticHit(t *testing.T) {
	idx := index.NewFlat()
	require.NoError(t, idx.Upsert(
		indexEntry(1, []float32{1, 0, 0}, "replace filter cartridge AF-1173 every month"),
		indexEntry(2, []float32{1, 0.05, 0}, "general filtration system description"),
	))

	s, err := NewSearcher(idx, queryEmbedder([]float32{0.99, 0.05, 0}))
	require.NoError(t, err)

	hits, err := s.FindSimilar(context.Background(), "filter cartridge AF-1173", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Chunk 1 contains every query word, so it gets the hybrid boost.
	assert.Equal(t, core.ID(1), hits[0].Entry.ChunkId)
	assert.Greater(t, hits[0].Score, hits[0].VectorScore)
	assert.Equal(t, float32(1), hits[0].KeywordScore)
}

func TestFindSimilar_KeywordOnlyHitSurfaces(t *testing.T) {
	idx := index.NewFlat()
	require.NoError(t, idx.Upsert(
		indexEntry(1, []float32{0, 0, 1}, "error code E-4411 indicates a stuck relay"),
		indexEntry(2, []float32{1, 0, 0}, "routine lubrication points"),
	))

	// Query vector is orthogonal to chunk 1, so it is semantically invisible.
	s, err := NewSearcher(idx, queryEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)

	hits, err := s.FindSimilar(context.Background(), "code E-4411 relay", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	assert.Equal(t, core.ID(1), hits[0].Entry.ChunkId)
	assert.InDelta(t, 1.2, hits[0].Score, 0.001)
	assert.Zero(t, hits[0].VectorScore)
}

func TestFindSimilar_NoMatches(t *testing.T) {
	idx := index.NewFlat()
	require.NoError(t, idx.Upsert(
		indexEntry(1, []float32{0, 0, 1}, "torque values for frame bolts"),
	))

	s, err := NewSearcher(idx, queryEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)

	hits, err := s.FindSimilar(context.Background(), "unrelated phrase entirely", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFindSimilar_RespectsMaxHits(t *testing.T) {
	idx := index.NewFlat()
	for i := 1; i <= 10; i++ {
		require.NoError(t, idx.Upsert(indexEntry(uint64(i), []float32{1, 0, 0}, "pump inspection notes")))
	}

	s, err := NewSearcher(idx, queryEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)

	hits, err := s.FindSimilar(context.Background(), "pump inspection", 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestFindSimilar_EmbedderError(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}

	idx := index.NewFlat()
	require.NoError(t, idx.Upsert(indexEntry(1, []float32{1, 0, 0}, "anything")))

	s, err := NewSearcher(idx, embedder)
	require.NoError(t, err)

	_, err = s.FindSimilar(context.Background(), "query", 10)
	assert.Error(t, err)
}

type recordingMonitor struct {
	started  bool
	semantic int
	keyword  int
	finished int
}

func (r *recordingMonitor) Start(_ string)                           { r.started = true }
func (r *recordingMonitor) AfterSemanticSearch(h []*core.SearchHit)  { r.semantic = len(h) }
func (r *recordingMonitor) AfterKeywordScan(ids []core.ID)           { r.keyword = len(ids) }
func (r *recordingMonitor) SemanticAndKeywordHit(_ *core.IndexEntry) {}
func (r *recordingMonitor) SemanticHit(_ *core.IndexEntry)           {}
func (r *recordingMonitor) KeywordHit(_ *core.IndexEntry)            {}
func (r *recordingMonitor) Finish(h []*core.SearchHit)               { r.finished = len(h) }

func TestFindSimilarWithMonitor(t *testing.T) {
	idx := index.NewFlat()
	require.NoError(t, idx.Upsert(
		indexEntry(1, []float32{1, 0, 0}, "fan belt tension adjustment"),
	))

	s, err := NewSearcher(idx, queryEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	hits, err := s.FindSimilarWithMonitor(context.Background(), "fan belt tension", 10, monitor)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.True(t, monitor.started)
	assert.Equal(t, 1, monitor.semantic)
	assert.Equal(t, 1, monitor.keyword)
	assert.Equal(t, 1, monitor.finished)
}

func TestTokenizeAndFilter(t *testing.T) {
	got := tokenizeAndFilter("The pump, and the Filter!")
	assert.Equal(t, []string{"pump", "filter"}, got)
}

func TestContainsAllQueryWords(t *testing.T) {
	doc := "Replace the filter cartridge AF-1173 every month."

	assert.True(t, containsAllQueryWords(doc, "filter cartridge"))
	assert.True(t, containsAllQueryWords(doc, "the filter CARTRIDGE"))
	assert.False(t, containsAllQueryWords(doc, "filter housing"))
	assert.False(t, containsAllQueryWords(doc, "the a an"))
}

func TestKeywordOverlap(t *testing.T) {
	doc := "Replace the filter cartridge monthly."

	assert.InDelta(t, 1.0, keywordOverlap(doc, "filter cartridge"), 0.001)
	assert.InDelta(t, 0.5, keywordOverlap(doc, "filter housing"), 0.001)
	assert.Zero(t, keywordOverlap(doc, "unrelated words"))
}

package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/narrator/ai"
	"github.com/poiesic/narrator/core"
	"github.com/poiesic/narrator/index"
)

// defaultMinScore is the cosine similarity floor for semantic candidates.
const defaultMinScore = 0.60

// Searcher provides hybrid semantic and keyword search over indexed chunks.
type Searcher struct {
	idx      index.Index
	embedder ai.Embedder
	minScore float32
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinScore sets the cosine similarity floor for semantic candidates.
// Default is 0.60.
func WithMinScore(minScore float32) Option {
	return func(s *Searcher) error {
		s.minScore = minScore
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(idx index.Index, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		idx:      idx,
		embedder: embedder,
		minScore: defaultMinScore,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for chunks relevant to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchHit, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for chunks relevant to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchHit, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query)

	// 1. Semantic search over the vector index
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Fetch more candidates than requested so keyword boosts can reorder
	matches, err := s.idx.Query(ctx, embedding, maxHits*3, s.minScore)
	if err != nil {
		s.logger.Error("error querying index", "err", err)
		return nil, err
	}

	semanticScores := make(map[core.ID]float32, len(matches))
	for _, match := range matches {
		semanticScores[match.Entry.ChunkId] = match.VectorScore
	}
	monitor.AfterSemanticSearch(matches)

	// 2. Keyword scan: chunks containing every filtered query word
	keywordSet := make(map[core.ID]bool)
	entries := s.idx.Entries()
	for i := range entries {
		if containsAllQueryWords(entries[i].Chunk.Text, query) {
			keywordSet[entries[i].ChunkId] = true
		}
	}
	keywordIds := make([]core.ID, 0, len(keywordSet))
	for id := range keywordSet {
		keywordIds = append(keywordIds, id)
	}
	monitor.AfterKeywordScan(keywordIds)

	// 3. Combine and score
	allIds := make(map[core.ID]bool, len(semanticScores)+len(keywordSet))
	for id := range semanticScores {
		allIds[id] = true
	}
	for id := range keywordSet {
		allIds[id] = true
	}

	if len(allIds) == 0 {
		return []*core.SearchHit{}, nil
	}

	results := make([]*core.SearchHit, 0, len(allIds))
	for id := range allIds {
		entry, ok := s.idx.Get(id)
		if !ok {
			continue
		}

		inSemantic := semanticScores[id] > 0
		inKeyword := keywordSet[id]
		overlap := keywordOverlap(entry.Chunk.Text, query)

		var score float32
		switch {
		case inSemantic && inKeyword:
			// In both: boost the similarity score
			score = 1.5 * semanticScores[id]
			monitor.SemanticAndKeywordHit(entry)
		case inKeyword:
			// Keyword only: fixed base score
			score = 1.2
			monitor.KeywordHit(entry)
		default:
			score = semanticScores[id]
			monitor.SemanticHit(entry)
		}

		results = append(results, &core.SearchHit{
			Entry:        entry,
			Score:        score,
			VectorScore:  semanticScores[id],
			KeywordScore: overlap,
		})
	}

	// Sort by score descending, chunk ID as tiebreaker for stable output
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.ChunkId < results[j].Entry.ChunkId
	})
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

package search

import "github.com/poiesic/narrator/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(hits []*core.SearchHit)
	AfterKeywordScan(ids []core.ID)
	SemanticAndKeywordHit(entry *core.IndexEntry)
	SemanticHit(entry *core.IndexEntry)
	KeywordHit(entry *core.IndexEntry)
	Finish(results []*core.SearchHit)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.SearchHit)  {}
func (n *noopMonitor) AfterKeywordScan(_ []core.ID)             {}
func (n *noopMonitor) SemanticAndKeywordHit(_ *core.IndexEntry) {}
func (n *noopMonitor) SemanticHit(_ *core.IndexEntry)           {}
func (n *noopMonitor) KeywordHit(_ *core.IndexEntry)            {}
func (n *noopMonitor) Finish(_ []*core.SearchHit)               {}

package retrieval

import "github.com/poiesic/corpus/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	CacheHit(key string)
	AfterEmbedding(vector []float32)
	AfterScan(matches []*core.FragmentMatch)
	Finish(hits []*core.SearchHit)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                    {}
func (n *noopMonitor) CacheHit(_ string)                 {}
func (n *noopMonitor) AfterEmbedding(_ []float32)        {}
func (n *noopMonitor) AfterScan(_ []*core.FragmentMatch) {}
func (n *noopMonitor) Finish(_ []*core.SearchHit)        {}

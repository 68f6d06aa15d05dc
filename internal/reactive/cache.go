package reactive

import "github.com/watchloop/observatory/internal/syncx"

// SolutionCache holds generated solutions keyed by problem id only —
// never by a pointer back to the DetectedCodingProblem itself, so
// Problem → Solution → Problem can never form a reference cycle (per
// the design note: address problems by id, let the cache own id →
// solution entries).
//
// The cache is in-memory only; CacheSnapshot/LoadSnapshot are the
// escape hatch for a caller that wants to persist it across restarts
// without this package taking on a storage dependency of its own.
type SolutionCache struct {
	entries *syncx.RWGuard[map[string]GeneratedSolution]
}

// NewSolutionCache returns an empty cache.
func NewSolutionCache() *SolutionCache {
	return &SolutionCache{entries: syncx.NewGuard(make(map[string]GeneratedSolution))}
}

// Put stores solution under its own ProblemID.
func (c *SolutionCache) Put(solution GeneratedSolution) {
	c.entries.Write(func(m *map[string]GeneratedSolution) {
		(*m)[solution.ProblemID] = solution
	})
}

// Get looks up a cached solution by problem id.
func (c *SolutionCache) Get(problemID string) (GeneratedSolution, bool) {
	result := c.entries.Read(func(m map[string]GeneratedSolution) any {
		solution, ok := m[problemID]
		return [2]any{solution, ok}
	}).([2]any)
	return result[0].(GeneratedSolution), result[1].(bool)
}

// CacheSnapshot returns a copy of every cached solution, keyed by
// problem id, suitable for persisting elsewhere.
func (c *SolutionCache) CacheSnapshot() map[string]GeneratedSolution {
	return c.entries.Read(func(m map[string]GeneratedSolution) any {
		out := make(map[string]GeneratedSolution, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}).(map[string]GeneratedSolution)
}

// LoadSnapshot replaces the cache's contents with snapshot, overwriting
// any existing entries that share a problem id.
func (c *SolutionCache) LoadSnapshot(snapshot map[string]GeneratedSolution) {
	c.entries.Write(func(m *map[string]GeneratedSolution) {
		for k, v := range snapshot {
			(*m)[k] = v
		}
	})
}

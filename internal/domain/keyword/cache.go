package keyword

import (
	"context"
	"time"
)

// Component identifies one independently cached slice of a research result.
type Component string

const (
	ComponentAggregated    Component = "aggregated"
	ComponentComparison    Component = "comparison"
	ComponentOpportunities Component = "opportunities"
	ComponentGaps          Component = "gaps"
	ComponentSessionList   Component = "session_list"
)

// Cache TTLs per component.  The full session result and each component age
// out independently so a partial hit can still skip part of a rebuild.
const (
	TTLFullResult  = 30 * time.Minute
	TTLAggregated  = 15 * time.Minute
	TTLComparison  = 15 * time.Minute
	TTLGaps        = 60 * time.Minute
	TTLSessionList = 5 * time.Minute
)

// ComponentTTL returns the TTL for a cached component.
func ComponentTTL(c Component) time.Duration {
	switch c {
	case ComponentGaps:
		return TTLGaps
	case ComponentSessionList:
		return TTLSessionList
	default:
		return TTLAggregated
	}
}

// ResultCache is the write-through cache facade consulted before the
// reconstructor is engaged.  Cache errors are logged by implementations and
// surfaced as misses, never as pipeline failures; only loader errors from
// GetOrSetSession reach the caller.
type ResultCache interface {
	// GetSession returns the cached full session and whether it was a hit.
	GetSession(ctx context.Context, userID, sessionID string) (*ResearchSession, bool)

	// SetSession stores the full session under TTLFullResult.
	SetSession(ctx context.Context, userID, sessionID string, session *ResearchSession)

	// GetOrSetSession returns the cached session or, on a miss, runs loader
	// — once per key across concurrent callers — and caches what it returns.
	// Loader errors propagate; cache trouble degrades to a plain load.
	GetOrSetSession(ctx context.Context, userID, sessionID string, loader func(ctx context.Context) (*ResearchSession, error)) (*ResearchSession, error)

	// GetComponent unmarshals a cached component into dest and reports a hit.
	GetComponent(ctx context.Context, userID, sessionID string, component Component, dest interface{}) bool

	// SetComponent stores one component under its own TTL.
	SetComponent(ctx context.Context, userID, sessionID string, component Component, value interface{})

	// Invalidate drops the user's cached session list and, when sessions are
	// named, their cached entries as well.
	Invalidate(ctx context.Context, userID string, sessionIDs ...string)
}

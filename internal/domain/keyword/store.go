package keyword

import "context"

// RankingRow is one normalized (keyword, product) row as persisted.  The
// reconstructor groups these by folded keyword text to rebuild the aggregated
// view; best-of enrichment metrics are tracked as the maximum observed value
// across all rows for the keyword.
type RankingRow struct {
	Keyword           string
	ASIN              string
	Position          int
	TrafficShare      float64
	SearchVolume      int
	CPC               float64
	Products          int
	Purchases         int
	PurchaseRate      float64
	SupplyDemandRatio float64
	AdProducts        float64
	BidMin            float64
	BidMax            float64
	MonopolyClickRate float64
	TitleDensity      float64
}

// SessionRows is the normalized persisted form of one research session, as
// handed to the reconstructor on cache miss.
type SessionRows struct {
	SessionID     string
	Name          string
	ASINs         []string // ordered; index 0 is the primary product
	Options       Options
	Rankings      []RankingRow
	Opportunities []OpportunityCandidate
	Gaps          []GapRecord
	CreatedAt     int64 // unix seconds
}

// SessionStore is the persistent-store contract for research sessions.
// Implementations normalize a session into rows on save and return the rows
// unchanged on load; rebuilding the derived views from rows is the
// reconstructor's job, not the store's.
type SessionStore interface {
	// SaveSession persists the session for userID and returns the new
	// session ID.  The write is transactional: either all rows land or none.
	SaveSession(ctx context.Context, userID string, session *ResearchSession, name string) (string, error)

	// LoadSessions returns list-view summaries of the user's sessions,
	// newest first.
	LoadSessions(ctx context.Context, userID string) ([]SessionSummary, error)

	// LoadSessionRows returns the normalized rows for one session, or a
	// not-found error.  Raw storage errors are mapped to not-found so the
	// caller never sees driver internals.
	LoadSessionRows(ctx context.Context, userID, sessionID string) (*SessionRows, error)

	// DeleteSession removes a session and all its rows.
	DeleteSession(ctx context.Context, userID, sessionID string) error

	// RenameSession updates the display name of a session.
	RenameSession(ctx context.Context, userID, sessionID, name string) error
}

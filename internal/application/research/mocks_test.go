package research

import (
	"context"
	"time"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
)

// ---------------------------------------------------------------------------
// Shared test doubles
// ---------------------------------------------------------------------------

type mockProvider struct {
	reverseASINFn   func(ctx context.Context, asin string, page, pageSize int) ([]keyword.Occurrence, error)
	keywordMiningFn func(ctx context.Context, kw string, filters keyword.MiningFilters) ([]keyword.Occurrence, error)

	reverseCalls []string
	miningCalls  []string
}

func (m *mockProvider) ReverseASIN(ctx context.Context, asin string, page, pageSize int) ([]keyword.Occurrence, error) {
	m.reverseCalls = append(m.reverseCalls, asin)
	if m.reverseASINFn != nil {
		return m.reverseASINFn(ctx, asin, page, pageSize)
	}
	return nil, nil
}

func (m *mockProvider) KeywordMining(ctx context.Context, kw string, filters keyword.MiningFilters) ([]keyword.Occurrence, error) {
	m.miningCalls = append(m.miningCalls, kw)
	if m.keywordMiningFn != nil {
		return m.keywordMiningFn(ctx, kw, filters)
	}
	return nil, nil
}

type mockCache struct {
	sessions    map[string]*keyword.ResearchSession
	components  map[string]interface{}
	invalidated []string
	loads       int
}

func newMockCache() *mockCache {
	return &mockCache{
		sessions:   make(map[string]*keyword.ResearchSession),
		components: make(map[string]interface{}),
	}
}

func (c *mockCache) GetSession(_ context.Context, userID, sessionID string) (*keyword.ResearchSession, bool) {
	s, ok := c.sessions[userID+"/"+sessionID]
	return s, ok
}

func (c *mockCache) SetSession(_ context.Context, userID, sessionID string, s *keyword.ResearchSession) {
	c.sessions[userID+"/"+sessionID] = s
}

func (c *mockCache) GetOrSetSession(ctx context.Context, userID, sessionID string, loader func(context.Context) (*keyword.ResearchSession, error)) (*keyword.ResearchSession, error) {
	c.loads++
	if s, ok := c.sessions[userID+"/"+sessionID]; ok {
		return s, nil
	}
	s, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	c.sessions[userID+"/"+sessionID] = s
	return s, nil
}

func (c *mockCache) GetComponent(_ context.Context, userID, sessionID string, component keyword.Component, _ interface{}) bool {
	_, ok := c.components[userID+"/"+sessionID+"/"+string(component)]
	return ok
}

func (c *mockCache) SetComponent(_ context.Context, userID, sessionID string, component keyword.Component, value interface{}) {
	c.components[userID+"/"+sessionID+"/"+string(component)] = value
}

func (c *mockCache) Invalidate(_ context.Context, userID string, sessionIDs ...string) {
	c.invalidated = append(c.invalidated, userID)
	for _, id := range sessionIDs {
		delete(c.sessions, userID+"/"+id)
	}
}

type mockStore struct {
	saveFn     func(ctx context.Context, userID string, session *keyword.ResearchSession, name string) (string, error)
	loadRowsFn func(ctx context.Context, userID, sessionID string) (*keyword.SessionRows, error)
	saved      []*keyword.ResearchSession
}

func (s *mockStore) SaveSession(ctx context.Context, userID string, session *keyword.ResearchSession, name string) (string, error) {
	s.saved = append(s.saved, session)
	if s.saveFn != nil {
		return s.saveFn(ctx, userID, session, name)
	}
	return "session-1", nil
}

func (s *mockStore) LoadSessions(_ context.Context, _ string) ([]keyword.SessionSummary, error) {
	return nil, nil
}

func (s *mockStore) LoadSessionRows(ctx context.Context, userID, sessionID string) (*keyword.SessionRows, error) {
	if s.loadRowsFn != nil {
		return s.loadRowsFn(ctx, userID, sessionID)
	}
	return nil, nil
}

func (s *mockStore) DeleteSession(_ context.Context, _, _ string) error { return nil }

func (s *mockStore) RenameSession(_ context.Context, _, _, _ string) error { return nil }

type mockPublisher struct {
	events []ResearchCompletedEvent
	err    error
}

func (p *mockPublisher) PublishResearchCompleted(_ context.Context, evt ResearchCompletedEvent) error {
	p.events = append(p.events, evt)
	return p.err
}

// instantSleeper records requested delays without waiting, still honoring
// context cancellation like the real sleeper.
type instantSleeper struct {
	slept []time.Duration
}

func (s *instantSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.slept = append(s.slept, d)
	return nil
}

// occ builds a minimal occurrence for tests.
func occ(kw string, volume int, cpc float64, position int) keyword.Occurrence {
	return keyword.Occurrence{Keyword: kw, SearchVolume: volume, CPC: cpc, Position: position}
}

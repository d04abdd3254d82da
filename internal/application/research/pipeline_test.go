package research

import (
	"context"
	"testing"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/pkg/errors"
)

func happyProvider() *mockProvider {
	return &mockProvider{
		reverseASINFn: func(_ context.Context, asin string, _, _ int) ([]keyword.Occurrence, error) {
			if asin == "B08N5WRWNW" {
				return []keyword.Occurrence{
					occ("wireless mouse", 6000, 1.00, 5),
					occ("ergonomic mouse", 3000, 0.80, 0),
				}, nil
			}
			return []keyword.Occurrence{occ("wireless mouse", 5800, 2.00, 9)}, nil
		},
	}
}

func newTestService(t *testing.T, cfg ServiceConfig) *Service {
	t.Helper()
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestNewService_RequiresProvider(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	if err == nil {
		t.Fatal("expected error for missing provider")
	}
	if !errors.IsValidation(err) {
		t.Errorf("error code = %s, want validation", errors.GetCode(err))
	}
}

func TestResearch_ValidatesProductIDs(t *testing.T) {
	provider := happyProvider()
	svc := newTestService(t, ServiceConfig{Provider: provider})

	cases := []struct {
		name string
		ids  []string
	}{
		{"empty", nil},
		{"too many", []string{
			"B000000001", "B000000002", "B000000003", "B000000004", "B000000005",
			"B000000006", "B000000007", "B000000008", "B000000009", "B000000010",
			"B000000011",
		}},
		{"bad asin", []string{"not-an-asin"}},
		{"short asin", []string{"B08N5"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Research(context.Background(), ResearchRequest{UserID: "u1", ProductIDs: c.ids})
			if err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
	if len(provider.reverseCalls) != 0 {
		t.Errorf("provider called %d times before validation", len(provider.reverseCalls))
	}
}

func TestResearch_HappyPath(t *testing.T) {
	provider := happyProvider()
	cache := newMockCache()
	store := &mockStore{}
	publisher := &mockPublisher{}
	svc := newTestService(t, ServiceConfig{
		Provider:  provider,
		Cache:     cache,
		Store:     store,
		Publisher: publisher,
	})

	session, err := svc.Research(context.Background(), ResearchRequest{
		UserID:     "u1",
		ProductIDs: []string{"B08N5WRWNW", "B07ZPKN6YR"},
		Name:       "mice",
	})
	if err != nil {
		t.Fatalf("Research: %v", err)
	}

	if session.ID != "session-1" {
		t.Errorf("session ID = %q, want the store-assigned ID", session.ID)
	}
	if len(session.Products) != 2 || len(session.Comparisons) != 2 {
		t.Errorf("products/comparisons = %d/%d, want 2/2", len(session.Products), len(session.Comparisons))
	}
	if len(session.Aggregated) != 2 {
		t.Errorf("aggregated = %d keywords, want 2", len(session.Aggregated))
	}
	if session.Opportunities == nil {
		t.Error("opportunities report missing")
	}
	if session.Gaps == nil {
		t.Error("gap analysis missing for a two-product run")
	}

	if len(store.saved) != 1 {
		t.Errorf("store saw %d saves, want 1", len(store.saved))
	}
	if _, hit := cache.GetSession(context.Background(), "u1", "session-1"); !hit {
		t.Error("session not write-through cached")
	}
	if len(cache.invalidated) == 0 {
		t.Error("session list cache not invalidated after a new run")
	}

	if len(publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.events))
	}
	evt := publisher.events[0]
	if evt.UserID != "u1" || evt.SessionID != "session-1" || evt.KeywordCount != 2 {
		t.Errorf("unexpected event: %+v", evt)
	}
}

func TestResearch_ProgressCheckpoints(t *testing.T) {
	svc := newTestService(t, ServiceConfig{Provider: happyProvider()})

	progress := make(chan ProgressEvent, 64)
	_, err := svc.Research(context.Background(), ResearchRequest{
		UserID:     "u1",
		ProductIDs: []string{"B08N5WRWNW", "B07ZPKN6YR"},
		Progress:   progress,
	})
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	close(progress)

	var events []ProgressEvent
	for evt := range progress {
		events = append(events, evt)
	}
	if len(events) == 0 {
		t.Fatal("no progress events emitted")
	}
	if events[0].Phase != PhaseExtraction || events[0].Percent != 0 {
		t.Errorf("first event = %+v, want extraction at 0%%", events[0])
	}
	last := events[len(events)-1]
	if last.Phase != PhaseComplete || last.Percent != 100 {
		t.Errorf("last event = %+v, want complete at 100%%", last)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Percent < events[i-1].Percent {
			t.Errorf("progress went backwards: %d%% after %d%%", events[i].Percent, events[i-1].Percent)
		}
	}
}

func TestResearch_SlowProgressConsumerNeverBlocks(t *testing.T) {
	svc := newTestService(t, ServiceConfig{Provider: happyProvider()})

	// Unbuffered channel with no reader: every send must fall through.
	progress := make(chan ProgressEvent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Research(context.Background(), ResearchRequest{
			UserID:     "u1",
			ProductIDs: []string{"B08N5WRWNW"},
			Progress:   progress,
		})
		if err != nil {
			t.Errorf("Research: %v", err)
		}
	}()
	<-done
}

func TestResearch_AllProductsFailedStillCompletes(t *testing.T) {
	provider := &mockProvider{
		reverseASINFn: func(_ context.Context, _ string, _, _ int) ([]keyword.Occurrence, error) {
			return nil, errors.New(errors.ErrCodeProviderFailed, "provider down")
		},
	}
	svc := newTestService(t, ServiceConfig{Provider: provider})

	session, err := svc.Research(context.Background(), ResearchRequest{
		UserID:     "u1",
		ProductIDs: []string{"B08N5WRWNW", "B07ZPKN6YR"},
	})
	if err != nil {
		t.Fatalf("a failed collection must not fail the run: %v", err)
	}
	if len(session.Aggregated) != 0 {
		t.Error("failed products produced aggregated keywords")
	}
	for _, p := range session.Products {
		if p.Status != keyword.StatusFailed {
			t.Errorf("product %s status = %s, want failed", p.ProductID, p.Status)
		}
	}
	if session.Gaps != nil {
		t.Error("gap analysis should be absent with no successful products")
	}
}

func TestResearch_FailedPrimaryYieldsNoBaseline(t *testing.T) {
	// The first requested ASIN fails collection while two competitors
	// succeed on an overlapping keyword. No competitor may be promoted to
	// the baseline role: the targeted opportunity list stays empty and gap
	// analysis is absent.
	provider := &mockProvider{
		reverseASINFn: func(_ context.Context, asin string, _, _ int) ([]keyword.Occurrence, error) {
			switch asin {
			case "B000000000":
				return nil, errors.New(errors.ErrCodeProviderFailed, "provider down")
			case "B000000001":
				return []keyword.Occurrence{occ("wireless mouse", 6000, 1.0, 3)}, nil
			default:
				return []keyword.Occurrence{occ("wireless mouse", 5800, 2.0, 9)}, nil
			}
		},
	}
	svc := newTestService(t, ServiceConfig{Provider: provider})

	session, err := svc.Research(context.Background(), ResearchRequest{
		UserID:     "u1",
		ProductIDs: []string{"B000000000", "B000000001", "B000000002"},
	})
	if err != nil {
		t.Fatalf("Research: %v", err)
	}

	if session.Products[0].Status != keyword.StatusFailed {
		t.Fatalf("primary status = %s, want failed", session.Products[0].Status)
	}
	if session.Opportunities == nil {
		t.Fatal("opportunity report missing")
	}
	if n := len(session.Opportunities.Opportunities); n != 0 {
		t.Errorf("targeted opportunities = %d, want none without the caller's own data", n)
	}
	if len(session.Opportunities.AllKeywordsWithCompetition) == 0 {
		t.Error("competitor universe statistics missing")
	}
	if session.Gaps != nil {
		t.Fatalf("gap analysis present with a failed primary: %+v", session.Gaps.Gaps)
	}
}

func TestResearch_SingleProductSkipsGapAnalysis(t *testing.T) {
	svc := newTestService(t, ServiceConfig{Provider: happyProvider()})

	session, err := svc.Research(context.Background(), ResearchRequest{
		UserID:     "u1",
		ProductIDs: []string{"B08N5WRWNW"},
	})
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	if session.Gaps != nil {
		t.Error("single-product run should have no gap analysis")
	}
	if session.Opportunities == nil {
		t.Error("opportunities should still be computed for a single product")
	}
}

func TestResearch_CancelledContext(t *testing.T) {
	svc := newTestService(t, ServiceConfig{Provider: happyProvider()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Research(ctx, ResearchRequest{
		UserID:     "u1",
		ProductIDs: []string{"B08N5WRWNW"},
	})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !errors.IsCode(err, errors.ErrCodeTimeout) {
		t.Errorf("error code = %s, want timeout", errors.GetCode(err))
	}
}

func TestResearch_StoreFailureDegradesToUnsavedSession(t *testing.T) {
	store := &mockStore{
		saveFn: func(_ context.Context, _ string, _ *keyword.ResearchSession, _ string) (string, error) {
			return "", errors.New(errors.ErrCodeDatabaseError, "connection refused")
		},
	}
	svc := newTestService(t, ServiceConfig{Provider: happyProvider(), Store: store})

	session, err := svc.Research(context.Background(), ResearchRequest{
		UserID:     "u1",
		ProductIDs: []string{"B08N5WRWNW"},
	})
	if err != nil {
		t.Fatalf("a persistence failure must not fail the run: %v", err)
	}
	if session.ID == "" {
		t.Error("unsaved session should still get a generated ID")
	}
}

func TestGetSession_CacheHit(t *testing.T) {
	cache := newMockCache()
	want := &keyword.ResearchSession{ID: "session-9"}
	cache.SetSession(context.Background(), "u1", "session-9", want)

	store := &mockStore{
		loadRowsFn: func(_ context.Context, _, _ string) (*keyword.SessionRows, error) {
			t.Fatal("store consulted despite cache hit")
			return nil, nil
		},
	}
	svc := newTestService(t, ServiceConfig{Provider: happyProvider(), Cache: cache, Store: store})

	got, err := svc.GetSession(context.Background(), "u1", "session-9")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != want {
		t.Error("cache hit returned a different session")
	}
	if cache.loads != 1 {
		t.Errorf("cache get-or-load calls = %d, want 1", cache.loads)
	}
}

func TestGetSession_MissRebuildsAndCaches(t *testing.T) {
	cache := newMockCache()
	rebuilds := 0
	store := &mockStore{
		loadRowsFn: func(_ context.Context, userID, sessionID string) (*keyword.SessionRows, error) {
			if userID != "u1" || sessionID != "session-42" {
				t.Errorf("unexpected load: %s/%s", userID, sessionID)
			}
			rebuilds++
			return sampleRows(), nil
		},
	}
	svc := newTestService(t, ServiceConfig{Provider: happyProvider(), Cache: cache, Store: store})

	got, err := svc.GetSession(context.Background(), "u1", "session-42")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.ID != "session-42" || len(got.Aggregated) == 0 {
		t.Errorf("reconstructed session = %+v", got)
	}
	if _, hit := cache.GetSession(context.Background(), "u1", "session-42"); !hit {
		t.Error("reconstructed session not cached")
	}

	// A repeat read is served from the cache without another rebuild.
	if _, err := svc.GetSession(context.Background(), "u1", "session-42"); err != nil {
		t.Fatalf("GetSession (cached): %v", err)
	}
	if rebuilds != 1 {
		t.Errorf("store rebuilds = %d, want 1", rebuilds)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	store := &mockStore{
		loadRowsFn: func(_ context.Context, _, _ string) (*keyword.SessionRows, error) {
			return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found")
		},
	}
	svc := newTestService(t, ServiceConfig{Provider: happyProvider(), Store: store})

	_, err := svc.GetSession(context.Background(), "u1", "missing")
	if !errors.IsCode(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("error code = %s, want session not found", errors.GetCode(err))
	}
}

func TestDeleteSession_InvalidatesCache(t *testing.T) {
	cache := newMockCache()
	cache.SetSession(context.Background(), "u1", "session-9", &keyword.ResearchSession{ID: "session-9"})
	svc := newTestService(t, ServiceConfig{Provider: happyProvider(), Cache: cache, Store: &mockStore{}})

	if err := svc.DeleteSession(context.Background(), "u1", "session-9"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, hit := cache.GetSession(context.Background(), "u1", "session-9"); hit {
		t.Error("deleted session still cached")
	}
}

func TestRenameSession_InvalidatesCache(t *testing.T) {
	cache := newMockCache()
	cache.SetSession(context.Background(), "u1", "session-9", &keyword.ResearchSession{ID: "session-9", Name: "old"})
	svc := newTestService(t, ServiceConfig{Provider: happyProvider(), Cache: cache, Store: &mockStore{}})

	if err := svc.RenameSession(context.Background(), "u1", "session-9", "new name"); err != nil {
		t.Fatalf("RenameSession: %v", err)
	}
	if _, hit := cache.GetSession(context.Background(), "u1", "session-9"); hit {
		t.Error("renamed session still cached under stale name")
	}
}

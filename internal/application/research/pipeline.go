package research

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
	"github.com/BlockchainHB/launchfast-sub000/pkg/errors"
)

const (
	minProducts = 1
	maxProducts = 10
)

// ProgressEvent is one checkpoint emitted during a research run.
type ProgressEvent struct {
	Phase   string      `json:"phase"`
	Message string      `json:"message"`
	Percent int         `json:"percent"`
	Payload interface{} `json:"payload,omitempty"`
}

// Progress phases, emitted at fixed checkpoints.
const (
	PhaseExtraction    = "extraction"
	PhaseAggregation   = "aggregation"
	PhaseOpportunities = "opportunities"
	PhaseGapAnalysis   = "gap_analysis"
	PhaseEnhancement   = "enhancement"
	PhaseComplete      = "complete"
)

// ResearchCompletedEvent is published after a run finishes, for downstream
// consumers (analytics, notifications).
type ResearchCompletedEvent struct {
	UserID           string    `json:"user_id"`
	SessionID        string    `json:"session_id"`
	ProductIDs       []string  `json:"product_ids"`
	KeywordCount     int       `json:"keyword_count"`
	OpportunityCount int       `json:"opportunity_count"`
	GapCount         int       `json:"gap_count"`
	CompletedAt      time.Time `json:"completed_at"`
}

// EventPublisher delivers pipeline events to an external bus.  Publishing is
// best-effort; failures are logged and never fail the run.
type EventPublisher interface {
	PublishResearchCompleted(ctx context.Context, evt ResearchCompletedEvent) error
}

// Metrics receives pipeline observations.  All methods must be safe for a
// nil-free no-op implementation; the Service checks for nil before calling.
type Metrics interface {
	RecordRun(status string, duration time.Duration)
	RecordCacheLookup(component string, hit bool)
}

// ResearchRequest describes one research run.  ProductIDs[0] is the primary
// (user) product; this ordering is preserved end-to-end.  Progress, when
// non-nil, receives checkpoint events; sends never block — a slow consumer
// misses events rather than stalling the pipeline.
type ResearchRequest struct {
	UserID     string
	ProductIDs []string
	Options    keyword.Options
	Name       string
	Progress   chan<- ProgressEvent
}

// Service orchestrates the research pipeline.  One logical worker per run; no
// shared mutable state across concurrent runs beyond the external cache and
// store, which are overwrite-by-key.
type Service struct {
	collector     *Collector
	aggregator    *Aggregator
	finder        *OpportunityFinder
	gapAnalyzer   *GapAnalyzer
	enhancer      *Enhancer
	reconstructor *Reconstructor

	cache     keyword.ResultCache
	store     keyword.SessionStore
	publisher EventPublisher
	metrics   Metrics
	logger    logging.Logger
}

// ServiceConfig holds the Service's injected dependencies.  Provider is
// required; Cache, Store, Publisher, and Metrics are optional and degrade
// gracefully when absent.
type ServiceConfig struct {
	Provider  keyword.DataProvider
	Cache     keyword.ResultCache
	Store     keyword.SessionStore
	Publisher EventPublisher
	Metrics   Metrics
	Logger    logging.Logger
}

// NewService constructs the research Service with all pipeline stages wired.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Provider == nil {
		return nil, errors.NewValidation("research service requires a data provider")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.Named("research")

	return &Service{
		collector:     NewCollector(cfg.Provider, log),
		aggregator:    NewAggregator(log),
		finder:        NewOpportunityFinder(cfg.Provider, log),
		gapAnalyzer:   NewGapAnalyzer(log),
		enhancer:      NewEnhancer(cfg.Provider, log),
		reconstructor: NewReconstructor(log),
		cache:         cfg.Cache,
		store:         cfg.Store,
		publisher:     cfg.Publisher,
		metrics:       cfg.Metrics,
		logger:        log,
	}, nil
}

// Research runs the full pipeline: collection → aggregation / comparison /
// opportunities → gap analysis → enhancement → assembly → write-through.
// The run always completes with best-effort data; only input validation and
// context cancellation surface as errors.
func (s *Service) Research(ctx context.Context, req ResearchRequest) (*keyword.ResearchSession, error) {
	start := time.Now()

	if err := validateProductIDs(req.ProductIDs); err != nil {
		s.recordRun("validation_failed", start)
		return nil, err
	}
	opts := req.Options.Normalized()

	emit := func(phase, message string, percent int, payload interface{}) {
		if req.Progress == nil {
			return
		}
		select {
		case req.Progress <- ProgressEvent{Phase: phase, Message: message, Percent: percent, Payload: payload}:
		default:
		}
	}

	emit(PhaseExtraction, "starting keyword extraction", 0, nil)

	// Sequential collection, primary product first; the collector's token
	// bucket enforces the provider throughput ceiling.
	total := len(req.ProductIDs)
	products := make([]keyword.ProductResult, 0, total)
	for i, asin := range req.ProductIDs {
		if err := ctx.Err(); err != nil {
			s.recordRun("cancelled", start)
			return nil, errors.Wrap(err, errors.ErrCodeTimeout, "research cancelled during collection")
		}
		result := s.collector.Collect(ctx, asin, opts.MinSearchVolume)
		products = append(products, result)
		emit(PhaseExtraction,
			fmt.Sprintf("collected %s (%d/%d)", asin, i+1, total),
			5+(40*(i+1))/total,
			map[string]interface{}{"asin": asin, "status": result.Status},
		)
	}

	session := &keyword.ResearchSession{
		ProductIDs: req.ProductIDs,
		Options:    opts,
		Products:   products,
		Name:       req.Name,
		CreatedAt:  time.Now().UTC(),
	}
	successes := session.SuccessfulProducts()
	primary := products[0]

	emit(PhaseAggregation, "aggregating keyword universe", 50, nil)
	session.Aggregated = s.aggregator.Aggregate(successes)
	session.Comparisons = BuildComparisons(products)

	emit(PhaseOpportunities, "mining opportunities", 70, nil)
	report := s.finder.Find(ctx, primary, successes, session.Aggregated, opts)

	emit(PhaseGapAnalysis, "analyzing competitive gaps", 85, nil)
	// Gap analysis is keyed on the caller's own product; without its data a
	// competitor must not be promoted to the baseline role.
	var gaps *keyword.GapAnalysis
	if primary.Succeeded() {
		gaps = s.gapAnalyzer.Analyze(successes, opts)
	}

	if opts.EnhanceResults {
		emit(PhaseEnhancement, "enhancing top keywords", 90, nil)
		report, gaps = s.enhancer.Enhance(ctx, report, gaps)
		emit(PhaseEnhancement, "enhancement finished", 95, nil)
	}
	session.Opportunities = report
	session.Gaps = gaps

	s.persist(ctx, req.UserID, session)

	emit(PhaseComplete, "research complete", 100, map[string]interface{}{
		"session_id": session.ID,
		"keywords":   len(session.Aggregated),
	})

	s.recordRun("completed", start)
	s.logger.Info("research run complete",
		logging.String("user_id", req.UserID),
		logging.String("session_id", session.ID),
		logging.Int("products", total),
		logging.Int("keywords", len(session.Aggregated)),
		logging.Duration("elapsed", time.Since(start)),
	)

	return session, nil
}

// persist saves the session and write-through caches it.  Both writes are
// fire-and-forget from the pipeline's perspective: errors are logged, never
// propagated, and the caller still receives the in-memory session.
func (s *Service) persist(ctx context.Context, userID string, session *keyword.ResearchSession) {
	if s.store != nil {
		id, err := s.store.SaveSession(ctx, userID, session, session.Name)
		if err != nil {
			s.logger.Error("failed to persist session", logging.Err(err))
		} else {
			session.ID = id
		}
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	if s.cache != nil {
		s.cache.SetSession(ctx, userID, session.ID, session)
		s.cache.SetComponent(ctx, userID, session.ID, keyword.ComponentAggregated, session.Aggregated)
		s.cache.SetComponent(ctx, userID, session.ID, keyword.ComponentComparison, session.Comparisons)
		if session.Opportunities != nil {
			s.cache.SetComponent(ctx, userID, session.ID, keyword.ComponentOpportunities, session.Opportunities)
		}
		if session.Gaps != nil {
			s.cache.SetComponent(ctx, userID, session.ID, keyword.ComponentGaps, session.Gaps)
		}
		// The stored list view changed; drop it so the next list reloads.
		s.cache.Invalidate(ctx, userID)
	}

	if s.publisher != nil {
		evt := ResearchCompletedEvent{
			UserID:       userID,
			SessionID:    session.ID,
			ProductIDs:   session.ProductIDs,
			KeywordCount: len(session.Aggregated),
			CompletedAt:  session.CreatedAt,
		}
		if session.Opportunities != nil {
			evt.OpportunityCount = len(session.Opportunities.Opportunities)
		}
		if session.Gaps != nil {
			evt.GapCount = len(session.Gaps.Gaps)
		}
		if err := s.publisher.PublishResearchCompleted(ctx, evt); err != nil {
			s.logger.Warn("failed to publish research event", logging.Err(err))
		}
	}
}

// GetSession returns a stored session, consulting the cache first and
// reconstructing from normalized rows on a miss.  Concurrent misses for the
// same session collapse to a single rebuild.
func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (*keyword.ResearchSession, error) {
	load := func(ctx context.Context) (*keyword.ResearchSession, error) {
		if s.store == nil {
			return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail("id=" + sessionID)
		}
		rows, err := s.store.LoadSessionRows(ctx, userID, sessionID)
		if err != nil {
			return nil, err
		}
		return s.reconstructor.Rebuild(rows), nil
	}

	if s.cache == nil {
		return load(ctx)
	}

	rebuilt := false
	session, err := s.cache.GetOrSetSession(ctx, userID, sessionID, func(ctx context.Context) (*keyword.ResearchSession, error) {
		rebuilt = true
		return load(ctx)
	})
	s.recordCacheLookup("session", !rebuilt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns the user's session summaries, newest first.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]keyword.SessionSummary, error) {
	if s.cache != nil {
		var cached []keyword.SessionSummary
		if hit := s.cache.GetComponent(ctx, userID, "", keyword.ComponentSessionList, &cached); hit {
			s.recordCacheLookup("session_list", true)
			return cached, nil
		}
		s.recordCacheLookup("session_list", false)
	}

	if s.store == nil {
		return nil, nil
	}
	summaries, err := s.store.LoadSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetComponent(ctx, userID, "", keyword.ComponentSessionList, summaries)
	}
	return summaries, nil
}

// DeleteSession removes a stored session and its cached entries.
func (s *Service) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if s.store == nil {
		return errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail("id=" + sessionID)
	}
	if err := s.store.DeleteSession(ctx, userID, sessionID); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID, sessionID)
	}
	return nil
}

// RenameSession updates a stored session's display name.
func (s *Service) RenameSession(ctx context.Context, userID, sessionID, name string) error {
	if s.store == nil {
		return errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail("id=" + sessionID)
	}
	if err := s.store.RenameSession(ctx, userID, sessionID, name); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID, sessionID)
	}
	return nil
}

func (s *Service) recordRun(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRun(status, time.Since(start))
	}
}

func (s *Service) recordCacheLookup(component string, hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(component, hit)
	}
}

// validateProductIDs fails fast before any provider call.
func validateProductIDs(ids []string) error {
	if len(ids) < minProducts || len(ids) > maxProducts {
		return errors.Newf(errors.ErrCodeValidation,
			"expected between %d and %d product IDs, got %d", minProducts, maxProducts, len(ids))
	}
	for _, id := range ids {
		if !keyword.ValidateASIN(id) {
			return errors.New(errors.ErrCodeInvalidASIN, "invalid ASIN format").WithDetail("asin=" + id)
		}
	}
	return nil
}

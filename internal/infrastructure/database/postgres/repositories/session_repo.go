// Package repositories provides the PostgreSQL-backed implementation of the
// keyword.SessionStore contract.
package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/database/postgres"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
	"github.com/BlockchainHB/launchfast-sub000/pkg/errors"
)

// SessionRepository persists research sessions in normalized form: one header
// row, one row per product, one row per (keyword, product) ranking, and the
// stored opportunity and gap lists as ordered JSONB rows.
type SessionRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewSessionRepository constructs a ready-to-use SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool, log logging.Logger) *SessionRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SessionRepository{pool: pool, logger: log.Named("session_repo")}
}

var _ keyword.SessionStore = (*SessionRepository)(nil)

// SaveSession writes the session and all derived rows in one transaction and
// returns the generated session ID.
func (r *SessionRepository) SaveSession(ctx context.Context, userID string, session *keyword.ResearchSession, name string) (string, error) {
	if session == nil {
		return "", errors.NewValidation("session is nil")
	}

	optionsJSON, err := json.Marshal(session.Options)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode session options")
	}

	var sessionID string
	err = postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO research_sessions (user_id, name, options, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			userID, name, optionsJSON, session.CreatedAt,
		).Scan(&sessionID)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert session")
		}

		if err := r.insertProducts(ctx, tx, sessionID, session); err != nil {
			return err
		}
		if err := r.insertRankings(ctx, tx, sessionID, rankingRowsFromSession(session)); err != nil {
			return err
		}
		if session.Opportunities != nil {
			if err := insertPayloadRows(ctx, tx, "session_opportunities", sessionID, toPayloads(session.Opportunities.Opportunities)); err != nil {
				return err
			}
		}
		if session.Gaps != nil {
			if err := insertPayloadRows(ctx, tx, "session_gaps", sessionID, toPayloads(session.Gaps.Gaps)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	r.logger.Info("session persisted",
		logging.String("session_id", sessionID),
		logging.Int("products", len(session.ProductIDs)),
	)
	return sessionID, nil
}

func (r *SessionRepository) insertProducts(ctx context.Context, tx pgx.Tx, sessionID string, session *keyword.ResearchSession) error {
	statuses := make(map[string]keyword.CollectionStatus, len(session.Products))
	for _, p := range session.Products {
		statuses[p.ProductID] = p.Status
	}
	for i, asin := range session.ProductIDs {
		status := statuses[asin]
		if status == "" {
			status = keyword.StatusNoData
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO session_products (session_id, asin, ordinal, status)
			VALUES ($1, $2, $3, $4)`,
			sessionID, asin, i, string(status),
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert session product")
		}
	}
	return nil
}

// insertRankings bulk-loads the ranking rows via COPY.
func (r *SessionRepository) insertRankings(ctx context.Context, tx pgx.Tx, sessionID string, rows []keyword.RankingRow) error {
	if len(rows) == 0 {
		return nil
	}
	copyRows := make([][]interface{}, len(rows))
	for i, row := range rows {
		copyRows[i] = []interface{}{
			sessionID, i, row.Keyword, row.ASIN, row.Position, row.TrafficShare,
			row.SearchVolume, row.CPC, row.Products, row.Purchases, row.PurchaseRate,
			row.SupplyDemandRatio, row.AdProducts, row.BidMin, row.BidMax,
			row.MonopolyClickRate, row.TitleDensity,
		}
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"session_rankings"},
		[]string{
			"session_id", "ordinal", "keyword", "asin", "position", "traffic_share",
			"search_volume", "cpc", "products", "purchases", "purchase_rate",
			"supply_demand_ratio", "ad_products", "bid_min", "bid_max",
			"monopoly_click_rate", "title_density",
		},
		pgx.CopyFromRows(copyRows),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to copy ranking rows")
	}
	return nil
}

func insertPayloadRows(ctx context.Context, tx pgx.Tx, table, sessionID string, payloads [][]byte) error {
	for i, payload := range payloads {
		_, err := tx.Exec(ctx,
			`INSERT INTO `+table+` (session_id, ordinal, payload) VALUES ($1, $2, $3)`,
			sessionID, i, payload,
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert "+table+" row")
		}
	}
	return nil
}

// LoadSessions returns list-view summaries for the user, newest first.
func (r *SessionRepository) LoadSessions(ctx context.Context, userID string) ([]keyword.SessionSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.name, s.created_at,
		       COALESCE(array_agg(p.asin ORDER BY p.ordinal) FILTER (WHERE p.asin IS NOT NULL), '{}'),
		       (SELECT COUNT(DISTINCT lower(r.keyword)) FROM session_rankings r WHERE r.session_id = s.id)
		FROM research_sessions s
		LEFT JOIN session_products p ON p.session_id = s.id
		WHERE s.user_id = $1
		GROUP BY s.id
		ORDER BY s.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query sessions")
	}
	defer rows.Close()

	summaries := make([]keyword.SessionSummary, 0)
	for rows.Next() {
		var s keyword.SessionSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.ProductIDs, &s.KeywordCount); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan session summary")
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read session summaries")
	}
	return summaries, nil
}

// LoadSessionRows returns the normalized rows for one session.  Any storage
// failure, malformed ID included, surfaces as a session-not-found error.
func (r *SessionRepository) LoadSessionRows(ctx context.Context, userID, sessionID string) (*keyword.SessionRows, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, sessionNotFound(sessionID)
	}

	out := &keyword.SessionRows{SessionID: sessionID}

	var optionsJSON []byte
	var createdAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT name, options, created_at FROM research_sessions
		WHERE id = $1 AND user_id = $2`,
		sessionID, userID,
	).Scan(&out.Name, &optionsJSON, &createdAt)
	if err != nil {
		return nil, sessionNotFound(sessionID)
	}
	out.CreatedAt = createdAt.Unix()
	if err := json.Unmarshal(optionsJSON, &out.Options); err != nil {
		return nil, sessionNotFound(sessionID)
	}

	if out.ASINs, err = r.loadASINs(ctx, sessionID); err != nil {
		return nil, sessionNotFound(sessionID)
	}
	if out.Rankings, err = r.loadRankings(ctx, sessionID); err != nil {
		return nil, sessionNotFound(sessionID)
	}
	if out.Opportunities, err = loadPayloadRows[keyword.OpportunityCandidate](ctx, r.pool, "session_opportunities", sessionID); err != nil {
		return nil, sessionNotFound(sessionID)
	}
	if out.Gaps, err = loadPayloadRows[keyword.GapRecord](ctx, r.pool, "session_gaps", sessionID); err != nil {
		return nil, sessionNotFound(sessionID)
	}
	return out, nil
}

func (r *SessionRepository) loadASINs(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT asin FROM session_products WHERE session_id = $1 ORDER BY ordinal`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var asins []string
	for rows.Next() {
		var asin string
		if err := rows.Scan(&asin); err != nil {
			return nil, err
		}
		asins = append(asins, asin)
	}
	return asins, rows.Err()
}

func (r *SessionRepository) loadRankings(ctx context.Context, sessionID string) ([]keyword.RankingRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT keyword, asin, position, traffic_share, search_volume, cpc,
		       products, purchases, purchase_rate, supply_demand_ratio,
		       ad_products, bid_min, bid_max, monopoly_click_rate, title_density
		FROM session_rankings
		WHERE session_id = $1
		ORDER BY ordinal`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []keyword.RankingRow
	for rows.Next() {
		var row keyword.RankingRow
		err := rows.Scan(
			&row.Keyword, &row.ASIN, &row.Position, &row.TrafficShare,
			&row.SearchVolume, &row.CPC, &row.Products, &row.Purchases,
			&row.PurchaseRate, &row.SupplyDemandRatio, &row.AdProducts,
			&row.BidMin, &row.BidMax, &row.MonopolyClickRate, &row.TitleDensity,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func loadPayloadRows[T any](ctx context.Context, pool *pgxpool.Pool, table, sessionID string) ([]T, error) {
	rows, err := pool.Query(ctx,
		`SELECT payload FROM `+table+` WHERE session_id = $1 ORDER BY ordinal`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteSession removes the session; child rows cascade.
func (r *SessionRepository) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return sessionNotFound(sessionID)
	}

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM research_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete session")
	}
	if tag.RowsAffected() == 0 {
		return sessionNotFound(sessionID)
	}
	return nil
}

// RenameSession updates a session's display name.
func (r *SessionRepository) RenameSession(ctx context.Context, userID, sessionID, name string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return sessionNotFound(sessionID)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE research_sessions SET name = $3 WHERE id = $1 AND user_id = $2`,
		sessionID, userID, name,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to rename session")
	}
	if tag.RowsAffected() == 0 {
		return sessionNotFound(sessionID)
	}
	return nil
}

func sessionNotFound(sessionID string) error {
	return errors.Newf(errors.ErrCodeSessionNotFound, "session %s not found", sessionID)
}

// rankingRowsFromSession flattens every collected occurrence into a persisted
// ranking row, preserving product order then provider order.
func rankingRowsFromSession(session *keyword.ResearchSession) []keyword.RankingRow {
	var out []keyword.RankingRow
	for _, p := range session.Products {
		for _, occ := range p.Occurrences {
			out = append(out, keyword.RankingRow{
				Keyword:           occ.Keyword,
				ASIN:              p.ProductID,
				Position:          occ.Position,
				TrafficShare:      occ.TrafficShare,
				SearchVolume:      occ.SearchVolume,
				CPC:               occ.CPC,
				Products:          occ.Products,
				Purchases:         occ.Purchases,
				PurchaseRate:      occ.PurchaseRate,
				SupplyDemandRatio: occ.SupplyDemandRatio,
				AdProducts:        occ.AdProducts,
				BidMin:            occ.BidMin,
				BidMax:            occ.BidMax,
				MonopolyClickRate: occ.MonopolyClickRate,
				TitleDensity:      occ.TitleDensity,
			})
		}
	}
	return out
}

func toPayloads[T any](items []T) [][]byte {
	out := make([][]byte, 0, len(items))
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			continue
		}
		out = append(out, payload)
	}
	return out
}

package redis

import (
	"context"
	"fmt"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
)

// resultCache implements keyword.ResultCache on top of the generic Cache.
// The domain contract is error-free: every cache failure is logged and
// degraded to a miss so the pipeline never fails on cache trouble.
type resultCache struct {
	cache  Cache
	logger logging.Logger
}

// NewResultCache builds the research result cache.
func NewResultCache(cache Cache, log logging.Logger) keyword.ResultCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &resultCache{cache: cache, logger: log.Named("result_cache")}
}

// sessionKey is the full-session key and the prefix shared by all of a
// session's component keys, so a single prefix delete drops the lot.
func sessionKey(userID, sessionID string) string {
	return fmt.Sprintf("research:%s:%s", userID, sessionID)
}

func componentKey(userID, sessionID string, component keyword.Component) string {
	if sessionID == "" {
		// User-scoped components such as the session list.
		return fmt.Sprintf("research:%s:%s", userID, component)
	}
	return sessionKey(userID, sessionID) + ":" + string(component)
}

func (r *resultCache) GetSession(ctx context.Context, userID, sessionID string) (*keyword.ResearchSession, bool) {
	var session keyword.ResearchSession
	err := r.cache.Get(ctx, sessionKey(userID, sessionID), &session)
	if err == ErrCacheMiss {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("session cache read failed",
			logging.String("session_id", sessionID), logging.Err(err))
		return nil, false
	}
	return &session, true
}

func (r *resultCache) SetSession(ctx context.Context, userID, sessionID string, session *keyword.ResearchSession) {
	if session == nil {
		return
	}
	if err := r.cache.Set(ctx, sessionKey(userID, sessionID), session, keyword.TTLFullResult); err != nil {
		r.logger.Warn("session cache write failed",
			logging.String("session_id", sessionID), logging.Err(err))
	}
}

// GetOrSetSession rides the generic cache's singleflight get-or-load, so
// concurrent misses for one session collapse to a single loader run.
func (r *resultCache) GetOrSetSession(
	ctx context.Context,
	userID, sessionID string,
	loader func(ctx context.Context) (*keyword.ResearchSession, error),
) (*keyword.ResearchSession, error) {
	var session keyword.ResearchSession
	err := r.cache.GetOrSet(ctx, sessionKey(userID, sessionID), &session, keyword.TTLFullResult,
		func(ctx context.Context) (interface{}, error) {
			return loader(ctx)
		})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *resultCache) GetComponent(ctx context.Context, userID, sessionID string, component keyword.Component, dest interface{}) bool {
	err := r.cache.Get(ctx, componentKey(userID, sessionID, component), dest)
	if err == ErrCacheMiss {
		return false
	}
	if err != nil {
		r.logger.Warn("component cache read failed",
			logging.String("component", string(component)), logging.Err(err))
		return false
	}
	return true
}

func (r *resultCache) SetComponent(ctx context.Context, userID, sessionID string, component keyword.Component, value interface{}) {
	err := r.cache.Set(ctx, componentKey(userID, sessionID, component), value, keyword.ComponentTTL(component))
	if err != nil {
		r.logger.Warn("component cache write failed",
			logging.String("component", string(component)), logging.Err(err))
	}
}

func (r *resultCache) Invalidate(ctx context.Context, userID string, sessionIDs ...string) {
	listKey := componentKey(userID, "", keyword.ComponentSessionList)
	if err := r.cache.Delete(ctx, listKey); err != nil {
		r.logger.Warn("session list invalidation failed",
			logging.String("user_id", userID), logging.Err(err))
	}
	for _, id := range sessionIDs {
		if _, err := r.cache.DeleteByPrefix(ctx, sessionKey(userID, id)); err != nil {
			r.logger.Warn("session cache invalidation failed",
				logging.String("session_id", id), logging.Err(err))
		}
	}
}

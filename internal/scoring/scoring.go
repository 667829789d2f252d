package scoring

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"scoring/internal/scoring/models"
	dErrors "scoring/pkg/domain-errors"
)

// ScoreCacheTTL bounds how long a computed score is served from the cache
// tier.
const ScoreCacheTTL = 30 * time.Second

// scoreCacheKey is a content hash over the scoring inputs in a fixed field
// order, absent inputs substituted with the empty string. Identical inputs
// always map to the same cache entry.
func scoreCacheKey(args *models.OnlineScoreRequest) string {
	gender := ""
	if args.Gender != nil {
		gender = strconv.FormatInt(*args.Gender, 10)
	}
	joined := deref(args.Phone) + deref(args.Email) + gender +
		deref(args.FirstName) + deref(args.LastName) + deref(args.Birthday)
	sum := md5.Sum([]byte(joined))
	return "uid:" + hex.EncodeToString(sum[:])
}

// score returns the cached score for the arguments, or computes, caches and
// returns it. A cached zero reads as a miss and is recomputed. Cache tier
// failures degrade to recomputing. Concurrent misses for one key are
// collapsed so the formula runs once.
func (s *Service) score(ctx context.Context, args *models.OnlineScoreRequest) float64 {
	key := scoreCacheKey(args)
	if raw := s.store.GetCache(ctx, key); raw != nil {
		if cached, err := strconv.ParseFloat(string(raw), 64); err == nil && cached != 0 {
			s.metrics.ObserveScoreCache(true)
			return cached
		}
	}
	s.metrics.ObserveScoreCache(false)

	value, _, _ := s.group.Do(key, func() (any, error) {
		score := computeScore(args)
		s.store.SetCache(ctx, key, []byte(strconv.FormatFloat(score, 'g', -1, 64)), s.cacheTTL)
		return score, nil
	})
	return value.(float64)
}

func computeScore(args *models.OnlineScoreRequest) float64 {
	var score float64
	if present(args.Phone) {
		score += 1.5
	}
	if present(args.Email) {
		score += 1.5
	}
	if present(args.Birthday) && args.Gender != nil {
		score += 1.5
	}
	if present(args.FirstName) && present(args.LastName) {
		score += 0.5
	}
	return score
}

// interests fetches the interests list for one client id from the
// persistent tier. A missing id reads as an empty list; a connectivity
// failure propagates to the caller.
func (s *Service) interests(ctx context.Context, clientID int64) ([]string, error) {
	raw, err := s.store.Get(ctx, strconv.FormatInt(clientID, 10))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "interests lookup")
	}
	if raw == nil {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "malformed interests entry")
	}
	return list, nil
}

func present(s *string) bool {
	return s != nil && *s != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"lightbnb/internal/domain"
	"lightbnb/internal/storage/query"
)

type QueryService struct {
	users        domain.UserRepository
	reservations domain.ReservationRepository
	properties   domain.PropertyRepository
	cache        domain.Cache
	cacheTTL     time.Duration
}

// NewQueryService wires the read paths. cache may be nil.
func NewQueryService(u domain.UserRepository, r domain.ReservationRepository, p domain.PropertyRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{users: u, reservations: r, properties: p, cache: c, cacheTTL: ttl}
}

// UserByEmail returns nil with a nil error when no user has that email.
func (s *QueryService) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetUserWithEmail(ctx, email)
}

func (s *QueryService) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetUserWithID(ctx, id)
}

func (s *QueryService) UpcomingReservations(ctx context.Context, guestID int64, limit int) ([]domain.UpcomingReservation, error) {
	return s.reservations.GetAllReservations(ctx, guestID, limit)
}

// SearchProperties serves from cache when possible. Only successful results are cached,
// and cache failures fall through to the store. A filter that cannot be keyed bypasses
// the cache entirely.
func (s *QueryService) SearchProperties(ctx context.Context, f domain.PropertyFilter, limit int) ([]domain.PropertyListing, error) {
	if limit <= 0 {
		limit = query.DefaultLimit
	}
	cache := s.cache
	key, err := searchKey(f, limit)
	if err != nil {
		log.Warn().Err(err).Msg("search not cacheable")
		cache = nil
	}

	var out []domain.PropertyListing
	if cache != nil {
		ok, err := cache.Get(ctx, key, &out)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if ok {
			return out, nil
		}
	}

	out, err = s.properties.SearchProperties(ctx, f, limit)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		if err := cache.Set(ctx, key, out, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return out, nil
}

// searchKey is stable for equal filters: pointer fields marshal by value.
// Filters json cannot encode (NaN, infinities) have no key.
func searchKey(f domain.PropertyFilter, limit int) (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("search cache key: %w", err)
	}
	sum := sha1.Sum(b)
	return fmt.Sprintf("properties:%s:%d", hex.EncodeToString(sum[:]), limit), nil
}

package app_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"lightbnb/internal/app"
	"lightbnb/internal/domain"
	"lightbnb/internal/storage/memory"
)

// ---- fakes ----

type fakeRepo struct {
	users     map[string]domain.User
	listings  []domain.PropertyListing
	upcoming  []domain.UpcomingReservation
	err       error
	searches  int
	lastLimit int
}

func (f *fakeRepo) GetUserWithEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeRepo) GetUserWithID(ctx context.Context, id int64) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) AddUser(ctx context.Context, u domain.NewUser) (domain.User, error) {
	if f.err != nil {
		return domain.User{}, f.err
	}
	if _, ok := f.users[u.Email]; ok {
		return domain.User{}, fmt.Errorf("add_user: %w", domain.ErrConflict)
	}
	if f.users == nil {
		f.users = map[string]domain.User{}
	}
	out := domain.User{ID: int64(len(f.users) + 1), Name: u.Name, Email: u.Email, Password: u.Password}
	f.users[u.Email] = out
	return out, nil
}

func (f *fakeRepo) GetAllReservations(ctx context.Context, guestID int64, limit int) ([]domain.UpcomingReservation, error) {
	f.lastLimit = limit
	return f.upcoming, f.err
}

func (f *fakeRepo) SearchProperties(ctx context.Context, pf domain.PropertyFilter, limit int) ([]domain.PropertyListing, error) {
	f.searches++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

type fakeCache struct {
	store  map[string]any
	getErr error
	calls  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.calls++
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *[]domain.PropertyListing:
		*d = v.([]domain.PropertyListing)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.calls++
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// ---- tests ----

func TestUserByEmail_AbsentIsNotAnError(t *testing.T) {
	repo := &fakeRepo{users: map[string]domain.User{"a@b.c": {ID: 1, Email: "a@b.c"}}}
	q := app.NewQueryService(repo, repo, repo, nil, time.Minute)

	u, err := q.UserByEmail(context.Background(), "missing@b.c")
	if err != nil || u != nil {
		t.Fatalf("want (nil, nil), got (%+v, %v)", u, err)
	}
	u, err = q.UserByEmail(context.Background(), "a@b.c")
	if err != nil || u == nil || u.ID != 1 {
		t.Fatalf("unexpected user: %+v, %v", u, err)
	}
	u, err = q.UserByID(context.Background(), 1)
	if err != nil || u == nil || u.Email != "a@b.c" {
		t.Fatalf("by id: %+v, %v", u, err)
	}
}

func TestUserByEmail_FailureIsDistinguishable(t *testing.T) {
	repo := &fakeRepo{err: fmt.Errorf("get_user_with_email: %w", domain.ErrQuery)}
	q := app.NewQueryService(repo, repo, repo, nil, time.Minute)

	u, err := q.UserByEmail(context.Background(), "a@b.c")
	if !errors.Is(err, domain.ErrQuery) || u != nil {
		t.Fatalf("want ErrQuery, got (%+v, %v)", u, err)
	}
}

func TestSearchProperties_CacheMissThenHit(t *testing.T) {
	repo := &fakeRepo{listings: []domain.PropertyListing{
		{Property: domain.Property{ID: 7, City: "Vancouver"}, AverageRating: 4.2},
	}}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, repo, repo, cache, 10*time.Minute)
	city := "van"
	f := domain.PropertyFilter{City: &city}

	out, err := q.SearchProperties(context.Background(), f, 0)
	if err != nil || len(out) != 1 || out[0].ID != 7 {
		t.Fatalf("first search: %+v, %v", out, err)
	}
	if repo.lastLimit != 10 {
		t.Fatalf("default limit not applied: %d", repo.lastLimit)
	}

	// equal filter built from a different pointer must hit the same key
	city2 := "van"
	repo.listings = nil
	out, err = q.SearchProperties(context.Background(), domain.PropertyFilter{City: &city2}, 10)
	if err != nil || len(out) != 1 {
		t.Fatalf("expected cached result, got %+v, %v", out, err)
	}
	if repo.searches != 1 {
		t.Fatalf("store hit %d times, want 1", repo.searches)
	}
}

func TestSearchProperties_ErrorsAreNotCached(t *testing.T) {
	repo := &fakeRepo{err: fmt.Errorf("search_properties: %w", domain.ErrQuery)}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, repo, repo, cache, time.Minute)

	if _, err := q.SearchProperties(context.Background(), domain.PropertyFilter{}, 5); !errors.Is(err, domain.ErrQuery) {
		t.Fatalf("want ErrQuery, got %v", err)
	}
	if len(cache.store) != 0 {
		t.Fatalf("failed search was cached")
	}
}

func TestSearchProperties_UnkeyableFilterBypassesCache(t *testing.T) {
	repo := &fakeRepo{listings: []domain.PropertyListing{{Property: domain.Property{ID: 1, City: "Vancouver"}}}}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, repo, repo, cache, time.Minute)
	ctx := context.Background()
	nan := math.NaN()

	vancouver, toronto := "Vancouver", "Toronto"
	if _, err := q.SearchProperties(ctx, domain.PropertyFilter{City: &vancouver, MinimumRating: &nan}, 5); err != nil {
		t.Fatalf("first search: %v", err)
	}
	repo.listings = []domain.PropertyListing{{Property: domain.Property{ID: 2, City: "Toronto"}}}
	out, err := q.SearchProperties(ctx, domain.PropertyFilter{City: &toronto, MinimumRating: &nan}, 5)
	if err != nil || len(out) != 1 || out[0].ID != 2 {
		t.Fatalf("second search served stale data: %+v, %v", out, err)
	}
	if repo.searches != 2 {
		t.Fatalf("store hit %d times, want 2", repo.searches)
	}
	if cache.calls != 0 || len(cache.store) != 0 {
		t.Fatalf("cache touched %d times, store %v", cache.calls, cache.store)
	}
}

func TestSearchProperties_CacheErrorFallsThrough(t *testing.T) {
	repo := &fakeRepo{listings: []domain.PropertyListing{{Property: domain.Property{ID: 1}}}}
	q := app.NewQueryService(repo, repo, repo, &fakeCache{getErr: errors.New("redis down")}, time.Minute)

	out, err := q.SearchProperties(context.Background(), domain.PropertyFilter{}, 5)
	if err != nil || len(out) != 1 {
		t.Fatalf("expected store result, got %+v, %v", out, err)
	}
}

func TestUpcomingReservations(t *testing.T) {
	repo := &fakeRepo{upcoming: []domain.UpcomingReservation{{Reservation: domain.Reservation{ID: 3, GuestID: 1}}}}
	q := app.NewQueryService(repo, repo, repo, nil, time.Minute)

	out, err := q.UpcomingReservations(context.Background(), 1, 4)
	if err != nil || len(out) != 1 || out[0].ID != 3 || repo.lastLimit != 4 {
		t.Fatalf("unexpected: %+v, %v (limit %d)", out, err, repo.lastLimit)
	}
}

func TestCommandService(t *testing.T) {
	repo := &fakeRepo{}
	c := app.NewCommandService(repo, memory.NewPropertyStore())
	ctx := context.Background()

	u, err := c.AddUser(ctx, domain.NewUser{Name: "Eva", Email: "eva@x.io", Password: "h"})
	if err != nil || u.ID != 1 {
		t.Fatalf("add user: %+v, %v", u, err)
	}
	if _, err := c.AddUser(ctx, domain.NewUser{Name: "Eva 2", Email: "eva@x.io"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}

	p, err := c.AddProperty(ctx, domain.Property{Title: "Cabin", OwnerID: 1})
	if err != nil || p.ID != 1 {
		t.Fatalf("add property: %+v, %v", p, err)
	}
	p, _ = c.AddProperty(ctx, domain.Property{Title: "Loft", OwnerID: 1})
	if p.ID != 2 {
		t.Fatalf("second property id = %d", p.ID)
	}
}

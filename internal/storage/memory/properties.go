// Package memory holds the non-persistent property store used by the
// add-property path. It is not read by property search.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/elliotchance/orderedmap/v3"

	"lightbnb/internal/domain"
)

type PropertyStore struct {
	mu     sync.RWMutex
	items  *orderedmap.OrderedMap[int64, domain.Property]
	nextID int64 // never reused; always above every stored id
}

func NewPropertyStore() *PropertyStore {
	return &PropertyStore{items: orderedmap.NewOrderedMap[int64, domain.Property](), nextID: 1}
}

// AddProperty stores p under the next sequential id and returns it. Ids continue
// after the highest id loaded from a fixture, so existing records are never replaced.
func (s *PropertyStore) AddProperty(ctx context.Context, p domain.Property) (domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return domain.Property{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID
	s.nextID++
	s.items.Set(p.ID, p)
	return p, nil
}

func (s *PropertyStore) Get(id int64) (domain.Property, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Get(id)
}

// List returns the properties in insertion order.
func (s *PropertyStore) List() []domain.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Property, 0, s.items.Len())
	for _, p := range s.items.AllFromFront() {
		out = append(out, p)
	}
	return out
}

func (s *PropertyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Len()
}

// LoadFixture seeds the store from a JSON object keyed by property id,
// inserting in ascending id order. Existing entries with the same id are replaced.
func (s *PropertyStore) LoadFixture(r io.Reader) (int, error) {
	var raw map[string]domain.Property
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return 0, fmt.Errorf("decode property fixture: %w", err)
	}

	ids := make([]int64, 0, len(raw))
	byID := make(map[int64]domain.Property, len(raw))
	for k, p := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("property fixture key %q: %w", k, err)
		}
		p.ID = id
		ids = append(ids, id)
		byID[id] = p
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.items.Set(id, byID[id])
		if id >= s.nextID {
			s.nextID = id + 1
		}
	}
	return len(ids), nil
}

package memory_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"lightbnb/internal/domain"
	"lightbnb/internal/storage/memory"
)

func TestPropertyStore_SequentialIDs(t *testing.T) {
	s := memory.NewPropertyStore()
	ctx := context.Background()

	a, err := s.AddProperty(ctx, domain.Property{Title: "Cabin", ID: 99})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, _ := s.AddProperty(ctx, domain.Property{Title: "Loft"})

	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}
	got, ok := s.Get(2)
	if !ok || got.Title != "Loft" {
		t.Fatalf("get(2) = %+v, %v", got, ok)
	}
	list := s.List()
	if len(list) != 2 || list[0].Title != "Cabin" || list[1].Title != "Loft" {
		t.Fatalf("list order: %+v", list)
	}
}

func TestPropertyStore_ConcurrentAdds(t *testing.T) {
	s := memory.NewPropertyStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddProperty(context.Background(), domain.Property{Title: "p"})
		}()
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Fatalf("len = %d", s.Len())
	}
	for i, p := range s.List() {
		if p.ID != int64(i+1) {
			t.Fatalf("position %d has id %d", i, p.ID)
		}
	}
}

func TestPropertyStore_LoadFixture(t *testing.T) {
	s := memory.NewPropertyStore()
	n, err := s.LoadFixture(strings.NewReader(`{
		"2": {"title": "Second", "cost_per_night": 9300, "city": "Namsub"},
		"1": {"title": "First", "cost_per_night": 7000, "city": "Vancouver"}
	}`))
	if err != nil || n != 2 {
		t.Fatalf("load: n=%d err=%v", n, err)
	}
	list := s.List()
	if list[0].ID != 1 || list[1].ID != 2 || list[1].CostPerNight != 9300 {
		t.Fatalf("unexpected fixture order: %+v", list)
	}

	p, _ := s.AddProperty(context.Background(), domain.Property{Title: "Third"})
	if p.ID != 3 {
		t.Fatalf("next id after fixture = %d", p.ID)
	}

	if _, err := s.LoadFixture(strings.NewReader(`{"x": {}}`)); err == nil {
		t.Fatalf("expected error for non-numeric key")
	}
}

func TestPropertyStore_SparseFixtureKeepsRecords(t *testing.T) {
	s := memory.NewPropertyStore()
	if _, err := s.LoadFixture(strings.NewReader(`{
		"1": {"title": "A"},
		"3": {"title": "C"}
	}`)); err != nil {
		t.Fatalf("load: %v", err)
	}

	p, err := s.AddProperty(context.Background(), domain.Property{Title: "New"})
	if err != nil || p.ID != 4 {
		t.Fatalf("add after sparse fixture: %+v, %v; want id 4", p, err)
	}
	if got, _ := s.Get(3); got.Title != "C" {
		t.Fatalf("fixture property 3 replaced: %+v", got)
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}

	// a later fixture below the counter does not rewind it
	if _, err := s.LoadFixture(strings.NewReader(`{"2": {"title": "B"}}`)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if p, _ := s.AddProperty(context.Background(), domain.Property{Title: "Next"}); p.ID != 5 {
		t.Fatalf("next id = %d, want 5", p.ID)
	}
}

func TestPropertyStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := memory.NewPropertyStore().AddProperty(ctx, domain.Property{}); err == nil {
		t.Fatalf("expected context error")
	}
}

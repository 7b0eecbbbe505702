package balance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"leavehub/internal/domain/catalog"
	"leavehub/internal/platform/querycache"
)

type catalogStore struct {
	types []catalog.LeaveType
}

func (c *catalogStore) List(ctx context.Context) ([]catalog.LeaveType, error) { return c.types, nil }

func (c *catalogStore) Get(ctx context.Context, id string) (catalog.LeaveType, error) {
	for _, t := range c.types {
		if t.ID == id {
			return t, nil
		}
	}
	return catalog.LeaveType{}, catalog.ErrNotFound
}

func (c *catalogStore) Create(ctx context.Context, payload catalog.LeaveType) (string, error) {
	return "", errors.New("not implemented")
}

func (c *catalogStore) Update(ctx context.Context, id string, payload catalog.LeaveType) error {
	for i := range c.types {
		if c.types[i].ID == id {
			payload.ID = id
			c.types[i] = payload
			return nil
		}
	}
	return catalog.ErrNotFound
}

type allocation struct {
	allocated float64
	used      float64
}

type fakeStore struct {
	mu     sync.Mutex
	allocs map[string]allocation
	wfh    *AdditionalWFH
	err    error
	hits   int
}

func (f *fakeStore) GetAllocation(ctx context.Context, userID, leaveTypeID string, year int) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits++
	if f.err != nil {
		return 0, 0, f.err
	}
	a := f.allocs[leaveTypeID]
	return a.allocated, a.used, nil
}

func (f *fakeStore) GetAdditionalWFH(ctx context.Context, userID string) (AdditionalWFH, bool, error) {
	if f.err != nil {
		return AdditionalWFH{}, false, f.err
	}
	if f.wfh == nil {
		return AdditionalWFH{}, false, nil
	}
	return *f.wfh, true, nil
}

func (f *fakeStore) BookUsage(ctx context.Context, userID, leaveTypeID string, year int, days float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.allocs[leaveTypeID]
	a.used += days
	f.allocs[leaveTypeID] = a
	return nil
}

func newTestService(store StoreAPI, types ...catalog.LeaveType) *Service {
	cache := querycache.New()
	catalogSvc := catalog.NewService(&catalogStore{types: types}, cache)
	return NewService(store, catalogSvc, cache)
}

func TestGetDerivesBalance(t *testing.T) {
	store := &fakeStore{allocs: map[string]allocation{"annual": {allocated: 12, used: 4}}}
	svc := newTestService(store, catalog.LeaveType{ID: "annual", AnnualAllowance: 12})

	b, err := svc.Get(context.Background(), "u1", "annual", 2026, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Available != 8 {
		t.Fatalf("expected available 8, got %v", b.Available)
	}
	if !b.CanApply {
		t.Fatal("expected canApply with positive available")
	}
}

func TestGetClampsNegativeAvailable(t *testing.T) {
	store := &fakeStore{allocs: map[string]allocation{"annual": {allocated: 10, used: 13}}}
	svc := newTestService(store, catalog.LeaveType{ID: "annual", AnnualAllowance: 10})

	b, err := svc.Get(context.Background(), "u1", "annual", 2026, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Available != 0 {
		t.Fatalf("expected clamped available 0, got %v", b.Available)
	}
	if b.CanApply {
		t.Fatal("expected canApply false for exhausted bounded type")
	}
}

func TestGetUnlimitedAlwaysApplicable(t *testing.T) {
	store := &fakeStore{allocs: map[string]allocation{"wfh": {allocated: 0, used: 22}}}
	svc := newTestService(store, catalog.LeaveType{ID: "wfh", AnnualAllowance: catalog.UnlimitedAllowance})

	b, err := svc.Get(context.Background(), "u1", "wfh", 2026, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.CanApply {
		t.Fatal("unlimited type must remain applicable regardless of usage")
	}
	if !b.Unlimited {
		t.Fatal("expected unlimited flag")
	}
}

func TestGetNeverAllocatedIsValid(t *testing.T) {
	store := &fakeStore{allocs: map[string]allocation{}}
	svc := newTestService(store, catalog.LeaveType{ID: "annual", AnnualAllowance: 12})

	b, err := svc.Get(context.Background(), "u1", "annual", 2026, "")
	if err != nil {
		t.Fatalf("never-allocated state must not error: %v", err)
	}
	if b.Allocated != 0 || b.Used != 0 || b.CanApply {
		t.Fatalf("expected zero balance, got %+v", b)
	}
}

func TestGetBackendErrorYieldsNoBalance(t *testing.T) {
	store := &fakeStore{err: errors.New("backend unavailable")}
	svc := newTestService(store, catalog.LeaveType{ID: "annual", AnnualAllowance: 12})

	if _, err := svc.Get(context.Background(), "u1", "annual", 2026, ""); err == nil {
		t.Fatal("expected error from failing backend")
	}
}

func TestGetCachesPerTrigger(t *testing.T) {
	store := &fakeStore{allocs: map[string]allocation{"annual": {allocated: 12, used: 4}}}
	svc := newTestService(store, catalog.LeaveType{ID: "annual", AnnualAllowance: 12})

	for i := 0; i < 3; i++ {
		if _, err := svc.Get(context.Background(), "u1", "annual", 2026, "t1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if store.hits != 1 {
		t.Fatalf("expected one fetch for a stable trigger, got %d", store.hits)
	}

	if _, err := svc.Get(context.Background(), "u1", "annual", 2026, "t2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.hits != 2 {
		t.Fatalf("expected changed trigger to force a refetch, got %d hits", store.hits)
	}
}

func TestBookUsageInvalidatesBalance(t *testing.T) {
	store := &fakeStore{allocs: map[string]allocation{"annual": {allocated: 12, used: 4}}}
	svc := newTestService(store, catalog.LeaveType{ID: "annual", AnnualAllowance: 12})

	if _, err := svc.Get(context.Background(), "u1", "annual", 2026, "t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.BookUsage(context.Background(), "u1", "annual", 2026, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := svc.Get(context.Background(), "u1", "annual", 2026, "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Used != 6 {
		t.Fatalf("expected refreshed usage 6 after booking, got %v", b.Used)
	}
}

func TestCatalogChangeInvalidatesBalances(t *testing.T) {
	cache := querycache.New()
	catalogSvc := catalog.NewService(&catalogStore{types: []catalog.LeaveType{
		{ID: "annual", Label: "Annual Leave", AnnualAllowance: 12},
	}}, cache)
	store := &fakeStore{allocs: map[string]allocation{"annual": {allocated: 12, used: 12}}}
	svc := NewService(store, catalogSvc, cache)

	b, err := svc.Get(context.Background(), "u1", "annual", 2026, "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.CanApply || b.Unlimited {
		t.Fatalf("expected exhausted bounded type, got %+v", b)
	}

	err = catalogSvc.Update(context.Background(), "annual", catalog.LeaveType{
		Label:           "Annual Leave",
		AnnualAllowance: catalog.UnlimitedAllowance,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same trigger: the type change alone must force the refetch.
	b, err = svc.Get(context.Background(), "u1", "annual", 2026, "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Unlimited || !b.CanApply {
		t.Fatalf("stale balance survived the leave type change: %+v", b)
	}
	if store.hits != 2 {
		t.Fatalf("expected a refetch after the type change, got %d hits", store.hits)
	}
}

func TestAdditionalWFHAbsentUnlessUnlocked(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	wfh, err := svc.GetAdditionalWFH(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wfh != nil {
		t.Fatal("expected absence when no row exists")
	}

	store.wfh = &AdditionalWFH{UserID: "u1", UsedThisMonth: 3, CanApply: false}
	wfh, err = svc.GetAdditionalWFH(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wfh != nil {
		t.Fatal("expected absence while locked, not zeros")
	}

	store.wfh = &AdditionalWFH{UserID: "u1", UsedThisMonth: 3, CanApply: true}
	wfh, err = svc.GetAdditionalWFH(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wfh == nil || wfh.UsedThisMonth != 3 {
		t.Fatalf("expected unlocked balance, got %+v", wfh)
	}
}

// gatedStore serves each allocation call in the order released by the test,
// so overlapping fetches can be interleaved deterministically.
type gatedStore struct {
	mu      sync.Mutex
	calls   int
	started chan int
	release []chan struct{}
	data    []allocation
}

func (g *gatedStore) GetAllocation(ctx context.Context, userID, leaveTypeID string, year int) (float64, float64, error) {
	g.mu.Lock()
	idx := g.calls
	g.calls++
	rel := g.release[idx]
	d := g.data[idx]
	g.mu.Unlock()

	g.started <- idx
	<-rel
	return d.allocated, d.used, nil
}

func (g *gatedStore) GetAdditionalWFH(ctx context.Context, userID string) (AdditionalWFH, bool, error) {
	return AdditionalWFH{}, false, nil
}

func (g *gatedStore) BookUsage(ctx context.Context, userID, leaveTypeID string, year int, days float64) error {
	return nil
}

func TestStaleFetchNeverOverwritesNewerTrigger(t *testing.T) {
	store := &gatedStore{
		started: make(chan int, 2),
		release: []chan struct{}{make(chan struct{}), make(chan struct{})},
		data:    []allocation{{allocated: 10, used: 0}, {allocated: 10, used: 5}},
	}
	svc := newTestService(store, catalog.LeaveType{ID: "annual", AnnualAllowance: 10})

	results := make(chan Balance, 2)
	go func() {
		b, _ := svc.Get(context.Background(), "u1", "annual", 2026, "t1")
		results <- b
	}()
	<-store.started

	go func() {
		b, _ := svc.Get(context.Background(), "u1", "annual", 2026, "t2")
		results <- b
	}()
	<-store.started

	// The newer request finishes first, the stale one afterwards.
	close(store.release[1])
	newer := <-results
	close(store.release[0])
	<-results

	if newer.Used != 5 {
		t.Fatalf("expected newer fetch to observe used=5, got %v", newer.Used)
	}

	cached, err := svc.Get(context.Background(), "u1", "annual", 2026, "t2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached.Used != 5 {
		t.Fatalf("stale fetch overwrote the newer trigger's result: used=%v", cached.Used)
	}
	if store.calls != 2 {
		t.Fatalf("expected cached read after settlement, store calls = %d", store.calls)
	}
}

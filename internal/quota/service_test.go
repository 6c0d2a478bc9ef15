package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestReserveGuardsTheLimit(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), 100)

	if err := svc.Reserve(ctx, "t1", 60); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := svc.Reserve(ctx, "t1", 40); err != nil {
		t.Fatalf("exact fit reserve: %v", err)
	}
	if err := svc.Reserve(ctx, "t1", 1); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("over-limit reserve = %v, want ErrQuotaExceeded", err)
	}

	u, err := svc.Usage(ctx, "t1")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if u.Used != 100 {
		t.Fatalf("rejected reserve changed usage: %d", u.Used)
	}
}

func TestReserveCreatesUnknownTenant(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), 500)

	if err := svc.Reserve(ctx, "fresh", 200); err != nil {
		t.Fatalf("reserve for fresh tenant: %v", err)
	}
	u, _ := svc.Usage(ctx, "fresh")
	if u.Used != 200 || u.Limit != 500 {
		t.Fatalf("usage = %+v", u)
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), 100)

	if err := svc.Reserve(ctx, "t1", 30); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := svc.Release(ctx, "t1", 70); err != nil {
		t.Fatalf("release: %v", err)
	}
	u, _ := svc.Usage(ctx, "t1")
	if u.Used != 0 {
		t.Fatalf("usage after over-release = %d, want 0", u.Used)
	}
}

func TestPrecheckIsAdvisoryOnly(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), 100)

	if err := svc.Precheck(ctx, "t1", 100); err != nil {
		t.Fatalf("precheck within limit: %v", err)
	}
	if err := svc.Precheck(ctx, "t1", 101); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("precheck over limit = %v", err)
	}
	u, _ := svc.Usage(ctx, "t1")
	if u.Used != 0 {
		t.Fatalf("precheck mutated usage: %d", u.Used)
	}
}

func TestConcurrentReservesNeverOvershoot(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), 1000)
	if err := svc.Precheck(ctx, "t1", 0); err != nil {
		t.Fatalf("precheck: %v", err)
	}

	var wg sync.WaitGroup
	granted := make(chan struct{}, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.Reserve(ctx, "t1", 100) == nil {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	var wins int
	for range granted {
		wins++
	}
	if wins != 10 {
		t.Fatalf("granted %d reservations of 100 against limit 1000, want 10", wins)
	}
}

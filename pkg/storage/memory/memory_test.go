package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/goliatone/go-grantforms/pkg/storage"
	"github.com/goliatone/go-grantforms/pkg/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	defer store.Close()

	if _, ok, err := store.Get(ctx, "visitor", "amw_energyUsage"); ok || err != nil {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "visitor", "amw_energyUsage", "500"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := storage.SetMany(ctx, store, "visitor", map[string]string{
		"amw_roofSize":      "120",
		"whd_benefits":      `["Universal Credit"]`,
		"amw_termsAccepted": "true",
	}); err != nil {
		t.Fatalf("set many: %v", err)
	}
	if err := store.Set(ctx, "other", "amw_energyUsage", "1"); err != nil {
		t.Fatalf("set other namespace: %v", err)
	}

	got, err := store.List(ctx, "visitor", "amw_")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := map[string]string{
		"amw_energyUsage":   "500",
		"amw_roofSize":      "120",
		"amw_termsAccepted": "true",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	if err := store.Delete(ctx, "visitor", "amw_energyUsage", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "visitor", "amw_energyUsage"); ok {
		t.Fatalf("expected key to be deleted")
	}
	if value, ok, _ := store.Get(ctx, "other", "amw_energyUsage"); !ok || value != "1" {
		t.Fatalf("namespaces should be isolated, got %q %v", value, ok)
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := memory.New()
	if err := store.Set(ctx, "ns", "k", "v"); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ns := fmt.Sprintf("visitor-%d", i%4)
			for j := 0; j < 50; j++ {
				_ = store.Set(ctx, ns, fmt.Sprintf("k%d", j), fmt.Sprint(i))
				_, _, _ = store.Get(ctx, ns, "k0")
			}
		}(i)
	}
	wg.Wait()

	got, err := store.List(ctx, "visitor-0", "k")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("expected 50 keys, got %d", len(got))
	}
}

func TestStorePruneExpiresWholeNamespaces(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store := memory.New(memory.WithClock(func() time.Time { return now }))
	defer store.Close()

	var _ storage.Pruner = store

	_ = store.Set(ctx, "returning", "whd_floorArea", "85")
	_ = store.SetMany(ctx, "idle", map[string]string{"whd_floorArea": "70", "whd_epcRating": "D"})

	now = now.Add(48 * time.Hour)
	_ = store.Set(ctx, "returning", "whd_epcRating", "C")

	n, err := store.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 entries pruned, got %d", n)
	}

	kept, _ := store.List(ctx, "returning", "whd_")
	if diff := cmp.Diff(map[string]string{"whd_floorArea": "85", "whd_epcRating": "C"}, kept); diff != "" {
		t.Fatalf("returning visitor mismatch (-want +got):\n%s", diff)
	}
	if _, ok, _ := store.Get(ctx, "idle", "whd_floorArea"); ok {
		t.Fatalf("expected idle namespace to be pruned")
	}
}

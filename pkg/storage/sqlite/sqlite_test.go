package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-grantforms/pkg/storage"
	"github.com/goliatone/go-grantforms/pkg/storage/sqlite"
)

func setupTestStore(t *testing.T) (*sqlite.Store, func()) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "grantforms.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return store, func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, teardown := setupTestStore(t)
	defer teardown()

	if _, ok, err := store.Get(ctx, "visitor", "whd_floorArea"); ok || err != nil {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "visitor", "whd_floorArea", "80"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "visitor", "whd_floorArea", "85"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err := store.Get(ctx, "visitor", "whd_floorArea")
	if err != nil || !ok || value != "85" {
		t.Fatalf("expected last write to win, got %q ok=%v err=%v", value, ok, err)
	}

	if err := storage.SetMany(ctx, store, "visitor", map[string]string{
		"whd_benefits":      `["Housing Benefit"]`,
		"whd_termsAccepted": "true",
		"whdx_other":        "not listed",
	}); err != nil {
		t.Fatalf("set many: %v", err)
	}

	got, err := store.List(ctx, "visitor", "whd_")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := map[string]string{
		"whd_floorArea":     "85",
		"whd_benefits":      `["Housing Benefit"]`,
		"whd_termsAccepted": "true",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	if err := store.Delete(ctx, "visitor", "whd_floorArea", "whd_benefits"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = store.List(ctx, "visitor", "whd_")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"whd_termsAccepted": "true"}, got); diff != "" {
		t.Fatalf("list after delete mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store, teardown := setupTestStore(t)
	defer teardown()

	if err := store.Set(ctx, "a", "amw_roofSize", "10"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "b", "amw_roofSize"); ok {
		t.Fatalf("namespace b should not see a's keys")
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "grantforms.db")

	first, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Set(ctx, "visitor", "beas_grants_companyName", "Acme"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	value, ok, err := second.Get(ctx, "visitor", "beas_grants_companyName")
	if err != nil || !ok || value != "Acme" {
		t.Fatalf("expected persisted value, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestStorePruneExpiresWholeNamespaces(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "grantforms.db"), sqlite.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	must(store.Set(ctx, "returning", "amw_company_companyName", "Acme Ltd"))
	must(store.Set(ctx, "idle", "amw_company_companyName", "Old Co"))
	must(store.Set(ctx, "idle", "amw_roofSize", "40"))

	now = now.Add(48 * time.Hour)
	must(store.Set(ctx, "returning", "amw_roofSize", "60"))

	n, err := store.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected the idle namespace's 2 entries pruned, got %d", n)
	}

	kept, err := store.List(ctx, "returning", "amw_")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := map[string]string{"amw_company_companyName": "Acme Ltd", "amw_roofSize": "60"}
	if diff := cmp.Diff(want, kept); diff != "" {
		t.Fatalf("returning visitor mismatch (-want +got):\n%s", diff)
	}
	if idle, _ := store.List(ctx, "idle", ""); len(idle) != 0 {
		t.Fatalf("expected idle namespace gone, got %v", idle)
	}

	n, err = store.Prune(ctx, now.Add(time.Hour))
	if err != nil || n != 2 {
		t.Fatalf("expected remaining entries pruned, got %d err=%v", n, err)
	}
}

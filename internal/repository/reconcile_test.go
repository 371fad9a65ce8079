package repository_test

import (
	"context"
	"reflect"
	"testing"
)

func TestReconcileSnapshots(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	r := addRestaurant(t, store, "Spencer's Sandwiches")
	d := addDish(t, store, r, "Turkey Club Sandwich", 4)
	clean := addRestaurant(t, store, "Brie's Bistro")

	// 1. Given: 스냅샷 컬럼이 어긋난 상태
	if _, err := store.DB().Exec("UPDATE restaurants SET dish_ids = 'stale' WHERE id = ?", r); err != nil {
		t.Fatal(err)
	}

	// 2. When: 정합성 복구
	repaired, err := store.ReconcileSnapshots(ctx)
	if err != nil {
		t.Fatalf("ReconcileSnapshots failed: %v", err)
	}

	// 3. Then: 어긋난 행만 고쳐짐
	if repaired != 1 {
		t.Errorf("repaired = %d, want 1", repaired)
	}
	got, err := store.GetRestaurant(ctx, r)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual([]string(got.DishIDs), []string{d}) {
		t.Errorf("dish_ids = %v, want [%s]", got.DishIDs, d)
	}
	if c, _ := store.GetRestaurant(ctx, clean); len(c.DishIDs) != 0 {
		t.Errorf("clean restaurant changed: %v", c.DishIDs)
	}

	again, err := store.ReconcileSnapshots(ctx)
	if err != nil || again != 0 {
		t.Errorf("second pass = %d, %v; want 0", again, err)
	}
}

package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/emmacherrin/foodpix/internal/errs"
	"github.com/emmacherrin/foodpix/internal/model"
	"github.com/emmacherrin/foodpix/internal/repository"
)

func seedQueryData(t *testing.T, store *repository.Store) (string, string) {
	t.Helper()
	ctx := context.Background()
	spencer := addRestaurant(t, store, "Spencer's Sandwiches")
	brie, err := store.AddRestaurant(ctx, model.NewRestaurant("Brie's Bistro", "1 Main St", "French", 48.85, 2.35))
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range []model.Dish{
		model.NewDish(spencer, "Turkey Club Sandwich", "", "2023-07-14", 4),
		model.NewDish(spencer, "BLT", "", "2023-07-15", 2),
		model.NewDish(brie, "Croque Monsieur", "", "2023-07-16", 5, "contains-pork"),
	} {
		if _, err := store.AddDish(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	return spencer, brie
}

func TestCustomQuery(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	spencer, _ := seedQueryData(t, store)

	// 1. When: 식당 id와 별점으로 필터링
	result, err := store.CustomQuery(ctx, "dishes",
		[]string{"restaurant_id = ?", "stars >= ?"}, "stars DESC", spencer, 3)

	// 2. Then: 조건에 맞는 요리만 반환
	if err != nil {
		t.Fatalf("CustomQuery failed: %v", err)
	}
	if len(result.Dishes) != 1 || result.Dishes[0].Name != "Turkey Club Sandwich" {
		t.Errorf("dishes = %+v", result.Dishes)
	}
	if result.Restaurants != nil {
		t.Errorf("restaurants should be unset for a dish query")
	}

	all, err := store.CustomQuery(ctx, "dishes", nil, "stars")
	if err != nil {
		t.Fatalf("CustomQuery without conditions failed: %v", err)
	}
	if all.Len() != 3 || all.Dishes[0].Stars != 2 {
		t.Errorf("unfiltered query = %+v", all.Dishes)
	}

	restaurants, err := store.CustomQuery(ctx, "restaurants", []string{"cuisine LIKE ?"}, "", "Fr%")
	if err != nil {
		t.Fatalf("restaurant CustomQuery failed: %v", err)
	}
	if len(restaurants.Restaurants) != 1 || restaurants.Restaurants[0].Name != "Brie's Bistro" {
		t.Errorf("restaurants = %+v", restaurants.Restaurants)
	}
}

func TestCustomQueryQuotedQuestionMark(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	r := addRestaurant(t, store, "Spencer's Sandwiches")
	if _, err := store.AddDish(ctx, model.NewDish(r, "why?", "", "2023-07-14", 4)); err != nil {
		t.Fatal(err)
	}
	addDish(t, store, r, "BLT", 4)

	// 따옴표 안의 ?는 자리표시자로 세지 않음
	result, err := store.CustomQuery(ctx, "dishes", []string{"dish_name = 'why?'", "stars = ?"}, "", 4)
	if err != nil {
		t.Fatalf("CustomQuery failed: %v", err)
	}
	if len(result.Dishes) != 1 || result.Dishes[0].Name != "why?" {
		t.Errorf("dishes = %+v", result.Dishes)
	}

	// 이스케이프된 따옴표 뒤의 ?는 다시 셈
	if _, err := store.CustomQuery(ctx, "dishes", []string{"dish_name <> 'it''s?'", "stars = ?"}, ""); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("missing param after escaped quote: got %v, want invalid argument", err)
	}
}

func TestCustomQueryRejected(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		table      string
		conditions []string
		orderBy    string
		params     []any
	}{
		{"unsupported table", "users", nil, "", nil},
		{"too few params", "dishes", []string{"stars > ?", "dish_name = ?"}, "", []any{1}},
		{"too many params", "dishes", []string{"stars > ?"}, "", []any{1, 2}},
		{"stacked statement", "dishes", []string{"1 = 1; DROP TABLE dishes"}, "", nil},
		{"unknown order column", "dishes", nil, "calories", nil},
		{"bad direction", "dishes", nil, "stars SIDEWAYS", nil},
		{"order injection", "dishes", nil, "stars DESC, (SELECT 1)", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CustomQuery(ctx, tt.table, tt.conditions, tt.orderBy, tt.params...)
			if !errors.Is(err, errs.ErrInvalidArgument) {
				t.Errorf("got %v, want invalid argument", err)
			}
		})
	}
}

func TestBuildConditions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	_, brie := seedQueryData(t, store)

	fragments, params, err := repository.BuildConditions("dishes",
		repository.Condition{Field: "restaurant_id", Operator: "=", Value: brie},
		repository.Condition{Field: "dish_name", Operator: "like", Value: "Croque%"},
	)
	if err != nil {
		t.Fatalf("BuildConditions failed: %v", err)
	}
	if fragments[1] != "dish_name LIKE ?" || len(params) != 2 {
		t.Errorf("fragments = %v, params = %v", fragments, params)
	}

	result, err := store.CustomQuery(ctx, "dishes", fragments, "", params...)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Dishes) != 1 || result.Dishes[0].DietaryRestrictions[0] != "contains-pork" {
		t.Errorf("dishes = %+v", result.Dishes)
	}

	if _, _, err := repository.BuildConditions("dishes", repository.Condition{Field: "calories", Operator: "=", Value: 1}); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("unknown field: got %v", err)
	}
	if _, _, err := repository.BuildConditions("dishes", repository.Condition{Field: "stars", Operator: "OR 1=1 --", Value: 1}); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("bad operator: got %v", err)
	}
	if _, _, err := repository.BuildConditions("menus"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("bad table: got %v", err)
	}
}

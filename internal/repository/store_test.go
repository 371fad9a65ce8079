package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/emmacherrin/foodpix/internal/config"
	"github.com/emmacherrin/foodpix/internal/db"
	"github.com/emmacherrin/foodpix/internal/errs"
	"github.com/emmacherrin/foodpix/internal/model"
	"github.com/emmacherrin/foodpix/internal/repository"
)

// setupTestStore는 테스트마다 독립된 SQLite 인메모리 DB로 Store를 만듭니다.
func setupTestStore(t *testing.T) *repository.Store {
	t.Helper()
	ctx := context.Background()

	// 1. 테스트 이름으로 공유 캐시 DB를 구분
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.Open(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:" + name + "?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("could not open database connection: %v", err)
	}

	// 2. 스키마 생성
	store := repository.New(conn, config.DriverSQLite, repository.WithBcryptCost(bcrypt.MinCost))
	if err := store.CreateSchema(ctx); err != nil {
		t.Fatalf("could not create schema: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// addRestaurant: 실패하면 테스트를 중단하는 헬퍼
func addRestaurant(t *testing.T, store *repository.Store, name string) string {
	t.Helper()
	id, err := store.AddRestaurant(context.Background(),
		model.NewRestaurant(name, "26694 Humber St", "American", 42.47, -83.13))
	if err != nil {
		t.Fatalf("AddRestaurant(%s) failed: %v", name, err)
	}
	return id
}

func addDish(t *testing.T, store *repository.Store, restaurantID, name string, stars int) string {
	t.Helper()
	id, err := store.AddDish(context.Background(),
		model.NewDish(restaurantID, name, "image_test.jpg", "2023-07-14", stars))
	if err != nil {
		t.Fatalf("AddDish(%s) failed: %v", name, err)
	}
	return id
}

func TestCreateSchemaIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := addRestaurant(t, store, "Spencer's Sandwiches")

	if err := store.CreateSchema(ctx); err != nil {
		t.Fatalf("second CreateSchema failed: %v", err)
	}
	if _, err := store.GetRestaurant(ctx, id); err != nil {
		t.Errorf("restaurant lost after CreateSchema: %v", err)
	}
}

func TestReset(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// 1. Given: 식당, 요리, 계정이 있는 상태
	restaurantID := addRestaurant(t, store, "Spencer's Sandwiches")
	dishID := addDish(t, store, restaurantID, "Turkey Club Sandwich", 4)
	if _, err := store.CreateAccount(ctx, "emma", "pw"); err != nil {
		t.Fatal(err)
	}

	// 2. When: 초기화
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	// 3. Then: 저장소와 인덱스 모두 비어 있음
	if _, err := store.GetRestaurant(ctx, restaurantID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("GetRestaurant after Reset: got %v", err)
	}
	if _, err := store.GetDish(ctx, dishID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("GetDish after Reset: got %v", err)
	}
	all, err := store.GetAllRestaurants(ctx)
	if err != nil || len(all) != 0 {
		t.Errorf("GetAllRestaurants after Reset = %v, %v", all, err)
	}
	if _, ok, err := store.Authenticate(ctx, "emma", "pw"); ok || err != nil {
		t.Errorf("Authenticate after Reset = %v, %v", ok, err)
	}
	// 같은 id를 다시 쓸 수 있어야 함
	r := model.NewRestaurant("Again", "addr", "Thai", 0, 0)
	r.ID = restaurantID
	if _, err := store.AddRestaurant(ctx, r); err != nil {
		t.Errorf("AddRestaurant after Reset failed: %v", err)
	}
}

func TestRebuildIndexAfterReopen(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "foodpix.db")
	cfg.Auth.BcryptCost = bcrypt.MinCost

	// 1. Given: 파일 DB에 데이터를 쓰고 닫음
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	restaurantID := addRestaurant(t, store, "Spencer's Sandwiches")
	dishID := addDish(t, store, restaurantID, "Turkey Club Sandwich", 4)
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	// 2. When: 다시 열기
	reopened, err := repository.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	// 3. Then: 인덱스가 저장된 행으로부터 복원됨
	dishes, err := reopened.GetDishesForRestaurant(ctx, restaurantID)
	if err != nil {
		t.Fatalf("GetDishesForRestaurant failed: %v", err)
	}
	if len(dishes) != 1 || dishes[0].ID != dishID {
		t.Errorf("dishes after reopen = %v", dishes)
	}
	if _, err := reopened.AddDish(ctx, model.Dish{ID: dishID, RestaurantID: restaurantID, Name: "Copy"}); !errors.Is(err, errs.ErrDuplicate) {
		t.Errorf("re-adding persisted dish: got %v, want duplicate", err)
	}
}

func TestGeneration(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	start := store.Generation()
	id := addRestaurant(t, store, "Spencer's Sandwiches")
	afterAdd := store.Generation()
	if afterAdd <= start {
		t.Errorf("generation did not advance on add: %d -> %d", start, afterAdd)
	}

	// 실패한 변경은 세대를 올리지 않음
	_ = store.DeleteDish(ctx, "missing")
	if _, err := store.GetRestaurant(ctx, id); err != nil {
		t.Fatal(err)
	}
	if got := store.Generation(); got != afterAdd {
		t.Errorf("generation changed without a mutation: %d -> %d", afterAdd, got)
	}
}

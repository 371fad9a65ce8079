package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/emmacherrin/foodpix/internal/config"
	"github.com/emmacherrin/foodpix/internal/logger"
	"github.com/emmacherrin/foodpix/internal/model"
	"github.com/emmacherrin/foodpix/internal/repository"
	"github.com/emmacherrin/foodpix/internal/worker"
	"github.com/emmacherrin/foodpix/service"
)

const (
	SummaryCacheSize   = 128
	CheckpointInterval = time.Minute
)

func main() {
	// 1. 설정과 로거 초기화
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging)

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg, repository.WithLogger(log))
	if err != nil {
		log.Fatal().Err(err).Msg("could not open store")
	}
	defer store.Close()

	// 2. 서비스와 워커 초기화
	restaurantService := service.NewRestaurantService(store, SummaryCacheSize, log)
	checkpointWorker := worker.NewCheckpointWorker(store, CheckpointInterval, log)

	fmt.Println("--- foodpix 카탈로그 시나리오 시작 ---")
	if err := runScenario(ctx, log, store, restaurantService); err != nil {
		log.Fatal().Err(err).Msg("scenario failed")
	}

	// 3. 스냅샷 정합성 한 번 점검
	repaired := checkpointWorker.ProcessCheckpoint(ctx)
	fmt.Printf("[Checkpoint] repaired %d dish_ids snapshots\n", repaired)
}

// runScenario: 식당과 요리를 만들고 수정, 조회, 삭제합니다.
func runScenario(ctx context.Context, log zerolog.Logger, store *repository.Store, svc *service.RestaurantService) error {
	restaurantID, err := store.AddRestaurant(ctx,
		model.NewRestaurant("Spencer's Sandwiches", "26694 Humber St", "American", 42.4734, -83.2219))
	if err != nil {
		return err
	}
	dishID, err := store.AddDish(ctx,
		model.NewDish(restaurantID, "Turkey Club Sandwich", "image_test.jpg", "2023-07-14", 4, "Emma", "Brie", "Spencer"))
	if err != nil {
		return err
	}
	if _, err := store.AddDish(ctx,
		model.NewDish(restaurantID, "Garden Wrap", "", "2023-07-15", 3, "vegan")); err != nil {
		return err
	}

	restaurant, err := store.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return err
	}
	printJSON("restaurant", restaurant.ToMap())

	stars := 5
	if err := store.UpdateDish(ctx, dishID, repository.DishUpdate{Stars: &stars}); err != nil {
		return err
	}
	dish, err := store.GetDish(ctx, dishID)
	if err != nil {
		return err
	}
	printJSON("updated dish", dish.ToMap())

	dishes, err := store.GetAllDishes(ctx, repository.OrderStarsDesc)
	if err != nil {
		return err
	}
	for _, d := range dishes {
		fmt.Printf("[Read] %s: %d stars\n", d.Name, d.Stars)
	}

	fragments, params, err := repository.BuildConditions("dishes",
		repository.Condition{Field: "dietary_restrictions", Operator: "LIKE", Value: "%vegan%"})
	if err != nil {
		return err
	}
	result, err := store.CustomQuery(ctx, "dishes", fragments, "dish_name ASC", params...)
	if err != nil {
		return err
	}
	fmt.Printf("[Query] %d vegan dishes\n", len(result.Dishes))

	summary, err := svc.FindRestaurantSummary(ctx, restaurantID)
	if err != nil {
		return err
	}
	printJSON("summary", summary.ToMap())

	nearby, err := svc.NearbyRestaurants(ctx, 42.3314, -83.0458, 50)
	if err != nil {
		return err
	}
	fmt.Printf("[Read] %d restaurants within 50 km of Detroit\n", len(nearby))

	userID, err := store.CreateAccount(ctx, "emma", "sandwiches")
	if err != nil {
		return err
	}
	if id, ok, err := store.Authenticate(ctx, "emma", "sandwiches"); err != nil || !ok || id != userID {
		return fmt.Errorf("authentication round trip failed: ok=%v err=%v", ok, err)
	}
	log.Info().Str("user_id", userID).Msg("account created and authenticated")

	if err := store.DeleteDish(ctx, dishID); err != nil {
		return err
	}
	if _, err := store.GetDish(ctx, dishID); err == nil {
		return fmt.Errorf("dish %s still present after delete", dishID)
	}
	return store.DeleteRestaurant(ctx, restaurantID)
}

func printJSON(label string, v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%s: %v\n", label, err)
		return
	}
	fmt.Printf("%s:\n%s\n", label, out)
}

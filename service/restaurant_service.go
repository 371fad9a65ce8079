package service

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/rs/zerolog"

	"github.com/emmacherrin/foodpix/internal/errs"
	"github.com/emmacherrin/foodpix/internal/model"
)

// EarthRadiusKm is the mean earth radius used by HaversineDistance.
const EarthRadiusKm = 6371.0

// DefaultCacheSize is the number of summaries kept when NewRestaurantService
// is given a non-positive size.
const DefaultCacheSize = 256

// Catalog is the part of the store the service reads from.
type Catalog interface {
	GetRestaurant(ctx context.Context, id string) (model.Restaurant, error)
	GetAllRestaurants(ctx context.Context) ([]model.Restaurant, error)
	GetDishesForRestaurant(ctx context.Context, restaurantID string) ([]model.Dish, error)
	Generation() uint64
}

type cacheEntry struct {
	summary    model.RestaurantSummary
	generation uint64
}

// RestaurantService builds restaurant summaries and answers location queries.
// Summaries are cached until the store changes.
type RestaurantService struct {
	Store Catalog

	mu    sync.Mutex
	cache *lru.Cache
	log   zerolog.Logger
}

func NewRestaurantService(store Catalog, cacheSize int, log zerolog.Logger) *RestaurantService {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &RestaurantService{
		Store: store,
		cache: lru.New(cacheSize),
		log:   log,
	}
}

// FindRestaurantSummary returns the cached summary for restaurantID, rebuilding
// it when the store has changed since it was cached.
func (s *RestaurantService) FindRestaurantSummary(ctx context.Context, restaurantID string) (*model.RestaurantSummary, error) {
	startTime := time.Now()
	generation := s.Store.Generation()

	// 1. Try the cache
	s.mu.Lock()
	if v, ok := s.cache.Get(restaurantID); ok {
		entry := v.(cacheEntry)
		if entry.generation == generation {
			s.mu.Unlock()
			s.log.Debug().Str("restaurant_id", restaurantID).Dur("elapsed", time.Since(startTime)).Msg("summary cache hit")
			return copySummary(entry.summary), nil
		}
		s.cache.Remove(restaurantID)
	}
	s.mu.Unlock()

	// 2. Cache miss: build from the store
	summary, err := s.buildSummary(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache.Add(restaurantID, cacheEntry{summary: summary, generation: generation})
	s.mu.Unlock()

	s.log.Debug().Str("restaurant_id", restaurantID).Dur("elapsed", time.Since(startTime)).Msg("summary cache miss")
	return copySummary(summary), nil
}

// copySummary gives callers their own Dishes and DishIDs so the cached entry
// cannot be changed through the result.
func copySummary(cached model.RestaurantSummary) *model.RestaurantSummary {
	summary := cached
	summary.Restaurant.DishIDs = slices.Clone(cached.Restaurant.DishIDs)
	summary.Dishes = make([]model.Dish, len(cached.Dishes))
	for i, d := range cached.Dishes {
		d.DietaryRestrictions = slices.Clone(d.DietaryRestrictions)
		summary.Dishes[i] = d
	}
	return &summary
}

func (s *RestaurantService) buildSummary(ctx context.Context, restaurantID string) (model.RestaurantSummary, error) {
	restaurant, err := s.Store.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return model.RestaurantSummary{}, err
	}
	dishes, err := s.Store.GetDishesForRestaurant(ctx, restaurantID)
	if err != nil {
		return model.RestaurantSummary{}, err
	}

	var average float64
	if len(dishes) > 0 {
		total := 0
		for _, d := range dishes {
			total += d.Stars
		}
		average = float64(total) / float64(len(dishes))
	}
	return model.RestaurantSummary{
		Restaurant:   restaurant,
		Dishes:       dishes,
		AverageStars: average,
		DishCount:    len(dishes),
		BuiltAt:      time.Now(),
	}, nil
}

// Nearby is a restaurant with its distance from the query point.
type Nearby struct {
	Restaurant model.Restaurant `json:"restaurant"`
	DistanceKm float64          `json:"distance_km"`
}

// NearbyRestaurants returns restaurants within radiusKm of (lat, lon),
// closest first.
func (s *RestaurantService) NearbyRestaurants(ctx context.Context, lat, lon, radiusKm float64) ([]Nearby, error) {
	if radiusKm < 0 || math.IsNaN(radiusKm) {
		return nil, errs.NewInvalidArgument("radius", "must not be negative")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, errs.NewInvalidArgument("coordinates", "latitude or longitude out of range")
	}

	restaurants, err := s.Store.GetAllRestaurants(ctx)
	if err != nil {
		return nil, err
	}
	nearby := []Nearby{}
	for _, r := range restaurants {
		if d := HaversineDistance(lat, lon, r.Latitude, r.Longitude); d <= radiusKm {
			nearby = append(nearby, Nearby{Restaurant: r, DistanceKm: d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby, nil
}

// HaversineDistance returns the great-circle distance in kilometers between
// two points given in degrees.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

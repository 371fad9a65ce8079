package model

import "time"

// RestaurantSummary bundles a restaurant with its dishes for caching.
type RestaurantSummary struct {
	Restaurant   Restaurant
	Dishes       []Dish
	AverageStars float64   // 0 when there are no dishes
	DishCount    int
	BuiltAt      time.Time
}

// ToMap keys the summary the same way the entities are keyed.
func (s RestaurantSummary) ToMap() map[string]any {
	dishes := make([]map[string]any, 0, len(s.Dishes))
	for _, d := range s.Dishes {
		dishes = append(dishes, d.ToMap())
	}
	return map[string]any{
		"restaurant":    s.Restaurant.ToMap(),
		"dishes":        dishes,
		"average_stars": s.AverageStars,
		"dish_count":    s.DishCount,
	}
}

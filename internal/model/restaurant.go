package model

// Restaurant holds the basic information of a restaurant.
// DishIDs is the persisted snapshot of the restaurant's dishes; the store's
// relationship index is the source of truth while the process runs.
type Restaurant struct {
	ID        string  `db:"id" json:"id" validate:"omitempty,trimmed,excludesall=0x2C"`
	Name      string  `db:"restaurant_name" json:"restaurant_name" validate:"required"`
	Address   string  `db:"address" json:"address" validate:"required"`
	Cuisine   string  `db:"cuisine" json:"cuisine" validate:"required"`
	Latitude  float64 `db:"latitude" json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `db:"longitude" json:"longitude" validate:"min=-180,max=180"`
	DishIDs   List    `db:"dish_ids" json:"dish_ids"`
}

// NewRestaurant returns a restaurant with a freshly generated ID.
func NewRestaurant(name, address, cuisine string, latitude, longitude float64) Restaurant {
	return Restaurant{
		ID:        NewID(),
		Name:      name,
		Address:   address,
		Cuisine:   cuisine,
		Latitude:  latitude,
		Longitude: longitude,
		DishIDs:   List{},
	}
}

// ToMap keys fields by their column names.
func (r Restaurant) ToMap() map[string]any {
	dishIDs := r.DishIDs
	if dishIDs == nil {
		dishIDs = List{}
	}
	return map[string]any{
		"id":              r.ID,
		"restaurant_name": r.Name,
		"address":         r.Address,
		"cuisine":         r.Cuisine,
		"latitude":        r.Latitude,
		"longitude":       r.Longitude,
		"dish_ids":        []string(dishIDs),
	}
}

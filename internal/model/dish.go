package model

// Dish belongs to exactly one restaurant.
type Dish struct {
	ID           string `db:"id" json:"id" validate:"omitempty,trimmed,excludesall=0x2C"`
	RestaurantID string `db:"restaurant_id" json:"restaurant_id" validate:"required"`
	Name         string `db:"dish_name" json:"dish_name" validate:"required"`
	ImageURL     string `db:"image_url" json:"image_url"`
	// Date is stored as text. Use YYYY-MM-DD so date ordering sorts correctly.
	Date                string `db:"date" json:"date"`
	Stars               int    `db:"stars" json:"stars" validate:"min=0,max=5"`
	DietaryRestrictions List   `db:"dietary_restrictions" json:"dietary_restrictions" validate:"dive,required,excludesall=0x2C"`
}

// NewDish returns a dish with a freshly generated ID.
func NewDish(restaurantID, name, imageURL, date string, stars int, dietaryRestrictions ...string) Dish {
	return Dish{
		ID:                  NewID(),
		RestaurantID:        restaurantID,
		Name:                name,
		ImageURL:            imageURL,
		Date:                date,
		Stars:               stars,
		DietaryRestrictions: List(dietaryRestrictions),
	}
}

func (d Dish) ToMap() map[string]any {
	restrictions := d.DietaryRestrictions
	if restrictions == nil {
		restrictions = List{}
	}
	return map[string]any{
		"id":                   d.ID,
		"restaurant_id":        d.RestaurantID,
		"dish_name":            d.Name,
		"image_url":            d.ImageURL,
		"date":                 d.Date,
		"stars":                d.Stars,
		"dietary_restrictions": []string(restrictions),
	}
}

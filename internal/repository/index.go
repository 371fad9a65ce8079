package repository

import (
	"sort"

	"github.com/emmacherrin/foodpix/internal/errs"
)

// Index maps each restaurant id to the set of its dish ids, with a reverse
// map from dish id to owner. It is not safe for concurrent use; Store
// serializes access.
type Index struct {
	dishes map[string]map[string]struct{}
	owners map[string]string
}

func NewIndex() *Index {
	return &Index{
		dishes: make(map[string]map[string]struct{}),
		owners: make(map[string]string),
	}
}

func (x *Index) RestaurantExists(id string) bool {
	_, ok := x.dishes[id]
	return ok
}

func (x *Index) DishExists(id string) bool {
	_, ok := x.owners[id]
	return ok
}

// RegisterRestaurant adds id with an empty dish set.
func (x *Index) RegisterRestaurant(id string) error {
	if x.RestaurantExists(id) {
		return errs.NewDuplicate(errs.Restaurant, id)
	}
	x.dishes[id] = make(map[string]struct{})
	return nil
}

// RegisterDish adds dishID to restaurantID's set. A dish id may only be
// indexed under one restaurant.
func (x *Index) RegisterDish(restaurantID, dishID string) error {
	set, ok := x.dishes[restaurantID]
	if !ok {
		return errs.NewNotFound(errs.Restaurant, restaurantID)
	}
	if x.DishExists(dishID) {
		return errs.NewDuplicate(errs.Dish, dishID)
	}
	set[dishID] = struct{}{}
	x.owners[dishID] = restaurantID
	return nil
}

func (x *Index) UnregisterDish(restaurantID, dishID string) error {
	set, ok := x.dishes[restaurantID]
	if !ok {
		return errs.NewNotFound(errs.Restaurant, restaurantID)
	}
	if _, ok := set[dishID]; !ok {
		return errs.NewNotFound(errs.Dish, dishID)
	}
	delete(set, dishID)
	delete(x.owners, dishID)
	return nil
}

// UnregisterRestaurant removes id together with every dish indexed under it.
// Unknown ids are ignored.
func (x *Index) UnregisterRestaurant(id string) {
	for dishID := range x.dishes[id] {
		delete(x.owners, dishID)
	}
	delete(x.dishes, id)
}

// DishIDs returns a sorted copy of restaurantID's dish set.
func (x *Index) DishIDs(restaurantID string) ([]string, bool) {
	set, ok := x.dishes[restaurantID]
	if !ok {
		return nil, false
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, true
}

func (x *Index) OwnerOf(dishID string) (string, bool) {
	owner, ok := x.owners[dishID]
	return owner, ok
}

// RestaurantIDs returns every indexed restaurant id, sorted.
func (x *Index) RestaurantIDs() []string {
	ids := make([]string, 0, len(x.dishes))
	for id := range x.dishes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of indexed restaurants and dishes.
func (x *Index) Len() (restaurants, dishes int) {
	return len(x.dishes), len(x.owners)
}

func (x *Index) Reset() {
	x.dishes = make(map[string]map[string]struct{})
	x.owners = make(map[string]string)
}

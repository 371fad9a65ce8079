package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/emmacherrin/foodpix/internal/db"
	"github.com/emmacherrin/foodpix/internal/errs"
	"github.com/emmacherrin/foodpix/internal/model"
)

// DishRepository covers the dishes table.
type DishRepository interface {
	AddDish(ctx context.Context, d model.Dish) (string, error)
	GetDish(ctx context.Context, id string) (model.Dish, error)
	GetAllDishes(ctx context.Context, order DishOrder) ([]model.Dish, error)
	GetDishesForRestaurant(ctx context.Context, restaurantID string) ([]model.Dish, error)
	UpdateDish(ctx context.Context, id string, u DishUpdate) error
	UpdateDishFields(ctx context.Context, id string, fields Fields) error
	DeleteDish(ctx context.Context, id string) error
}

var _ DishRepository = (*Store)(nil)

// DishOrder selects the ordering of GetAllDishes.
type DishOrder string

const (
	OrderDefault   DishOrder = "default"
	OrderDateAsc   DishOrder = "date_asc"
	OrderDateDesc  DishOrder = "date_desc"
	OrderStarsAsc  DishOrder = "stars_asc"
	OrderStarsDesc DishOrder = "stars_desc"
	OrderNameAsc   DishOrder = "name_asc"
	OrderNameDesc  DishOrder = "name_desc"
)

var dishOrderClauses = map[DishOrder]string{
	OrderDefault:   "",
	OrderDateAsc:   " ORDER BY date ASC",
	OrderDateDesc:  " ORDER BY date DESC",
	OrderStarsAsc:  " ORDER BY stars ASC",
	OrderStarsDesc: " ORDER BY stars DESC",
	OrderNameAsc:   " ORDER BY dish_name ASC",
	OrderNameDesc:  " ORDER BY dish_name DESC",
}

// ParseDishOrder parses s case-insensitively. An empty string means the
// default order.
func ParseDishOrder(s string) (DishOrder, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return OrderDefault, nil
	}
	order := DishOrder(s)
	if _, ok := dishOrderClauses[order]; !ok {
		return "", errs.NewInvalidArgument("order", "unknown dish order "+s)
	}
	return order, nil
}

const dishColumns = `id, restaurant_id, dish_name,
	COALESCE(image_url, '') AS image_url, COALESCE(date, '') AS date,
	COALESCE(stars, 0) AS stars, COALESCE(dietary_restrictions, '') AS dietary_restrictions`

const insertDish = `
	INSERT INTO dishes (
	id,
	restaurant_id,
	dish_name,
	image_url,
	date,
	stars,
	dietary_restrictions
	) VALUES (:id, :restaurant_id, :dish_name, :image_url, :date, :stars, :dietary_restrictions)`

// AddDish stores d under its restaurant. The dish row and the restaurant's
// dish_ids snapshot are written in one transaction and the index is updated
// after it commits.
func (s *Store) AddDish(ctx context.Context, d model.Dish) (string, error) {
	if err := s.checkStruct(errs.Dish, d); err != nil {
		return "", err
	}
	if d.ID == "" {
		d.ID = model.NewID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index.DishExists(d.ID) {
		return "", errs.NewDuplicate(errs.Dish, d.ID)
	}
	current, ok := s.index.DishIDs(d.RestaurantID)
	if !ok {
		return "", errs.NewNotFound(errs.Restaurant, d.RestaurantID)
	}
	snapshot := insertSorted(current, d.ID)

	err := s.withTx(ctx, "add dish "+d.ID, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertDish, d); err != nil {
			switch {
			case db.IsUniqueViolation(err):
				return errs.NewDuplicate(errs.Dish, d.ID)
			case db.IsForeignKeyViolation(err):
				return errs.NewNotFound(errs.Restaurant, d.RestaurantID)
			}
			return errs.NewStorage("insert dish "+d.ID, err)
		}
		return writeSnapshot(ctx, tx, d.RestaurantID, snapshot)
	})
	if err != nil {
		return "", err
	}

	if err := s.index.RegisterDish(d.RestaurantID, d.ID); err != nil {
		return "", err
	}
	s.mutated()
	s.log.Debug().Str("dish_id", d.ID).Str("restaurant_id", d.RestaurantID).Msg("added dish")
	return d.ID, nil
}

func (s *Store) GetDish(ctx context.Context, id string) (model.Dish, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getDish(ctx, id)
}

// getDish expects s.mu to be held.
func (s *Store) getDish(ctx context.Context, id string) (model.Dish, error) {
	if !s.index.DishExists(id) {
		return model.Dish{}, errs.NewNotFound(errs.Dish, id)
	}
	var d model.Dish
	err := s.db.GetContext(ctx, &d, "SELECT "+dishColumns+" FROM dishes WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Dish{}, errs.NewNotFound(errs.Dish, id)
		}
		return model.Dish{}, errs.NewStorage("select dish "+id, err)
	}
	return d, nil
}

// GetAllDishes returns every stored dish in the given order.
func (s *Store) GetAllDishes(ctx context.Context, order DishOrder) ([]model.Dish, error) {
	clause, ok := dishOrderClauses[order]
	if !ok {
		return nil, errs.NewInvalidArgument("order", "unknown dish order "+string(order))
	}
	dishes := []model.Dish{}
	if err := s.db.SelectContext(ctx, &dishes, "SELECT "+dishColumns+" FROM dishes"+clause); err != nil {
		return nil, errs.NewStorage("select dishes", err)
	}
	return dishes, nil
}

// GetDishesForRestaurant returns the restaurant's indexed dishes sorted by id.
func (s *Store) GetDishesForRestaurant(ctx context.Context, restaurantID string) ([]model.Dish, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.index.DishIDs(restaurantID)
	if !ok {
		return nil, errs.NewNotFound(errs.Restaurant, restaurantID)
	}
	dishes := make([]model.Dish, 0, len(ids))
	for _, id := range ids {
		d, err := s.getDish(ctx, id)
		if err != nil {
			return nil, err
		}
		dishes = append(dishes, d)
	}
	return dishes, nil
}

func (s *Store) UpdateDish(ctx context.Context, id string, u DishUpdate) error {
	return s.updateRow(ctx, dishesTable, errs.Dish, id, u.fields())
}

// UpdateDishFields updates the named columns. id, restaurant_id and unknown
// columns are rejected. dietary_restrictions accepts a model.List, a
// []string or comma-joined text.
func (s *Store) UpdateDishFields(ctx context.Context, id string, fields Fields) error {
	return s.updateRow(ctx, dishesTable, errs.Dish, id, fields)
}

// DeleteDish removes the dish row and rewrites its restaurant's snapshot in
// one transaction.
func (s *Store) DeleteDish(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.index.OwnerOf(id)
	if !ok {
		return errs.NewNotFound(errs.Dish, id)
	}
	current, _ := s.index.DishIDs(owner)
	snapshot := without(current, id)

	err := s.withTx(ctx, "delete dish "+id, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM dishes WHERE id = ?", id); err != nil {
			return errs.NewStorage("delete dish "+id, err)
		}
		return writeSnapshot(ctx, tx, owner, snapshot)
	})
	if err != nil {
		return err
	}

	if err := s.index.UnregisterDish(owner, id); err != nil {
		return err
	}
	s.mutated()
	s.log.Debug().Str("dish_id", id).Str("restaurant_id", owner).Msg("deleted dish")
	return nil
}

// insertSorted returns a new sorted slice holding ids and id.
func insertSorted(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	added := false
	for _, cur := range ids {
		if !added && id < cur {
			out = append(out, id)
			added = true
		}
		out = append(out, cur)
	}
	if !added {
		out = append(out, id)
	}
	return out
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, cur := range ids {
		if cur != id {
			out = append(out, cur)
		}
	}
	return out
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/emmacherrin/foodpix/internal/db"
	"github.com/emmacherrin/foodpix/internal/errs"
	"github.com/emmacherrin/foodpix/internal/model"
)

// RestaurantRepository covers the restaurants table.
type RestaurantRepository interface {
	AddRestaurant(ctx context.Context, r model.Restaurant) (string, error)
	GetRestaurant(ctx context.Context, id string) (model.Restaurant, error)
	GetAllRestaurants(ctx context.Context) ([]model.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id string, u RestaurantUpdate) error
	UpdateRestaurantFields(ctx context.Context, id string, fields Fields) error
	DeleteRestaurant(ctx context.Context, id string) error
}

var _ RestaurantRepository = (*Store)(nil)

// Nullable columns are coalesced so rows scan into plain Go values.
const restaurantColumns = `id, restaurant_name, address, cuisine,
	COALESCE(latitude, 0) AS latitude, COALESCE(longitude, 0) AS longitude,
	dish_ids`

const insertRestaurant = `
	INSERT INTO restaurants (
	id,
	restaurant_name,
	address,
	cuisine,
	latitude,
	longitude,
	dish_ids
	) VALUES (:id, :restaurant_name, :address, :cuisine, :latitude, :longitude, :dish_ids)`

// AddRestaurant inserts r with an empty dish snapshot and registers it in the
// index. An empty ID is replaced by a generated one, which is returned.
func (s *Store) AddRestaurant(ctx context.Context, r model.Restaurant) (string, error) {
	if err := s.checkStruct(errs.Restaurant, r); err != nil {
		return "", err
	}
	if r.ID == "" {
		r.ID = model.NewID()
	}
	r.DishIDs = model.List{}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index.RestaurantExists(r.ID) {
		return "", errs.NewDuplicate(errs.Restaurant, r.ID)
	}
	if _, err := s.db.NamedExecContext(ctx, insertRestaurant, r); err != nil {
		if db.IsUniqueViolation(err) {
			return "", errs.NewDuplicate(errs.Restaurant, r.ID)
		}
		return "", errs.NewStorage("insert restaurant "+r.ID, err)
	}
	if err := s.index.RegisterRestaurant(r.ID); err != nil {
		return "", err
	}
	s.mutated()
	s.log.Debug().Str("restaurant_id", r.ID).Str("name", r.Name).Msg("added restaurant")
	return r.ID, nil
}

func (s *Store) GetRestaurant(ctx context.Context, id string) (model.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getRestaurant(ctx, id)
}

// getRestaurant expects s.mu to be held.
func (s *Store) getRestaurant(ctx context.Context, id string) (model.Restaurant, error) {
	if !s.index.RestaurantExists(id) {
		return model.Restaurant{}, errs.NewNotFound(errs.Restaurant, id)
	}
	var r model.Restaurant
	err := s.db.GetContext(ctx, &r, "SELECT "+restaurantColumns+" FROM restaurants WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Restaurant{}, errs.NewNotFound(errs.Restaurant, id)
		}
		return model.Restaurant{}, errs.NewStorage("select restaurant "+id, err)
	}
	return r, nil
}

// GetAllRestaurants returns every stored restaurant in storage order.
func (s *Store) GetAllRestaurants(ctx context.Context) ([]model.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, "SELECT id FROM restaurants"); err != nil {
		return nil, errs.NewStorage("select restaurant ids", err)
	}
	restaurants := make([]model.Restaurant, 0, len(ids))
	for _, id := range ids {
		r, err := s.getRestaurant(ctx, id)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, nil
}

func (s *Store) UpdateRestaurant(ctx context.Context, id string, u RestaurantUpdate) error {
	return s.updateRow(ctx, restaurantsTable, errs.Restaurant, id, u.fields())
}

// UpdateRestaurantFields updates the named columns. id, dish_ids and unknown
// columns are rejected.
func (s *Store) UpdateRestaurantFields(ctx context.Context, id string, fields Fields) error {
	return s.updateRow(ctx, restaurantsTable, errs.Restaurant, id, fields)
}

// DeleteRestaurant removes the restaurant and all of its dishes.
func (s *Store) DeleteRestaurant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.index.RestaurantExists(id) {
		return errs.NewNotFound(errs.Restaurant, id)
	}
	err := s.withTx(ctx, "delete restaurant "+id, func(tx *sqlx.Tx) error {
		// all dishes in one statement, then the restaurant row
		if _, err := tx.ExecContext(ctx, "DELETE FROM dishes WHERE restaurant_id = ?", id); err != nil {
			return errs.NewStorage("delete dishes of restaurant "+id, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM restaurants WHERE id = ?", id); err != nil {
			return errs.NewStorage("delete restaurant "+id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_, dishes := s.index.Len()
	s.index.UnregisterRestaurant(id)
	_, left := s.index.Len()
	s.mutated()
	s.log.Debug().Str("restaurant_id", id).Int("dishes", dishes-left).Msg("deleted restaurant")
	return nil
}

// Package repository persists restaurants, dishes and user accounts and keeps
// the in-memory relationship index in step with what is stored.
package repository

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/emmacherrin/foodpix/internal/config"
	"github.com/emmacherrin/foodpix/internal/db"
	"github.com/emmacherrin/foodpix/internal/errs"
	"github.com/emmacherrin/foodpix/internal/model"
)

// Store owns the database handle and the relationship index. Every method
// that reads or writes the index holds mu for its whole check-then-act
// sequence.
type Store struct {
	db     *sqlx.DB
	driver string

	mu    sync.Mutex
	index *Index

	log        zerolog.Logger
	validate   *validator.Validate
	bcryptCost int
	generation atomic.Uint64
}

type Option func(*Store)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithBcryptCost sets the cost used when hashing new passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Store) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// New wraps an open handle. driver must be the name the handle was opened
// with. The schema is not created and the index starts empty.
func New(conn *sqlx.DB, driver string, opts ...Option) *Store {
	s := &Store{
		db:         conn,
		driver:     driver,
		index:      NewIndex(),
		log:        zerolog.Nop(),
		validate:   newValidator(),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects using cfg, creates the schema and rebuilds the index from
// the persisted rows.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Store, error) {
	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, errs.NewStorage("open "+cfg.Database.Driver+" database", err)
	}
	opts = append([]Option{WithBcryptCost(cfg.Auth.BcryptCost)}, opts...)
	s := New(conn, cfg.Database.Driver, opts...)

	if err := s.CreateSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := s.RebuildIndex(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	s.log.Info().Str("driver", s.driver).Msg("store opened")
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Generation increases after every successful mutation.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// CreateSchema creates any missing table. It is safe to call repeatedly.
func (s *Store) CreateSchema(ctx context.Context) error {
	stmts, err := db.Schema(s.driver)
	if err != nil {
		return errs.NewStorage("load schema", err)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errs.NewStorage("create schema", err)
		}
	}
	return nil
}

// Reset drops every table, recreates an empty schema and clears the index.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range db.DropStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errs.NewStorage("reset database", err)
		}
	}
	s.index.Reset()
	s.generation.Add(1)
	if err := s.CreateSchema(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("store reset")
	return nil
}

// RebuildIndex replaces the index with one built from the stored rows.
func (s *Store) RebuildIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var restaurantIDs []string
	if err := s.db.SelectContext(ctx, &restaurantIDs, "SELECT id FROM restaurants"); err != nil {
		return errs.NewStorage("load restaurant ids", err)
	}
	var owned []struct {
		ID           string `db:"id"`
		RestaurantID string `db:"restaurant_id"`
	}
	if err := s.db.SelectContext(ctx, &owned, "SELECT id, restaurant_id FROM dishes"); err != nil {
		return errs.NewStorage("load dish owners", err)
	}

	index := NewIndex()
	for _, id := range restaurantIDs {
		_ = index.RegisterRestaurant(id)
	}
	for _, d := range owned {
		if err := index.RegisterDish(d.RestaurantID, d.ID); err != nil {
			s.log.Warn().Err(err).Str("dish_id", d.ID).Msg("skipping orphaned dish while rebuilding index")
		}
	}
	s.index = index

	restaurants, dishes := index.Len()
	s.log.Debug().Int("restaurants", restaurants).Int("dishes", dishes).Msg("index rebuilt")
	return nil
}

// withTx runs fn in a transaction, rolling back when fn fails.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) (rerr error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errs.NewStorage("begin transaction for "+op, err)
	}
	defer func() {
		if rerr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.NewStorage("commit "+op, err)
	}
	return nil
}

// writeSnapshot stores ids as the restaurant's dish_ids column.
func writeSnapshot(ctx context.Context, ex sqlx.ExecerContext, restaurantID string, ids []string) error {
	_, err := ex.ExecContext(ctx,
		"UPDATE restaurants SET dish_ids = ? WHERE id = ?",
		model.Stringify(ids), restaurantID,
	)
	if err != nil {
		return errs.NewStorage("update dish_ids of restaurant "+restaurantID, err)
	}
	return nil
}

// newValidator adds the "trimmed" tag, which rejects values with leading or
// trailing whitespace. Ids end up in comma-joined dish_ids snapshots and must
// read back unchanged.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("trimmed", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == strings.TrimSpace(s)
	})
	return v
}

// checkStruct runs the validate tags of an entity.
func (s *Store) checkStruct(entity errs.Entity, v any) error {
	if err := s.validate.Struct(v); err != nil {
		return errs.NewInvalidArgument(string(entity), err.Error())
	}
	return nil
}

func (s *Store) mutated() {
	s.generation.Add(1)
}

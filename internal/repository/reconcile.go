package repository

import (
	"context"
	"reflect"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/emmacherrin/foodpix/internal/errs"
	"github.com/emmacherrin/foodpix/internal/model"
)

// ReconcileSnapshots rewrites every dish_ids column that differs from the
// index and returns how many rows were repaired.
func (s *Store) ReconcileSnapshots(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []struct {
		ID      string     `db:"id"`
		DishIDs model.List `db:"dish_ids"`
	}
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, dish_ids FROM restaurants"); err != nil {
		return 0, errs.NewStorage("select dish_ids snapshots", err)
	}

	stale := map[string][]string{}
	for _, row := range rows {
		want, ok := s.index.DishIDs(row.ID)
		if !ok {
			s.log.Warn().Str("restaurant_id", row.ID).Msg("stored restaurant missing from index")
			continue
		}
		got := []string(row.DishIDs)
		if len(got) == 0 && len(want) == 0 {
			continue
		}
		if !reflect.DeepEqual(sortedCopy(got), want) {
			stale[row.ID] = want
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	err := s.withTx(ctx, "reconcile dish_ids snapshots", func(tx *sqlx.Tx) error {
		for id, ids := range stale {
			if err := writeSnapshot(ctx, tx, id, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.mutated()
	s.log.Info().Int("repaired", len(stale)).Msg("reconciled dish_ids snapshots")
	return len(stale), nil
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/emmacherrin/foodpix/internal/errs"
	"github.com/emmacherrin/foodpix/internal/model"
)

const (
	restaurantsTable = "restaurants"
	dishesTable      = "dishes"
)

// Fields maps column names to new values for the dynamic update path.
type Fields map[string]any

type columnKind int

const (
	textColumn columnKind = iota
	realColumn
	intColumn
	listColumn
)

type column struct {
	kind columnKind
	rule string // validator tag, empty for none
}

// Updatable columns per table. id and the index-managed columns are absent
// on purpose.
var updatableColumns = map[string]map[string]column{
	restaurantsTable: {
		"restaurant_name": {textColumn, "required"},
		"address":         {textColumn, "required"},
		"cuisine":         {textColumn, "required"},
		"latitude":        {realColumn, "min=-90,max=90"},
		"longitude":       {realColumn, "min=-180,max=180"},
	},
	dishesTable: {
		"dish_name":            {textColumn, "required"},
		"image_url":            {textColumn, ""},
		"date":                 {textColumn, ""},
		"stars":                {intColumn, "min=0,max=5"},
		"dietary_restrictions": {listColumn, "dive,required,excludesall=0x2C"},
	},
}

// Columns kept in step with the relationship index.
var managedColumns = map[string]bool{
	"dish_ids":      true,
	"restaurant_id": true,
}

// RestaurantUpdate lists the restaurant fields that may change. Nil fields
// are left untouched.
type RestaurantUpdate struct {
	Name      *string
	Address   *string
	Cuisine   *string
	Latitude  *float64
	Longitude *float64
}

func (u RestaurantUpdate) fields() Fields {
	f := Fields{}
	if u.Name != nil {
		f["restaurant_name"] = *u.Name
	}
	if u.Address != nil {
		f["address"] = *u.Address
	}
	if u.Cuisine != nil {
		f["cuisine"] = *u.Cuisine
	}
	if u.Latitude != nil {
		f["latitude"] = *u.Latitude
	}
	if u.Longitude != nil {
		f["longitude"] = *u.Longitude
	}
	return f
}

// DishUpdate lists the dish fields that may change. Nil fields are left
// untouched; a dish cannot move to another restaurant.
type DishUpdate struct {
	Name                *string
	ImageURL            *string
	Date                *string
	Stars               *int
	DietaryRestrictions *model.List
}

func (u DishUpdate) fields() Fields {
	f := Fields{}
	if u.Name != nil {
		f["dish_name"] = *u.Name
	}
	if u.ImageURL != nil {
		f["image_url"] = *u.ImageURL
	}
	if u.Date != nil {
		f["date"] = *u.Date
	}
	if u.Stars != nil {
		f["stars"] = *u.Stars
	}
	if u.DietaryRestrictions != nil {
		f["dietary_restrictions"] = *u.DietaryRestrictions
	}
	return f
}

// prepareFields checks every column against the table's updatable set and
// converts each value to the form it is stored in.
func (s *Store) prepareFields(table string, fields Fields) (Fields, error) {
	if len(fields) == 0 {
		return nil, errs.NewInvalidArgument("fields", "nothing to update")
	}
	allowed := updatableColumns[table]
	out := make(Fields, len(fields))
	for name, value := range fields {
		switch {
		case name == "id":
			return nil, errs.NewInvalidArgument("fields", "the id of a "+strings.TrimSuffix(table, "s")+" cannot be changed")
		case managedColumns[name]:
			return nil, errs.NewInvalidArgument("fields", fmt.Sprintf("column %q is managed by the store", name))
		}
		col, ok := allowed[name]
		if !ok {
			return nil, errs.NewInvalidArgument("fields", fmt.Sprintf("unknown column %q for table %s", name, table))
		}
		v, err := coerce(col.kind, value)
		if err != nil {
			return nil, errs.NewInvalidArgument(name, err.Error())
		}
		if col.rule != "" {
			if err := s.validate.Var(v, col.rule); err != nil {
				return nil, errs.NewInvalidArgument(name, err.Error())
			}
		}
		if l, ok := v.(model.List); ok {
			v = model.Stringify(l)
		}
		out[name] = v
	}
	return out, nil
}

func coerce(kind columnKind, value any) (any, error) {
	switch kind {
	case textColumn:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case realColumn:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case intColumn:
		switch v := value.(type) {
		case int:
			return v, nil
		case int32:
			return int(v), nil
		case int64:
			return int(v), nil
		}
	case listColumn:
		switch v := value.(type) {
		case model.List:
			return v, nil
		case []string:
			return model.List(v), nil
		case string:
			return model.Listify(v), nil
		}
	}
	return nil, fmt.Errorf("unsupported value type %T", value)
}

// buildUpdate renders UPDATE <table> SET c1 = ?, c2 = ? WHERE id = ? with
// columns in sorted order, and the matching arguments.
func buildUpdate(table, id string, fields Fields) (string, []any) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets[i] = name + " = ?"
		args = append(args, fields[name])
	}
	args = append(args, id)
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?", args
}

// updateRow is shared by the typed and dynamic update paths of both tables.
func (s *Store) updateRow(ctx context.Context, table string, entity errs.Entity, id string, fields Fields) error {
	prepared, err := s.prepareFields(table, fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	if table == restaurantsTable {
		exists = s.index.RestaurantExists(id)
	} else {
		exists = s.index.DishExists(id)
	}
	if !exists {
		return errs.NewNotFound(entity, id)
	}

	query, args := buildUpdate(table, id, prepared)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errs.NewStorage(fmt.Sprintf("update %s %s", entity, id), err)
	}
	s.mutated()
	s.log.Debug().Str(string(entity)+"_id", id).Int("columns", len(prepared)).Msg("updated " + string(entity))
	return nil
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/emmacherrin/foodpix/internal/errs"
	"github.com/emmacherrin/foodpix/internal/model"
)

// QueryResult holds the rows of a CustomQuery. Only the slice matching the
// queried table is set.
type QueryResult struct {
	Restaurants []model.Restaurant
	Dishes      []model.Dish
}

// Len returns the number of rows in the result.
func (r QueryResult) Len() int {
	return len(r.Restaurants) + len(r.Dishes)
}

// Condition is a single column comparison for BuildConditions.
type Condition struct {
	Field    string // column name
	Operator string // =, !=, <, <=, >, >= or LIKE
	Value    any
}

var queryColumns = map[string]map[string]bool{
	restaurantsTable: {
		"id": true, "restaurant_name": true, "address": true, "cuisine": true,
		"latitude": true, "longitude": true, "dish_ids": true,
	},
	dishesTable: {
		"id": true, "restaurant_id": true, "dish_name": true, "image_url": true,
		"date": true, "stars": true, "dietary_restrictions": true,
	},
}

var conditionOperators = map[string]bool{
	"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true, "LIKE": true,
}

// BuildConditions turns conds into parameterized fragments and their
// arguments, suitable for CustomQuery.
func BuildConditions(table string, conds ...Condition) ([]string, []any, error) {
	columns, ok := queryColumns[table]
	if !ok {
		return nil, nil, errs.NewInvalidArgument("table", "unsupported table "+table)
	}
	fragments := make([]string, 0, len(conds))
	params := make([]any, 0, len(conds))
	for _, c := range conds {
		if !columns[c.Field] {
			return nil, nil, errs.NewInvalidArgument("condition", fmt.Sprintf("unknown column %q for table %s", c.Field, table))
		}
		op := strings.ToUpper(strings.TrimSpace(c.Operator))
		if !conditionOperators[op] {
			return nil, nil, errs.NewInvalidArgument("condition", "unsupported operator "+c.Operator)
		}
		fragments = append(fragments, c.Field+" "+op+" ?")
		params = append(params, c.Value)
	}
	return fragments, params, nil
}

// CustomQuery selects rows of table matching every condition. Each condition
// is a predicate using ? placeholders, bound in order to params. A ? inside a
// quoted literal is not a placeholder. orderBy is
// empty, a column name, or a column name followed by ASC or DESC.
func (s *Store) CustomQuery(ctx context.Context, table string, conditions []string, orderBy string, params ...any) (QueryResult, error) {
	columns, ok := queryColumns[table]
	if !ok {
		return QueryResult{}, errs.NewInvalidArgument("table", "unsupported table "+table)
	}

	placeholders := 0
	for _, cond := range conditions {
		if strings.TrimSpace(cond) == "" || strings.Contains(cond, ";") {
			return QueryResult{}, errs.NewInvalidArgument("condition", fmt.Sprintf("malformed condition %q", cond))
		}
		placeholders += countPlaceholders(cond)
	}
	if placeholders != len(params) {
		return QueryResult{}, errs.NewInvalidArgument("params",
			fmt.Sprintf("%d placeholders but %d parameters", placeholders, len(params)))
	}

	order, err := orderClause(columns, orderBy)
	if err != nil {
		return QueryResult{}, err
	}

	var b strings.Builder
	if table == restaurantsTable {
		b.WriteString("SELECT " + restaurantColumns + " FROM restaurants")
	} else {
		b.WriteString("SELECT " + dishColumns + " FROM dishes")
	}
	if len(conditions) > 0 {
		b.WriteString(" WHERE (" + strings.Join(conditions, ") AND (") + ")")
	}
	b.WriteString(order)
	query := b.String()

	var result QueryResult
	if table == restaurantsTable {
		result.Restaurants = []model.Restaurant{}
		err = s.db.SelectContext(ctx, &result.Restaurants, query, params...)
	} else {
		result.Dishes = []model.Dish{}
		err = s.db.SelectContext(ctx, &result.Dishes, query, params...)
	}
	if err != nil {
		return QueryResult{}, errs.NewStorage("custom query on "+table, err)
	}
	s.log.Debug().Str("table", table).Int("conditions", len(conditions)).Int("rows", result.Len()).Msg("custom query")
	return result, nil
}

// countPlaceholders counts the ? marks of cond that sit outside quoted
// literals. A doubled quote inside a literal is an escaped quote.
func countPlaceholders(cond string) int {
	n := 0
	var quote rune
	for _, c := range cond {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			n++
		}
	}
	return n
}

func orderClause(columns map[string]bool, orderBy string) (string, error) {
	parts := strings.Fields(orderBy)
	switch len(parts) {
	case 0:
		return "", nil
	case 1, 2:
	default:
		return "", errs.NewInvalidArgument("order_by", "expected a column and an optional direction")
	}
	if !columns[parts[0]] {
		return "", errs.NewInvalidArgument("order_by", "unknown column "+parts[0])
	}
	clause := " ORDER BY " + parts[0]
	if len(parts) == 2 {
		dir := strings.ToUpper(parts[1])
		if dir != "ASC" && dir != "DESC" {
			return "", errs.NewInvalidArgument("order_by", "unknown direction "+parts[1])
		}
		clause += " " + dir
	}
	return clause, nil
}

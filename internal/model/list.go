package model

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// List is an ordered sequence of strings persisted as comma-joined text.
type List []string

// Listify splits comma-joined text into its trimmed, non-empty items.
func Listify(s string) List {
	out := List{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Stringify joins items with ", ".
func Stringify(items []string) string {
	return strings.Join(items, ", ")
}

func (l List) String() string {
	return Stringify(l)
}

// Value implements driver.Valuer.
func (l List) Value() (driver.Value, error) {
	return Stringify(l), nil
}

// Scan implements sql.Scanner. NULL scans to an empty list.
func (l *List) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = List{}
	case string:
		*l = Listify(v)
	case []byte:
		*l = Listify(string(v))
	default:
		return fmt.Errorf("cannot scan %T into model.List", src)
	}
	return nil
}

// NewID returns a random 128-bit identifier in canonical UUID form.
func NewID() string {
	return uuid.NewString()
}

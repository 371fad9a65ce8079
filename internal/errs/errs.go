// Package errs defines the error kinds returned by the catalog store.
//
// Every concrete type matches its sentinel through errors.Is, so callers can
// branch on the kind and use errors.As when they need the details.
package errs

import (
	"errors"
	"fmt"
)

// Entity names the record kind an error refers to.
type Entity string

const (
	Restaurant Entity = "restaurant"
	Dish       Entity = "dish"
	User       Entity = "user"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrStorage         = errors.New("storage failure")
	ErrAccount         = errors.New("account failure")
)

// NotFoundError is returned when a restaurant or dish id is unknown.
type NotFoundError struct {
	Entity Entity
	ID     string
}

func NewNotFound(entity Entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateError is returned when an identifier is already in use.
type DuplicateError struct {
	Entity Entity
	ID     string
}

func NewDuplicate(entity Entity, id string) *DuplicateError {
	return &DuplicateError{Entity: entity, ID: id}
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with ID %s already exists", e.Entity, e.ID)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// InvalidArgumentError reports a rejected argument: a bad order value, an
// unsupported table, an identifier mutation, an unknown column.
type InvalidArgumentError struct {
	Argument string
	Reason   string
}

func NewInvalidArgument(argument, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Argument: argument, Reason: reason}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Argument, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// StorageError wraps a driver failure with a description of what was being
// attempted.
type StorageError struct {
	Op  string
	Err error
}

func NewStorage(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to execute database command: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// AccountError wraps a failure to create or authenticate an account.
// The password is never part of the message.
type AccountError struct {
	Action   string
	Username string
	Err      error
}

func NewAccount(action, username string, err error) *AccountError {
	return &AccountError{Action: action, Username: username, Err: err}
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("failed to %s user %q: %v", e.Action, e.Username, e.Err)
}

func (e *AccountError) Is(target error) bool {
	return target == ErrAccount
}

func (e *AccountError) Unwrap() error {
	return e.Err
}

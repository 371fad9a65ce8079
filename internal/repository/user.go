package repository

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/emmacherrin/foodpix/internal/errs"
	"github.com/emmacherrin/foodpix/internal/model"
)

// UserRepository covers the users table.
type UserRepository interface {
	CreateAccount(ctx context.Context, username, password string) (string, error)
	Authenticate(ctx context.Context, username, password string) (string, bool, error)
}

var _ UserRepository = (*Store)(nil)

// dummyHash is compared against when the username is unknown so both
// failure paths run one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("foodpix-dummy-password"), bcrypt.MinCost)

// CreateAccount stores a bcrypt hash of password under a new user id.
// Duplicate usernames are left to the unique constraint and surface as an
// AccountError like any other failure.
func (s *Store) CreateAccount(ctx context.Context, username, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", errs.NewAccount("create", username, err)
	}
	user := model.User{
		UserID:       model.NewID(),
		Username:     username,
		PasswordHash: string(hash),
	}

	query := `INSERT INTO users (id, username, password) VALUES (:id, :username, :password)`
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		return "", errs.NewAccount("create", username, err)
	}
	s.log.Debug().Str("user_id", user.UserID).Str("username", username).Msg("created account")
	return user.UserID, nil
}

// Authenticate returns the user id and true when password matches. An
// unknown username and a wrong password both return "", false, nil.
func (s *Store) Authenticate(ctx context.Context, username, password string) (string, bool, error) {
	var user model.User
	err := s.db.GetContext(ctx, &user, "SELECT id, username, password FROM users WHERE username = ?", username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", false, nil
		}
		return "", false, errs.NewAccount("authenticate", username, err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	switch {
	case err == nil:
		return user.UserID, true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return "", false, nil
	default:
		return "", false, errs.NewAccount("authenticate", username, err)
	}
}

package model

type User struct {
	// id TEXT PRIMARY KEY
	UserID string `db:"id" json:"id"`

	// username TEXT NOT NULL UNIQUE
	Username string `db:"username" json:"username"`

	// password TEXT NOT NULL -- bcrypt hash, never the plaintext
	PasswordHash string `db:"password" json:"-"`
}

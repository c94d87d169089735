package models

// User represents a registered user.
// ID is the SQLite rowid; the users table declares no id column of its own.
type User struct {
	ID       int64
	Username string
	Email    string
	Password string
}

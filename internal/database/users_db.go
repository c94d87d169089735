package database

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"io"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/registration/app/internal/models"
)

// ErrUserNotFound is returned by lookups when no row matches the username.
var ErrUserNotFound = errors.New("user not found")

// UserStore owns the users table.
type UserStore struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// NewUserStore returns a store backed by db. A nil logger discards output.
func NewUserStore(db *sql.DB, log logrus.FieldLogger) *UserStore {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &UserStore{db: db, log: log.WithField("component", "user_store")}
}

// Initialize creates the users table if it does not exist yet.
func (s *UserStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "create users table")
	}
	s.log.Debug("users table ready")
	return nil
}

// AddUser inserts a new user. It reports false, and changes nothing, when the
// username is already taken.
func (s *UserStore) AddUser(ctx context.Context, username, email, password string) (bool, error) {
	stmt, err := s.db.PrepareContext(ctx, "INSERT INTO users(username, email, password) VALUES(?, ?, ?)")
	if err != nil {
		return false, errors.Wrap(err, "prepare insert user")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, username, email, password); err != nil {
		if isUniqueViolation(err) {
			s.log.WithField("username", username).Info("username already taken")
			return false, nil
		}
		return false, errors.Wrapf(err, "insert user %q", username)
	}

	s.log.WithField("username", username).Info("user added")
	return true, nil
}

// Authenticate reports whether username exists and its stored password is
// exactly password.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (bool, error) {
	var stored string
	err := s.db.QueryRowContext(ctx, "SELECT password FROM users WHERE username = ?", username).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.WithField("username", username).Debug("authentication for unknown user")
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "look up password for %q", username)
	}

	ok := subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
	s.log.WithFields(logrus.Fields{"username": username, "ok": ok}).Debug("authentication checked")
	return ok, nil
}

// GetUser retrieves a user by username.
func (s *UserStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	row := s.db.QueryRowContext(ctx, "SELECT rowid, username, email, password FROM users WHERE username = ?", username)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get user %q", username)
	}
	return user, nil
}

// ListUsers retrieves all users in insertion order.
func (s *UserStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT rowid, username, email, password FROM users ORDER BY rowid")
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Password); err != nil {
			return nil, errors.Wrap(err, "scan user row")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate user rows")
	}

	return users, nil
}

// DisplayUsers writes one line per user to w. Passwords are not printed.
func (s *UserStore) DisplayUsers(ctx context.Context, w io.Writer) error {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}

	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users found.")
		return errors.Wrap(err, "write user list")
	}

	for _, u := range users {
		if _, err := fmt.Fprintf(w, "ID: %d, Username: %s, Email: %s\n", u.ID, u.Username, u.Email); err != nil {
			return errors.Wrap(err, "write user list")
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

package database

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB opens a fresh SQLite file for each test and initializes the schema.
func setupTestDB(t *testing.T) (*sql.DB, *UserStore) {
	t.Helper()

	db, err := InitDB(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err, "Failed to initialize test database")
	t.Cleanup(func() { _ = db.Close() })

	store := NewUserStore(db, nil)
	require.NoError(t, store.Initialize(context.Background()))
	return db, store
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestInitialize(t *testing.T) {
	db, store := setupTestDB(t)
	ctx := context.Background()

	t.Run("Creates users table", func(t *testing.T) {
		assert.True(t, tableExists(t, db, "users"))
	})

	t.Run("Second call is a no-op", func(t *testing.T) {
		ok, err := store.AddUser(ctx, "keeper", "keeper@example.com", "pw")
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, store.Initialize(ctx))
		assert.True(t, tableExists(t, db, "users"))

		_, err = store.GetUser(ctx, "keeper")
		assert.NoError(t, err, "existing rows must survive re-initialization")
	})
}

func TestInitDB_BadPath(t *testing.T) {
	_, err := InitDB(filepath.Join(t.TempDir(), "missing", "dir", "users.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping database")
}

func TestAddUser(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()

	t.Run("New user", func(t *testing.T) {
		ok, err := store.AddUser(ctx, "testuser", "testuser@example.com", "password123")
		require.NoError(t, err)
		assert.True(t, ok)

		user, err := store.GetUser(ctx, "testuser")
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "testuser", user.Username)
		assert.Equal(t, "testuser@example.com", user.Email)
		assert.Equal(t, "password123", user.Password)
	})

	t.Run("Duplicate username", func(t *testing.T) {
		ok, err := store.AddUser(ctx, "duplicateuser", "user1@example.com", "pass1")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = store.AddUser(ctx, "duplicateuser", "user2@example.com", "pass2")
		require.NoError(t, err, "a taken username is reported as false, not as an error")
		assert.False(t, ok)

		user, err := store.GetUser(ctx, "duplicateuser")
		require.NoError(t, err)
		assert.Equal(t, "user1@example.com", user.Email)
		assert.Equal(t, "pass1", user.Password)
	})

	t.Run("Email is not unique", func(t *testing.T) {
		ok, err := store.AddUser(ctx, "first", "shared@example.com", "a")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.AddUser(ctx, "second", "shared@example.com", "b")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Closed database surfaces error", func(t *testing.T) {
		db, err := InitDB(filepath.Join(t.TempDir(), "closed.db"))
		require.NoError(t, err)
		closed := NewUserStore(db, nil)
		require.NoError(t, db.Close())

		ok, err := closed.AddUser(ctx, "x", "x@example.com", "x")
		require.Error(t, err)
		assert.False(t, ok)
	})
}

func TestAddUser_MissingTable(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewUserStore(db, nil)
	ok, err := store.AddUser(context.Background(), "x", "x@example.com", "x")
	require.Error(t, err, "only unique violations are swallowed")
	assert.False(t, ok)
}

func TestAuthenticate(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()

	ok, err := store.AddUser(ctx, "validuser", "valid@example.com", "securepass")
	require.NoError(t, err)
	require.True(t, ok)

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{name: "Correct password", username: "validuser", password: "securepass", want: true},
		{name: "Unknown username", username: "nosuchuser", password: "anyPassword", want: false},
		{name: "Wrong password", username: "validuser", password: "incorrectpass", want: false},
		{name: "Case sensitive password", username: "validuser", password: "SecurePass", want: false},
		{name: "Case sensitive username", username: "ValidUser", password: "securepass", want: false},
		{name: "No trimming", username: "validuser", password: "securepass ", want: false},
		{name: "Empty password", username: "validuser", password: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Authenticate(ctx, tt.username, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetUser_NotFound(t *testing.T) {
	_, store := setupTestDB(t)

	_, err := store.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsers(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	for _, name := range []string{"alice", "bob", "carol"} {
		ok, err := store.AddUser(ctx, name, name+"@example.com", "pw")
		require.NoError(t, err)
		require.True(t, ok)
	}

	users, err = store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "carol", users[2].Username)
	assert.Less(t, users[0].ID, users[1].ID)
}

func TestDisplayUsers(t *testing.T) {
	_, store := setupTestDB(t)
	ctx := context.Background()

	t.Run("Empty table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, store.DisplayUsers(ctx, &buf))
		assert.Equal(t, "No users found.\n", buf.String())
	})

	t.Run("Includes username and email", func(t *testing.T) {
		ok, err := store.AddUser(ctx, "displayuser", "display@example.com", "pass")
		require.NoError(t, err)
		require.True(t, ok)

		var buf bytes.Buffer
		require.NoError(t, store.DisplayUsers(ctx, &buf))

		out := buf.String()
		assert.Contains(t, out, "displayuser")
		assert.Contains(t, out, "display@example.com")
		assert.NotContains(t, out, "Password")
		assert.Equal(t, 1, strings.Count(out, "\n"))
		assert.True(t, strings.HasPrefix(out, "ID: 1, "))
	})
}

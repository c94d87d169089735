package database

import (
	"database/sql"
	_ "embed"

	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// InitDB opens the SQLite file at dataSourceName and verifies the connection.
// The caller owns the returned handle and must close it.
func InitDB(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, errors.Wrapf(err, "open database %q", dataSourceName)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping database %q", dataSourceName)
	}

	return db, nil
}

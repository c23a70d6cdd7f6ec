package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient holds a read-only handle on a SQLite database file.
type SQLiteClient struct {
	db   *sql.DB
	path string
}

// NewSQLiteClient opens the database at path for introspection. The file
// must already exist; introspecting never creates or writes one.
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db, path: path}, nil
}

// sqliteDSN turns a file path into a read-only URI filename.
func sqliteDSN(path string) (string, error) {
	switch path {
	case "":
		return "", fmt.Errorf("empty path")
	case ":memory:":
		return "file::memory:?mode=memory", nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(path)
	return "file:" + escaped + "?mode=ro", nil
}

func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// Path is the file the client was opened on.
func (c *SQLiteClient) Path() string {
	return c.path
}

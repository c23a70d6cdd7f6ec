package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tordrt/schemabridge/internal/dialect"
	"github.com/tordrt/schemabridge/internal/schema"
)

// SQLiteExtractor handles schema extraction from SQLite. SQLite has no
// comments, so Comment fields are always nil.
type SQLiteExtractor struct {
	client *SQLiteClient
	policy dialect.Policy
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
		policy: dialect.MustFor(schema.SQLite),
	}
}

// Dialect implements Introspector.
func (e *SQLiteExtractor) Dialect() schema.Dialect { return schema.SQLite }

// Close implements Introspector.
func (e *SQLiteExtractor) Close(context.Context) error { return e.client.Close() }

// ListTables returns the user tables of the database
func (e *SQLiteExtractor) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

// Table extracts all information for a single table
func (e *SQLiteExtractor) Table(ctx context.Context, tableName string) (schema.RawTable, error) {
	table := schema.RawTable{Name: tableName}

	ddl, err := e.tableSQL(ctx, tableName)
	if err != nil {
		return table, err
	}

	// Extract columns and primary key
	columns, pk, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return table, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns
	table.PrimaryKey = pk

	// AUTOINCREMENT is only legal on a lone INTEGER PRIMARY KEY and is only
	// visible in the stored CREATE statement.
	if len(pk) == 1 && strings.Contains(strings.ToUpper(ddl), "AUTOINCREMENT") {
		if col, ok := table.Column(pk[0]); ok {
			col.Extra = "auto_increment"
		}
	}

	// Extract indexes
	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return table, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	return table, nil
}

func (e *SQLiteExtractor) tableSQL(ctx context.Context, tableName string) (string, error) {
	query := `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`

	var ddl sql.NullString
	err := e.client.GetDB().QueryRowContext(ctx, query, tableName).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read table definition: %w", err)
	}
	return ddl.String, nil
}

// extractColumns reads PRAGMA table_info. The primary key is ordered by
// its position in the key, not by column order.
func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.RawColumn, []string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", e.policy.Quote(tableName))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	type pkCol struct {
		name  string
		order int
	}
	var columns []schema.RawColumn
	var pkCols []pkCol

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		col := schema.RawColumn{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0,
		}
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}

		// Track primary key columns
		if pk > 0 {
			pkCols = append(pkCols, pkCol{name: name, order: pk})
		}

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	sort.SliceStable(pkCols, func(i, j int) bool { return pkCols[i].order < pkCols[j].order })
	var pk []string
	for _, c := range pkCols {
		pk = append(pk, c.name)
	}
	return columns, pk, nil
}

// extractIndexes extracts index information. Indexes backing the primary
// key are skipped; those backing a UNIQUE constraint get the name the
// constraint would have been given, since SQLite does not keep it.
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.RawIndex, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", e.policy.Quote(tableName))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	type listed struct {
		name   string
		unique bool
		origin string
	}
	var list []listed
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if origin == "pk" {
			continue
		}
		list = append(list, listed{name: name, unique: unique == 1, origin: origin})
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, err
	}

	var indexes []schema.RawIndex
	for _, l := range list {
		columns, err := e.indexColumns(ctx, l.name)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			continue
		}

		name := l.name
		if l.origin == "u" && strings.HasPrefix(name, "sqlite_autoindex") {
			name = constraintName(tableName, columns)
		}
		indexes = append(indexes, schema.RawIndex{Name: name, IsUnique: l.unique, Columns: columns})
	}

	sort.SliceStable(indexes, func(i, j int) bool { return indexes[i].Name < indexes[j].Name })
	return indexes, nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%s)", e.policy.Quote(indexName))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		// Expression index members have no name.
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}
	return columns, rows.Err()
}

func constraintName(table string, columns []string) string {
	if len(columns) == 1 {
		return schema.DefaultUniqueName(table, columns[0])
	}
	return "uk_" + table + "_" + strings.Join(columns, "_")
}

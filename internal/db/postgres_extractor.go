package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/schemabridge/internal/schema"
)

const varcharType = "varchar"

// PostgresExtractor handles schema extraction from PostgreSQL
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

// NewPostgresExtractor creates a new schema extractor for one namespace
func NewPostgresExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// Dialect implements Introspector.
func (e *PostgresExtractor) Dialect() schema.Dialect { return schema.Postgres }

// Close implements Introspector.
func (e *PostgresExtractor) Close(ctx context.Context) error { return e.client.Close(ctx) }

// ListTables returns the base tables of the schema
func (e *PostgresExtractor) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	var tables []string
	err := e.client.withConn(func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, e.schema)
		if err != nil {
			return err
		}
		tables, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// Table extracts all information for a single table
func (e *PostgresExtractor) Table(ctx context.Context, tableName string) (schema.RawTable, error) {
	table := schema.RawTable{Name: tableName}

	err := e.client.withConn(func(conn *pgx.Conn) error {
		comment, err := e.extractTableComment(ctx, conn, tableName)
		if err != nil {
			return err
		}
		table.Comment = comment

		// Extract columns
		if table.Columns, err = e.extractColumns(ctx, conn, tableName); err != nil {
			return fmt.Errorf("failed to extract columns: %w", err)
		}

		// Extract primary key
		if table.PrimaryKey, err = e.extractPrimaryKey(ctx, conn, tableName); err != nil {
			return fmt.Errorf("failed to extract primary key: %w", err)
		}

		// Extract indexes
		if table.Indexes, err = e.extractIndexes(ctx, conn, tableName); err != nil {
			return fmt.Errorf("failed to extract indexes: %w", err)
		}
		return nil
	})
	return table, err
}

func (e *PostgresExtractor) extractTableComment(ctx context.Context, conn *pgx.Conn, tableName string) (*string, error) {
	query := `
		SELECT obj_description(c.oid, 'pg_class')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND c.relkind IN ('r', 'p')
	`

	var comment *string
	err := conn.QueryRow(ctx, query, e.schema, tableName).Scan(&comment)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to extract table comment: %w", err)
	}
	if comment != nil && *comment == "" {
		comment = nil
	}
	return comment, nil
}

// normalizePostgresType maps verbose SQL type names to commonly-used PostgreSQL equivalents
func normalizePostgresType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *charMaxLength)
		}
		return varcharType
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("char(%d)", *charMaxLength)
		}
		return "char"
	case "ARRAY":
		// udt_name has underscore prefix for arrays (e.g., "_text" for text[], "_int4" for integer[])
		if len(udtName) > 0 && udtName[0] == '_' {
			elementType := normalizeUdtName(udtName[1:])
			return fmt.Sprintf("%s[]", elementType)
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

// normalizeUdtName converts PostgreSQL internal type names to more readable forms
func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	case varcharType:
		return varcharType
	default:
		return udtName
	}
}

// extractColumns extracts column information for a table. Identity columns
// are reported through Extra; serial columns keep their nextval default.
func (e *PostgresExtractor) extractColumns(ctx context.Context, conn *pgx.Conn, tableName string) ([]schema.RawColumn, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.udt_name,
			c.character_maximum_length,
			c.is_identity,
			col_description(pc.oid, pa.attnum)
		FROM information_schema.columns c
		JOIN pg_namespace pn ON pn.nspname = c.table_schema
		JOIN pg_class pc ON pc.relnamespace = pn.oid AND pc.relname = c.table_name
		JOIN pg_attribute pa ON pa.attrelid = pc.oid AND pa.attname = c.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := conn.Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.RawColumn
	for rows.Next() {
		var col schema.RawColumn
		var nullable, dataType, udtName, identity string
		var charMaxLength *int

		if err := rows.Scan(&col.Name, &dataType, &nullable, &col.DefaultValue, &udtName,
			&charMaxLength, &identity, &col.Comment); err != nil {
			return nil, err
		}

		col.Nullable = (nullable == "YES")
		col.Type = normalizePostgresType(dataType, udtName, charMaxLength)
		if identity == "YES" {
			col.Extra = "identity"
		}
		if col.Comment != nil && *col.Comment == "" {
			col.Comment = nil
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// extractPrimaryKey extracts primary key columns
func (e *PostgresExtractor) extractPrimaryKey(ctx context.Context, conn *pgx.Conn, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = $1
			AND table_name = $2
			AND constraint_name IN (
				SELECT constraint_name
				FROM information_schema.table_constraints
				WHERE table_schema = $1
					AND table_name = $2
					AND constraint_type = 'PRIMARY KEY'
			)
		ORDER BY ordinal_position
	`

	rows, err := conn.Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// extractIndexes extracts index information, primary key excluded
func (e *PostgresExtractor) extractIndexes(ctx context.Context, conn *pgx.Conn, tableName string) ([]schema.RawIndex, error) {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	rows, err := conn.Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.RawIndex
	for rows.Next() {
		var idx schema.RawIndex
		if err := rows.Scan(&idx.Name, &idx.IsUnique, &idx.Columns); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}

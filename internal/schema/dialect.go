package schema

import (
	"fmt"
	"strings"
)

// Dialect is one of the supported SQL engines. The set is closed: a new
// engine needs a new constant and a new policy entry in package dialect.
type Dialect int

const (
	MySQL Dialect = iota
	Postgres
	SQLite

	dialectCount
)

var dialectNames = [dialectCount]string{
	MySQL:    "mysql",
	Postgres: "postgres",
	SQLite:   "sqlite",
}

func (d Dialect) String() string {
	if d.Valid() {
		return dialectNames[d]
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// Valid reports whether d is a declared dialect.
func (d Dialect) Valid() bool {
	return d >= 0 && d < dialectCount
}

// AllDialects returns every dialect in declaration order.
func AllDialects() []Dialect {
	return []Dialect{MySQL, Postgres, SQLite}
}

// ParseDialect accepts the dialect name or a common alias.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("invalid dialect: %q (must be mysql, postgres, or sqlite)", s)
	}
}

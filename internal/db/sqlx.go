package db

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// driverName is the database/sql driver registered by pgx/v5/stdlib.
const driverName = "pgx"

// Psql is the squirrel builder for Postgres ($1 placeholders).
var Psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Sqlx wraps a database/sql handle opened by Open for struct scanning.
// Closing the returned value closes db.
func Sqlx(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, driverName)
}

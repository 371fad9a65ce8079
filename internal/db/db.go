// Package db opens connections to the backing SQL engine and carries the
// schema for each supported dialect.
package db

import (
	"context"
	"embed"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emmacherrin/foodpix/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// PingTimeout bounds the connectivity check done by Open.
const PingTimeout = 10 * time.Second

// tables in drop order: children first.
var tables = []string{"dishes", "restaurants", "users"}

// Open connects to the engine named by cfg.Driver and pings it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (_ *sqlx.DB, rerr error) {
	var dsn string
	switch cfg.Driver {
	case config.DriverSQLite:
		dsn = sqliteDSN(cfg.DSN)
	case config.DriverMySQL:
		dsn = mysqlDSN(cfg.DSN, cfg.TxIsolation)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database connection: %w", err)
	}
	defer func() {
		if rerr != nil {
			_ = conn.Close()
		}
	}()

	switch {
	case cfg.Driver == config.DriverSQLite:
		// an in-memory database exists per connection, so keep exactly one
		conn.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	return conn, nil
}

// sqliteDSN turns on foreign key enforcement.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

func mysqlDSN(dsn, txIsolation string) string {
	params := url.Values{}
	params.Set("collation", "utf8mb4_general_ci")
	params.Set("parseTime", "true")
	params.Set("loc", "UTC")
	params.Set("time_zone", "'+00:00'")
	if txIsolation != "" {
		params.Set("transaction_isolation", "'"+txIsolation+"'")
	}
	return dsn + "?" + params.Encode()
}

// Schema returns the CREATE TABLE IF NOT EXISTS statements for driver, one
// statement per element, in dependency order.
func Schema(driver string) ([]string, error) {
	raw, err := schemaFS.ReadFile("schema/" + driver + ".sql")
	if err != nil {
		return nil, fmt.Errorf("no schema for driver %q: %w", driver, err)
	}
	var stmts []string
	for _, stmt := range strings.Split(string(raw), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

// DropStatements returns the statements that remove every table.
func DropStatements() []string {
	stmts := make([]string, len(tables))
	for i, t := range tables {
		stmts[i] = "DROP TABLE IF EXISTS " + t
	}
	return stmts
}

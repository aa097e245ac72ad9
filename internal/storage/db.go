// Package storage opens the database shared by the keychain and preferences
// stores and applies the embedded migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/deviceid/internal/dbx"
	"github.com/dmitrijs2005/deviceid/internal/filex"
	"github.com/dmitrijs2005/deviceid/internal/storage/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// DB is an open store database together with its dialect.
type DB struct {
	Conn    *sql.DB
	Dialect dbx.Dialect
}

// goose keeps its base FS and dialect in package globals.
var migrateMu sync.Mutex

// RunMigrations applies the migrations for the given dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	dir := "sqlite"
	if dialect == dbx.DialectPostgres {
		dir = "postgres"
	}

	return goose.UpContext(ctx, db, dir)
}

// Open connects with the named database/sql driver ("sqlite" or "pgx") and
// migrates the schema. SQLite file databases get their parent directory
// created; SQLite connections are limited to one so in-memory databases
// stay shared and writers never contend.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	dialect, err := dbx.DialectForDriver(driver)
	if err != nil {
		return nil, err
	}

	if dialect == dbx.DialectSQLite {
		driver = "sqlite"
		if isFileDSN(dsn) {
			if _, err := filex.EnsureDir(filepath.Dir(dsn)); err != nil {
				return nil, err
			}
		}
	} else {
		driver = "pgx"
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if dialect == dbx.DialectSQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := RunMigrations(ctx, conn, dialect); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &DB{Conn: conn, Dialect: dialect}, nil
}

func (d *DB) Close() error {
	return d.Conn.Close()
}

func isFileDSN(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

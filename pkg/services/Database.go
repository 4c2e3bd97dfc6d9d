package services

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/sqlite"
	"github.com/rfberaldo/sqlz"
	"github.com/rfberaldo/sqlz/binds"
)

var (
	//go:embed sql-migrations
	sqlMigrationsFs embed.FS

	registerBinds sync.Once
)

/*
Connect opens the sqlite database described by dsn.
*/
func Connect(dsn string) (*sqlz.DB, error) {
	registerBinds.Do(func() {
		binds.Register("sqlite", binds.BindByDriver("sqlite3"))
	})

	db, err := sqlz.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	return db, nil
}

/*
MigrateDatabase runs every embedded "commit" script in name order.
Scripts are written to be re-runnable; errors about columns that already
exist are ignored.
*/
func MigrateDatabase(db *sqlz.DB) error {
	var (
		err  error
		dirs []fs.DirEntry
		b    []byte
	)

	if dirs, err = sqlMigrationsFs.ReadDir("sql-migrations"); err != nil {
		return fmt.Errorf("error reading migrations: %w", err)
	}

	for _, d := range dirs {
		if d.IsDir() {
			continue
		}

		if strings.HasPrefix(d.Name(), "commit") {
			if b, err = fs.ReadFile(sqlMigrationsFs, path.Join("sql-migrations", d.Name())); err != nil {
				return fmt.Errorf("error reading migration %s: %w", d.Name(), err)
			}

			if err = runSqlScript(db, b); err != nil {
				if !isIgnorableError(err) {
					return fmt.Errorf("error running migration %s: %w", d.Name(), err)
				}
			}
		}
	}

	return nil
}

func runSqlScript(db *sqlz.DB, script []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := db.Exec(ctx, string(script))
	return err
}

func isIgnorableError(err error) bool {
	if strings.Contains(err.Error(), "duplicate column") {
		return true
	}

	return false
}

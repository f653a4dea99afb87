package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/platinummonkey/menuguard/pkg/observability"
	"github.com/platinummonkey/menuguard/pkg/rbac"
)

// dbFlags are shared by every command that touches the database
type dbFlags struct {
	driver *string
	dsn    *string
	legacy *bool
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func addDBFlags(fs *flag.FlagSet) dbFlags {
	return dbFlags{
		driver: fs.String("driver", envOr("MENUGUARD_DB_DRIVER", "postgres"), "Database driver (postgres or sqlite3)"),
		dsn:    fs.String("dsn", os.Getenv("MENUGUARD_DB_DSN"), "Database DSN"),
		legacy: fs.Bool("legacy-names", os.Getenv("MENUGUARD_LEGACY_MENU_NAME_FALLBACK") == "true", "Resolve menu codes through legacy display names"),
	}
}

// cliLogger keeps store warnings off stdout
func cliLogger() *observability.Logger {
	return observability.NewLogger(observability.WarnLevel, os.Stderr)
}

func (f dbFlags) open(ctx context.Context) (*sql.DB, rbac.Dialect, error) {
	if *f.dsn == "" {
		return nil, "", fmt.Errorf("--dsn is required")
	}
	return rbac.OpenDB(ctx, *f.driver, *f.dsn, rbac.PoolConfig{MaxOpenConns: 2})
}

// openStore opens the database, applies pending migrations and returns a store
func (f dbFlags) openStore(ctx context.Context) (*rbac.Store, io.Closer, error) {
	db, dialect, err := f.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, err := rbac.Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, nil, err
	}
	store := rbac.NewStore(db, rbac.WithLegacyNameFallback(*f.legacy), rbac.WithStoreLogger(cliLogger()))
	return store, db, nil
}

package gateway

import (
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// newSQLiteHandler builds the file-backed relational handler. The
// database file's parent directory is created on first use so a fresh
// checkout works without setup.
func newSQLiteHandler(cfg SQLiteConfig, log *slog.Logger) Handler {
	path := cfg.Path
	return &sqlHandler{
		backend:      BackendSQLite,
		driverName:   "sqlite",
		dsn:          path,
		enabled:      cfg.Enabled,
		lastInsertID: true,
		prepare: func() error {
			dir := filepath.Dir(path)
			if dir == "" || dir == "." {
				return nil
			}
			return os.MkdirAll(dir, 0o755)
		},
		log: log,
	}
}

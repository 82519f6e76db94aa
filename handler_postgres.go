package gateway

import (
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func newPostgresHandler(cfg NetworkConfig, log *slog.Logger) Handler {
	return &sqlHandler{
		backend:    BackendPostgreSQL,
		driverName: "pgx",
		dsn:        buildPostgresDSN(cfg),
		enabled:    cfg.Enabled,
		positional: true,
		log:        log,
	}
}

// buildPostgresDSN constructs a key=value connection string.
func buildPostgresDSN(cfg NetworkConfig) string {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Database)
	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}

package gateway

import (
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
)

func newMySQLHandler(cfg NetworkConfig, log *slog.Logger) Handler {
	return &sqlHandler{
		backend:    BackendMySQL,
		driverName: "mysql",
		dsn:        buildMySQLDSN(cfg),
		enabled:    cfg.Enabled,
		log:        log,
	}
}

func buildMySQLDSN(cfg NetworkConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

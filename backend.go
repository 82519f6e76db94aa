package gateway

import "strings"

// Backend identifies a database engine served by the gateway.
type Backend string

const (
	BackendSQLite     Backend = "sqlite"
	BackendPostgreSQL Backend = "postgresql"
	BackendMySQL      Backend = "mysql"
	BackendMongoDB    Backend = "mongodb"
)

// parseBackend normalizes a caller-supplied backend name. Validation
// happens at dispatch; unknown names fail there with the name intact.
func parseBackend(s string) Backend {
	return Backend(strings.ToLower(strings.TrimSpace(s)))
}

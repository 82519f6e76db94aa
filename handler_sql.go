package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// sqlHandler drives one relational backend through database/sql. The
// three engines differ only in driver name, DSN shape, placeholder
// style, and whether the driver reports last-insert ids.
type sqlHandler struct {
	backend    Backend
	driverName string
	dsn        string
	enabled    bool

	// positional selects $n placeholders instead of ?.
	positional bool

	// lastInsertID includes lastrowid in mutation summaries; only the
	// sqlite driver reports it reliably.
	lastInsertID bool

	// prepare runs before opening a connection (sqlite dir creation).
	prepare func() error

	log *slog.Logger
}

func (h *sqlHandler) Backend() Backend { return h.backend }

func (h *sqlHandler) Execute(ctx context.Context, req Request) (any, error) {
	if !h.enabled {
		return nil, &UnavailableError{Backend: h.backend}
	}
	if h.prepare != nil {
		if err := h.prepare(); err != nil {
			return nil, execErr(h.backend, err)
		}
	}

	h.log.Debug("opening connection", slog.String("backend", string(h.backend)))
	db, err := sql.Open(h.driverName, h.dsn)
	if err != nil {
		return nil, execErr(h.backend, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, execErr(h.backend, err)
	}
	return h.run(ctx, db, req)
}

// run executes the request against an open handle. Split from Execute so
// tests can drive it with a mock database.
func (h *sqlHandler) run(ctx context.Context, db *sql.DB, req Request) (any, error) {
	query, args, err := bindNamed(req.Query, req.Parameters, h.placeholder)
	if err != nil {
		return nil, execErr(h.backend, err)
	}

	if isReadRequest(req) {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, execErr(h.backend, err)
		}
		defer func() { _ = rows.Close() }()
		result, err := rowsToMaps(rows)
		if err != nil {
			return nil, execErr(h.backend, err)
		}
		return result, nil
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, execErr(h.backend, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, execErr(h.backend, err)
	}
	summary := map[string]any{"affected_rows": affected}
	if h.lastInsertID {
		if id, err := res.LastInsertId(); err == nil {
			summary["lastrowid"] = id
		}
	}
	return summary, nil
}

func (h *sqlHandler) placeholder(i int) string {
	if h.positional {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// isReadRequest classifies a relational request. Two independent signals:
// the declared operation, and the query text's leading keyword. Either
// one selects the read path; they are allowed to disagree, and the
// read signal wins. This mirrors long-standing caller behavior and must
// not be collapsed into a single check.
func isReadRequest(req Request) bool {
	if strings.EqualFold(req.Operation, "select") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(req.Query)), "select")
}

// bindNamed rewrites :name placeholders to the driver's positional form,
// collecting arguments in query order. Quoted literals and postgres
// ::type casts pass through untouched. Queries without parameters are
// returned verbatim.
func bindNamed(query string, params map[string]any, ph func(int) string) (string, []any, error) {
	if len(params) == 0 {
		return query, nil, nil
	}
	var sb strings.Builder
	var args []any
	n := 0
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			j := i + 1
			for j < len(query) && query[j] != '\'' {
				j++
			}
			if j < len(query) {
				j++
			}
			sb.WriteString(query[i:j])
			i = j - 1
			continue
		}
		if c == ':' && i+1 < len(query) && isIdentStart(query[i+1]) && (i == 0 || query[i-1] != ':') {
			j := i + 1
			for j < len(query) && isIdentPart(query[j]) {
				j++
			}
			name := query[i+1 : j]
			value, ok := params[name]
			if !ok {
				return "", nil, fmt.Errorf("query references unknown parameter %q", name)
			}
			n++
			sb.WriteString(ph(n))
			args = append(args, value)
			i = j - 1
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String(), args, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// rowsToMaps converts a result set into ordered column-keyed mappings.
// []byte cells become strings so rows serialize portably; no other
// coercion beyond what the driver already did.
func rowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

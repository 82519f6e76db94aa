package gateway

import "fmt"

// Request is the normalized form of one gateway call. The zero values
// are meaningful: an empty Operation defers to the query text for
// classification, and an empty CacheKey disables caching for the call.
type Request struct {
	Backend    Backend
	Operation  string
	Query      string
	Parameters map[string]any
	CacheKey   string
}

// parseRequest normalizes a raw request mapping. Missing fields take
// their defaults; present fields must have the right type. The backend
// name is lower-cased here so every later comparison is exact.
func parseRequest(raw map[string]any) (Request, error) {
	if raw == nil {
		return Request{}, &ParseError{Reason: "request body is empty"}
	}

	dbType, err := stringField(raw, "db_type")
	if err != nil {
		return Request{}, err
	}
	operation, err := stringField(raw, "operation")
	if err != nil {
		return Request{}, err
	}
	query, err := stringField(raw, "query")
	if err != nil {
		return Request{}, err
	}
	cacheKey, err := stringField(raw, "cache_key")
	if err != nil {
		return Request{}, err
	}

	params := map[string]any{}
	if v, ok := raw["parameters"]; ok && v != nil {
		m, ok := v.(map[string]any)
		if !ok {
			return Request{}, &ParseError{Reason: fmt.Sprintf("parameters must be a mapping, got %T", v)}
		}
		params = m
	}

	return Request{
		Backend:    parseBackend(dbType),
		Operation:  operation,
		Query:      query,
		Parameters: params,
		CacheKey:   cacheKey,
	}, nil
}

func stringField(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ParseError{Reason: fmt.Sprintf("%s must be a string, got %T", key, v)}
	}
	return s, nil
}

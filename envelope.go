package gateway

import "time"

const (
	statusSuccess = "success"
	statusError   = "error"
)

// successEnvelope wraps a backend result for the caller. from_cache
// tells the caller whether the data came from the read-through cache.
func successEnvelope(data any, fromCache bool) map[string]any {
	return map[string]any{
		"status":     statusSuccess,
		"data":       data,
		"from_cache": fromCache,
		"timestamp":  envelopeTimestamp(),
	}
}

// errorEnvelope wraps a failure message; it never carries data.
func errorEnvelope(message string) map[string]any {
	return map[string]any{
		"status":    statusError,
		"error":     message,
		"timestamp": envelopeTimestamp(),
	}
}

func envelopeTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

package catalog

import "fmt"

// NetworkError represents catalog API failures including non-2xx responses,
// connection errors, and malformed payloads. The download endpoint is known
// to error on very old firmware images, so callers treat this as a
// per-device condition rather than a fatal one.
type NetworkError struct {
	Operation  string // The operation that failed (e.g., "list_devices", "open_download")
	StatusCode int    // HTTP status code, if applicable (0 for non-HTTP errors)
	Err        error  // Underlying error, if any
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("catalog error during %s (HTTP %d)", e.Operation, e.StatusCode)
	}

	return fmt.Sprintf("catalog error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

package wire

import "fmt"

// StatusCode is the outcome tag attached to every device response.
// It is an open enumeration: firmware may return ordinals this package
// does not name, and those are preserved as-is.
type StatusCode int32

const (
	// StatusOK indicates the request succeeded.
	StatusOK StatusCode = 0

	// StatusInvalidRequestError indicates the device rejected the request.
	StatusInvalidRequestError StatusCode = 1

	// StatusNotFoundError indicates the addressed resource does not exist.
	StatusNotFoundError StatusCode = 2

	// StatusInsufficientResourcesError indicates the analog fabric is full.
	StatusInsufficientResourcesError StatusCode = 3

	// StatusStorageError indicates a flash storage failure.
	StatusStorageError StatusCode = 4

	// StatusInternalError indicates an unexpected firmware fault.
	StatusInternalError StatusCode = 5
)

var statusCodeNames = []string{
	"OK",
	"INVALID_REQUEST_ERROR",
	"NOT_FOUND_ERROR",
	"INSUFFICIENT_RESOURCES_ERROR",
	"STORAGE_ERROR",
	"INTERNAL_ERROR",
}

// String returns the symbolic status name, or STATUS_CODE_<n> for ordinals
// outside the known set.
func (s StatusCode) String() string {
	if s >= 0 && int(s) < len(statusCodeNames) {
		return statusCodeNames[s]
	}
	return fmt.Sprintf("STATUS_CODE_%d", int32(s))
}

// IsOK returns true if the status indicates success.
func (s StatusCode) IsOK() bool {
	return s == StatusOK
}

// IsError returns true if the status indicates an error.
func (s StatusCode) IsError() bool {
	return s != StatusOK
}

// ParseStatusCode looks up a status code by symbolic name.
func ParseStatusCode(name string) (StatusCode, bool) {
	for i, n := range statusCodeNames {
		if n == name {
			return StatusCode(i), true
		}
	}
	return 0, false
}

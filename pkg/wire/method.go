package wire

// Method is the request verb.
type Method int32

const (
	// MethodGet reads a resource.
	MethodGet Method = 0

	// MethodPost creates a resource or triggers an action.
	MethodPost Method = 1

	// MethodPut replaces a resource value.
	MethodPut Method = 2

	// MethodPatch partially updates a resource.
	MethodPatch Method = 3

	// MethodDelete removes a resource.
	MethodDelete Method = 4
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	case MethodPatch:
		return "PATCH"
	case MethodDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true if the method is one of the five protocol verbs.
func (m Method) IsValid() bool {
	return m >= MethodGet && m <= MethodDelete
}

// ParseMethod parses a verb name such as "GET" or "patch".
func ParseMethod(s string) (Method, bool) {
	switch s {
	case "GET", "get":
		return MethodGet, true
	case "POST", "post":
		return MethodPost, true
	case "PUT", "put":
		return MethodPut, true
	case "PATCH", "patch":
		return MethodPatch, true
	case "DELETE", "delete":
		return MethodDelete, true
	default:
		return 0, false
	}
}

package companion

import (
	"errors"
	"fmt"
	"net/http"

	"ies4ops/internal/ports"
)

// ErrUnavailable matches failures where the service could not be reached
var ErrUnavailable = errors.New("companion: service unavailable")

// ServiceError describes a failed call to the analysis service. A zero
// StatusCode means the request never got a response.
type ServiceError struct {
	Op         string // Endpoint name: "ping", "reload", "analyze", ...
	StatusCode int
	Status     string // The "status" field of the response, if any
	Message    string // The "message" field of the response, if any
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("companion %s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("companion %s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("companion %s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("companion %s: HTTP %d: status %q", e.Op, e.StatusCode, e.Status)
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return e.StatusCode == 0
	case ports.ErrEndpointNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

package solver

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks topology errors: bad beam indices, faces or loci a
// beam type does not define, mismatched identity pairs and invalid anchors.
var ErrConfiguration = errors.New("configuration error")

// SolverError reports a problem the backend could not solve to optimality.
type SolverError struct {
	Status  string
	Message string
}

func (e *SolverError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("solver failed: status %s", e.Status)
	}
	return fmt.Sprintf("solver failed: status %s: %s", e.Status, e.Message)
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...)
}

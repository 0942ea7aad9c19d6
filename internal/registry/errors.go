package registry

import (
	"errors"
	"fmt"
)

// ErrNoPrefixes is returned before any worker starts when the prefix set is
// empty.
var ErrNoPrefixes = errors.New("registry: prefix set is empty")

// NavigationError marks a page load or control lookup that failed after its
// retries. Rows that hit one are skipped, never fatal to the crawl.
type NavigationError struct {
	Op  string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation %s: %v", e.Op, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// NewNavigationError wraps err as a NavigationError for operation op.
func NewNavigationError(op string, err error) *NavigationError {
	return &NavigationError{Op: op, Err: err}
}

// IsNavigation reports whether err is a NavigationError.
func IsNavigation(err error) bool {
	var ne *NavigationError
	return errors.As(err, &ne)
}

package permissions

import (
	"errors"
	"fmt"
)

var (
	// ErrUndeclaredAction is returned when a policy has no entry for an action.
	ErrUndeclaredAction = errors.New("action not declared in policy")

	// ErrUnknownResource is returned when a registry has no policy for a resource.
	ErrUnknownResource = errors.New("resource has no policy")
)

// ConfigurationError reports a policy declaration mistake. It is never an
// access-control outcome and should surface as a server error.
type ConfigurationError struct {
	Resource string
	Action   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("permissions: resource %q: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("permissions: resource %q action %q: %v", e.Resource, e.Action, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

package notewirews

import (
	"errors"
	"fmt"
)

// ErrMissingConnectionID indicates the transport invoked a lifecycle route
// without a connection identifier in the request context.
var ErrMissingConnectionID = errors.New("missing connection id")

// ValidationError marks a malformed or incomplete broadcast request. It maps
// to a 400 at the ingress and is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid broadcast request: %v", e.Reason)
}

// ConfigError marks a required configuration value that was absent at
// startup. It maps to a 500 and fails the invocation before any directory or
// transport call is attempted.
type ConfigError struct {
	Name string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %v", e.Name)
}

// StorageError wraps a connection directory read/write failure. Storage
// failures are never swallowed; a corrupted directory would silently send
// broadcasts to the wrong set of peers.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("connection directory %v failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

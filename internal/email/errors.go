package email

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by session operations invoked without an
// active connection. Callers may reconnect and retry the failed operation
// once.
var ErrNotConnected = errors.New("not connected to mail server")

// SelectionError reports a folder that does not exist or cannot be
// selected.
type SelectionError struct {
	Folder string
	Err    error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("cannot select folder %q: %v", e.Folder, e.Err)
}

func (e *SelectionError) Unwrap() error {
	return e.Err
}

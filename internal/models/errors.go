package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectivity marks a console that could not be reached or whose
	// channel broke mid-command. The roster is treated as empty.
	ErrConnectivity = errors.New("console unreachable")

	// ErrExternalAPI marks a chat or storage call that failed.
	ErrExternalAPI = errors.New("external api failure")

	// ErrFatalConfig marks a server profile that cannot be scheduled.
	ErrFatalConfig = errors.New("invalid server configuration")
)

// ParseError is returned when a console reply does not follow the expected shape.
type ParseError struct {
	Server string
	Reply  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse console reply %q: %s", e.Server, e.Reply, e.Reason)
}

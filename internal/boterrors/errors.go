// Package boterrors defines distinct types for the failure classes the
// reactor and login codec can hit, so a group's exception handler can
// branch on failure kind without parsing error strings.
package boterrors

import "fmt"

// IoError wraps a socket-level failure: closed, unreachable, or
// interrupted. The affected bot is closed and the group continues.
type IoError struct {
	Username string
	Err      error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error for %q: %v", e.Username, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// LoginRejected wraps an unexpected handshake opcode from the server.
type LoginRejected struct {
	Username string
	Stage    string
	Expected byte
	Got      byte
}

func (e *LoginRejected) Error() string {
	return fmt.Sprintf("login rejected for %q at %s: expected opcode %d, got %d", e.Username, e.Stage, e.Expected, e.Got)
}

// ProtocolError wraps an invalid opcode, length-table entry, or bit-access
// misuse.
type ProtocolError struct {
	Username string
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error for %q: %v", e.Username, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ConfigurationError wraps a construction-time failure: a nil strategy or
// an unusable RSA key. It is meant to fail fast, not to route through a
// group's exception handler.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// FatalLoopError wraps a failure of the reactor itself — a closed or
// interrupted selector loop — after which the owning group is inoperable.
type FatalLoopError struct {
	Err error
}

func (e *FatalLoopError) Error() string {
	return fmt.Sprintf("fatal event loop error: %v", e.Err)
}

func (e *FatalLoopError) Unwrap() error { return e.Err }

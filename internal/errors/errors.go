// Package errors provides the typed error taxonomy used across unrealpm.
//
// Every error type that wraps an underlying error implements Unwrap so
// callers can use errors.Is and errors.As from the standard library. The
// core packages never log or print; they return these values and leave
// presentation to the CLI layer.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError represents an error in configuration parsing.
type ConfigError struct {
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	var location string
	if e.Line > 0 {
		if e.Column > 0 {
			location = fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
		} else {
			location = fmt.Sprintf("%s:%d", e.File, e.Line)
		}
	} else {
		location = e.File
	}

	if e.Err != nil {
		return fmt.Sprintf("config error at %s: %s: %v", location, e.Message, e.Err)
	}
	return fmt.Sprintf("config error at %s: %s", location, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RegistryError represents a failed registry operation.
// Op is one of: "fetch", "resolve", "list", "connect", "publish", "unpublish", "yank", "download", "search".
type RegistryError struct {
	URL string
	Op  string
	Err error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registry error: %s failed for %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("registry error: %s failed for %s", e.Op, e.URL)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// InstallError represents a failure during plugin installation.
// Phase is one of: "fetch", "parse", "validate", "extract", "reconcile", "merge".
type InstallError struct {
	Plugin string
	Phase  string
	Err    error
}

func (e *InstallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("install error for %s during %s: %v", e.Plugin, e.Phase, e.Err)
	}
	return fmt.Sprintf("install error for %s during %s", e.Plugin, e.Phase)
}

func (e *InstallError) Unwrap() error { return e.Err }

// ValidationError represents a resource validation failure.
type ValidationError struct {
	Resource string
	Field    string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for %s: field %q: %s", e.Resource, e.Field, e.Message)
	}
	return fmt.Sprintf("validation error for %s: %s", e.Resource, e.Message)
}

// NotFoundError represents a missing resource. Suggestions, when present,
// are "did you mean" candidates (see the filesystem registry).
type NotFoundError struct {
	What        string
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("%s not found: %s (did you mean: %s?)", e.What, e.Name, strings.Join(e.Suggestions, ", "))
	}
	return fmt.Sprintf("%s not found: %s", e.What, e.Name)
}

// VersionError represents a version-constraint resolution failure for a single package.
type VersionError struct {
	Plugin     string
	Constraint string
	Available  []string
	Message    string
}

func (e *VersionError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("version error for %s: ", e.Plugin))

	if e.Message != "" {
		sb.WriteString(e.Message)
	} else {
		sb.WriteString(fmt.Sprintf("constraint %q cannot be satisfied", e.Constraint))
	}

	if len(e.Available) > 0 {
		sb.WriteString(fmt.Sprintf(" (available: %s)", strings.Join(e.Available, ", ")))
	}

	return sb.String()
}

// ResolutionError represents a failure of the PubGrub solver as a whole:
// no solution, depth exceeded, or timeout.
type ResolutionError struct {
	Reason      string // "no_solution", "depth_exceeded", "timeout", "unavailable"
	Explanation string // human-readable derivation tree, or a simple description
}

func (e *ResolutionError) Error() string {
	if e.Explanation != "" {
		return e.Explanation
	}
	return fmt.Sprintf("dependency resolution failed: %s", e.Reason)
}

// IntegrityError represents a checksum or signature verification failure.
// Kind is one of: "checksum", "signature", "signature_required".
type IntegrityError struct {
	Kind     string
	Expected string
	Actual   string
	Message  string
}

func (e *IntegrityError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("integrity error (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("integrity error (%s): expected %s, got %s", e.Kind, e.Expected, e.Actual)
}

// TransportError represents a connection, TLS, timeout, or 5xx failure.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError represents a missing-token, 401, or 403 failure.
type AuthError struct {
	Reason string // "missing_token", "unauthorized", "forbidden"
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("authorization error: %s: %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("authorization error: %s", e.Reason)
}

// RemoteConflictError represents a registry-side conflict: publishing a
// version that already exists, or a detected concurrent write.
type RemoteConflictError struct {
	Resource string
	Message  string
}

func (e *RemoteConflictError) Error() string {
	return fmt.Sprintf("conflict for %s: %s", e.Resource, e.Message)
}

func NewConfigError(file string, line, col int, msg string, err error) *ConfigError {
	return &ConfigError{File: file, Line: line, Column: col, Message: msg, Err: err}
}

func NewRegistryError(url, op string, err error) *RegistryError {
	return &RegistryError{URL: url, Op: op, Err: err}
}

func NewInstallError(plugin, phase string, err error) *InstallError {
	return &InstallError{Plugin: plugin, Phase: phase, Err: err}
}

func NewValidationError(resource, field, message string) *ValidationError {
	return &ValidationError{Resource: resource, Field: field, Message: message}
}

func NewNotFoundError(what, name string, suggestions ...string) *NotFoundError {
	return &NotFoundError{What: what, Name: name, Suggestions: suggestions}
}

func NewVersionError(plugin, constraint string, available []string, msg string) *VersionError {
	return &VersionError{Plugin: plugin, Constraint: constraint, Available: available, Message: msg}
}

func NewResolutionError(reason, explanation string) *ResolutionError {
	return &ResolutionError{Reason: reason, Explanation: explanation}
}

func NewIntegrityError(kind, expected, actual, message string) *IntegrityError {
	return &IntegrityError{Kind: kind, Expected: expected, Actual: actual, Message: message}
}

func NewTransportError(url string, err error) *TransportError {
	return &TransportError{URL: url, Err: err}
}

func NewAuthError(reason, detail string) *AuthError {
	return &AuthError{Reason: reason, Detail: detail}
}

func NewRemoteConflictError(resource, message string) *RemoteConflictError {
	return &RemoteConflictError{Resource: resource, Message: message}
}

// Re-exported standard library error functions so callers need only
// import this package.
var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Join   = errors.Join
	Unwrap = errors.Unwrap
)

// Wrap wraps an error with an additional context message. Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

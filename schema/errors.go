package schema

import (
	"fmt"
	"strings"
)

// PythonErrorType is the union type name the catalog backend uses for domain failures.
const PythonErrorType = "PythonError"

// ClientErrorType marks a client-side failure recorded as a domain error.
const ClientErrorType = "ClientError"

// DomainError is a structured failure value returned by the data source itself.
// It is data, not a transport failure, and never clears a displayed snapshot.
type DomainError struct {
	TypeName string       `json:"__typename" yaml:"typename"`
	Message  string       `json:"message" yaml:"message"`
	Stack    []string     `json:"stack,omitempty" yaml:"stack,omitempty"`
	Cause    *DomainError `json:"cause,omitempty" yaml:"cause,omitempty"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	var b strings.Builder
	name := e.TypeName
	if name == "" {
		name = PythonErrorType
	}
	fmt.Fprintf(&b, "%s: %s", name, e.Message)
	for c := e.Cause; c != nil; c = c.Cause {
		fmt.Fprintf(&b, "; caused by: %s", c.Message)
	}
	return b.String()
}

// Unwrap exposes the cause chain to errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

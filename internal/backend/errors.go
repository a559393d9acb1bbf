package backend

import (
	"errors"
	"fmt"
)

// CodeNoRows is the remote error code for "expected one row, found none".
// It marks the expected-absent branch (no profile yet, no active timer),
// not a real failure.
const CodeNoRows = "PGRST116"

// Error is a structured error returned by the remote row store
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is the remote "no rows found" condition
func IsNotFound(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Code == CodeNoRows
}

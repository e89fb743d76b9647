// Package exiterr carries process exit codes through cobra's error returns.
package exiterr

import (
	"errors"
	"fmt"
)

const (
	CodeOK = 0
	// CodeFailed is the default for any error without an explicit code.
	CodeFailed = 1
	// CodePartial means the command ran but some items were not processed.
	CodePartial = 3
)

// Carries an exit code along with an error so the app can exit correctly
type ExitError struct {
	Err  error
	Code int
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d", e.Code)
	}

	return fmt.Sprintf("%d: %s", e.Code, e.Err.Error())
}

func (e ExitError) Unwrap() error {
	return e.Err
}

// Wrap an error with an exit code
func Wrap(code int, err error) error {
	return ExitError{Code: code, Err: err}
}

// Code is the exit code for err: CodeOK for nil, the carried code for an ExitError and
// CodeFailed otherwise.
func Code(err error) int {
	if err == nil {
		return CodeOK
	}

	var ee ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return CodeFailed
}

package errors

import (
	"fmt"
	"strings"
	"sync"
)

type MultiError struct {
	msg    string
	Errors []error

	mu sync.Mutex
}

func NewMultiError(msg string) *MultiError {
	return &MultiError{msg: msg}
}

func (m *MultiError) Append(err error) {
	if err == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if me, ok := err.(*MultiError); ok { //nolint:errorlint
		m.Errors = append(m.Errors, me.Errors...)
		return
	}
	m.Errors = append(m.Errors, err)
}

func (m *MultiError) Error() string {
	var errStrings []string
	for _, err := range m.Errors {
		errStrings = append(errStrings, " "+err.Error())
	}
	return fmt.Sprintf("%s:\n%s", m.msg, strings.Join(errStrings, "\n"))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

func (m *MultiError) ToErr() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

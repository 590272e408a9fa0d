package models

import (
	"errors"
	"fmt"
)

// ErrorKind 错误类型
type ErrorKind string

const (
	InvalidDateConfig ErrorKind = "INVALID_DATE_CONFIG"
	MissingConfig     ErrorKind = "MISSING_CONFIG"
	InvalidConfig     ErrorKind = "INVALID_CONFIG"
	TraversalError    ErrorKind = "TRAVERSAL_ERROR"
	ArchiveWriteError ErrorKind = "ARCHIVE_WRITE_ERROR"
)

// Error 归档过程中的致命错误
type Error struct {
	Kind    ErrorKind
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind 判断错误链中是否包含指定类型的错误
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

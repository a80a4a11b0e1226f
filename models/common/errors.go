package common

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

type DetailedError interface {
	Detail() string
}

// Error is a custom error type that includes some additional fields
// to help us debug. See the Detail method.
type Error struct {
	Err     error
	File    string
	IsFatal bool
	Line    int
	Message string
}

func NewError(message string, err error, isFatal bool) *Error {
	_, file, line, _ := runtime.Caller(1)
	return &Error{
		Err:     err,
		File:    file,
		IsFatal: isFatal,
		Line:    line,
		Message: message,
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return e.Message
}

// This returns a detailed error message.
func (e *Error) Detail() string {
	prefix := ""
	if e.IsFatal {
		prefix = "FATAL: "
	}
	underlyingError := ""
	if e.Err != nil {
		underlyingError = fmt.Sprintf("(Underlying error: %s)", e.Err.Error())
	}
	return fmt.Sprintf("%s%s [%s:%d] %s",
		prefix, e.Message, e.File, e.Line, underlyingError)
}

// HttpError is a custom error struct that captures details of errors
// coming from nsqd's HTTP interface.
type HttpError struct {
	Err        error
	Message    string
	Method     string
	StatusCode int
	URL        string
}

func NewHttpError(message string, err error, method, url string, statusCode int) *HttpError {
	return &HttpError{
		Err:        err,
		Message:    message,
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
	}
}

func (e *HttpError) Unwrap() error {
	return e.Err
}

func (e *HttpError) Error() string {
	return e.Message
}

func (e *HttpError) Detail() string {
	underlyingError := ""
	if e.Err != nil {
		underlyingError = fmt.Sprintf("(Underlying error: %s)", e.Err.Error())
	}
	return fmt.Sprintf(
		"%s: %s returned status %d. Message: %s %s",
		e.Method, e.URL, e.StatusCode, e.Message, underlyingError)
}

// ErrTryNextProvider tells the credential chain to move on to the
// next provider.
var ErrTryNextProvider = errors.New("credential provider has nothing to offer")

// ErrNoCredentials means every credential provider was tried and none
// produced credentials. Nothing that talks to the storage backend can
// proceed after this.
var ErrNoCredentials = NewError("Could not load credentials from any providers", nil, true)

// FileNotFoundError is returned when the storage backend has no object
// under the requested key.
type FileNotFoundError struct {
	UserID string
	Key    string
}

func (e *FileNotFoundError) Error() string {
	return "File not found"
}

func (e *FileNotFoundError) Detail() string {
	return fmt.Sprintf("File not found (user_id: %s, filename: %s)", e.UserID, e.Key)
}

// AlreadyExistsError is returned by uploads that asked not to
// overwrite an existing file.
type AlreadyExistsError struct {
	Key string
}

func (e *AlreadyExistsError) Error() string {
	return "A file already exists with this name"
}

func (e *AlreadyExistsError) Detail() string {
	return fmt.Sprintf("A file already exists with this name (filename: %s)", e.Key)
}

// DispatchError describes an import dispatch in which one or more
// connectors did not accept their job message. Messages that were
// accepted are not retracted.
type DispatchError struct {
	Failed []string
	Total  int
	Err    error
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("Import dispatch failed for %d of %d connectors", len(e.Failed), e.Total)
}

func (e *DispatchError) Detail() string {
	underlyingError := ""
	if e.Err != nil {
		underlyingError = fmt.Sprintf("(Underlying error: %s)", e.Err.Error())
	}
	return fmt.Sprintf("%s: %s %s", e.Error(), strings.Join(e.Failed, ", "), underlyingError)
}

// IsNotFound returns true if err is or wraps a FileNotFoundError.
func IsNotFound(err error) bool {
	var notFound *FileNotFoundError
	return errors.As(err, &notFound)
}

// IsAlreadyExists returns true if err is or wraps an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var exists *AlreadyExistsError
	return errors.As(err, &exists)
}

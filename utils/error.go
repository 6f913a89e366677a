package utils

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorKind classifies failures so HTTP handlers can map them to a status
// code without inspecting message strings.
type ErrorKind string

const (
	KindValidation      ErrorKind = "ValidationError"
	KindAuth            ErrorKind = "AuthError"
	KindNotFound        ErrorKind = "NotFoundError"
	KindFolderProvision ErrorKind = "FolderProvisionError"
	KindUpload          ErrorKind = "UploadError"
	KindPersistence     ErrorKind = "PersistenceError"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(kind ErrorKind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapAppError(kind ErrorKind, err error, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// HTTPStatus maps an error to its response status. Anything unclassified is
// a 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case KindValidation:
			return http.StatusBadRequest
		case KindNotFound:
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	}
	if errors.Is(err, ErrorRecordNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

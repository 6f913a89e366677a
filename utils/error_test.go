package utils

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewAppError(KindValidation, "name is required"), http.StatusBadRequest},
		{"not found", NewAppError(KindNotFound, "record not found"), http.StatusNotFound},
		{"auth", NewAppError(KindAuth, "token exchange failed"), http.StatusInternalServerError},
		{"folder provision", NewAppError(KindFolderProvision, "create failed"), http.StatusInternalServerError},
		{"upload", NewAppError(KindUpload, "put failed"), http.StatusInternalServerError},
		{"persistence", NewAppError(KindPersistence, "insert failed"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped app error", WrapAppError(KindValidation, errors.New("inner"), "outer"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapAppError(KindPersistence, inner, "saving document")

	if !errors.Is(err, inner) {
		t.Fatal("wrapped error should unwrap to the inner error")
	}
	if !IsKind(err, KindPersistence) {
		t.Fatal("IsKind should match the wrapper's kind")
	}
	if IsKind(err, KindValidation) {
		t.Fatal("IsKind must not match a different kind")
	}
}

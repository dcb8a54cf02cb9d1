package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	code := "APPLICANT_NOT_FOUND"

	tests := []struct {
		name       string
		err        *HTTPError
		wantStatus int
		wantCode   string
	}{
		{"bad request default code", NewBadRequestError("bad", false, nil, nil, nil), http.StatusBadRequest, "BAD_REQUEST"},
		{"not found custom code", NewNotFoundError("Applicant not found", true, &code), http.StatusNotFound, code},
		{"too many requests", NewTooManyRequestsError(), http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
		{"internal", NewInternalServerError(), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.Status)
			assert.Equal(t, tt.wantCode, tt.err.Code)
		})
	}
}

func TestHTTPError_SurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("update applicant 7: %w", NewNotFoundError("Applicant not found", true, nil))

	var httpErr *HTTPError
	require.True(t, errors.As(wrapped, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.True(t, errors.Is(wrapped, &HTTPError{}))
}

func TestWithMessage_Copies(t *testing.T) {
	orig := NewBadRequestError("first", true, nil, []FieldError{{Field: "name", Error: "is required"}}, nil)
	cp := orig.WithMessage("second")

	assert.Equal(t, "first", orig.Message)
	assert.Equal(t, "second", cp.Message)
	assert.Equal(t, orig.Errors, cp.Errors)
	assert.Equal(t, orig.Status, cp.Status)
}

func TestMarkLogged(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := fmt.Errorf("list applicants: %w", MarkLogged(base))

	assert.True(t, IsLogged(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "list applicants: connection refused", wrapped.Error())

	assert.False(t, IsLogged(base))
	assert.NoError(t, MarkLogged(nil))

	twice := MarkLogged(MarkLogged(base))
	assert.Equal(t, base, errors.Unwrap(twice))
}

package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := NewPipelineError("segment 2 (camera camB) failed", cause)

	assert.Contains(t, err.Error(), "PIPELINE_FAILURE")
	assert.Contains(t, err.Error(), "segment 2")
	assert.ErrorIs(t, err, cause)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewInvalidInputError("missing source files").
		WithContext("missing_cams", []string{"camA"})

	assert.Equal(t, []string{"camA"}, err.Context["missing_cams"])
}

func TestHTTPStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewInvalidInputError("bad"), http.StatusBadRequest},
		{NewNotFoundError("room"), http.StatusNotFound},
		{NewAccessDeniedError("invalid passcode"), http.StatusForbidden},
		{NewUnauthorizedError("token expired"), http.StatusUnauthorized},
		{NewInternalError("boom"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusFor(tt.err))
	}
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err           error
		name          string
		wantConflict  bool
		wantPermanent bool
		wantRetryable bool
	}{
		{
			name:          "network error",
			err:           errors.New("dial tcp: connection refused"),
			wantRetryable: true,
		},
		{
			name:          "server error",
			err:           &StatusError{StatusCode: http.StatusInternalServerError},
			wantRetryable: true,
		},
		{
			name:         "conflict",
			err:          &StatusError{StatusCode: http.StatusConflict},
			wantConflict: true,
		},
		{
			name:          "bad request",
			err:           &StatusError{StatusCode: http.StatusBadRequest},
			wantPermanent: true,
		},
		{
			name:          "forbidden",
			err:           &StatusError{StatusCode: http.StatusForbidden},
			wantPermanent: true,
		},
		{
			name:          "not found",
			err:           &StatusError{StatusCode: http.StatusNotFound},
			wantPermanent: true,
		},
		{
			name: "wrapped status error keeps its class",
			err: fmt.Errorf("create group request failed: %w",
				&StatusError{StatusCode: http.StatusConflict}),
			wantConflict: true,
		},
		{
			name: "nil error",
			err:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantConflict, IsConflict(tt.err))
			assert.Equal(t, tt.wantPermanent, IsPermanent(tt.err))
			assert.Equal(t, tt.wantRetryable, IsRetryable(tt.err))
		})
	}
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, 0, StatusOf(errors.New("plain")))
	assert.Equal(t, 503, StatusOf(&StatusError{StatusCode: 503}))
}

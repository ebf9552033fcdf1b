package controller

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sharetube/partyqueue/internal/credential"
	"github.com/sharetube/partyqueue/internal/domain"
	"github.com/sharetube/partyqueue/pkg/validator"
	"github.com/sharetube/partyqueue/pkg/wsrouter"
	"github.com/sharetube/partyqueue/pkg/ytsearch"
)

func TestToErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType string
		message string
		status  int
	}{
		{
			name:    "wrapped not found",
			err:     fmt.Errorf("failed to join room: %w", domain.ErrRoomNotFound),
			errType: ErrTypeNotFound,
			message: domain.ErrRoomNotFound.Error(),
			status:  http.StatusNotFound,
		},
		{
			name:    "detail after sentinel is kept",
			err:     fmt.Errorf("failed to play next: %w", fmt.Errorf("%w: controller is disabled", domain.ErrForbidden)),
			errType: ErrTypeForbidden,
			message: domain.ErrForbidden.Error() + ": controller is disabled",
			status:  http.StatusForbidden,
		},
		{
			name: "payload errors",
			err: &wsrouter.PayloadError{Errors: []validator.ValidationError{
				{Field: "roomId", Code: "REQUIRED", Message: "roomId is required"},
			}},
			errType: ErrTypeInvalidInput,
			message: "roomId is required",
			status:  http.StatusBadRequest,
		},
		{
			name:    "queue full",
			err:     domain.ErrQueueFull,
			errType: ErrTypeCapacityExceeded,
			message: domain.ErrQueueFull.Error(),
			status:  http.StatusConflict,
		},
		{
			name:    "exhausted attempts hides detail",
			err:     fmt.Errorf("failed to mint: %w after 10 tries", credential.ErrExhaustedAttempts),
			errType: ErrTypeExhaustedAttempts,
			message: credential.ErrExhaustedAttempts.Error(),
			status:  http.StatusServiceUnavailable,
		},
		{
			name:    "upstream",
			err:     fmt.Errorf("%w: status 500", ytsearch.ErrUpstream),
			errType: ErrTypeUnavailable,
			message: ytsearch.ErrUpstream.Error(),
			status:  http.StatusBadGateway,
		},
		{
			name:    "rate limited",
			err:     errRateLimited,
			errType: ErrTypeRateLimited,
			message: errRateLimited.Error(),
			status:  http.StatusTooManyRequests,
		},
		{
			name:    "unknown",
			err:     errors.New("disk on fire"),
			errType: ErrTypeInternal,
			message: errInternal.Error(),
			status:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, status := toErrorMessage(tt.err)
			assert.Equal(t, tt.errType, msg.Type)
			assert.Equal(t, tt.message, msg.Message)
			assert.Equal(t, tt.status, status)
		})
	}
}

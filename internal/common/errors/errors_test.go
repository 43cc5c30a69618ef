package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputationErrorIsValidation(t *testing.T) {
	err := NewComputationError("periodsForInstalment", stderrors.New("log of non-positive value"))

	assert.Equal(t, ErrCodeValidationFailed, err.Code)
	assert.False(t, err.Retryable)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeOf(err)))
}

func TestCodeOfWrappedError(t *testing.T) {
	base := NewNotFoundError("risk profile", "u-1")
	wrapped := fmt.Errorf("loading plan: %w", base)

	assert.Equal(t, ErrCodeNotFound, CodeOf(wrapped))
	assert.True(t, Is(wrapped, ErrCodeNotFound))

	stdErr, ok := AsStandard(wrapped)
	require.True(t, ok)
	assert.Same(t, base, stdErr)
}

func TestNormalizeForeignError(t *testing.T) {
	stdErr := Normalize(stderrors.New("boom"))

	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "boom", stdErr.Details)
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("x")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestStorageErrorUnwraps(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewStorageError("upsertUserRiskProfile", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable)
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(err.Code))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeDuplicateProfile, http.StatusConflict},
		{ErrCodeModelUnavailable, http.StatusServiceUnavailable},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable storage error keeps retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewStorageError("insert", stderrors.New("timeout")))
		assert.Equal(t, "RISK_STORAGE_FAILED", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
		assert.Equal(t, "STORAGE_FAILED", bpmn.ToErrorVariables()["originalErrorCode"])
	})

	t.Run("validation error is thrown", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewValidationError("idNumber missing"))
		assert.Equal(t, "RISK_INPUT_INVALID", bpmn.Code)
		assert.Zero(t, bpmn.Retries)
		assert.False(t, IsRetryableErrorCode(ErrCodeValidationFailed))
	})

	t.Run("unknown code falls back to raw code", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewInternalError(stderrors.New("x")))
		assert.Equal(t, "INTERNAL_ERROR", bpmn.Code)
	})
}

func TestShouldRetry(t *testing.T) {
	withRetries := func(n int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Retries: n}}
	}

	tests := []struct {
		name string
		err  *StandardError
		job  entities.Job
		want bool
	}{
		{"storage failure with retries left", NewStorageError("insert", stderrors.New("timeout")), withRetries(3), true},
		{"model unavailable with retries left", NewModelUnavailableError(stderrors.New("empty")), withRetries(2), true},
		{"storage failure on last attempt", NewStorageError("insert", stderrors.New("timeout")), withRetries(0), false},
		{"rate limited is never retried by the broker", NewRateLimitedError(), withRetries(3), false},
		{"validation failure", NewValidationError("bad"), withRetries(3), false},
		{"non-retryable storage error", &StandardError{Code: ErrCodeStorageFailed, Retryable: false}, withRetries(3), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRetry(tt.err, tt.job))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeStorageFailed))
	assert.Equal(t, "MODEL", GetErrorCategory(ErrCodeModelUnavailable))
	assert.Equal(t, "DATA", GetErrorCategory(ErrCodeDuplicateProfile))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

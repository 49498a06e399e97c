package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	base := Validation(CodeInvalidQuery, "no valid skill terms")
	wrapped := fmt.Errorf("search: %w", base)

	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", Validation(CodeDictionaryInvalid, "bad"), false},
		{"not found", NotFound(CodeDocumentNotFound, "missing"), false},
		{"transient", Transient(CodeEmbeddingFailed, errors.New("timeout"), "embed"), true},
		{"internal", Internal(errors.New("boom"), "unexpected"), true},
		{"plain error", errors.New("io"), true},
		{"wrapped validation", fmt.Errorf("job: %w", Validation(CodeInvalidInput, "x")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transient(CodeCacheUnavailable, cause, "redis get %s", "k1")

	assert.Equal(t, "redis get k1: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	detailed := err.WithDetails("addr=localhost:6379")
	assert.Equal(t, "addr=localhost:6379", detailed.Details)
	assert.Empty(t, err.Details)
}

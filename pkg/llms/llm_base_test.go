package llms

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy(t *testing.T) {
	ctx := context.Background()

	retry, err := retryPolicy(ctx, &http.Response{StatusCode: http.StatusBadRequest}, nil)
	assert.False(t, retry, "400s are not retried")
	assert.NoError(t, err)

	retry, _ = retryPolicy(ctx, &http.Response{StatusCode: http.StatusTooManyRequests}, nil)
	assert.True(t, retry)

	retry, _ = retryPolicy(ctx, &http.Response{StatusCode: http.StatusServiceUnavailable}, nil)
	assert.True(t, retry)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err = retryPolicy(cancelled, nil, errors.New("boom"))
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTiktokenCounter(t *testing.T) {
	counter, err := NewTiktokenCounter("")
	assert.NoError(t, err)

	tests := []struct {
		text     string
		expected int
	}{
		{"Hello, world!", 4},
		{"Another text", 2},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			count, err := counter.GetTokenCount(tt.text)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, count, "Unexpected token count for '%s'", tt.text)
		})
	}
}

func TestLLMError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := NewLLMError("wrapped", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "wrapped")
}

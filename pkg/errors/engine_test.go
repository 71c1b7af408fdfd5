package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "retriable tool error",
			err:  Retriable("fetch_url", fmt.Errorf("upstream 503")),
			want: true,
		},
		{
			name: "terminal tool error",
			err:  Terminal("fetch_url", fmt.Errorf("404 not found")),
			want: false,
		},
		{
			name: "wrapped retriable tool error",
			err:  fmt.Errorf("attempt failed: %w", Retriable("send_email", fmt.Errorf("relay busy"))),
			want: true,
		},
		{
			name: "deadline exceeded counts as transient",
			err:  context.DeadlineExceeded,
			want: true,
		},
		{
			name: "cancellation is never retried",
			err:  context.Canceled,
			want: false,
		},
		{
			name: "plain error defaults to terminal",
			err:  fmt.Errorf("something broke"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetriable(tt.err))
		})
	}
}

func TestToolErrorMessage(t *testing.T) {
	err := Retriable("fetch_url", fmt.Errorf("connection reset"))
	assert.Contains(t, err.Error(), "fetch_url")
	assert.Contains(t, err.Error(), "retriable")

	err = Terminal("fetch_url", fmt.Errorf("bad request"))
	assert.Contains(t, err.Error(), "terminal")
}

func TestWithMessagef(t *testing.T) {
	custom := ErrTaskNotFound.WithMessagef("task %s does not exist", "abc")

	assert.Equal(t, ErrTaskNotFound.Code, custom.Code)
	assert.Equal(t, "task abc does not exist", custom.Message)
	// The sentinel must not be mutated.
	assert.Equal(t, "Task not found", ErrTaskNotFound.Message)
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "error with cause",
			err:      Wrap(KindTransport, "predict", "request failed", errors.New("connection refused")),
			contains: []string{"[transport:predict]", "request failed", "connection refused"},
		},
		{
			name:     "error without cause",
			err:      New(KindPrecondition, "view.predict", "no image selected"),
			contains: []string{"[precondition:view.predict]", "no image selected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, substr := range tt.contains {
				assert.Contains(t, tt.err.Error(), substr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(KindDecode, "op", "msg", nil))
	})

	t.Run("unwraps to cause", func(t *testing.T) {
		cause := errors.New("boom")
		assert.ErrorIs(t, Wrap(KindDecode, "op", "msg", cause), cause)
	})

	t.Run("keeps existing kind", func(t *testing.T) {
		inner := New(KindBusy, "inner", "busy")
		wrapped := Wrap(KindTransport, "outer", "msg", fmt.Errorf("ctx: %w", inner))
		assert.True(t, IsKind(wrapped, KindBusy))
		assert.False(t, IsKind(wrapped, KindTransport))
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindDecode, KindOf(New(KindDecode, "op", "msg")))
	assert.Equal(t, KindPreview, KindOf(fmt.Errorf("outer: %w", New(KindPreview, "op", "msg"))))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

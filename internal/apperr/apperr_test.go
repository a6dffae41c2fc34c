package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := RequestFailed("gemini", context.DeadlineExceeded)
	wrapped := fmt.Errorf("adapter: %w", err)

	assert.ErrorIs(t, wrapped, ErrRequestFailed)
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
	assert.NotErrorIs(t, wrapped, ErrMalformedResponse)
	assert.Equal(t, KindRequestFailed, KindOf(wrapped))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindEmptyInput, KindOf(EmptyInput("vision")))
	assert.Equal(t, KindMalformedResponse, KindOf(Malformed("decode", "bad %s", "json")))
	assert.Equal(t, KindRequestFailed, KindOf(errors.New("boom")))
}

func TestErrorMessage(t *testing.T) {
	err := Malformed("decode", "empty body")
	assert.Equal(t, "decode: malformed_response: empty body", err.Error())
	assert.Equal(t, "translate: empty_input", EmptyInput("translate").Error())
}

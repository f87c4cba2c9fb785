package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsErrorType(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{"transport", NewTransportFailed("list groups", 500, nil), ErrorTypeTransport, true},
		{"wrapped transport", fmt.Errorf("analyze: %w", NewTransportFailed("message page", 0, io.EOF)), ErrorTypeTransport, true},
		{"input is not transport", NewInvalidInput("abc", "not a number"), ErrorTypeTransport, false},
		{"input", NewInvalidInput("abc", "not a number"), ErrorTypeInput, true},
		{"record", NewMalformedRecord("42", "missing sender_id"), ErrorTypeRecord, true},
		{"plain error", io.EOF, ErrorTypeTransport, false},
		{"nil", nil, ErrorTypeTransport, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsErrorType(tt.err, tt.errType))
		})
	}
}

func TestTransportFailedMessage(t *testing.T) {
	err := NewTransportFailed("message page", 401, nil)
	assert.Equal(t, "[transport] message page failed with status 401", err.Error())
	assert.Equal(t, 401, err.StatusCode)

	cause := errors.New("connection refused")
	err = NewTransportFailed("list groups", 0, cause)
	assert.Equal(t, "[transport] list groups failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorsAs(t *testing.T) {
	var wrapped error = fmt.Errorf("select: %w", NewInvalidInput("7", "out of range"))

	var inputErr *ErrInvalidInput
	if assert.True(t, errors.As(wrapped, &inputErr)) {
		assert.Equal(t, "7", inputErr.Input)
		assert.Equal(t, "out of range", inputErr.Reason)
	}
	assert.True(t, IsInput(wrapped))
	assert.False(t, IsTransport(wrapped))
}

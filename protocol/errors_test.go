package protocol

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "internal error",
			err:  &Error{Code: CodeInternalError, Message: "something went wrong"},
			want: "mcp: something went wrong (code: -32603)",
		},
		{
			name: "unauthorized",
			err:  &Error{Code: CodeUnauthorized, Message: "access denied"},
			want: "mcp: access denied (code: -32002)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err1 := NewInternalError("test")
	err2 := NewInternalError("different message")
	err3 := NewInvalidParams("test")

	if !errors.Is(err1, err2) {
		t.Error("errors with same code should match with errors.Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match with errors.Is")
	}
}

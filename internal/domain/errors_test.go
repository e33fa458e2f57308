package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestGatewayError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  GatewayError
		want string
	}{
		{
			name: "with detail",
			err:  GatewayError{Op: "create", Status: 422, Detail: "title too long"},
			want: "api create (422): title too long",
		},
		{
			name: "without detail",
			err:  GatewayError{Op: "list", Status: 500},
			want: "api list failed with status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("GatewayError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGatewayError_Is(t *testing.T) {
	if !errors.Is(&GatewayError{Status: 404}, ErrNotFound) {
		t.Error("404 should match ErrNotFound")
	}
	if !errors.Is(&GatewayError{Status: 403}, ErrForbidden) {
		t.Error("403 should match ErrForbidden")
	}
	if errors.Is(&GatewayError{Status: 500}, ErrNotFound) {
		t.Error("500 should not match ErrNotFound")
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("refresh: %w", &TransportError{Op: "list", Err: cause})

	if !errors.Is(err, ErrOffline) {
		t.Error("transport errors should match ErrOffline")
	}
	if !errors.Is(err, cause) {
		t.Error("transport errors should expose the cause")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"canceled", fmt.Errorf("search: %w", context.Canceled), KindNone},
		{"validation", &ValidationError{Field: "title", Message: "required"}, KindValidation},
		{"rejected", &GatewayError{Op: "create", Status: 400}, KindRejected},
		{"transport", &TransportError{Op: "list"}, KindTransport},
		{"other", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", &ValidationError{Field: "title", Message: "title is required"}, "title is required"},
		{"server detail", &GatewayError{Status: 409, Detail: "Task already assigned"}, "Task already assigned"},
		{"server no detail", &GatewayError{Status: 500}, "The server rejected the request (500)"},
		{"offline", &TransportError{Op: "list"}, "Cannot reach the server. Check your connection."},
		{"generic", errors.New("boom"), "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

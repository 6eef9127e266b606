package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestNetworkError(t *testing.T) {
	baseErr := errors.New("connection refused")

	t.Run("retriable error", func(t *testing.T) {
		err := NewNetworkError("dial", baseErr)

		if !err.IsRetriable() {
			t.Error("Expected error to be retriable")
		}

		if err.Error() != "dial: connection refused" {
			t.Errorf("Error message = %q, want %q", err.Error(), "dial: connection refused")
		}

		if !errors.Is(err, baseErr) {
			t.Error("Expected error to wrap baseErr")
		}
	})

	t.Run("IsRetriable helper", func(t *testing.T) {
		retriable := NewNetworkError("get", baseErr)
		fatal := NewFatalNetworkError("decode", ErrInvalidPrice)
		wrapped := fmt.Errorf("fetch price: %w", retriable)

		if !IsRetriable(retriable) || !IsRetriable(wrapped) {
			t.Error("IsRetriable should return true for retriable error")
		}
		if IsRetriable(fatal) {
			t.Error("IsRetriable should return false for fatal error")
		}
		if !errors.Is(fatal, ErrInvalidPrice) {
			t.Error("Expected fatal error to wrap ErrInvalidPrice")
		}
		if IsRetriable(ErrTroveEmpty) {
			t.Error("IsRetriable should return false for plain error")
		}
	})
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "protocol.borrowing_rate", Err: ErrInvalidAmount}

	if err.IsRetriable() {
		t.Error("ConfigError should never be retriable")
	}

	expected := "config error [protocol.borrowing_rate]: invalid amount"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrInvalidAmount) {
		t.Error("Expected ConfigError to unwrap")
	}
}

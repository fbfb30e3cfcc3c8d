package errors

import (
	stderrors "errors"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrorTypeNavigation, "failed to open search page", cause)

	if !stderrors.Is(err, cause) {
		t.Error("Expected wrapped error to match its cause with errors.Is")
	}

	var typed *Error
	if !stderrors.As(err, &typed) {
		t.Fatal("Expected errors.As to find *Error")
	}
	if typed.Type != ErrorTypeNavigation {
		t.Errorf("Expected navigation type, got %s", typed.Type)
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeNavigation, ErrorTypeRateLimit}
	for _, et := range retryable {
		if !IsRetryable(et) {
			t.Errorf("Expected %s to be retryable", et)
		}
	}

	terminal := []ErrorType{ErrorTypeExtraction, ErrorTypeChallenge, ErrorTypeSession, ErrorTypeUnknown}
	for _, et := range terminal {
		if IsRetryable(et) {
			t.Errorf("Expected %s to not be retryable", et)
		}
	}
}

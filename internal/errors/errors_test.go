package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestBrewlineError_Error(t *testing.T) {
	err := New(ErrCategoryStorage, CodeDownloadFailed, "download failed")
	expected := "[STORAGE:DOWNLOAD_FAILED] download failed"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestBrewlineError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCategoryStorage, CodeDownloadFailed, "download failed", cause)
	expected := "[STORAGE:DOWNLOAD_FAILED] download failed: connection refused"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestBrewlineError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryValidation, CodeMalformedSnapshot, "bad row", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestBrewlineError_Is(t *testing.T) {
	err1 := New(ErrCategoryValidation, CodeReferentialIntegrity, "first")
	err2 := New(ErrCategoryValidation, CodeReferentialIntegrity, "second")
	err3 := New(ErrCategoryValidation, CodeMalformedSnapshot, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrCategoryStorage, CodeUploadFailed, true},
		{ErrCategoryStorage, CodeDownloadFailed, true},
		{ErrCategoryStorage, CodeObjectNotFound, false},
		{ErrCategoryValidation, CodeReferentialIntegrity, false},
		{ErrCategoryValidation, CodeMalformedSnapshot, false},
		{ErrCategoryQuery, CodeUnknownOperation, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("%s:%s retryable=%v, want %v", tt.category, tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestGetCategory(t *testing.T) {
	err := New(ErrCategoryQuery, CodeUnknownOperation, "no such op")
	if GetCategory(err) != ErrCategoryQuery {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryQuery)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-BrewlineError should return empty category")
	}
}

func TestGetCode(t *testing.T) {
	err := New(ErrCategoryQuery, CodeUnknownOperation, "no such op")
	if GetCode(err) != CodeUnknownOperation {
		t.Errorf("got %q, want %q", GetCode(err), CodeUnknownOperation)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-BrewlineError should return empty code")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrCategoryValidation, CodeReferentialIntegrity, "dangling key")
	detailed := err.WithDetails(map[string]interface{}{"dimension": "store"})

	if detailed.Details["dimension"] != "store" {
		t.Error("WithDetails should set details")
	}
	// Original should be unmodified
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	v := NewValidationError(CodeEmptySnapshot, "no rows")
	if v.Category != ErrCategoryValidation || v.Code != CodeEmptySnapshot {
		t.Error("NewValidationError mismatch")
	}

	s := NewStorageError(CodeDownloadFailed, "s3 down", cause)
	if s.Category != ErrCategoryStorage || !errors.Is(s, cause) {
		t.Error("NewStorageError mismatch")
	}

	q := NewQueryError(CodeUnknownOperation, "no such op")
	if q.Category != ErrCategoryQuery {
		t.Error("NewQueryError mismatch")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}

package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("underlying error")

	err := New(SnapshotUnreadable, "cannot decode before.json", cause)

	if err.Code != SnapshotUnreadable {
		t.Errorf("Code = %v, want %v", err.Code, SnapshotUnreadable)
	}
	if err.Message != "cannot decode before.json" {
		t.Errorf("Message = %q, want %q", err.Message, "cannot decode before.json")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      CorpusUnreadable,
			message:   "cannot parse Page/LoginPage.xml",
			cause:     errors.New("unexpected EOF"),
			wantParts: []string{"CORPUS_UNREADABLE", "LoginPage.xml", "unexpected EOF"},
		},
		{
			name:      "without cause",
			code:      InvalidRegistry,
			message:   "entity Magento_Catalog/Foo has no kind",
			cause:     nil,
			wantParts: []string{"INVALID_REGISTRY", "has no kind"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}

	if Newf(DuplicateEntity, "dup %s", "x").Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestError_IsAndCodeOf(t *testing.T) {
	err := fmt.Errorf("loading before: %w", Newf(DuplicateEntity, "page %q registered twice", "Login"))

	if !errors.Is(err, &Error{Code: DuplicateEntity}) {
		t.Error("errors.Is should match on code")
	}
	if errors.Is(err, &Error{Code: InvalidRegistry}) {
		t.Error("errors.Is should not match a different code")
	}
	if got := CodeOf(err); got != DuplicateEntity {
		t.Errorf("CodeOf() = %v, want %v", got, DuplicateEntity)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	if fixes := GetSuggestedFixes(StorageFailure); len(fixes) == 0 {
		t.Error("StorageFailure should have suggested fixes")
	}
	if fixes := GetSuggestedFixes(RunNotFound); fixes != nil {
		t.Errorf("RunNotFound should have no fixes, got %v", fixes)
	}
}

func TestWithDetails(t *testing.T) {
	err := Newf(InvalidRegistry, "bad").WithDetails(map[string]string{"module": "M1"})
	details, ok := err.Details.(map[string]string)
	if !ok || details["module"] != "M1" {
		t.Errorf("Details = %v, want module=M1", err.Details)
	}
}

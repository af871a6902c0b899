package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidRegistry indicates an entity failed registry validation
	InvalidRegistry ErrorCode = "INVALID_REGISTRY"
	// DuplicateEntity indicates a (module, name) key was registered twice
	DuplicateEntity ErrorCode = "DUPLICATE_ENTITY"
	// CorpusUnreadable indicates the definition corpus could not be read or parsed
	CorpusUnreadable ErrorCode = "CORPUS_UNREADABLE"
	// SnapshotUnreadable indicates a snapshot file could not be decoded
	SnapshotUnreadable ErrorCode = "SNAPSHOT_UNREADABLE"
	// UnsupportedFormat indicates an unknown snapshot or report format
	UnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// StorageFailure indicates the run history store failed
	StorageFailure ErrorCode = "STORAGE_FAILURE"
	// RunNotFound indicates a stored run id does not exist
	RunNotFound ErrorCode = "RUN_NOT_FOUND"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// Error represents an mftfcheck error with code, message, and suggestions
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new Error with the default suggested fixes for its code
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or InternalError
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	InvalidRegistry: {
		{
			Type:        RunCommand,
			Command:     "mftfcheck snapshot save <corpus> -o /dev/stdout",
			Safe:        true,
			Description: "Inspect the loaded registry for entities without a kind",
		},
	},
	SnapshotUnreadable: {
		{
			Type:        RunCommand,
			Command:     "mftfcheck snapshot save <corpus> -o <file>",
			Safe:        true,
			Description: "Regenerate the snapshot from the corpus",
		},
	},
	ConfigInvalid: {
		{
			Type:        OpenDocs,
			Description: "Check .mftfcheck/config.json against the defaults printed by 'mftfcheck config'",
		},
	},
	StorageFailure: {
		{
			Type:        RunCommand,
			Command:     "mftfcheck compare --no-history",
			Safe:        true,
			Description: "Run without recording history",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

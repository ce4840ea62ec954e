package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 13000-13099: Submission intake errors
// 13100-13199: Check pipeline errors
// 13200-13299: Code storage errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError  ErrorCode = 10100
	RecordNotFound ErrorCode = 10101

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200
	CacheMiss  ErrorCode = 10201

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	RequiredFieldEmpty ErrorCode = 10303

	// Storage & queue errors (10400-10499)
	StorageError ErrorCode = 10400
	QueueError   ErrorCode = 10401

	// ========== Submission intake (13000-13099) ==========

	CheckNotFound         ErrorCode = 13000
	CodeTooLarge          ErrorCode = 13002
	StructureNotSupported ErrorCode = 13003

	// ========== Check pipeline (13100-13199) ==========

	CheckQueueFull      ErrorCode = 13100
	CheckSystemError    ErrorCode = 13101
	CompilationError    ErrorCode = 13102
	RuntimeError        ErrorCode = 13103
	TimeLimitExceeded   ErrorCode = 13104
	InstantiationFailed ErrorCode = 13107
	UnimplementedMethod ErrorCode = 13108
	ForbiddenImport     ErrorCode = 13109

	// ========== Code storage (13200-13299) ==========

	CodeNotFound   ErrorCode = 13200
	CodeSaveFailed ErrorCode = 13201
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	DatabaseError:  "Database operation failed",
	RecordNotFound: "Record not found in database",

	CacheError: "Cache operation failed",
	CacheMiss:  "Cache miss",

	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	RequiredFieldEmpty: "Required field is empty",

	StorageError: "Object storage operation failed",
	QueueError:   "Message queue operation failed",

	CheckNotFound:         "Check not found",
	CodeTooLarge:          "Code is too large",
	StructureNotSupported: "Structure kind not supported",

	CheckQueueFull:      "Check queue is full, please try again later",
	CheckSystemError:    "Check system error",
	CompilationError:    "Compilation error",
	RuntimeError:        "Runtime error",
	TimeLimitExceeded:   "Time limit exceeded",
	InstantiationFailed: "Structure cannot be instantiated",
	UnimplementedMethod: "Structure has unimplemented methods",
	ForbiddenImport:     "Import is not allowed",

	CodeNotFound:   "Saved code not found",
	CodeSaveFailed: "Failed to save code",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == CheckNotFound, c == CodeNotFound, c == RecordNotFound:
		return 404
	case c == TooManyRequests, c == CheckQueueFull:
		return 429
	case c == ServiceUnavailable:
		return 503
	case c == Timeout:
		return 504
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == StructureNotSupported, c == CodeTooLarge:
		return 400
	case c == CompilationError, c == InstantiationFailed, c == UnimplementedMethod,
		c == ForbiddenImport, c == RuntimeError, c == TimeLimitExceeded:
		return 422
	default:
		return 500
	}
}

// IsCandidateFault reports whether the code describes a defect in submitted code
// rather than a failure of the platform.
func (c ErrorCode) IsCandidateFault() bool {
	switch c {
	case CompilationError, InstantiationFailed, UnimplementedMethod, ForbiddenImport,
		RuntimeError, TimeLimitExceeded:
		return true
	}
	return false
}

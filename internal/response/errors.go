package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamLocked              ErrCode = "EXAM_LOCKED"
	ErrExamClosed              ErrCode = "EXAM_CLOSED"
	ErrJoinWindowNotOpen       ErrCode = "JOIN_WINDOW_NOT_OPEN"
	ErrJoinWindowClosed        ErrCode = "JOIN_WINDOW_CLOSED"
	ErrAlreadySubmitted        ErrCode = "ALREADY_SUBMITTED"
	ErrNotExamOwner            ErrCode = "NOT_EXAM_OWNER"
	ErrInvalidStatusTransition ErrCode = "INVALID_STATUS_TRANSITION"
	ErrQuestionsFrozen         ErrCode = "QUESTIONS_FROZEN"
	ErrResultsNotPublished     ErrCode = "RESULTS_NOT_PUBLISHED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You are not allowed to access this resource."
	case ErrPermissionDenied:
		return "Permission denied."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamLocked:
		return "This exam is locked."
	case ErrExamClosed:
		return "This exam has ended or was cancelled."
	case ErrJoinWindowNotOpen:
		return "The join window for this exam has not opened yet."
	case ErrJoinWindowClosed:
		return "The join window for this exam has closed."
	case ErrAlreadySubmitted:
		return "You have already submitted this exam."
	case ErrNotExamOwner:
		return "You do not own this exam."
	case ErrInvalidStatusTransition:
		return "The exam cannot move to the requested status."
	case ErrQuestionsFrozen:
		return "Questions can only be changed while the exam is locked and has no participants."
	case ErrResultsNotPublished:
		return "Results for this exam have not been published."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}

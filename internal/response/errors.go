package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrAdminAccessOnly    ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Class / Enrollment ────────────────────────────────────────────
	ErrActiveClassConflict ErrCode = "STUDENT_HAS_ACTIVE_CLASS"
	ErrClassNotActive      ErrCode = "CLASS_NOT_ACTIVE"
	ErrClassExpired        ErrCode = "CLASS_EXPIRED"
	ErrEnrollmentCascade   ErrCode = "ENROLLMENT_CASCADE_FAILED"

	// ─── Timetable ─────────────────────────────────────────────────────
	ErrTimetableConflict ErrCode = "TIMETABLE_CONFLICT"
	ErrInvalidTimeWindow ErrCode = "INVALID_TIME_WINDOW"

	// ─── Integrity ─────────────────────────────────────────────────────
	ErrConsistency ErrCode = "CONSISTENCY_VIOLATION"

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
		return "Email or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "Cannot delete: other records still depend on this one."

	// ─── Class / Enrollment ────────────────────────────────────────────
	case ErrActiveClassConflict:
		return "The student already belongs to an active class."
	case ErrClassNotActive:
		return "The class is not active."
	case ErrClassExpired:
		return "The class date window has ended."
	case ErrEnrollmentCascade:
		return "The enrollment cascade did not complete; a reconcile has been queued."

	// ─── Timetable ─────────────────────────────────────────────────────
	case ErrTimetableConflict:
		return "The slot overlaps existing timetable entries."
	case ErrInvalidTimeWindow:
		return "End time must be after start time."

	// ─── Integrity ─────────────────────────────────────────────────────
	case ErrConsistency:
		return "A data consistency violation was detected. Please contact an operator."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}

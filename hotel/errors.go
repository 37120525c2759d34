package hotel

import (
	"errors"

	"github.com/warp/hotel-engine/generic"
)

// =============================================================================
// ERROR KINDS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation: malformed or out-of-order input the user can correct.
	ErrValidation = errors.New("validation error")

	// ErrConflict: the request collides with existing state (room taken,
	// username taken).
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized: missing session or wrong credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInconsistent is returned when the first of two table writes
	// succeeded and the second did not. A pending intent remains and
	// Engine.Recover completes it.
	ErrInconsistent = errors.New("tables left inconsistent")
)

// =============================================================================
// REJECTIONS - User-facing refusals with a stable code
// =============================================================================

type RejectionCode string

const (
	CodeInvalidDateFormat    RejectionCode = "invalid_date_format"
	CodeInvalidDateOrder     RejectionCode = "invalid_date_order"
	CodePastCheckIn          RejectionCode = "past_check_in"
	CodeRoomUnavailable      RejectionCode = "room_unavailable"
	CodeIncompleteProfile    RejectionCode = "incomplete_profile"
	CodeNotLoggedIn          RejectionCode = "not_logged_in"
	CodeInvalidUsername      RejectionCode = "invalid_username"
	CodeInvalidPhone         RejectionCode = "invalid_phone"
	CodePhoneMismatch        RejectionCode = "phone_mismatch"
	CodeUsernameTaken        RejectionCode = "username_taken"
	CodeInvalidCredentials   RejectionCode = "invalid_credentials"
	CodeInvalidAdminPassword RejectionCode = "invalid_admin_password"
	CodePasswordTooShort     RejectionCode = "password_too_short"
	CodePasswordMismatch     RejectionCode = "password_mismatch"
	CodeBlankPassword        RejectionCode = "blank_password"
	CodeInvalidField         RejectionCode = "invalid_field"
)

// Rejection is a refusal surfaced verbatim to the caller. It unwraps to its
// kind (ErrValidation, ErrConflict or ErrUnauthorized).
type Rejection struct {
	Code    RejectionCode
	Kind    error
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func (r *Rejection) Unwrap() error { return r.Kind }

func reject(code RejectionCode, kind error, msg string) *Rejection {
	return &Rejection{Code: code, Kind: kind, Message: msg}
}

var (
	ErrInvalidDateFormat = reject(CodeInvalidDateFormat, ErrValidation, "Invalid date format. Use YYYY-MM-DD or DD/MM/YYYY.")
	ErrInvalidDateOrder  = reject(CodeInvalidDateOrder, ErrValidation, "Check-out date must be after check-in.")
	ErrPastCheckIn       = reject(CodePastCheckIn, ErrValidation, "Check-in date must be today or in the future.")
	ErrRoomUnavailable   = reject(CodeRoomUnavailable, ErrConflict, "Room is already booked for those dates.")
	ErrIncompleteProfile = reject(CodeIncompleteProfile, ErrValidation, "Please complete your profile before booking.")
	ErrNotLoggedIn       = reject(CodeNotLoggedIn, ErrUnauthorized, "Please login first to book a room.")

	ErrInvalidUsername      = reject(CodeInvalidUsername, ErrValidation, "Username must be 3-20 characters (letters, numbers, underscore only)")
	ErrInvalidPhone         = reject(CodeInvalidPhone, ErrValidation, "Phone must be 10-15 digits only")
	ErrPhoneMismatch        = reject(CodePhoneMismatch, ErrValidation, "Phone numbers don't match")
	ErrUsernameTaken        = reject(CodeUsernameTaken, ErrConflict, "Username already taken. Please choose another.")
	ErrInvalidCredentials   = reject(CodeInvalidCredentials, ErrUnauthorized, "Invalid username or phone number.")
	ErrInvalidAdminPassword = reject(CodeInvalidAdminPassword, ErrUnauthorized, "Invalid admin password.")
	ErrPasswordTooShort     = reject(CodePasswordTooShort, ErrValidation, "Password must be at least 6 characters long.")
	ErrPasswordMismatch     = reject(CodePasswordMismatch, ErrValidation, "Passwords do not match.")
	ErrBlankPassword        = reject(CodeBlankPassword, ErrValidation, "Password may not be blank.")
	ErrInvalidField         = reject(CodeInvalidField, ErrValidation, "Fields may not contain ':' or line breaks.")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// AsRejection extracts a Rejection from an error chain.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || generic.IsClientError(err)
}

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

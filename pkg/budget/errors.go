package budget

import "errors"

// Validation errors. Each is wrapped with detail and reported to the caller
// as-is.
var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidUnit      = errors.New("invalid unit")
	ErrInvalidStartDate = errors.New("invalid start date")
	ErrInvalidEndDate   = errors.New("invalid end date")
	ErrStartAfterEnd    = errors.New("start must be before end date")
)

var (
	// ErrUnauthenticated is returned before any storage access when the
	// caller has no identity.
	ErrUnauthenticated = errors.New("unauthenticated caller")

	// ErrOwnerNotFound is returned when the identity has no user record.
	ErrOwnerNotFound = errors.New("budget owner not found")

	// ErrNotificationFailed wraps a dispatch failure on the write path. The
	// budget has still been saved.
	ErrNotificationFailed = errors.New("budget alert notification failed")
)

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidUnit) ||
		errors.Is(err, ErrInvalidStartDate) ||
		errors.Is(err, ErrInvalidEndDate) ||
		errors.Is(err, ErrStartAfterEnd)
}

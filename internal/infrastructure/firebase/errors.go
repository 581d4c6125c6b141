package firebase

import (
	"errors"
	"strings"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
)

const (
	msgInvalidEmail       = "please enter a valid email"
	msgInvalidCredentials = "incorrect credentials, please try again"
	msgEmailExists        = "User already exist! Please sign in"
)

// AuthError carries the provider reason next to the message shown to the user.
type AuthError struct {
	Reason  string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// FriendlyMessage maps the three provider reasons users hit most often to readable text.
// Any other reason is returned as is.
func FriendlyMessage(reason string) string {
	switch normalizeReason(reason) {
	case "invalid-email":
		return msgInvalidEmail
	case "invalid-credential":
		return msgInvalidCredentials
	case "email-already-in-use":
		return msgEmailExists
	}
	return reason
}

func normalizeReason(reason string) string {
	r := strings.TrimPrefix(strings.TrimSpace(reason), "auth/")
	// Identity Toolkit appends details after a colon, e.g. "INVALID_EMAIL : ..."
	if i := strings.Index(r, " "); i > 0 {
		r = r[:i]
	}

	switch r {
	case "INVALID_EMAIL", "invalid-email":
		return "invalid-email"
	case "INVALID_LOGIN_CREDENTIALS", "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "invalid-credential":
		return "invalid-credential"
	case "EMAIL_EXISTS", "email-already-in-use", "email-already-exists":
		return "email-already-in-use"
	}
	return reason
}

func wrapAuthError(err error) error {
	if err == nil {
		return nil
	}

	reason := err.Error()
	var apiErr *googleapi.Error
	switch {
	case errors.As(err, &apiErr):
		reason = apiErr.Message
	case auth.IsEmailAlreadyExists(err):
		reason = "email-already-in-use"
	case auth.IsUserNotFound(err):
		reason = "invalid-credential"
	case strings.Contains(reason, "malformed email"):
		reason = "invalid-email"
	}

	return &AuthError{
		Reason:  reason,
		Message: FriendlyMessage(reason),
		Err:     err,
	}
}

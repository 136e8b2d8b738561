package sessions

import "errors"

var (
	// ErrSessionNotFound is returned for unknown session or participant ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session is past its expiry; the
	// session is evicted as a side effect of the access.
	ErrSessionExpired = errors.New("session has expired")
	// ErrSessionClosed is returned when joining a completed or cancelled session.
	ErrSessionClosed = errors.New("session is no longer accepting participants")
	// ErrSessionFull is returned when the participant limit is reached.
	ErrSessionFull = errors.New("session is full")
	// ErrNameTaken is returned when the requested display name is already in use.
	ErrNameTaken = errors.New("that name is already taken")
	// ErrParticipantNotFound is returned when the participant id is not in the session.
	ErrParticipantNotFound = errors.New("participant not found")
)

// ValidationError marks malformed or missing caller input. The message is
// safe to surface to users.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

package voicegate

import "errors"

var (
	// ErrProfileExists is returned by Enroll when the username already has a profile.
	ErrProfileExists = errors.New("profile already exists")
	// ErrInsufficientSamples is returned by Enroll when fewer than two supplied samples are valid.
	ErrInsufficientSamples = errors.New("not enough valid voice samples")
	// ErrInvalidUsername is returned when a username is empty or whitespace-only.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrNoProfiles is returned by Authenticate when no users are enrolled.
	ErrNoProfiles = errors.New("no enrolled profiles")
	// ErrLockedOut is returned while the caller's client key is inside a lockout window.
	ErrLockedOut = errors.New("client locked out")
	// ErrNoMatch is returned when no profile scored above the similarity threshold.
	ErrNoMatch = errors.New("no matching profile")
	// ErrDimensionMismatch is returned when embedding vector lengths are incompatible.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrExtractionFailed wraps failures of the external embedding provider.
	ErrExtractionFailed = errors.New("embedding extraction failed")
	// ErrPersistence wraps store flush and load failures.
	ErrPersistence = errors.New("persistence failure")
	// ErrUserNotFound is returned when an operation names an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound is returned when a session id does not resolve to a live session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenInvalid is returned when an identity token fails to parse or verify.
	ErrTokenInvalid = errors.New("invalid identity token")
	// ErrEngineNotReady is returned when a method is called on an unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

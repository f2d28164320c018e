// Package internal holds shared helpers that must not leak into the public
// API surface.
package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSessionID derives a session identifier from the username and the
// creation instant, with a random suffix so that two logins inside the same
// second never collide.
func NewSessionID(username string, at time.Time) string {
	suffix := uuid.NewString()
	if i := strings.IndexByte(suffix, '-'); i > 0 {
		suffix = suffix[:i]
	}
	return fmt.Sprintf("%s_%d_%s", username, at.Unix(), suffix)
}

// NormalizeUsername trims surrounding whitespace. An empty result means the
// username is unusable.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

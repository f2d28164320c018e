package voicegate

import (
	"context"
	"errors"
)

const (
	auditEventEnrollSuccess      = "enroll_success"
	auditEventEnrollFailure      = "enroll_failure"
	auditEventAuthSuccess        = "auth_success"
	auditEventAuthNoMatch        = "auth_no_match"
	auditEventAuthLockedOut      = "auth_locked_out"
	auditEventAuthRejectedInput  = "auth_rejected_input"
	auditEventSessionExpired     = "session_expired"
	auditEventLogout             = "logout"
	auditEventUserRemoved        = "user_removed"
	auditEventSessionCleanup     = "session_cleanup"
	auditEventPersistenceFailure = "persistence_failure"
)

// AuditErrorCode is the compact error classification carried in
// [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrProfileExists       AuditErrorCode = "profile_exists"
	auditErrInsufficientSamples AuditErrorCode = "insufficient_samples"
	auditErrInvalidUsername     AuditErrorCode = "invalid_username"
	auditErrNoProfiles          AuditErrorCode = "no_profiles"
	auditErrLockedOut           AuditErrorCode = "locked_out"
	auditErrNoMatch             AuditErrorCode = "no_match"
	auditErrDimensionMismatch   AuditErrorCode = "dimension_mismatch"
	auditErrExtractionFailed    AuditErrorCode = "extraction_failed"
	auditErrPersistence         AuditErrorCode = "persistence_failure"
	auditErrUserNotFound        AuditErrorCode = "user_not_found"
	auditErrSessionNotFound     AuditErrorCode = "session_not_found"
	auditErrInvalidToken        AuditErrorCode = "invalid_token"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	username string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Username:  username,
		SessionID: sessionID,
		ClientKey: clientKeyFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrProfileExists):
		return auditErrProfileExists
	case errors.Is(err, ErrInsufficientSamples):
		return auditErrInsufficientSamples
	case errors.Is(err, ErrInvalidUsername):
		return auditErrInvalidUsername
	case errors.Is(err, ErrNoProfiles):
		return auditErrNoProfiles
	case errors.Is(err, ErrLockedOut):
		return auditErrLockedOut
	case errors.Is(err, ErrNoMatch):
		return auditErrNoMatch
	case errors.Is(err, ErrDimensionMismatch):
		return auditErrDimensionMismatch
	case errors.Is(err, ErrExtractionFailed):
		return auditErrExtractionFailed
	case errors.Is(err, ErrPersistence):
		return auditErrPersistence
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	default:
		return auditErrInternal
	}
}

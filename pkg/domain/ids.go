// Package domain holds identifier and role types shared across the service.
//
// IDs are distinct uuid-backed types so a ReportID can never be passed where
// a UserID is expected. Construct them via the Parse functions at trust
// boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "patrimonio/pkg/domain-errors"
)

// ReportID identifies a site report.
type ReportID uuid.UUID

// UserID identifies a platform user.
type UserID uuid.UUID

// SessionID identifies a browsing session. Map offset memoization is keyed
// on it, so it must stay stable for the lifetime of one session.
type SessionID uuid.UUID

func (id ReportID) String() string  { return uuid.UUID(id).String() }
func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }

// NewReportID generates a fresh report identifier.
func NewReportID() ReportID { return ReportID(uuid.New()) }

// NewSessionID generates a fresh session identifier.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// ParseReportID validates and constructs a ReportID from external input.
func ParseReportID(s string) (ReportID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ReportID{}, err
	}
	return ReportID(u), nil
}

// ParseUserID validates and constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseSessionID validates and constructs a SessionID from external input.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(u), nil
}

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil uuid")
	}
	return u, nil
}

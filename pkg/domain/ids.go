// Package domain holds the typed identifiers and principal types shared
// across features. IDs are distinct types over uuid.UUID so the compiler
// rejects accidental cross-assignment (a manager id can never be handed to a
// function expecting a feedback id).
package domain

import (
	"github.com/google/uuid"

	dErrors "teampulse/pkg/domain-errors"
)

type (
	// UserID identifies any directory principal: admin, manager or employee.
	UserID uuid.UUID

	// TeamID identifies a team in the directory.
	TeamID uuid.UUID

	// FeedbackID identifies a feedback record.
	FeedbackID uuid.UUID

	// EntryID identifies an audit-trail entry.
	EntryID uuid.UUID
)

// parseUUID enforces the boundary invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, kind+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, kind+" is not a valid identifier")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, kind+" must not be the nil identifier")
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

func ParseTeamID(raw string) (TeamID, error) {
	parsed, err := parseUUID(raw, "team id")
	return TeamID(parsed), err
}

func ParseFeedbackID(raw string) (FeedbackID, error) {
	parsed, err := parseUUID(raw, "feedback id")
	return FeedbackID(parsed), err
}

func ParseEntryID(raw string) (EntryID, error) {
	parsed, err := parseUUID(raw, "entry id")
	return EntryID(parsed), err
}

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TeamID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id FeedbackID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id TeamID) String() string     { return uuid.UUID(id).String() }
func (id FeedbackID) String() string { return uuid.UUID(id).String() }
func (id EntryID) String() string    { return uuid.UUID(id).String() }

// MarshalText renders ids in canonical UUID form so JSON carries strings, not
// byte arrays. Named types do not inherit uuid.UUID's marshaling, so each id
// type declares its own.
func (id UserID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id TeamID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id FeedbackID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EntryID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(data []byte) error {
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *TeamID) UnmarshalText(data []byte) error {
	parsed, err := ParseTeamID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *FeedbackID) UnmarshalText(data []byte) error {
	parsed, err := ParseFeedbackID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *EntryID) UnmarshalText(data []byte) error {
	parsed, err := ParseEntryID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewTeamID returns a fresh random TeamID.
func NewTeamID() TeamID { return TeamID(uuid.New()) }

// NewFeedbackID returns a fresh random FeedbackID.
func NewFeedbackID() FeedbackID { return FeedbackID(uuid.New()) }

// NewEntryID returns a fresh random EntryID.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

package domain

import "github.com/google/uuid"

// Typed IDs keep the different record families from being mixed up at call
// sites. They are plain UUIDs underneath.
type (
	UserID       uuid.UUID
	EntryID      uuid.UUID
	SubmissionID uuid.UUID
	FundItemID   uuid.UUID
)

// DestinationID is a destination country code, e.g. "TH" or "SG".
type DestinationID string

func NewUserID() UserID             { return UserID(uuid.New()) }
func NewEntryID() EntryID           { return EntryID(uuid.New()) }
func NewSubmissionID() SubmissionID { return SubmissionID(uuid.New()) }
func NewFundItemID() FundItemID     { return FundItemID(uuid.New()) }

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id EntryID) String() string      { return uuid.UUID(id).String() }
func (id SubmissionID) String() string { return uuid.UUID(id).String() }
func (id FundItemID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id FundItemID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }

// The IDs travel through JSON as their canonical UUID strings.
func (id UserID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id EntryID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id SubmissionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id FundItemID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *EntryID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = EntryID(u)
	return nil
}

func (id *SubmissionID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = SubmissionID(u)
	return nil
}

func (id *FundItemID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = FundItemID(u)
	return nil
}

// ParseEntryID parses the textual form used in URLs.
func ParseEntryID(s string) (EntryID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return EntryID{}, err
	}
	return EntryID(u), nil
}

// ParseSubmissionID parses the textual form stored in the database.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SubmissionID{}, err
	}
	return SubmissionID(u), nil
}

// ParseUserID parses the textual form carried in JWT claims.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

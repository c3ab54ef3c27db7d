package student

import (
	"context"
	"errors"
)

var (
	// errors
	ErrNotFound        = errors.New("student not found")
	ErrProfileNotFound = errors.New("student profile not found")
)

type (
	// Store persists whole roster snapshots in a backing store.
	Store interface {
		// InitSchema prepares the store. It must be idempotent.
		InitSchema(ctx context.Context) error
		// LoadAll returns every record with its marks.
		LoadAll(ctx context.Context) ([]Record, error)
		// SaveAll makes the store hold exactly `records`: records missing from the snapshot are removed
		// and the marks of every record are fully replaced.
		SaveAll(ctx context.Context, records []Record) error
	}

	ProfileStore interface {
		// GetProfile returns ErrProfileNotFound if the student has no profile.
		GetProfile(ctx context.Context, studentID string) (Profile, error)
		// UpsertProfile inserts `p`, or updates the stored profile with the set fields of `p` only.
		// It returns ErrNotFound if the student does not exist.
		UpsertProfile(ctx context.Context, p Profile) (Profile, error)
		// UpdateProfile writes the fields of `pu` (clearing those with empty values) to an existing profile.
		UpdateProfile(ctx context.Context, studentID string, pu ProfileUpdate) (Profile, error)
	}
)

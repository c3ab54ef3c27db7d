// Package storage chooses between the database and the JSON fallback file.
package storage

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	filestore "github.com/trezcool/gradebook/storage/file"
)

// ErrProfilesUnavailable is returned by the profile operations once the adapter uses the file.
var ErrProfilesUnavailable = errors.New("student profiles require the database")

type Mode int

const (
	ModeDatabasePreferred Mode = iota
	ModeFileFallback
)

func (m Mode) String() string {
	switch m {
	case ModeDatabasePreferred:
		return "database"
	case ModeFileFallback:
		return "file"
	}
	return "unknown"
}

// Adapter loads and saves whole rosters. It prefers `db` and falls back to `file`:
// a failed Load switches the adapter to the file for good, a failed Save falls back for that call only.
type Adapter struct {
	db       student.Store
	profiles student.ProfileStore
	file     *filestore.Store
	logger   core.Logger

	mutex sync.Mutex
	mode  Mode
}

// NewAdapter returns an adapter in ModeDatabasePreferred, or in ModeFileFallback when `db` is nil.
func NewAdapter(db student.Store, profiles student.ProfileStore, file *filestore.Store, logger core.Logger) *Adapter {
	a := &Adapter{db: db, profiles: profiles, file: file, logger: logger}
	if db == nil {
		a.mode = ModeFileFallback
	}
	return a
}

func (a *Adapter) Mode() Mode {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.mode
}

func (a *Adapter) FilePath() string { return a.file.Path() }

func (a *Adapter) fallBack() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.mode = ModeFileFallback
}

func (a *Adapter) loadDB(ctx context.Context) ([]student.Record, error) {
	if err := a.db.InitSchema(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing schema")
	}
	return a.db.LoadAll(ctx)
}

// Load returns every stored record.
func (a *Adapter) Load(ctx context.Context) ([]student.Record, error) {
	if a.Mode() == ModeDatabasePreferred {
		records, err := a.loadDB(ctx)
		if err == nil {
			return records, nil
		}
		a.logger.Warn("database unavailable, using the data file", "path", a.file.Path(), err)
		a.fallBack()
	}

	records, err := a.file.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading data file")
	}
	return records, nil
}

// Save makes the store hold exactly `records`.
func (a *Adapter) Save(ctx context.Context, records []student.Record) error {
	if a.Mode() == ModeDatabasePreferred {
		err := a.db.SaveAll(ctx, records)
		if err == nil {
			return nil
		}
		a.logger.Warn("saving to the database failed, writing the data file", "path", a.file.Path(), err)
	}

	if err := a.file.Save(records); err != nil {
		return errors.Wrap(err, "saving data file")
	}
	return nil
}

func (a *Adapter) profileStore() (student.ProfileStore, error) {
	if a.profiles == nil || a.Mode() == ModeFileFallback {
		return nil, ErrProfilesUnavailable
	}
	return a.profiles, nil
}

func (a *Adapter) GetProfile(ctx context.Context, studentID string) (student.Profile, error) {
	ps, err := a.profileStore()
	if err != nil {
		return student.Profile{}, err
	}
	return ps.GetProfile(ctx, studentID)
}

func (a *Adapter) UpsertProfile(ctx context.Context, p student.Profile) (student.Profile, error) {
	ps, err := a.profileStore()
	if err != nil {
		return student.Profile{}, err
	}
	return ps.UpsertProfile(ctx, p)
}

// UpdateProfile writes the known fields of `raw` and returns the field names it ignored.
// A student without a profile gets one.
func (a *Adapter) UpdateProfile(ctx context.Context, studentID string, raw map[string]string) (student.Profile, []string, error) {
	ps, err := a.profileStore()
	if err != nil {
		return student.Profile{}, nil, err
	}

	pu, ignored := student.NewProfileUpdate(raw)
	p, err := ps.UpdateProfile(ctx, studentID, pu)
	if errors.Is(err, student.ErrProfileNotFound) {
		np := student.Profile{StudentID: studentID}
		if err = pu.Apply(&np); err != nil {
			return student.Profile{}, ignored, err
		}
		p, err = ps.UpsertProfile(ctx, np)
	}
	if err != nil {
		return student.Profile{}, ignored, err
	}
	return p, ignored, nil
}

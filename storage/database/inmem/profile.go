package inmemdb

import (
	"context"

	"github.com/trezcool/gradebook/core/student"
)

type profileStore struct {
	db *DB
}

var _ student.ProfileStore = (*profileStore)(nil) // interface compliance check

func NewProfileStore(db *DB) *profileStore {
	return &profileStore{db: db}
}

func (s *profileStore) GetProfile(ctx context.Context, studentID string) (student.Profile, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	p, ok := s.db.profiles[studentID]
	if !ok {
		return student.Profile{}, student.ErrProfileNotFound
	}
	return p, nil
}

func (s *profileStore) UpsertProfile(ctx context.Context, p student.Profile) (student.Profile, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	if s.db.saveErr != nil {
		return student.Profile{}, s.db.saveErr
	}
	if _, ok := s.db.students[p.StudentID]; !ok {
		return student.Profile{}, student.ErrNotFound
	}

	stored, ok := s.db.profiles[p.StudentID]
	if !ok {
		s.db.profiles[p.StudentID] = p
		return p, nil
	}

	merged := stored.Merge(p)
	s.db.profiles[p.StudentID] = merged
	return merged, nil
}

func (s *profileStore) UpdateProfile(ctx context.Context, studentID string, pu student.ProfileUpdate) (student.Profile, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	if s.db.saveErr != nil {
		return student.Profile{}, s.db.saveErr
	}
	p, ok := s.db.profiles[studentID]
	if !ok {
		return student.Profile{}, student.ErrProfileNotFound
	}
	if err := pu.Apply(&p); err != nil {
		return student.Profile{}, err
	}
	s.db.profiles[studentID] = p
	return p, nil
}

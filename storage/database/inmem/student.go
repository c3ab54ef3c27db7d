package inmemdb

import (
	"context"

	"github.com/trezcool/gradebook/core/student"
)

type studentStore struct {
	db *DB
}

var _ student.Store = (*studentStore)(nil) // interface compliance check

func NewStudentStore(db *DB) *studentStore {
	return &studentStore{db: db}
}

func (s *studentStore) InitSchema(ctx context.Context) error {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()
	return s.db.initErr
}

func (s *studentStore) LoadAll(ctx context.Context) ([]student.Record, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	s.db.loads++
	if s.db.initErr != nil {
		return nil, s.db.initErr
	}
	if s.db.loadErr != nil {
		return nil, s.db.loadErr
	}

	records := make([]student.Record, 0, len(s.db.students))
	for _, rec := range s.db.students {
		records = append(records, rec.Clone())
	}
	student.SortByID(records)
	return records, nil
}

func (s *studentStore) SaveAll(ctx context.Context, records []student.Record) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	s.db.saves++
	if s.db.saveErr != nil {
		return s.db.saveErr
	}

	table := make(map[string]student.Record, len(records))
	for _, rec := range records {
		rec = rec.Clone()
		if rec.Marks == nil {
			rec.Marks = make(student.Marks)
		}
		table[rec.ID] = rec
	}
	// profiles of removed students go with them
	for id := range s.db.profiles {
		if _, ok := table[id]; !ok {
			delete(s.db.profiles, id)
		}
	}
	s.db.students = table
	return nil
}

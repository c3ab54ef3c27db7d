package inmemdb

import (
	"sync"

	"github.com/trezcool/gradebook/core/student"
)

type (
	// DB is an in-memory stand-in for the database. Failures can be injected per operation.
	DB struct {
		mutex    sync.RWMutex
		students map[string]student.Record
		profiles map[string]student.Profile

		initErr error
		loadErr error
		saveErr error

		loads int
		saves int
	}
)

func Open() *DB {
	return &DB{
		students: make(map[string]student.Record),
		profiles: make(map[string]student.Profile),
	}
}

// FailInit makes InitSchema return `err` (nil restores normal behavior).
func (db *DB) FailInit(err error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.initErr = err
}

// FailLoad makes LoadAll return `err` (nil restores normal behavior).
func (db *DB) FailLoad(err error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.loadErr = err
}

// FailSave makes SaveAll and the profile writes return `err` (nil restores normal behavior).
func (db *DB) FailSave(err error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.saveErr = err
}

// Calls returns how many LoadAll and SaveAll calls reached the DB.
func (db *DB) Calls() (loads, saves int) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.loads, db.saves
}

// Package filestore keeps the roster in a JSON file when the database is unavailable.
package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
)

// entry is one element of the file's top-level array; missing fields default to empty.
// Marks may be numbers or numeric strings.
type entry struct {
	StudentID string        `json:"student_id"`
	Name      string        `json:"name"`
	Marks     student.Marks `json:"marks_by_subject"`
}

type Store struct {
	path   string
	logger core.Logger
}

func NewStore(path string, logger core.Logger) *Store {
	return &Store{path: path, logger: logger}
}

func (s *Store) Path() string { return s.path }

// Load returns the records of the file, an empty list if it does not exist,
// or a *core.FormatError if it is not a JSON array. Malformed entries are skipped.
func (s *Store) Load() ([]student.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []student.Record{}, nil
		}
		return nil, errors.Wrapf(err, "reading %s", s.path)
	}
	return Decode(data, s.path, s.logger)
}

// Decode parses a JSON array of records. `source` names the input in errors and warnings.
func Decode(data []byte, source string, logger core.Logger) ([]student.Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.NewFormatError(source, errors.Wrap(err, "expected a JSON array of students"))
	}
	if raw == nil {
		// `null`
		return nil, core.NewFormatError(source, errors.New("expected a JSON array of students"))
	}

	records := make([]student.Record, 0, len(raw))
	for i, msg := range raw {
		rec, err := decodeEntry(msg)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping malformed student entry", "source", source, "index", i, "error", err)
			}
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeEntry(msg json.RawMessage) (student.Record, error) {
	var e entry
	if err := json.Unmarshal(msg, &e); err != nil {
		return student.Record{}, err
	}
	// a record cannot exist without an identifier
	if core.CleanString(e.StudentID) == "" {
		return student.Record{}, errors.New("missing student_id")
	}
	marks := make(student.Marks, len(e.Marks))
	for subj, mark := range e.Marks {
		marks[subj] = mark
	}
	return student.Record{ID: e.StudentID, Name: e.Name, Marks: marks}, nil
}

// Encode renders records as an indented JSON array sorted by identifier.
func Encode(records []student.Record) ([]byte, error) {
	sorted := make([]student.Record, len(records))
	copy(sorted, records)
	student.SortByID(sorted)

	entries := make([]entry, 0, len(sorted))
	for _, rec := range sorted {
		marks := rec.Marks
		if marks == nil {
			marks = student.Marks{}
		}
		entries = append(entries, entry{StudentID: rec.ID, Name: rec.Name, Marks: marks})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding students")
	}
	return append(data, '\n'), nil
}

// Save replaces the file content with `records`.
func (s *Store) Save(records []student.Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	return WriteFileAtomic(s.path, data)
}

// WriteFileAtomic writes `data` to a temp file next to `path` and renames it over `path`,
// creating the parent directory if needed.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrapf(err, "syncing %s", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "renaming to %s", path)
	}
	return nil
}

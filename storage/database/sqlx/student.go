package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/storage/database"
)

type studentRow struct {
	StudentID string `db:"student_id"`
	Name      string `db:"name"`
}

type markRow struct {
	StudentID string  `db:"student_id"`
	Subject   string  `db:"subject"`
	Marks     float64 `db:"marks"`
}

type studentStore struct {
	db      *sqlx.DB
	timeout time.Duration
	logger  core.Logger
}

var _ student.Store = (*studentStore)(nil) // interface compliance check

func NewStudentStore(db *sqlx.DB, queryTimeout time.Duration, logger core.Logger) *studentStore {
	return &studentStore{db: db, timeout: queryTimeout, logger: logger}
}

func (s *studentStore) InitSchema(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return database.Migrate(ctx, s.db, s.logger)
}

func (s *studentStore) LoadAll(ctx context.Context) ([]student.Record, error) {
	var records []student.Record
	err := database.WithTx(ctx, s.db, s.timeout, func(ctx context.Context, tx *sqlx.Tx) error {
		var students []studentRow
		if err := tx.SelectContext(ctx, &students,
			`SELECT student_id, name FROM students ORDER BY student_id`); err != nil {
			return errors.Wrap(err, "selecting students")
		}

		var marks []markRow
		if err := tx.SelectContext(ctx, &marks,
			`SELECT student_id, subject, marks FROM student_marks ORDER BY student_id, subject`); err != nil {
			return errors.Wrap(err, "selecting marks")
		}

		bySID := make(map[string]student.Marks, len(students))
		for _, m := range marks {
			if bySID[m.StudentID] == nil {
				bySID[m.StudentID] = make(student.Marks)
			}
			bySID[m.StudentID][m.Subject] = m.Marks
		}

		records = make([]student.Record, 0, len(students))
		for _, st := range students {
			rec := student.Record{ID: st.StudentID, Name: st.Name, Marks: bySID[st.StudentID]}
			if rec.Marks == nil {
				rec.Marks = make(student.Marks)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "loading students")
	}
	return records, nil
}

func (s *studentStore) SaveAll(ctx context.Context, records []student.Record) error {
	err := database.WithTx(ctx, s.db, s.timeout, func(ctx context.Context, tx *sqlx.Tx) error {
		var stored []string
		if err := tx.SelectContext(ctx, &stored, `SELECT student_id FROM students`); err != nil {
			return errors.Wrap(err, "selecting student ids")
		}

		keep := make(map[string]struct{}, len(records))
		for _, rec := range records {
			keep[rec.ID] = struct{}{}
		}
		var removed []string
		for _, id := range stored {
			if _, ok := keep[id]; !ok {
				removed = append(removed, id)
			}
		}
		if len(removed) > 0 {
			// marks and profiles cascade
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM students WHERE student_id = ANY($1)`, pq.Array(removed)); err != nil {
				return errors.Wrap(err, "deleting removed students")
			}
		}

		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO students (student_id, name) VALUES ($1, $2)
				ON CONFLICT (student_id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()`,
				rec.ID, rec.Name); err != nil {
				return errors.Wrapf(err, "upserting student %s", rec.ID)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM student_marks WHERE student_id = $1`, rec.ID); err != nil {
				return errors.Wrapf(err, "clearing marks of %s", rec.ID)
			}
			for _, subj := range rec.Marks.Subjects() {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO student_marks (student_id, subject, marks) VALUES ($1, $2, $3)`,
					rec.ID, subj, rec.Marks[subj]); err != nil {
					return errors.Wrapf(err, "inserting %s mark of %s", subj, rec.ID)
				}
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "saving students")
	}
	return nil
}

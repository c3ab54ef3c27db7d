package boiledrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/storage/database"
)

const pqForeignKeyViolation = "23503"

type profileRow struct {
	StudentID        string       `boil:"student_id"`
	PhotoPath        null.String  `boil:"photo_path"`
	DateOfBirth      null.String  `boil:"date_of_birth"`
	Gender           null.String  `boil:"gender"`
	BloodGroup       null.String  `boil:"blood_group"`
	Religion         null.String  `boil:"religion"`
	Nationality      null.String  `boil:"nationality"`
	Phone            null.String  `boil:"phone"`
	Email            null.String  `boil:"email"`
	Address          null.String  `boil:"address"`
	EmergencyContact null.String  `boil:"emergency_contact"`
	Session          null.String  `boil:"session"`
	Department       null.String  `boil:"department"`
	Semester         null.String  `boil:"semester"`
	PreviousCGPA     null.Float64 `boil:"previous_cgpa"`
	FatherName       null.String  `boil:"father_name"`
	FatherOccupation null.String  `boil:"father_occupation"`
	FatherPhone      null.String  `boil:"father_phone"`
	MotherName       null.String  `boil:"mother_name"`
	MotherOccupation null.String  `boil:"mother_occupation"`
	MotherPhone      null.String  `boil:"mother_phone"`
}

// profile columns, in student.ProfileFields order
var profileColumns = func() []string {
	cols := make([]string, 0, len(student.ProfileFields))
	for _, f := range student.ProfileFields {
		cols = append(cols, string(f))
	}
	return cols
}()

var selectColumns = "student_id, " + strings.Join(profileColumns, ", ")

type profileStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

var _ student.ProfileStore = (*profileStore)(nil) // interface compliance check

func NewProfileStore(db *sqlx.DB, queryTimeout time.Duration) *profileStore {
	return &profileStore{db: db, timeout: queryTimeout}
}

func (s profileStore) boil(p student.Profile) profileRow {
	return profileRow{
		StudentID:        p.StudentID,
		PhotoPath:        p.PhotoPath,
		DateOfBirth:      p.DateOfBirth,
		Gender:           p.Gender,
		BloodGroup:       p.BloodGroup,
		Religion:         p.Religion,
		Nationality:      p.Nationality,
		Phone:            p.Phone,
		Email:            p.Email,
		Address:          p.Address,
		EmergencyContact: p.EmergencyContact,
		Session:          p.Session,
		Department:       p.Department,
		Semester:         p.Semester,
		PreviousCGPA:     p.PreviousCGPA,
		FatherName:       p.FatherName,
		FatherOccupation: p.FatherOccupation,
		FatherPhone:      p.FatherPhone,
		MotherName:       p.MotherName,
		MotherOccupation: p.MotherOccupation,
		MotherPhone:      p.MotherPhone,
	}
}

func (s profileStore) unboil(row profileRow) student.Profile {
	return student.Profile{
		StudentID:        row.StudentID,
		PhotoPath:        row.PhotoPath,
		DateOfBirth:      row.DateOfBirth,
		Gender:           row.Gender,
		BloodGroup:       row.BloodGroup,
		Religion:         row.Religion,
		Nationality:      row.Nationality,
		Phone:            row.Phone,
		Email:            row.Email,
		Address:          row.Address,
		EmergencyContact: row.EmergencyContact,
		Session:          row.Session,
		Department:       row.Department,
		Semester:         row.Semester,
		PreviousCGPA:     row.PreviousCGPA,
		FatherName:       row.FatherName,
		FatherOccupation: row.FatherOccupation,
		FatherPhone:      row.FatherPhone,
		MotherName:       row.MotherName,
		MotherOccupation: row.MotherOccupation,
		MotherPhone:      row.MotherPhone,
	}
}

// args returns the row values in `selectColumns` order.
func (row profileRow) args() []interface{} {
	return []interface{}{
		row.StudentID, row.PhotoPath, row.DateOfBirth, row.Gender, row.BloodGroup, row.Religion, row.Nationality,
		row.Phone, row.Email, row.Address, row.EmergencyContact,
		row.Session, row.Department, row.Semester, row.PreviousCGPA,
		row.FatherName, row.FatherOccupation, row.FatherPhone,
		row.MotherName, row.MotherOccupation, row.MotherPhone,
	}
}

// trapNoRowsErr maps psql "no rows" err to student.ErrProfileNotFound
func (s profileStore) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return student.ErrProfileNotFound
	}
	return errors.Wrap(err, msg)
}

func (s profileStore) get(ctx context.Context, tx *sqlx.Tx, studentID string, lock bool) (profileRow, error) {
	q := fmt.Sprintf(`SELECT %s FROM student_profiles WHERE student_id = $1`, selectColumns)
	if lock {
		q += " FOR UPDATE"
	}
	var row profileRow
	if err := queries.Raw(q, studentID).Bind(ctx, tx, &row); err != nil {
		return profileRow{}, s.trapNoRowsErr(err, "selecting profile")
	}
	return row, nil
}

func (s profileStore) GetProfile(ctx context.Context, studentID string) (student.Profile, error) {
	var row profileRow
	err := database.WithTx(ctx, s.db, s.timeout, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		row, err = s.get(ctx, tx, studentID, false)
		return err
	})
	if err != nil {
		return student.Profile{}, err
	}
	return s.unboil(row), nil
}

func (s profileStore) UpsertProfile(ctx context.Context, p student.Profile) (student.Profile, error) {
	placeholders := make([]string, 0, len(profileColumns)+1)
	for i := 1; i <= len(profileColumns)+1; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
	}
	sets := make([]string, 0, len(profileColumns)+1)
	for _, col := range profileColumns {
		// unset values keep the stored ones
		sets = append(sets, fmt.Sprintf("%s = COALESCE(EXCLUDED.%s, student_profiles.%s)", col, col, col))
	}
	sets = append(sets, "updated_at = now()")

	q := fmt.Sprintf(`
		INSERT INTO student_profiles (%s) VALUES (%s)
		ON CONFLICT (student_id) DO UPDATE SET %s
		RETURNING %s`,
		selectColumns, strings.Join(placeholders, ", "), strings.Join(sets, ", "), selectColumns)

	var row profileRow
	err := database.WithTx(ctx, s.db, s.timeout, func(ctx context.Context, tx *sqlx.Tx) error {
		return queries.Raw(q, s.boil(p).args()...).Bind(ctx, tx, &row)
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return student.Profile{}, student.ErrNotFound
		}
		return student.Profile{}, errors.Wrap(err, "upserting profile")
	}
	return s.unboil(row), nil
}

func (s profileStore) UpdateProfile(ctx context.Context, studentID string, pu student.ProfileUpdate) (student.Profile, error) {
	var row profileRow
	err := database.WithTx(ctx, s.db, s.timeout, func(ctx context.Context, tx *sqlx.Tx) error {
		stored, err := s.get(ctx, tx, studentID, true)
		if err != nil {
			return err
		}

		p := s.unboil(stored)
		if err = pu.Apply(&p); err != nil {
			return err
		}

		fields := pu.Fields()
		if len(fields) == 0 {
			row = stored
			return nil
		}
		updated := s.boil(p)
		values := updated.args()
		sets := make([]string, 0, len(fields)+1)
		args := make([]interface{}, 0, len(fields)+1)
		args = append(args, studentID)
		for _, f := range fields {
			// column names come from the known field list only
			for i, col := range profileColumns {
				if col == string(f) {
					args = append(args, values[i+1])
					sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
					break
				}
			}
		}
		sets = append(sets, "updated_at = now()")

		q := fmt.Sprintf(`UPDATE student_profiles SET %s WHERE student_id = $1 RETURNING %s`,
			strings.Join(sets, ", "), selectColumns)
		if err = queries.Raw(q, args...).Bind(ctx, tx, &row); err != nil {
			return s.trapNoRowsErr(err, "updating profile")
		}
		return nil
	})
	if err != nil {
		return student.Profile{}, err
	}
	return s.unboil(row), nil
}

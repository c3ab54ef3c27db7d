package boiledrepos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core/student"
	sqlxrepos "github.com/trezcool/gradebook/storage/database/sqlx"
	"github.com/trezcool/gradebook/tests"
)

func TestProfileStore(t *testing.T) {
	db, conf := tests.PrepareDB(t)
	ctx := context.Background()

	students := sqlxrepos.NewStudentStore(db, conf.Database.QueryTimeout, &tests.Logger{})
	require.NoError(t, students.SaveAll(ctx, []student.Record{tests.NewRecord("S001", "Jane Doe", nil)}))
	store := NewProfileStore(db, conf.Database.QueryTimeout)

	_, err := store.GetProfile(ctx, "S001")
	assert.ErrorIs(t, err, student.ErrProfileNotFound)
	_, err = store.UpdateProfile(ctx, "S001", student.ProfileUpdate{student.FieldGender: "Female"})
	assert.ErrorIs(t, err, student.ErrProfileNotFound)
	_, err = store.UpsertProfile(ctx, student.Profile{StudentID: "S404"})
	assert.ErrorIs(t, err, student.ErrNotFound)

	p, err := store.UpsertProfile(ctx, student.Profile{
		StudentID:    "S001",
		Gender:       null.StringFrom("Female"),
		DateOfBirth:  null.StringFrom("2001-02-03"),
		PreviousCGPA: null.Float64From(3.75),
	})
	require.NoError(t, err)
	assert.Equal(t, "2001-02-03", p.DateOfBirth.String)

	// unset fields keep their stored values
	p, err = store.UpsertProfile(ctx, student.Profile{StudentID: "S001", Department: null.StringFrom("Physics")})
	require.NoError(t, err)
	assert.Equal(t, "Female", p.Gender.String)
	assert.Equal(t, "Physics", p.Department.String)
	assert.Equal(t, 3.75, p.PreviousCGPA.Float64)

	p, err = store.UpdateProfile(ctx, "S001", student.ProfileUpdate{student.FieldGender: "", student.FieldPhone: "555"})
	require.NoError(t, err)
	assert.False(t, p.Gender.Valid)
	assert.Equal(t, "555", p.Phone.String)

	got, err := store.GetProfile(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	// profiles go with their student
	require.NoError(t, students.SaveAll(ctx, nil))
	_, err = store.GetProfile(ctx, "S001")
	assert.ErrorIs(t, err, student.ErrProfileNotFound)
}

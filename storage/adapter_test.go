package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core/student"
	inmemdb "github.com/trezcool/gradebook/storage/database/inmem"
	filestore "github.com/trezcool/gradebook/storage/file"
	"github.com/trezcool/gradebook/tests"
)

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func newTestAdapter(t *testing.T) (*Adapter, *inmemdb.DB, *tests.Logger) {
	t.Helper()
	db := inmemdb.Open()
	logger := &tests.Logger{}
	file := filestore.NewStore(filepath.Join(t.TempDir(), "data", "students.json"), logger)
	return NewAdapter(inmemdb.NewStudentStore(db), inmemdb.NewProfileStore(db), file, logger), db, logger
}

func sampleRecords() []student.Record {
	return []student.Record{
		tests.NewRecord("S001", "Jane Doe", map[string]float64{"Mathematics": 90, "English": 80}),
		tests.NewRecord("S002", "John Smith", map[string]float64{"Mathematics": 55}),
	}
}

func TestAdapter_DatabaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, db, logger := newTestAdapter(t)
	assert.Equal(t, ModeDatabasePreferred, a.Mode())

	require.NoError(t, a.Save(ctx, sampleRecords()))
	got, err := a.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, sampleRecords(), got)
	assert.Equal(t, ModeDatabasePreferred, a.Mode())
	assert.Zero(t, logger.Count("WARN"))
	_, err = os.Stat(a.FilePath())
	assert.True(t, os.IsNotExist(err), "the data file must not be written in database mode")

	loads, saves := db.Calls()
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, saves)
}

func TestAdapter_SaveRemovesMissingRecords(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestAdapter(t)

	records := sampleRecords()
	require.NoError(t, a.Save(ctx, records))
	require.NoError(t, a.Save(ctx, records[:1]))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, records[:1], got)
}

func TestAdapter_LoadFallbackIsSticky(t *testing.T) {
	ctx := context.Background()
	a, db, logger := newTestAdapter(t)
	db.FailInit(errConnRefused)

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "a missing data file loads as empty")
	assert.Equal(t, ModeFileFallback, a.Mode())
	assert.Equal(t, 1, logger.Count("WARN"))

	// the database is back but the adapter stays on the file
	db.FailInit(nil)
	require.NoError(t, a.Save(ctx, sampleRecords()))
	got, err = a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
	assert.Equal(t, ModeFileFallback, a.Mode())

	_, saves := db.Calls()
	assert.Zero(t, saves)
}

func TestAdapter_SaveFallbackIsPerCall(t *testing.T) {
	ctx := context.Background()
	a, db, logger := newTestAdapter(t)

	db.FailSave(errConnRefused)
	require.NoError(t, a.Save(ctx, sampleRecords()))
	assert.Equal(t, ModeDatabasePreferred, a.Mode())
	assert.Equal(t, 1, logger.Count("WARN"))
	assert.FileExists(t, a.FilePath())

	db.FailSave(nil)
	require.NoError(t, a.Save(ctx, sampleRecords()[:1]))
	_, saves := db.Calls()
	assert.Equal(t, 2, saves)

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords()[:1], got)
}

func TestAdapter_FileOnly(t *testing.T) {
	ctx := context.Background()
	logger := &tests.Logger{}
	path := filepath.Join(t.TempDir(), "students.json")
	a := NewAdapter(nil, nil, filestore.NewStore(path, logger), logger)
	assert.Equal(t, ModeFileFallback, a.Mode())
	assert.Equal(t, "file", a.Mode().String())

	require.NoError(t, a.Save(ctx, sampleRecords()))
	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)

	_, err = a.GetProfile(ctx, "S001")
	assert.ErrorIs(t, err, ErrProfilesUnavailable)
	_, _, err = a.UpdateProfile(ctx, "S001", map[string]string{"gender": "F"})
	assert.ErrorIs(t, err, ErrProfilesUnavailable)
}

func TestAdapter_LoadBadFile(t *testing.T) {
	ctx := context.Background()
	logger := &tests.Logger{}
	path := filepath.Join(t.TempDir(), "students.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"student_id": "S001"}`), 0o644))

	a := NewAdapter(nil, nil, filestore.NewStore(path, logger), logger)
	_, err := a.Load(ctx)
	require.Error(t, err)
}

func TestAdapter_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestAdapter(t)
	require.NoError(t, a.Save(ctx, sampleRecords()))

	_, err := a.GetProfile(ctx, "S001")
	assert.ErrorIs(t, err, student.ErrProfileNotFound)

	p, ignored, err := a.UpdateProfile(ctx, "S001", map[string]string{
		"gender": "Female", "email": "jane@example.com", "favourite_colour": "blue",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"favourite_colour"}, ignored)
	assert.Equal(t, "Female", p.Gender.String)
	assert.Equal(t, "jane@example.com", p.Email.String)

	p, _, err = a.UpdateProfile(ctx, "S001", map[string]string{"gender": "", "department": "Physics"})
	require.NoError(t, err)
	assert.False(t, p.Gender.Valid)
	assert.Equal(t, "Physics", p.Department.String)
	assert.Equal(t, "jane@example.com", p.Email.String)

	_, _, err = a.UpdateProfile(ctx, "S001", map[string]string{"email": "not-an-email"})
	assert.Error(t, err)

	_, _, err = a.UpdateProfile(ctx, "S404", map[string]string{"gender": "Male"})
	assert.ErrorIs(t, err, student.ErrNotFound)
}

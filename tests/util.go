package tests

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/storage/database"
)

// NewRecord builds a record from "subject", mark pairs.
func NewRecord(id, name string, marks map[string]float64) student.Record {
	if marks == nil {
		marks = map[string]float64{}
	}
	return student.Record{ID: id, Name: name, Marks: marks}
}

// PrepareDB connects to the test database, migrates it and empties it.
// The test is skipped unless DB_TEST=1.
func PrepareDB(t *testing.T) (*sqlx.DB, *core.Config) {
	t.Helper()
	if os.Getenv("DB_TEST") != "1" {
		t.Skip("set DB_TEST=1 to run the database tests")
	}

	t.Setenv("ENV", "TEST")
	conf, err := core.LoadConfig()
	require.NoError(t, err)
	require.NoError(t, database.CreateIfNotExist(conf))

	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db, &Logger{}))
	_, err = db.Exec(`TRUNCATE students, student_marks, student_profiles`)
	require.NoError(t, err)
	return db, conf
}

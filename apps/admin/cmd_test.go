package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/storage"
	inmemdb "github.com/trezcool/gradebook/storage/database/inmem"
	filestore "github.com/trezcool/gradebook/storage/file"
	"github.com/trezcool/gradebook/tests"
)

func testConfig(t *testing.T) *core.Config {
	return &core.Config{
		Env:      "TEST",
		TestMode: true,
		DataPath: filepath.Join(t.TempDir(), "students.json"),
		Subjects: []string{"Mathematics", "English"},
	}
}

// setup returns a CLI backed by the data file only.
func setup(t *testing.T) *commandLine {
	conf := testConfig(t)
	logger := &tests.Logger{}
	return &commandLine{
		conf:    conf,
		logger:  logger,
		adapter: storage.NewAdapter(nil, nil, filestore.NewStore(conf.DataPath, logger), logger),
		roster:  student.NewRoster(nil),
		in:      strings.NewReader(""),
	}
}

// setupDB returns a CLI backed by an in-memory database.
func setupDB(t *testing.T) *commandLine {
	cli := setup(t)
	db := inmemdb.Open()
	cli.adapter = storage.NewAdapter(inmemdb.NewStudentStore(db), inmemdb.NewProfileStore(db),
		filestore.NewStore(cli.conf.DataPath, cli.logger), cli.logger)
	return cli
}

// run executes the CLI with a fresh roster, like a new process would.
func run(t *testing.T, cli *commandLine, args ...string) (string, error) {
	t.Helper()
	cli.roster = student.NewRoster(nil)
	var out bytes.Buffer
	root := cli.rootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

type cliTest struct {
	name       string
	args       []string
	wantErr    error
	wantErrStr string
	wantOut    []string
}

func runTests(t *testing.T, cli *commandLine, cases []cliTest) {
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, cli, tc.args...)
			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErrStr)
			default:
				require.NoError(t, err)
			}
			for _, want := range tc.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}

func Test_commandLine_students(t *testing.T) {
	cli := setup(t)

	runTests(t, cli, []cliTest{
		{name: "list: empty", args: []string{"list"}, wantOut: []string{"No students found."}},
		{
			name:    "add",
			args:    []string{"add", "--id", " S001 ", "--name", "Jane Doe", "--mark", "Mathematics=90", "-m", "English=85"},
			wantOut: []string{"Student S001 added."},
		},
		{name: "add: second", args: []string{"add", "--id", "S002", "--name", "John Smith", "-m", "Mathematics=40"}},
		{name: "add: replace", args: []string{"add", "--id", "S002", "--name", "John Smith", "-m", "Mathematics=45"}, wantOut: []string{"Student S002 updated."}},
		{name: "add: bad name", args: []string{"add", "--id", "S003", "--name", "R2-D2"}, wantErrStr: "letters, spaces, hyphens, and apostrophes"},
		{name: "add: bad mark", args: []string{"add", "--id", "S003", "--name", "Bob", "-m", "Mathematics=120"}, wantErrStr: "Mathematics cannot exceed 100"},
		{name: "add: bad pair", args: []string{"add", "--id", "S003", "--name", "Bob", "-m", "Mathematics"}, wantErrStr: "expected Subject=mark"},
		{name: "add: missing id", args: []string{"add", "--name", "Bob"}, wantErrStr: "required flag(s) \"id\" not set"},
		{name: "list", args: []string{"list"}, wantOut: []string{"S001", "Jane Doe", "87.50", "S002", "45.00", "2 student(s)"}},
		{name: "list: search", args: []string{"list", "--search", "JOHN"}, wantOut: []string{"S002", "1 student(s)"}},
		{name: "show", args: []string{"show", "S001"}, wantOut: []string{"Name:     Jane Doe", "Average:  87.50", "Grade:    B"}},
		{name: "show: unknown", args: []string{"show", "S404"}, wantErr: student.ErrNotFound},
		{name: "range", args: []string{"range", "80", "90"}, wantOut: []string{"S001", "1 student(s)"}},
		{name: "range: inverted", args: []string{"range", "90", "80"}, wantErrStr: "MIN cannot be greater than MAX"},
		{name: "range: not a number", args: []string{"range", "low", "80"}, wantErrStr: "invalid MIN"},
		{
			name: "stats",
			args: []string{"stats"},
			wantOut: []string{
				"Total students: 2", "Class average:  66.25", "Pass rate:      50.00%",
				"  1. Jane Doe (S001) 87.50", "Mathematics          67.50",
			},
		},
		{name: "delete", args: []string{"delete", "S002"}, wantOut: []string{"Student S002 deleted."}},
		{name: "delete: unknown", args: []string{"delete", "S002"}, wantErr: student.ErrNotFound},
		{name: "status", args: []string{"status"}, wantOut: []string{"Storage:   file", "Students:  1"}},
	})

	records, err := filestore.NewStore(cli.conf.DataPath, cli.logger).Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "S001", records[0].ID)
}

func Test_commandLine_clear(t *testing.T) {
	cli := setup(t)
	_, err := run(t, cli, "add", "--id", "S001", "--name", "Jane Doe")
	require.NoError(t, err)

	defer func(f func(io.Reader) bool) { isTerminalFunc = f }(isTerminalFunc)

	isTerminalFunc = func(io.Reader) bool { return false }
	_, err = run(t, cli, "clear")
	assert.EqualError(t, err, "refusing to clear all students without --yes")

	isTerminalFunc = func(io.Reader) bool { return true }
	cli.in = strings.NewReader("n\n")
	out, err := run(t, cli, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")

	cli.in = strings.NewReader("yes\n")
	out, err = run(t, cli, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "1 student(s) deleted.")

	_, err = run(t, cli, "add", "--id", "S002", "--name", "John Smith")
	require.NoError(t, err)
	out, err = run(t, cli, "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "1 student(s) deleted.")
}

func Test_commandLine_transfer(t *testing.T) {
	cli := setup(t)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"ID,Name,Mathematics,English\nS001,Jane Doe,90,80\nS002,,50,50\nS003,Carl,,70\n"), 0o644))

	runTests(t, cli, []cliTest{
		{name: "import: unknown format", args: []string{"import", "xml", csvPath}, wantErrStr: "unknown format"},
		{name: "import: missing file", args: []string{"import", "csv", filepath.Join(dir, "nope.csv")}, wantErrStr: "opening import file"},
		{name: "import csv", args: []string{"import", "csv", csvPath}, wantOut: []string{"imported 2, skipped 1", "row 3"}},
		{name: "export csv", args: []string{"export", "csv", filepath.Join(dir, "out", "out.csv")}, wantOut: []string{"2 student(s) exported"}},
		{name: "export json", args: []string{"export", "json", filepath.Join(dir, "out.json")}, wantOut: []string{"2 student(s) exported"}},
		{name: "clear", args: []string{"clear", "--yes"}},
		{name: "import json", args: []string{"import", "json", filepath.Join(dir, "out.json")}, wantOut: []string{"imported 2, skipped 0"}},
	})

	data, err := os.ReadFile(filepath.Join(dir, "out", "out.csv"))
	require.NoError(t, err)
	assert.Equal(t, "ID,Name,Total,Average,Grade,Mathematics,English\n"+
		"S001,Jane Doe,170.00,85.00,B,90,80\n"+
		"S003,Carl,70.00,35.00,F,0,70\n", string(data))

	out, err := run(t, cli, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "2 student(s)")
}

func Test_commandLine_profile(t *testing.T) {
	t.Run("file mode", func(t *testing.T) {
		cli := setup(t)
		_, err := run(t, cli, "add", "--id", "S001", "--name", "Jane Doe")
		require.NoError(t, err)
		_, err = run(t, cli, "profile", "show", "S001")
		assert.ErrorIs(t, err, storage.ErrProfilesUnavailable)
	})

	cli := setupDB(t)
	_, err := run(t, cli, "add", "--id", "S001", "--name", "Jane Doe")
	require.NoError(t, err)

	runTests(t, cli, []cliTest{
		{name: "show: none", args: []string{"profile", "show", "S001"}, wantErr: student.ErrProfileNotFound},
		{name: "set: unknown student", args: []string{"profile", "set", "S404", "gender=Male"}, wantErr: student.ErrNotFound},
		{name: "set: bad pair", args: []string{"profile", "set", "S001", "gender"}, wantErrStr: "expected field=value"},
		{name: "set: bad email", args: []string{"profile", "set", "S001", "email=nope"}, wantErrStr: "invalid email"},
		{
			name:    "set",
			args:    []string{"profile", "set", "S001", "gender=Female", "previous_cgpa=3.75", "shoe_size=38"},
			wantOut: []string{"Ignored unknown field \"shoe_size\".", "Profile of S001 updated."},
		},
		{name: "show", args: []string{"profile", "show", "S001"}, wantOut: []string{"gender             Female", "previous_cgpa      3.75", "email              -"}},
		{name: "status", args: []string{"status"}, wantOut: []string{"Storage:   database"}},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setupDB(t)
	_, err := run(t, cli, "migrate", "up")
	assert.EqualError(t, err, "the database is disabled (DB_DISABLED)")

	defer func(f func(*sqlx.DB, core.Logger, string, ...string) error) { gooseRunFunc = f }(gooseRunFunc)
	var gotCmd string
	var gotArgs []string
	gooseRunFunc = func(db *sqlx.DB, logger core.Logger, command string, args ...string) error {
		gotCmd, gotArgs = command, args
		return nil
	}

	cli.db = &sqlx.DB{}
	_, err = run(t, cli, "migrate", "up-to", "2")
	require.NoError(t, err)
	assert.Equal(t, "up-to", gotCmd)
	assert.Equal(t, []string{"2"}, gotArgs)

	_, err = run(t, cli, "migrate")
	assert.Error(t, err)
}

func TestExit_ClosesDatabase(t *testing.T) {
	defer func(f func(int)) { exitFunc = f }(exitFunc)
	code := -1
	exitFunc = func(c int) { code = c }

	db, err := sqlx.Open("postgres", "postgres://localhost:5432/gradebook?sslmode=disable")
	require.NoError(t, err)
	cli := setup(t)
	cli.db = db

	var closed bool
	cli.exit(1, func() { closed = true })

	assert.Equal(t, 1, code)
	assert.True(t, closed)
	assert.EqualError(t, db.Ping(), "sql: database is closed")
}

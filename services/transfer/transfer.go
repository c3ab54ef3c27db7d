// Package transfer imports and exports rosters as CSV and JSON.
package transfer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/student"
	filestore "github.com/trezcool/gradebook/storage/file"
)

// maxReportedErrors caps Report.Errors; TotalErrors keeps the full count.
const maxReportedErrors = 5

const (
	colID      = "ID"
	colName    = "Name"
	colTotal   = "Total"
	colAverage = "Average"
	colGrade   = "Grade"
)

// Report summarizes an import. BatchID tags the log lines of the import.
type Report struct {
	BatchID     uuid.UUID `json:"batch_id"`
	Imported    int       `json:"imported"`
	Skipped     int       `json:"skipped"`
	Errors      []string  `json:"errors"`
	TotalErrors int       `json:"total_errors"`
}

func newReport() *Report {
	return &Report{BatchID: uuid.New(), Errors: []string{}}
}

func (rep *Report) skip(msg string) {
	rep.Skipped++
	rep.TotalErrors++
	if len(rep.Errors) < maxReportedErrors {
		rep.Errors = append(rep.Errors, msg)
	}
}

func (rep Report) String() string {
	s := fmt.Sprintf("imported %d, skipped %d", rep.Imported, rep.Skipped)
	if rep.TotalErrors > len(rep.Errors) {
		s += fmt.Sprintf(" (showing %d of %d errors)", len(rep.Errors), rep.TotalErrors)
	}
	return s
}

// ExportCSV writes one row per record: ID, Name, Total, Average, Grade, then a column per subject.
func ExportCSV(w io.Writer, records []student.Record, subjects []string, scale student.GradeScale) error {
	cw := csv.NewWriter(w)
	header := append([]string{colID, colName, colTotal, colAverage, colGrade}, subjects...)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}

	sorted := make([]student.Record, len(records))
	copy(sorted, records)
	student.SortByID(sorted)
	for _, rec := range sorted {
		row := []string{
			rec.ID,
			rec.Name,
			strconv.FormatFloat(rec.Total(), 'f', 2, 64),
			strconv.FormatFloat(rec.Average(), 'f', 2, 64),
			rec.Grade(scale),
		}
		for _, subj := range subjects {
			row = append(row, strconv.FormatFloat(rec.Marks[subj], 'f', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing CSV row %s", rec.ID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}

// ExportCSVFile writes the CSV export to `path` atomically.
func ExportCSVFile(path string, records []student.Record, subjects []string, scale student.GradeScale) error {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, records, subjects, scale); err != nil {
		return err
	}
	return filestore.WriteFileAtomic(path, buf.Bytes())
}

// ExportJSONFile writes `records` to `path` in the data file format.
func ExportJSONFile(path string, records []student.Record) error {
	data, err := filestore.Encode(records)
	if err != nil {
		return err
	}
	return filestore.WriteFileAtomic(path, data)
}

// ImportJSON upserts every valid entry of a JSON array into `rst`. Invalid entries are skipped and reported.
func ImportJSON(r io.Reader, source string, rst *student.Roster, logger core.Logger) (Report, error) {
	rep := newReport()
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil || raw == nil {
		if err == nil {
			err = errors.New("expected a JSON array of students")
		}
		return *rep, core.NewFormatError(source, err)
	}

	for i, msg := range raw {
		var rec student.Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			rep.skip(fmt.Sprintf("entry %d: %v", i+1, err))
			continue
		}
		importRecord(rep, rst, rec, fmt.Sprintf("entry %d", i+1))
	}
	logImport(logger, source, rep)
	return *rep, nil
}

// ImportCSV upserts every valid row of a CSV document into `rst`. The header must name
// the ID and Name columns and every subject; an empty mark cell counts as 0.
func ImportCSV(r io.Reader, source string, rst *student.Roster, subjects []string, logger core.Logger) (Report, error) {
	rep := newReport()
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			err = errors.New("missing header")
		}
		return *rep, core.NewFormatError(source, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[core.CleanString(name)] = i
	}
	var missing []string
	for _, name := range append([]string{colID, colName}, subjects...) {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return *rep, core.NewFormatError(source, errors.Errorf("missing columns: %s", strings.Join(missing, ", ")))
	}

	cell := func(row []string, col string) string {
		if i := cols[col]; i < len(row) {
			return core.CleanString(row[i])
		}
		return ""
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		label := fmt.Sprintf("row %d", line)
		if err != nil {
			rep.skip(fmt.Sprintf("%s: %v", label, err))
			continue
		}

		rec := student.Record{ID: cell(row, colID), Name: cell(row, colName), Marks: make(student.Marks, len(subjects))}
		var markErr error
		for _, subj := range subjects {
			text := cell(row, subj)
			if text == "" {
				rec.Marks[subj] = 0
				continue
			}
			if rec.Marks[subj], markErr = student.ParseMarkInput(text, subj); markErr != nil {
				break
			}
		}
		if markErr != nil {
			rep.skip(fmt.Sprintf("%s: %v", label, markErr))
			continue
		}
		importRecord(rep, rst, rec, label)
	}
	logImport(logger, source, rep)
	return *rep, nil
}

func importRecord(rep *Report, rst *student.Roster, rec student.Record, label string) {
	rec.ID = core.CleanString(rec.ID)
	rec.Name = core.CleanString(rec.Name)
	if rec.Marks == nil {
		rec.Marks = make(student.Marks)
	}
	if err := student.ValidateRecord(rec); err != nil {
		rep.skip(fmt.Sprintf("%s: %v", label, err))
		return
	}
	rst.Upsert(rec)
	rep.Imported++
}

func logImport(logger core.Logger, source string, rep *Report) {
	if logger == nil {
		return
	}
	args := []interface{}{"batch_id", rep.BatchID.String(), "source", source, "imported", rep.Imported, "skipped", rep.Skipped}
	if rep.Skipped > 0 {
		logger.Warn("import finished with skipped entries", append(args, "errors", rep.Errors)...)
		return
	}
	logger.Info("import finished", args...)
}

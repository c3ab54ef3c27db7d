package student

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// Marks maps a subject name to a mark in [0, 100].
type Marks map[string]float64

// Clone returns a deep copy of `m`; a nil map stays nil.
func (m Marks) Clone() Marks {
	if m == nil {
		return nil
	}
	c := make(Marks, len(m))
	for subj, mark := range m {
		c[subj] = mark
	}
	return c
}

// Subjects returns the subject names sorted alphabetically.
func (m Marks) Subjects() []string {
	subjects := make([]string, 0, len(m))
	for subj := range m {
		subjects = append(subjects, subj)
	}
	sort.Strings(subjects)
	return subjects
}

// UnmarshalJSON accepts marks written as JSON numbers or as numeric strings ("85").
// A null or absent object decodes to an empty map.
func (m *Marks) UnmarshalJSON(data []byte) error {
	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	marks := make(Marks, len(raw))
	for subj, n := range raw {
		mark, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return errors.Errorf("mark for %q is not a number: %q", subj, n.String())
		}
		marks[subj] = mark
	}
	*m = marks
	return nil
}

func (m Marks) Values() []float64 {
	values := make([]float64, 0, len(m))
	for _, subj := range m.Subjects() {
		values = append(values, m[subj])
	}
	return values
}

// Record is one student's identity and per-subject marks.
type Record struct {
	ID    string `json:"student_id"`
	Name  string `json:"name"`
	Marks Marks  `json:"marks_by_subject"`
}

func (r Record) Total() float64 {
	var total float64
	for _, mark := range r.Marks {
		total += mark
	}
	return total
}

// Average is 0 when the record has no marks.
func (r Record) Average() float64 {
	if len(r.Marks) == 0 {
		return 0
	}
	return r.Total() / float64(len(r.Marks))
}

func (r Record) Grade(scale GradeScale) string {
	return ComputeGrade(r.Average(), scale)
}

// Clone returns a copy of the record that shares no memory with `r`.
func (r Record) Clone() Record {
	r.Marks = r.Marks.Clone()
	return r
}

// SortByID sorts records by identifier ascending, in place.
func SortByID(records []Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}

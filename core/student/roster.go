package student

import (
	"sort"
	"strings"
	"sync"

	"github.com/trezcool/gradebook/core"
)

// Roster is the in-memory collection of Records keyed by identifier.
// Records go in and come out as copies, so callers can never alias its state.
type Roster struct {
	scale   GradeScale
	records map[string]Record
	mutex   sync.RWMutex
}

// NewRoster returns a Roster graded with `scale` (DefaultGradeScale if empty) and seeded with `records`.
// Later records win over earlier ones with the same identifier.
func NewRoster(scale GradeScale, records ...Record) *Roster {
	if len(scale) == 0 {
		scale = DefaultGradeScale
	}
	rst := &Roster{
		scale:   scale,
		records: make(map[string]Record, len(records)),
	}
	for _, r := range records {
		rst.records[r.ID] = r.Clone()
	}
	return rst
}

func (rst *Roster) Scale() GradeScale {
	return rst.scale
}

// snapshot returns copies of all records sorted by identifier. Callers must hold the lock.
func (rst *Roster) snapshot() []Record {
	records := make([]Record, 0, len(rst.records))
	for _, r := range rst.records {
		records = append(records, r.Clone())
	}
	SortByID(records)
	return records
}

// List returns a copy of every record, sorted by identifier.
func (rst *Roster) List() []Record {
	rst.mutex.RLock()
	defer rst.mutex.RUnlock()
	return rst.snapshot()
}

func (rst *Roster) Get(id string) (Record, bool) {
	rst.mutex.RLock()
	defer rst.mutex.RUnlock()

	r, ok := rst.records[id]
	if !ok {
		return Record{}, false
	}
	return r.Clone(), true
}

// Upsert inserts `r`, or fully replaces the record with the same identifier. Fields are never merged.
func (rst *Roster) Upsert(r Record) {
	rst.mutex.Lock()
	defer rst.mutex.Unlock()
	rst.records[r.ID] = r.Clone()
}

// Delete reports whether a record existed and was removed.
func (rst *Roster) Delete(id string) bool {
	rst.mutex.Lock()
	defer rst.mutex.Unlock()

	if _, ok := rst.records[id]; !ok {
		return false
	}
	delete(rst.records, id)
	return true
}

// Clear removes every record and returns how many were removed.
func (rst *Roster) Clear() int {
	rst.mutex.Lock()
	defer rst.mutex.Unlock()

	n := len(rst.records)
	rst.records = make(map[string]Record)
	return n
}

// Replace swaps the whole content of the roster for `records`.
func (rst *Roster) Replace(records []Record) {
	rst.mutex.Lock()
	defer rst.mutex.Unlock()

	rst.records = make(map[string]Record, len(records))
	for _, r := range records {
		rst.records[r.ID] = r.Clone()
	}
}

// Search does a case-insensitive substring match of `query` on identifiers and names.
// An empty query matches every record; callers decide whether to search at all.
func (rst *Roster) Search(query string) []Record {
	q := core.CleanString(query, true /* lower */)

	rst.mutex.RLock()
	defer rst.mutex.RUnlock()

	matches := make([]Record, 0)
	for _, r := range rst.snapshot() {
		if strings.Contains(strings.ToLower(r.ID), q) || strings.Contains(strings.ToLower(r.Name), q) {
			matches = append(matches, r)
		}
	}
	return matches
}

// InRange returns the records whose average lies within [min, max].
func (rst *Roster) InRange(min, max float64) []Record {
	rst.mutex.RLock()
	defer rst.mutex.RUnlock()

	matches := make([]Record, 0)
	for _, r := range rst.snapshot() {
		if avg := r.Average(); min <= avg && avg <= max {
			matches = append(matches, r)
		}
	}
	return matches
}

func (rst *Roster) Count() int {
	rst.mutex.RLock()
	defer rst.mutex.RUnlock()
	return len(rst.records)
}

// byAverage sorts records by average, ties broken by identifier ascending.
func byAverage(records []Record, descending bool) {
	sort.SliceStable(records, func(i, j int) bool {
		ai, aj := records[i].Average(), records[j].Average()
		if ai != aj {
			if descending {
				return ai > aj
			}
			return ai < aj
		}
		return records[i].ID < records[j].ID
	})
}

func truncate(records []Record, n int) []Record {
	if n < 0 {
		n = 0
	}
	if n < len(records) {
		return records[:n]
	}
	return records
}

// TopPerformers returns at most `n` records by descending average.
func (rst *Roster) TopPerformers(n int) []Record {
	records := rst.List()
	byAverage(records, true)
	return truncate(records, n)
}

// BottomPerformers returns at most `n` records by ascending average.
func (rst *Roster) BottomPerformers(n int) []Record {
	records := rst.List()
	byAverage(records, false)
	return truncate(records, n)
}

package student

// number of records listed in Statistics.TopPerformers and Statistics.BottomPerformers
const performersCount = 3

// Performer is a ranked entry of Statistics.
type Performer struct {
	ID      string  `json:"student_id"`
	Name    string  `json:"name"`
	Average float64 `json:"average"`
}

// Statistics is a snapshot of the class aggregates. It is computed fresh on each call.
type Statistics struct {
	TotalStudents    int                `json:"total_students"`
	ClassAverage     float64            `json:"class_average"`
	PassRate         float64            `json:"pass_rate"`
	StudentsByGrade  map[string]int     `json:"students_by_grade"`
	SubjectAverages  map[string]float64 `json:"subject_averages"`
	TopPerformers    []Performer        `json:"top_performers"`
	BottomPerformers []Performer        `json:"bottom_performers"`
}

func classAverage(records []Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.Average()
	}
	return sum / float64(len(records))
}

func studentsByGrade(records []Record, scale GradeScale) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Grade(scale)]++
	}
	return counts
}

func passRate(records []Record, scale GradeScale) float64 {
	if len(records) == 0 {
		return 0
	}
	failing := scale.Lowest()
	var passed int
	for _, r := range records {
		if r.Grade(scale) != failing {
			passed++
		}
	}
	return float64(passed) / float64(len(records)) * 100
}

// subjectAverages only counts the records that have a mark for a subject.
func subjectAverages(records []Record) map[string]float64 {
	totals := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range records {
		for subj, mark := range r.Marks {
			totals[subj] += mark
			counts[subj]++
		}
	}

	avgs := make(map[string]float64, len(totals))
	for subj, total := range totals {
		avgs[subj] = total / float64(counts[subj])
	}
	return avgs
}

func performers(records []Record) []Performer {
	ps := make([]Performer, 0, len(records))
	for _, r := range records {
		ps = append(ps, Performer{ID: r.ID, Name: r.Name, Average: r.Average()})
	}
	return ps
}

// ClassAverage is the mean of the records' averages, 0 for an empty roster.
func (rst *Roster) ClassAverage() float64 {
	return classAverage(rst.List())
}

// StudentsByGrade counts records per letter grade.
func (rst *Roster) StudentsByGrade() map[string]int {
	return studentsByGrade(rst.List(), rst.scale)
}

// PassRate is the percentage of records not graded with the scale's lowest letter, 0 for an empty roster.
func (rst *Roster) PassRate() float64 {
	return passRate(rst.List(), rst.scale)
}

// SubjectAverages maps each subject to the mean mark of the records that have it.
func (rst *Roster) SubjectAverages() map[string]float64 {
	return subjectAverages(rst.List())
}

func (rst *Roster) Statistics() Statistics {
	records := rst.List()

	top := make([]Record, len(records))
	copy(top, records)
	byAverage(top, true)

	bottom := make([]Record, len(records))
	copy(bottom, records)
	byAverage(bottom, false)

	return Statistics{
		TotalStudents:    len(records),
		ClassAverage:     classAverage(records),
		PassRate:         passRate(records, rst.scale),
		StudentsByGrade:  studentsByGrade(records, rst.scale),
		SubjectAverages:  subjectAverages(records),
		TopPerformers:    performers(truncate(top, performersCount)),
		BottomPerformers: performers(truncate(bottom, performersCount)),
	}
}

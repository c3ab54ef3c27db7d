package student

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

const (
	MinMark = 0
	MaxMark = 100

	// FailGrade is returned by ComputeGrade for an empty scale.
	FailGrade = "F"
)

// GradeThreshold maps every average >= Threshold to Letter.
type GradeThreshold struct {
	Threshold float64 `json:"threshold"`
	Letter    string  `json:"letter"`
}

// GradeScale is ordered by descending threshold.
type GradeScale []GradeThreshold

var DefaultGradeScale = GradeScale{
	{Threshold: 90, Letter: "A"},
	{Threshold: 80, Letter: "B"},
	{Threshold: 70, Letter: "C"},
	{Threshold: 60, Letter: "D"},
	{Threshold: 0, Letter: FailGrade},
}

// Lowest returns the letter of the last entry, i.e. the failing grade.
func (gs GradeScale) Lowest() string {
	if len(gs) == 0 {
		return FailGrade
	}
	return gs[len(gs)-1].Letter
}

// Letters returns the scale's letters from best to worst.
func (gs GradeScale) Letters() []string {
	letters := make([]string, 0, len(gs))
	for _, gt := range gs {
		letters = append(letters, gt.Letter)
	}
	return letters
}

// ParseGradeScale parses "A:90,B:80,...,F:0" into a scale sorted by descending threshold.
func ParseGradeScale(s string) (GradeScale, error) {
	s = core.CleanString(s)
	if s == "" {
		return nil, errors.New("grade scale cannot be empty")
	}

	parts := strings.Split(s, ",")
	scale := make(GradeScale, 0, len(parts))
	for _, part := range parts {
		kv := strings.SplitN(core.CleanString(part), ":", 2)
		if len(kv) != 2 {
			return nil, errors.Errorf("invalid grade scale entry %q: expected LETTER:THRESHOLD", part)
		}
		letter := core.CleanString(kv[0])
		if letter == "" {
			return nil, errors.Errorf("invalid grade scale entry %q: empty letter", part)
		}
		threshold, err := strconv.ParseFloat(core.CleanString(kv[1]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid grade scale threshold %q", kv[1])
		}
		scale = append(scale, GradeThreshold{Threshold: threshold, Letter: letter})
	}
	sort.SliceStable(scale, func(i, j int) bool { return scale[i].Threshold > scale[j].Threshold })
	return scale, nil
}

// ClampMark clamps `value` to [MinMark, MaxMark].
func ClampMark(value float64) float64 {
	if value < MinMark {
		return MinMark
	}
	if value > MaxMark {
		return MaxMark
	}
	return value
}

// ComputeGrade returns the letter of the first threshold `average` meets, scanning `scale` in order.
// If none matches, the last entry's letter is returned; an empty scale yields FailGrade.
func ComputeGrade(average float64, scale GradeScale) string {
	for _, gt := range scale {
		if average >= gt.Threshold {
			return gt.Letter
		}
	}
	return scale.Lowest()
}

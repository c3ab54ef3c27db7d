package student

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

const (
	MaxIDLen   = 50
	MaxNameLen = 100
)

var (
	idRules   = fmt.Sprintf("required,max=%d", MaxIDLen)
	nameRules = fmt.Sprintf("required,max=%d,personname", MaxNameLen)

	idMessages = map[string]string{
		"required": "student ID cannot be empty",
		"max":      fmt.Sprintf("student ID cannot exceed %d characters", MaxIDLen),
	}
	nameMessages = map[string]string{
		"required":   "student name cannot be empty",
		"max":        fmt.Sprintf("student name cannot exceed %d characters", MaxNameLen),
		"personname": "student name can only contain letters, spaces, hyphens, and apostrophes",
	}
)

// ValidateIdentifier fails if `id` is empty once trimmed or longer than MaxIDLen characters.
func ValidateIdentifier(id string) error {
	return validateVar("student_id", core.CleanString(id), idRules, idMessages)
}

// ValidateName fails if `name` is empty once trimmed, longer than MaxNameLen characters,
// or contains anything but letters, spaces, hyphens and apostrophes.
func ValidateName(name string) error {
	return validateVar("name", core.CleanString(name), nameRules, nameMessages)
}

// ValidateMarks fails if any value is not a finite number or lies outside [MinMark, MaxMark].
func ValidateMarks(values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return markError("marks must be numeric")
		}
		if v < MinMark || v > MaxMark {
			return markError(fmt.Sprintf("each mark must be between %d and %d", MinMark, MaxMark))
		}
	}
	return nil
}

// ParseMarkInput converts user input into a mark. Error messages are prefixed with `label`.
func ParseMarkInput(text, label string) (float64, error) {
	text = core.CleanString(text)
	if text == "" {
		return 0, markError(label + " cannot be empty")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, markError(fmt.Sprintf("%s must be a valid number (got %q)", label, text))
	}
	if v < MinMark {
		return 0, markError(label + " cannot be negative")
	}
	if v > MaxMark {
		return 0, markError(fmt.Sprintf("%s cannot exceed %d", label, MaxMark))
	}
	return v, nil
}

// ValidateRecord applies the identifier, name and marks rules to `r`.
func ValidateRecord(r Record) error {
	if err := ValidateIdentifier(r.ID); err != nil {
		return err
	}
	if err := ValidateName(r.Name); err != nil {
		return err
	}
	return ValidateMarks(r.Marks.Values())
}

func validateVar(field string, value interface{}, rules string, messages map[string]string) error {
	err := core.Validate.Var(value, rules)
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrs) == 0 {
		return errors.Wrapf(err, "validating %s", field)
	}
	msg := messages[vErrs[0].Tag()]
	if msg == "" {
		msg = vErrs[0].Translate(core.Translator)
	}
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: field, Error: msg})
}

func markError(msg string) error {
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: "marks_by_subject", Error: msg})
}

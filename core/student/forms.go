package student

import (
	"github.com/trezcool/gradebook/core"
)

// RecordForm contains the information submitted to create or replace a Record.
type RecordForm struct {
	ID    string             `json:"student_id" validate:"notblank,max=50"`
	Name  string             `json:"name" validate:"notblank,max=100,personname"`
	Marks map[string]float64 `json:"marks_by_subject" validate:"dive,keys,notblank,endkeys,gte=0,lte=100"`
}

// Validate cleans the form and checks it against the record rules.
func (f *RecordForm) Validate() error {
	f.ID = core.CleanString(f.ID)
	f.Name = core.CleanString(f.Name)
	if marks := f.Marks; marks != nil {
		f.Marks = make(map[string]float64, len(marks))
		for subj, mark := range marks {
			f.Marks[core.CleanString(subj)] = mark
		}
	}

	if err := core.Validate.Struct(f); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return nil
}

// Record builds the Record described by the form. Call Validate first.
func (f RecordForm) Record() Record {
	marks := Marks(f.Marks).Clone()
	if marks == nil {
		marks = Marks{}
	}
	return Record{ID: f.ID, Name: f.Name, Marks: marks}
}

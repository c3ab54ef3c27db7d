package student

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
)

// ProfileField names one of the optional fields of a Profile.
type ProfileField string

const (
	FieldPhotoPath        ProfileField = "photo_path"
	FieldDateOfBirth      ProfileField = "date_of_birth"
	FieldGender           ProfileField = "gender"
	FieldBloodGroup       ProfileField = "blood_group"
	FieldReligion         ProfileField = "religion"
	FieldNationality      ProfileField = "nationality"
	FieldPhone            ProfileField = "phone"
	FieldEmail            ProfileField = "email"
	FieldAddress          ProfileField = "address"
	FieldEmergencyContact ProfileField = "emergency_contact"
	FieldSession          ProfileField = "session"
	FieldDepartment       ProfileField = "department"
	FieldSemester         ProfileField = "semester"
	FieldPreviousCGPA     ProfileField = "previous_cgpa"
	FieldFatherName       ProfileField = "father_name"
	FieldFatherOccupation ProfileField = "father_occupation"
	FieldFatherPhone      ProfileField = "father_phone"
	FieldMotherName       ProfileField = "mother_name"
	FieldMotherOccupation ProfileField = "mother_occupation"
	FieldMotherPhone      ProfileField = "mother_phone"
)

// ProfileFields lists every updatable field, in display order.
var ProfileFields = []ProfileField{
	FieldPhotoPath, FieldDateOfBirth, FieldGender, FieldBloodGroup, FieldReligion, FieldNationality,
	FieldPhone, FieldEmail, FieldAddress, FieldEmergencyContact,
	FieldSession, FieldDepartment, FieldSemester, FieldPreviousCGPA,
	FieldFatherName, FieldFatherOccupation, FieldFatherPhone,
	FieldMotherName, FieldMotherOccupation, FieldMotherPhone,
}

// per-field validation rules, applied to non-empty values
var profileRules = map[ProfileField]string{
	FieldDateOfBirth:  "datetime=2006-01-02",
	FieldEmail:        "email",
	FieldPreviousCGPA: "numeric",
}

var profileFieldSet = func() map[ProfileField]struct{} {
	set := make(map[ProfileField]struct{}, len(ProfileFields))
	for _, f := range ProfileFields {
		set[f] = struct{}{}
	}
	return set
}()

// ParseProfileField reports whether `name` is a known field.
func ParseProfileField(name string) (ProfileField, bool) {
	f := ProfileField(core.CleanString(name, true /* lower */))
	_, ok := profileFieldSet[f]
	return f, ok
}

// Profile holds the optional personal, academic and contact details of a student.
type Profile struct {
	StudentID        string       `json:"student_id"`
	PhotoPath        null.String  `json:"photo_path"`
	DateOfBirth      null.String  `json:"date_of_birth"`
	Gender           null.String  `json:"gender"`
	BloodGroup       null.String  `json:"blood_group"`
	Religion         null.String  `json:"religion"`
	Nationality      null.String  `json:"nationality"`
	Phone            null.String  `json:"phone"`
	Email            null.String  `json:"email"`
	Address          null.String  `json:"address"`
	EmergencyContact null.String  `json:"emergency_contact"`
	Session          null.String  `json:"session"`
	Department       null.String  `json:"department"`
	Semester         null.String  `json:"semester"`
	PreviousCGPA     null.Float64 `json:"previous_cgpa"`
	FatherName       null.String  `json:"father_name"`
	FatherOccupation null.String  `json:"father_occupation"`
	FatherPhone      null.String  `json:"father_phone"`
	MotherName       null.String  `json:"mother_name"`
	MotherOccupation null.String  `json:"mother_occupation"`
	MotherPhone      null.String  `json:"mother_phone"`
}

// stringField returns the address of a text field; nil for FieldPreviousCGPA or unknown fields.
func (p *Profile) stringField(f ProfileField) *null.String {
	switch f {
	case FieldPhotoPath:
		return &p.PhotoPath
	case FieldDateOfBirth:
		return &p.DateOfBirth
	case FieldGender:
		return &p.Gender
	case FieldBloodGroup:
		return &p.BloodGroup
	case FieldReligion:
		return &p.Religion
	case FieldNationality:
		return &p.Nationality
	case FieldPhone:
		return &p.Phone
	case FieldEmail:
		return &p.Email
	case FieldAddress:
		return &p.Address
	case FieldEmergencyContact:
		return &p.EmergencyContact
	case FieldSession:
		return &p.Session
	case FieldDepartment:
		return &p.Department
	case FieldSemester:
		return &p.Semester
	case FieldFatherName:
		return &p.FatherName
	case FieldFatherOccupation:
		return &p.FatherOccupation
	case FieldFatherPhone:
		return &p.FatherPhone
	case FieldMotherName:
		return &p.MotherName
	case FieldMotherOccupation:
		return &p.MotherOccupation
	case FieldMotherPhone:
		return &p.MotherPhone
	}
	return nil
}

// Value returns the field's value as text and whether it is set.
func (p Profile) Value(f ProfileField) (string, bool) {
	if f == FieldPreviousCGPA {
		if !p.PreviousCGPA.Valid {
			return "", false
		}
		return strconv.FormatFloat(p.PreviousCGPA.Float64, 'f', 2, 64), true
	}
	if s := p.stringField(f); s != nil && s.Valid {
		return s.String, true
	}
	return "", false
}

// ProfileUpdate maps fields to their new values. Only fields present in the map are written.
type ProfileUpdate map[ProfileField]string

// NewProfileUpdate keeps the known fields of `raw` and returns the names it ignored, sorted.
func NewProfileUpdate(raw map[string]string) (ProfileUpdate, []string) {
	pu := make(ProfileUpdate, len(raw))
	var ignored []string
	for name, value := range raw {
		f, ok := ParseProfileField(name)
		if !ok {
			ignored = append(ignored, name)
			continue
		}
		pu[f] = value
	}
	sort.Strings(ignored)
	return pu, ignored
}

// Fields returns the fields of the update in ProfileFields order.
func (pu ProfileUpdate) Fields() []ProfileField {
	fields := make([]ProfileField, 0, len(pu))
	for _, f := range ProfileFields {
		if _, ok := pu[f]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// Apply validates the update and writes its values into `p`. An empty value clears the field.
func (pu ProfileUpdate) Apply(p *Profile) error {
	var fldErrs []core.FieldError
	for _, f := range pu.Fields() {
		value := core.CleanString(pu[f])
		if rules, ok := profileRules[f]; ok && value != "" {
			if err := core.Validate.Var(value, rules); err != nil {
				fldErrs = append(fldErrs, core.FieldError{Field: string(f), Error: "invalid " + string(f) + " " + strconv.Quote(value)})
				continue
			}
		}

		if f == FieldPreviousCGPA {
			if value == "" {
				p.PreviousCGPA = null.Float64{}
				continue
			}
			cgpa, err := strconv.ParseFloat(value, 64)
			if err != nil || cgpa < 0 {
				fldErrs = append(fldErrs, core.FieldError{Field: string(f), Error: "invalid previous_cgpa " + strconv.Quote(value)})
				continue
			}
			p.PreviousCGPA = null.Float64From(cgpa)
			continue
		}
		*p.stringField(f) = null.NewString(value, value != "")
	}

	if len(fldErrs) > 0 {
		return core.NewValidationError(errors.New(fldErrs[0].Error), fldErrs...)
	}
	return nil
}

// Merge returns `p` overwritten with the set fields of `other`. Unset fields of `other` keep the values of `p`.
func (p Profile) Merge(other Profile) Profile {
	for _, f := range ProfileFields {
		if f == FieldPreviousCGPA {
			if other.PreviousCGPA.Valid {
				p.PreviousCGPA = other.PreviousCGPA
			}
			continue
		}
		if s := other.stringField(f); s.Valid {
			*p.stringField(f) = *s
		}
	}
	return p
}

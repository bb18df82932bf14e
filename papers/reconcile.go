package papers

import (
	"strings"
	"time"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/errors"
	"github.com/bobinette/paperbank/extract"
)

// Defaults applied when neither the user nor the extractor supplied a
// value. Course code has no safe default: reconciliation fails without
// one.
const (
	DefaultSubject = "Unknown Subject"
	DefaultCourse  = "Unknown Course"
)

// UserFields is the metadata the uploader typed in, all raw strings
// from the form. Empty means not provided.
type UserFields struct {
	Title       string
	Subject     string
	Course      string
	CourseCode  string
	ExamType    string
	Year        int
	Semester    string
	Tags        []string
	Description string
}

// Fields is the reconciled, normalized metadata ready to persist.
type Fields struct {
	Subject      string
	Course       string
	CourseCode   string
	ExamType     paperbank.ExamType
	Year         int
	Semester     paperbank.Semester
	AcademicYear string
	ExamDate     *time.Time
}

// Reconcile merges the uploader's fields with the extractor's guesses.
// A non-empty user value always wins, then the extracted value, then a
// documented default. The function is pure: same inputs, same output.
//
// The returned bool reports whether any extracted value made it into
// the result, so the caller can tell the uploader what was guessed.
func Reconcile(user UserFields, extracted extract.Fields, now time.Time) (Fields, bool, error) {
	fields := Fields{}
	usedExtracted := false

	pick := func(userValue, extractedValue, fallback string) string {
		if v := strings.TrimSpace(userValue); v != "" {
			return v
		}
		if v := strings.TrimSpace(extractedValue); v != "" {
			usedExtracted = true
			return v
		}
		return fallback
	}

	fields.Subject = pick(user.Subject, extracted.Subject, DefaultSubject)
	fields.Course = pick(user.Course, extracted.Course, DefaultCourse)
	fields.CourseCode = pick(user.CourseCode, extracted.CourseCode, "")
	if fields.CourseCode == "" {
		return Fields{}, false, errors.New("course code is required", errors.BadRequest())
	}

	switch {
	case strings.TrimSpace(user.ExamType) != "":
		fields.ExamType = paperbank.NormalizeExamType(user.ExamType)
	case extracted.ExamType != "":
		fields.ExamType = paperbank.NormalizeExamType(string(extracted.ExamType))
		usedExtracted = true
	default:
		fields.ExamType = paperbank.ExamTypeOther
	}

	switch {
	case user.Year != 0:
		fields.Year = user.Year
	case extracted.Year != 0:
		fields.Year = extracted.Year
		usedExtracted = true
	default:
		fields.Year = now.Year()
	}
	if fields.Year < paperbank.MinYear || fields.Year > paperbank.MaxYear {
		return Fields{}, false, errors.New("year is out of range", errors.BadRequest())
	}

	switch {
	case paperbank.NormalizeSemester(user.Semester) != "":
		fields.Semester = paperbank.NormalizeSemester(user.Semester)
	case extracted.Semester != "":
		fields.Semester = extracted.Semester
		usedExtracted = true
	default:
		fields.Semester = paperbank.SemesterWinter
	}

	if extracted.ExamDate != nil {
		fields.ExamDate = extracted.ExamDate
		usedExtracted = true
	}

	fields.AcademicYear = paperbank.AcademicYear(fields.Year, fields.Semester)

	return fields, usedExtracted, nil
}

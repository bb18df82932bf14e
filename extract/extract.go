package extract

import (
	"context"
	"io"
	"regexp"
	"time"

	"github.com/bobinette/paperbank"
)

// Fields holds the best-effort metadata guessed from the bytes of an
// uploaded paper. A zero Fields means nothing could be extracted; the
// upload pipeline then runs on user-supplied data only.
type Fields struct {
	Subject    string
	Course     string
	CourseCode string
	ExamType   paperbank.ExamType
	Year       int
	ExamDate   *time.Time
	Semester   paperbank.Semester

	RawText string
}

// Empty reports whether no field was extracted at all.
func (f Fields) Empty() bool {
	return f.Subject == "" && f.Course == "" && f.CourseCode == "" &&
		f.ExamType == "" && f.Year == 0 && f.ExamDate == nil && f.Semester == ""
}

// Extractor guesses metadata from raw file bytes. Implementations
// never fail: on any internal error they return a zero Fields so the
// caller degrades to user-supplied data. Only text-bearing kinds
// (PDF) are worth extracting from; callers skip the rest.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, filename string, kind paperbank.FileKind) Fields
}

var (
	examDateRe = regexp.MustCompile(`(?i)(?:date|dated|held on|conducted on)[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)

	winterRe  = regexp.MustCompile(`(?i)winter\s+(?:semester|session)`)
	summerRe  = regexp.MustCompile(`(?i)summer\s+(?:semester|session)`)
	monsoonRe = regexp.MustCompile(`(?i)monsoon\s+(?:semester|session)`)
)

// examDateLayouts follow the original archive's month-first reading of
// ambiguous numeric dates.
var examDateLayouts = []string{"1/2/2006", "1-2-2006", "1/2/06", "1-2-06"}

// examDate returns the first date found near a date keyword, or nil
// when no match parses.
func examDate(text string) *time.Time {
	m := examDateRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	for _, layout := range examDateLayouts {
		if d, err := time.Parse(layout, m[1]); err == nil {
			return &d
		}
	}
	return nil
}

// semester returns the first session keyword found in the text, or ""
// when none matches.
func semester(text string) paperbank.Semester {
	switch {
	case winterRe.MatchString(text):
		return paperbank.SemesterWinter
	case summerRe.MatchString(text):
		return paperbank.SemesterSummer
	case monsoonRe.MatchString(text):
		return paperbank.SemesterMonsoon
	}
	return ""
}

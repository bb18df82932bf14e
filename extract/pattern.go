package extract

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/log"
)

var (
	subjectRe = regexp.MustCompile(`(?i)subject\s*[:|-]\s*([^\n,]+)`)
	courseRe  = regexp.MustCompile(`(?i)course(?:\s*code)?\s*[:|-]\s*([^\n,]+)`)
	yearRe    = regexp.MustCompile(`19[5-9]\d|20\d\d`)

	examTypePatterns = []struct {
		re *regexp.Regexp
		t  paperbank.ExamType
	}{
		{regexp.MustCompile(`(?i)mid\s*-?\s*(?:sem|semester|term)`), paperbank.ExamTypeMidSemester},
		{regexp.MustCompile(`(?i)end\s*-?\s*(?:sem|semester|term)`), paperbank.ExamTypeEndSemester},
		{regexp.MustCompile(`(?i)final\s*(?:exam|examination)`), paperbank.ExamTypeEndSemester},
		{regexp.MustCompile(`(?i)quiz`), paperbank.ExamTypeQuiz},
	}
)

// PatternExtractor guesses metadata by running a fixed list of regular
// expressions over the plain text of the document. Text extraction is
// delegated to a TextRunner so tests can inject text directly.
type PatternExtractor struct {
	Runner TextRunner
	Logger log.Logger

	// Now is used to bound year candidates. Defaults to time.Now.
	Now func() time.Time
}

func (e *PatternExtractor) Extract(ctx context.Context, r io.Reader, filename string, kind paperbank.FileKind) Fields {
	if kind != paperbank.FileKindPDF {
		return Fields{}
	}

	text, err := e.Runner.Text(ctx, r)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Errorf("could not extract text from %s: %v", filename, err)
		}
		return Fields{}
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	fields := FromText(text, now())

	// The archive has always fallen back to the file name when the
	// text carries no subject line.
	if fields.Subject == "" {
		if words := strings.FieldsFunc(basename(filename), func(r rune) bool {
			return r == '_' || r == '-' || r == ' '
		}); len(words) > 0 {
			fields.Subject = words[0]
		}
	}

	return fields
}

// FromText runs the pattern list over already-extracted plain text.
// now bounds the year candidates.
func FromText(text string, now time.Time) Fields {
	fields := Fields{
		ExamType: paperbank.ExamTypeOther,
		RawText:  text,
	}

	if m := subjectRe.FindStringSubmatch(text); m != nil {
		fields.Subject = strings.TrimSpace(m[1])
	}

	if m := courseRe.FindStringSubmatch(text); m != nil {
		course := strings.TrimSpace(m[1])
		fields.Course = course
		fields.CourseCode = course
	}

	for _, p := range examTypePatterns {
		if p.re.MatchString(text) {
			fields.ExamType = p.t
			break
		}
	}

	fields.Year = pickYear(yearRe.FindAllString(text, -1), now.Year())
	fields.ExamDate = examDate(text)
	fields.Semester = semester(text)

	return fields
}

// pickYear selects the exam year among 4-digit candidates: the most
// recent one not in the future wins, then the nearest future one, then
// the current year.
func pickYear(candidates []string, currentYear int) int {
	maxPast, minFuture := 0, 0
	for _, c := range candidates {
		y, err := strconv.Atoi(c)
		if err != nil || y < paperbank.MinYear || y > currentYear+5 {
			continue
		}

		if y <= currentYear {
			if y > maxPast {
				maxPast = y
			}
		} else if minFuture == 0 || y < minFuture {
			minFuture = y
		}
	}

	if maxPast != 0 {
		return maxPast
	}
	if minFuture != 0 {
		return minFuture
	}
	return currentYear
}

func basename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

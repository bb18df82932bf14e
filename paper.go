package paperbank

import (
	"strconv"
	"strings"
	"time"
)

// ExamType is the canonical set of examination types. Raw labels coming
// from users or from the extraction backend are mapped into this set at
// the boundary and never trusted downstream.
type ExamType string

const (
	ExamTypeMidSemester ExamType = "mid-semester"
	ExamTypeEndSemester ExamType = "end-semester"
	ExamTypeQuiz        ExamType = "quiz"
	ExamTypeOther       ExamType = "other"
)

// examTypeAliases maps the labels produced by the OCR backend and the
// loose forms seen in user input to canonical exam types.
var examTypeAliases = map[string]ExamType{
	"mid_semester": ExamTypeMidSemester,
	"mid-semester": ExamTypeMidSemester,
	"midsemester":  ExamTypeMidSemester,
	"mid-sem":      ExamTypeMidSemester,
	"midsem":       ExamTypeMidSemester,
	"end_semester": ExamTypeEndSemester,
	"end-semester": ExamTypeEndSemester,
	"endsemester":  ExamTypeEndSemester,
	"end-sem":      ExamTypeEndSemester,
	"endsem":       ExamTypeEndSemester,
	"final":        ExamTypeEndSemester,
	"quiz":         ExamTypeQuiz,
	"other":        ExamTypeOther,
}

// NormalizeExamType maps a raw exam-type label to its canonical value.
// Unknown labels map to ExamTypeOther. An empty label stays empty so
// callers can tell "not provided" from "provided but unknown".
func NormalizeExamType(raw string) ExamType {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if t, ok := examTypeAliases[strings.ToLower(raw)]; ok {
		return t
	}
	return ExamTypeOther
}

type Semester string

const (
	SemesterWinter  Semester = "winter"
	SemesterSummer  Semester = "summer"
	SemesterMonsoon Semester = "monsoon"
)

// NormalizeSemester maps a raw semester label to its canonical value,
// or returns "" when the label is empty or unknown.
func NormalizeSemester(raw string) Semester {
	switch Semester(strings.ToLower(strings.TrimSpace(raw))) {
	case SemesterWinter:
		return SemesterWinter
	case SemesterSummer:
		return SemesterSummer
	case SemesterMonsoon:
		return SemesterMonsoon
	}
	return ""
}

// AcademicYear derives the two-year display string from the exam year
// and semester. The monsoon semester opens an academic year, the other
// semesters close one.
func AcademicYear(year int, semester Semester) string {
	if semester == SemesterMonsoon {
		return strconv.Itoa(year) + "-" + strconv.Itoa(year+1)
	}
	return strconv.Itoa(year-1) + "-" + strconv.Itoa(year)
}

// FileKind is the closed set of handling categories for uploaded files.
type FileKind string

const (
	FileKindPDF   FileKind = "pdf"
	FileKindImage FileKind = "image"
	FileKindDoc   FileKind = "doc"
	FileKindOther FileKind = "other"
)

var extKinds = map[string]FileKind{
	"pdf":  FileKindPDF,
	"jpg":  FileKindImage,
	"jpeg": FileKindImage,
	"png":  FileKindImage,
	"doc":  FileKindDoc,
	"docx": FileKindDoc,
}

// KindOfExt maps a file extension (with or without the dot, any casing)
// to its handling kind. Extensions outside the supported set map to
// FileKindOther, which uploads reject.
func KindOfExt(ext string) FileKind {
	if kind, ok := extKinds[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return kind
	}
	return FileKindOther
}

// Year bounds enforced on papers.
const (
	MinYear = 1950
	MaxYear = 2100
)

type Paper struct {
	ID int `json:"id"`

	Title      string   `json:"title"`
	Subject    string   `json:"subject"`
	Course     string   `json:"course"`
	CourseCode string   `json:"courseCode"`
	ExamType   ExamType `json:"examType"`
	Year       int      `json:"year"`
	Semester   Semester `json:"semester"`

	// AcademicYear is derived from (Year, Semester); it is stored for
	// display and filtering but always re-derivable.
	AcademicYear string     `json:"academicYear"`
	ExamDate     *time.Time `json:"examDate,omitempty"`

	Tags        []string `json:"tags"`
	Description string   `json:"description,omitempty"`

	FileKind FileKind `json:"fileKind"`
	FileExt  string   `json:"fileExt"`
	FileSize int64    `json:"fileSize"`
	FilePath string   `json:"filePath"`

	UploadedBy    int  `json:"uploadedBy"`
	DownloadCount int  `json:"downloadCount"`
	IsVerified    bool `json:"isVerified"`

	CreatedAt time.Time `json:"createdAt"`
}

type Pagination struct {
	Total  uint64 `json:"total"`
	Limit  uint64 `json:"limit"`
	Offset uint64 `json:"offset"`
}

// DefaultSearchLimit is the page size applied when a search does not
// set one.
const DefaultSearchLimit = 10

type PaperSearch struct {
	Q string `json:"q"`

	CourseCode string   `json:"courseCode"`
	ExamType   ExamType `json:"examType"`
	Semester   Semester `json:"semester"`
	Year       int      `json:"year"`
	UploadedBy int      `json:"uploadedBy"`

	Limit   uint64 `json:"limit"`
	Offset  uint64 `json:"offset"`
	OrderBy string `json:"orderBy"`
}

type PaperSearchResults struct {
	IDs        []int
	Pagination Pagination
}

type PaperStore interface {
	Get(...int) ([]*Paper, error)
	List() ([]*Paper, error)
	Upsert(*Paper) error
	Delete(int) error
}

type PaperIndex interface {
	Index(*Paper) error
	Search(PaperSearch) (PaperSearchResults, error)
	Delete(int) error
}

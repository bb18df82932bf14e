package bleve

import (
	"fmt"
	"io/ioutil"
	"os"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/bobinette/paperbank"
)

func createIndex(t *testing.T) (*PaperIndex, func()) {
	dir, err := ioutil.TempDir("", "")
	if err != nil {
		t.Fatal("could not create tmp dir:", err)
	}
	// bleve.New wants to create the directory itself
	os.RemoveAll(dir)

	index := &PaperIndex{}
	if err := index.Open(dir); err != nil {
		os.RemoveAll(dir)
		t.Fatal("error creating index:", err)
	}

	return index, func() {
		if err := index.Close(); err != nil {
			t.Log(err)
		}
		if err := os.RemoveAll(dir); err != nil {
			t.Log(err)
		}
	}
}

func testPapers() []*paperbank.Paper {
	day := func(n int) time.Time {
		return time.Date(2024, time.January, n, 0, 0, 0, 0, time.UTC)
	}

	return []*paperbank.Paper{
		{
			ID: 1, Title: "Data Structures Mid Sem", Subject: "Data Structures",
			Course: "Data Structures", CourseCode: "CS201",
			ExamType: paperbank.ExamTypeMidSemester, Semester: paperbank.SemesterWinter,
			Year: 2022, UploadedBy: 1, Tags: []string{"trees", "graphs"}, CreatedAt: day(1),
		},
		{
			ID: 2, Title: "Data Structures End Sem", Subject: "Data Structures",
			Course: "Data Structures", CourseCode: "CS201",
			ExamType: paperbank.ExamTypeEndSemester, Semester: paperbank.SemesterWinter,
			Year: 2022, UploadedBy: 1, Tags: []string{"graphs"}, CreatedAt: day(2),
		},
		{
			ID: 3, Title: "Thermodynamics Quiz", Subject: "Thermodynamics",
			Course: "Engineering Thermodynamics", CourseCode: "ME102",
			ExamType: paperbank.ExamTypeQuiz, Semester: paperbank.SemesterMonsoon,
			Year: 2023, UploadedBy: 2, Tags: []string{"entropy"}, CreatedAt: day(3),
		},
		{
			ID: 4, Title: "Linear Algebra End Sem", Subject: "Mathematics",
			Course: "Linear Algebra", CourseCode: "MA201",
			ExamType: paperbank.ExamTypeEndSemester, Semester: paperbank.SemesterSummer,
			Year: 2023, UploadedBy: 2, Tags: []string{"matrices"}, CreatedAt: day(4),
		},
	}
}

func TestSearch(t *testing.T) {
	index, f := createIndex(t)
	defer f()

	for _, paper := range testPapers() {
		if err := index.Index(paper); err != nil {
			t.Fatal("error indexing", paper.ID, err)
		}
	}

	tts := map[string]struct {
		search   paperbank.PaperSearch
		expected []int
	}{
		"all": {
			search:   paperbank.PaperSearch{},
			expected: []int{1, 2, 3, 4},
		},
		"free text on subject": {
			search:   paperbank.PaperSearch{Q: "thermodynamics"},
			expected: []int{3},
		},
		"free text on tags": {
			search:   paperbank.PaperSearch{Q: "graphs"},
			expected: []int{1, 2},
		},
		"free text prefix": {
			search:   paperbank.PaperSearch{Q: "thermo"},
			expected: []int{3},
		},
		"free text on course code": {
			search:   paperbank.PaperSearch{Q: "MA201"},
			expected: []int{4},
		},
		"course code filter": {
			search:   paperbank.PaperSearch{CourseCode: "CS201"},
			expected: []int{1, 2},
		},
		"exam type filter": {
			search:   paperbank.PaperSearch{ExamType: paperbank.ExamTypeEndSemester},
			expected: []int{2, 4},
		},
		"semester filter": {
			search:   paperbank.PaperSearch{Semester: paperbank.SemesterMonsoon},
			expected: []int{3},
		},
		"year filter": {
			search:   paperbank.PaperSearch{Year: 2022},
			expected: []int{1, 2},
		},
		"uploader filter": {
			search:   paperbank.PaperSearch{UploadedBy: 2},
			expected: []int{3, 4},
		},
		"combined filters": {
			search:   paperbank.PaperSearch{CourseCode: "CS201", ExamType: paperbank.ExamTypeMidSemester},
			expected: []int{1},
		},
		"no match": {
			search:   paperbank.PaperSearch{Q: "astrophysics"},
			expected: []int{},
		},
	}

	for name, tt := range tts {
		results, err := index.Search(tt.search)
		if err != nil {
			t.Fatalf("%s - error searching: %v", name, err)
		}

		got := append([]int{}, results.IDs...)
		sort.Ints(got)
		if !reflect.DeepEqual(tt.expected, got) {
			t.Errorf("%s - incorrect ids: expected %v got %v", name, tt.expected, got)
		}

		if results.Pagination.Total != uint64(len(tt.expected)) {
			t.Errorf("%s - incorrect total: expected %d got %d", name, len(tt.expected), results.Pagination.Total)
		}
	}
}

func TestSearch_Pagination(t *testing.T) {
	index, f := createIndex(t)
	defer f()

	for _, paper := range testPapers() {
		if err := index.Index(paper); err != nil {
			t.Fatal("error indexing", paper.ID, err)
		}
	}

	results, err := index.Search(paperbank.PaperSearch{Limit: 2})
	if err != nil {
		t.Fatal("error searching:", err)
	}
	if len(results.IDs) != 2 {
		t.Fatalf("incorrect number of ids: expected 2 got %d", len(results.IDs))
	}
	if results.Pagination.Total != 4 {
		t.Fatalf("incorrect total: expected 4 got %d", results.Pagination.Total)
	}

	// default ordering is newest first
	if results.IDs[0] != 4 || results.IDs[1] != 3 {
		t.Fatalf("incorrect order: got %v", results.IDs)
	}

	results, err = index.Search(paperbank.PaperSearch{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal("error searching:", err)
	}
	if len(results.IDs) != 2 {
		t.Fatalf("incorrect number of ids: expected 2 got %d", len(results.IDs))
	}
	if results.IDs[0] != 2 || results.IDs[1] != 1 {
		t.Fatalf("incorrect order: got %v", results.IDs)
	}
}

func TestSearch_DefaultLimit(t *testing.T) {
	index, f := createIndex(t)
	defer f()

	for i := 1; i <= 12; i++ {
		paper := &paperbank.Paper{
			ID: i, Title: fmt.Sprintf("Paper %d", i), Subject: "Algorithms",
			CourseCode: "CS201", Year: 2022,
			CreatedAt: time.Date(2024, time.January, i, 0, 0, 0, 0, time.UTC),
		}
		if err := index.Index(paper); err != nil {
			t.Fatal("error indexing", paper.ID, err)
		}
	}

	results, err := index.Search(paperbank.PaperSearch{})
	if err != nil {
		t.Fatal("error searching:", err)
	}
	if len(results.IDs) != paperbank.DefaultSearchLimit {
		t.Fatalf("incorrect number of ids: expected %d got %d", paperbank.DefaultSearchLimit, len(results.IDs))
	}
	if results.Pagination.Total != 12 {
		t.Fatalf("incorrect total: expected 12 got %d", results.Pagination.Total)
	}
	if results.Pagination.Limit != paperbank.DefaultSearchLimit {
		t.Fatalf("incorrect limit: expected %d got %d", paperbank.DefaultSearchLimit, results.Pagination.Limit)
	}
}

func TestDelete(t *testing.T) {
	index, f := createIndex(t)
	defer f()

	papers := testPapers()
	for _, paper := range papers {
		if err := index.Index(paper); err != nil {
			t.Fatal("error indexing", paper.ID, err)
		}
	}

	if err := index.Delete(1); err != nil {
		t.Fatal("error deleting:", err)
	}

	results, err := index.Search(paperbank.PaperSearch{CourseCode: "CS201"})
	if err != nil {
		t.Fatal("error searching:", err)
	}
	if !reflect.DeepEqual([]int{2}, results.IDs) {
		t.Fatalf("incorrect ids after delete: got %v", results.IDs)
	}
}

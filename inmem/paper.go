package inmem

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bobinette/paperbank"
)

// PaperStore keeps papers in memory.
type PaperStore struct {
	mu     sync.Mutex
	papers map[int]paperbank.Paper
	maxID  int
}

func NewPaperStore() *PaperStore {
	return &PaperStore{
		papers: make(map[int]paperbank.Paper),
	}
}

func (s *PaperStore) Get(ids ...int) ([]*paperbank.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	papers := make([]*paperbank.Paper, 0, len(ids))
	for _, id := range ids {
		if paper, ok := s.papers[id]; ok {
			paper := paper
			papers = append(papers, &paper)
		}
	}
	return papers, nil
}

func (s *PaperStore) List() ([]*paperbank.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.papers))
	for id := range s.papers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	papers := make([]*paperbank.Paper, 0, len(ids))
	for _, id := range ids {
		paper := s.papers[id]
		papers = append(papers, &paper)
	}
	return papers, nil
}

func (s *PaperStore) Upsert(paper *paperbank.Paper) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if paper.ID == 0 {
		s.maxID++
		paper.ID = s.maxID
		paper.CreatedAt = time.Now()
	} else if paper.ID > s.maxID {
		s.maxID = paper.ID
	}

	s.papers[paper.ID] = *paper
	return nil
}

func (s *PaperStore) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.papers, id)
	return nil
}

// PaperIndex is a naive in-memory index: substring matching instead of
// real relevance, but the same filter semantics as the bleve index.
type PaperIndex struct {
	store *PaperStore
}

func NewPaperIndex(store *PaperStore) *PaperIndex {
	return &PaperIndex{store: store}
}

func (i *PaperIndex) Index(*paperbank.Paper) error { return nil }
func (i *PaperIndex) Delete(int) error             { return nil }

func (i *PaperIndex) Search(search paperbank.PaperSearch) (paperbank.PaperSearchResults, error) {
	papers, err := i.store.List()
	if err != nil {
		return paperbank.PaperSearchResults{}, err
	}

	ids := make([]int, 0, len(papers))
	for _, paper := range papers {
		if matches(paper, search) {
			ids = append(ids, paper.ID)
		}
	}

	total := uint64(len(ids))
	if search.Offset > 0 {
		if search.Offset >= total {
			ids = nil
		} else {
			ids = ids[search.Offset:]
		}
	}
	limit := search.Limit
	if limit == 0 {
		limit = paperbank.DefaultSearchLimit
	}
	if uint64(len(ids)) > limit {
		ids = ids[:limit]
	}

	return paperbank.PaperSearchResults{
		IDs: ids,
		Pagination: paperbank.Pagination{
			Total:  total,
			Limit:  limit,
			Offset: search.Offset,
		},
	}, nil
}

func matches(paper *paperbank.Paper, search paperbank.PaperSearch) bool {
	if search.CourseCode != "" && !strings.EqualFold(paper.CourseCode, search.CourseCode) {
		return false
	}
	if search.ExamType != "" && paper.ExamType != search.ExamType {
		return false
	}
	if search.Semester != "" && paper.Semester != search.Semester {
		return false
	}
	if search.Year != 0 && paper.Year != search.Year {
		return false
	}
	if search.UploadedBy != 0 && paper.UploadedBy != search.UploadedBy {
		return false
	}

	if search.Q == "" {
		return true
	}

	haystack := strings.ToLower(strings.Join(append([]string{
		paper.Subject, paper.Course, paper.CourseCode, paper.Title,
	}, paper.Tags...), " "))
	for _, word := range strings.Fields(strings.ToLower(search.Q)) {
		if !strings.Contains(haystack, word) {
			return false
		}
	}
	return true
}

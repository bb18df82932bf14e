package bleve

import (
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/analysis/lang/en"
	"github.com/blevesearch/bleve/mapping"
	"github.com/blevesearch/bleve/search/query"

	"github.com/bobinette/paperbank"
)

type PaperIndex struct {
	index bleve.Index
}

// Open opens the index at path, creating it with the paper mapping
// when it does not exist yet.
func (s *PaperIndex) Open(path string) error {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist || os.IsNotExist(err) {
		index, err = bleve.New(path, paperMapping())
	}
	if err != nil {
		return err
	}

	s.index = index
	return nil
}

func (s *PaperIndex) Close() error {
	if s.index == nil {
		return nil
	}

	return s.index.Close()
}

func paperMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = en.AnalyzerName

	tag := bleve.NewTextFieldMapping()
	tag.Analyzer = simple.Name

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name

	number := bleve.NewNumericFieldMapping()
	date := bleve.NewDateTimeFieldMapping()

	paper := bleve.NewDocumentMapping()
	paper.AddFieldMappingsAt("title", text)
	paper.AddFieldMappingsAt("subject", text)
	paper.AddFieldMappingsAt("course", text)
	paper.AddFieldMappingsAt("tags", tag)
	paper.AddFieldMappingsAt("courseCode", exact)
	paper.AddFieldMappingsAt("examType", exact)
	paper.AddFieldMappingsAt("semester", exact)
	paper.AddFieldMappingsAt("year", number)
	paper.AddFieldMappingsAt("uploadedBy", number)
	paper.AddFieldMappingsAt("createdAt", date)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = paper
	return m
}

func (s *PaperIndex) Index(paper *paperbank.Paper) error {
	data := map[string]interface{}{
		"title":      paper.Title,
		"subject":    paper.Subject,
		"course":     paper.Course,
		"courseCode": paper.CourseCode,
		"tags":       paper.Tags,
		"examType":   string(paper.ExamType),
		"semester":   string(paper.Semester),
		"year":       paper.Year,
		"uploadedBy": paper.UploadedBy,
		"createdAt":  paper.CreatedAt,
	}

	return s.index.Index(strconv.Itoa(paper.ID), data)
}

func (s *PaperIndex) Delete(id int) error {
	return s.index.Delete(strconv.Itoa(id))
}

func (s *PaperIndex) Search(search paperbank.PaperSearch) (paperbank.PaperSearchResults, error) {
	q := andQ(
		query.NewMatchAllQuery(),
		s.freeText(search.Q),
		termQ(search.CourseCode, "courseCode"),
		termQ(string(search.ExamType), "examType"),
		termQ(string(search.Semester), "semester"),
		numericQ(search.Year, "year"),
		numericQ(search.UploadedBy, "uploadedBy"),
	)

	searchRequest := bleve.NewSearchRequest(q)
	if search.OrderBy != "" {
		searchRequest.SortBy([]string{search.OrderBy})
	} else {
		searchRequest.SortBy([]string{"-createdAt"})
	}

	limit := search.Limit
	if limit == 0 {
		limit = paperbank.DefaultSearchLimit
	}
	searchRequest.Size = int(limit)
	searchRequest.From = int(search.Offset)

	searchResults, err := s.index.Search(searchRequest)
	if err != nil {
		return paperbank.PaperSearchResults{}, err
	}

	ids := make([]int, len(searchResults.Hits))
	for i, hit := range searchResults.Hits {
		ids[i], err = strconv.Atoi(hit.ID)
		if err != nil {
			return paperbank.PaperSearchResults{}, err
		}
	}

	return paperbank.PaperSearchResults{
		IDs: ids,
		Pagination: paperbank.Pagination{
			Total:  searchResults.Total,
			Limit:  limit,
			Offset: search.Offset,
		},
	}, nil
}

func andQ(qs ...query.Query) query.Query {
	ands := make([]query.Query, 0, len(qs))
	for _, q := range qs {
		if q != nil {
			ands = append(ands, q)
		}
	}

	if len(ands) == 0 {
		return nil
	}
	return query.NewConjunctionQuery(ands)
}

func orQ(qs ...query.Query) query.Query {
	ors := make([]query.Query, 0, len(qs))
	for _, q := range qs {
		if q != nil {
			ors = append(ors, q)
		}
	}

	if len(ors) == 0 {
		return nil
	}
	return query.NewDisjunctionQuery(ors)
}

// freeText builds the relevance part of the query: every word of the
// query string must prefix-match at least one of the catalog fields.
func (s *PaperIndex) freeText(queryString string) query.Query {
	words := strings.Fields(queryString)

	ands := make([]query.Query, 0, len(words))
	for _, word := range words {
		ands = append(ands, orQ(
			s.prefixQ(word, "title", en.AnalyzerName),
			s.prefixQ(word, "subject", en.AnalyzerName),
			s.prefixQ(word, "course", en.AnalyzerName),
			s.prefixQ(word, "tags", simple.Name),
			termQ(word, "courseCode"),
		))
	}

	return andQ(ands...)
}

func (s *PaperIndex) prefixQ(queryString, field, analyzerName string) query.Query {
	analyzer := s.index.Mapping().AnalyzerNamed(analyzerName)
	tokens := analyzer.Analyze([]byte(queryString))
	if len(tokens) == 0 {
		return nil
	}

	conjuncs := make([]query.Query, len(tokens))
	for i, token := range tokens {
		q := query.NewPrefixQuery(string(token.Term))
		q.SetField(field)
		conjuncs[i] = q
	}

	return query.NewConjunctionQuery(conjuncs)
}

func termQ(term, field string) query.Query {
	if term == "" {
		return nil
	}

	q := query.NewTermQuery(term)
	q.SetField(field)
	return q
}

func numericQ(value int, field string) query.Query {
	if value == 0 {
		return nil
	}

	v := float64(value)
	incl := true
	q := query.NewNumericRangeInclusiveQuery(&v, &v, &incl, &incl)
	q.SetField(field)
	return q
}

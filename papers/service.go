package papers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/credits"
	"github.com/bobinette/paperbank/errors"
	"github.com/bobinette/paperbank/extract"
	"github.com/bobinette/paperbank/log"
)

// DefaultMaxFileSize is the upload ceiling: 10 MiB.
const DefaultMaxFileSize = 10 << 20

// Length bounds on the free-form metadata fields.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

// Service drives a paper through its lifecycle: validate, extract,
// reconcile, persist, index, credit on upload, and the reverse walk on
// deletion.
type Service struct {
	store   paperbank.PaperStore
	index   paperbank.PaperIndex
	users   paperbank.UserStore
	storage paperbank.FileStorage

	extractor extract.Extractor
	ledger    *credits.Ledger

	maxFileSize int64
	logger      log.Logger

	now func() time.Time
}

func NewService(
	store paperbank.PaperStore,
	index paperbank.PaperIndex,
	users paperbank.UserStore,
	storage paperbank.FileStorage,
	extractor extract.Extractor,
	ledger *credits.Ledger,
	maxFileSize int64,
	logger log.Logger,
) *Service {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	return &Service{
		store:       store,
		index:       index,
		users:       users,
		storage:     storage,
		extractor:   extractor,
		ledger:      ledger,
		maxFileSize: maxFileSize,
		logger:      logger,
		now:         time.Now,
	}
}

type UploadRequest struct {
	UserID   int
	Filename string
	File     io.Reader

	UserFields
}

type UploadResult struct {
	Paper *paperbank.Paper `json:"data"`

	// MetadataExtracted tells the uploader that at least one persisted
	// field was guessed from the file rather than typed in.
	MetadataExtracted bool `json:"metadataExtracted"`

	// Credits is the uploader's balance after the upload grant.
	Credits int `json:"credits"`
}

// Upload validates the file, stores its bytes, extracts and reconciles
// metadata, persists and indexes the record, and grants the upload
// credit. On every rejected exit after the bytes were stored, the
// stored object is removed so no orphan survives a failed upload.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if req.UserID == 0 {
		return UploadResult{}, errors.New("not authorized", errors.Unauthorized())
	}

	if utf8.RuneCountInString(req.Title) > MaxTitleLen {
		return UploadResult{}, errors.New(
			fmt.Sprintf("title too long, maximum is %d characters", MaxTitleLen),
			errors.BadRequest(),
		)
	}
	if utf8.RuneCountInString(req.Description) > MaxDescriptionLen {
		return UploadResult{}, errors.New(
			fmt.Sprintf("description too long, maximum is %d characters", MaxDescriptionLen),
			errors.BadRequest(),
		)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(req.Filename)), ".")
	kind := paperbank.KindOfExt(ext)
	if kind == paperbank.FileKindOther {
		return UploadResult{}, errors.New(
			fmt.Sprintf("file type .%s not supported, allowed types: pdf, jpg, jpeg, png, doc, docx", ext),
			errors.BadRequest(),
		)
	}

	content, err := io.ReadAll(io.LimitReader(req.File, s.maxFileSize+1))
	if err != nil {
		return UploadResult{}, errors.New("could not read file", errors.WithCause(err))
	}
	if int64(len(content)) > s.maxFileSize {
		return UploadResult{}, errors.New(
			fmt.Sprintf("file too large, maximum size is %d bytes", s.maxFileSize),
			errors.BadRequest(),
		)
	}

	key := uuid.NewString() + "." + ext
	if err := s.storage.Save(ctx, key, bytes.NewReader(content), int64(len(content))); err != nil {
		return UploadResult{}, errors.New("could not store file", errors.WithCause(err))
	}

	var extracted extract.Fields
	if kind == paperbank.FileKindPDF {
		extracted = s.extractor.Extract(ctx, bytes.NewReader(content), req.Filename, kind)
	}

	fields, usedExtracted, err := Reconcile(req.UserFields, extracted, s.now())
	if err != nil {
		s.removeFile(ctx, key)
		return UploadResult{}, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = req.Filename
	}

	paper := &paperbank.Paper{
		Title:        title,
		Subject:      fields.Subject,
		Course:       fields.Course,
		CourseCode:   fields.CourseCode,
		ExamType:     fields.ExamType,
		Year:         fields.Year,
		Semester:     fields.Semester,
		AcademicYear: fields.AcademicYear,
		ExamDate:     fields.ExamDate,
		Tags:         cleanTags(req.Tags),
		Description:  req.Description,
		FileKind:     kind,
		FileExt:      ext,
		FileSize:     int64(len(content)),
		FilePath:     key,
		UploadedBy:   req.UserID,
	}

	if err := s.store.Upsert(paper); err != nil {
		s.removeFile(ctx, key)
		return UploadResult{}, errors.New("could not save paper", errors.WithCause(err))
	}

	if err := s.index.Index(paper); err != nil {
		// The record exists and is retrievable by id; only search
		// misses it. Not worth failing the upload over.
		s.logger.Errorf("could not index paper %d: %v", paper.ID, err)
	}

	user, err := s.ledger.CreditForUpload(req.UserID)
	if err != nil {
		// No cross-step rollback: the record stays, the grant is
		// missing. Reported here and surfaced as a failure.
		s.logger.Errorf("paper %d persisted but crediting user %d failed: %v", paper.ID, req.UserID, err)
		return UploadResult{}, errors.New("could not credit upload", errors.WithCause(err))
	}

	return UploadResult{
		Paper:             paper,
		MetadataExtracted: usedExtracted,
		Credits:           user.Credits,
	}, nil
}

// Get returns a single paper by id.
func (s *Service) Get(ctx context.Context, id int) (*paperbank.Paper, error) {
	paper, err := s.paper(id)
	if err != nil {
		return nil, err
	}
	return paper, nil
}

type ListResult struct {
	Papers     []*paperbank.Paper   `json:"data"`
	Pagination paperbank.Pagination `json:"pagination"`
}

// List searches the index and resolves the hits against the store.
func (s *Service) List(ctx context.Context, search paperbank.PaperSearch) (ListResult, error) {
	results, err := s.index.Search(search)
	if err != nil {
		return ListResult{}, errors.New("could not search papers", errors.WithCause(err))
	}

	papers, err := s.store.Get(results.IDs...)
	if err != nil {
		return ListResult{}, errors.New("could not load papers", errors.WithCause(err))
	}

	return ListResult{Papers: papers, Pagination: results.Pagination}, nil
}

type DownloadResult struct {
	Paper    *paperbank.Paper
	Filename string
	File     io.ReadCloser
}

// Download debits the caller and streams the stored file. The debit
// and the balance check are one atomic step in the ledger; a shortfall
// leaves everything untouched.
func (s *Service) Download(ctx context.Context, id, userID int) (DownloadResult, error) {
	if userID == 0 {
		return DownloadResult{}, errors.New("not authorized", errors.Unauthorized())
	}

	paper, err := s.paper(id)
	if err != nil {
		return DownloadResult{}, err
	}

	exists, err := s.storage.Exists(ctx, paper.FilePath)
	if err != nil {
		return DownloadResult{}, errors.New("could not check file", errors.WithCause(err))
	} else if !exists {
		return DownloadResult{}, errors.New("file not found", errors.NotFound())
	}

	if _, err := s.ledger.DebitForDownload(userID); err != nil {
		return DownloadResult{}, err
	}

	paper.DownloadCount++
	if err := s.store.Upsert(paper); err != nil {
		s.logger.Errorf("could not bump download count of paper %d: %v", paper.ID, err)
	}

	file, err := s.storage.Open(ctx, paper.FilePath)
	if err != nil {
		return DownloadResult{}, errors.New("could not open file", errors.WithCause(err))
	}

	filename := fmt.Sprintf("%s_%s_%d.%s", paper.Subject, paper.ExamType, paper.Year, paper.FileExt)
	return DownloadResult{Paper: paper, Filename: filename, File: file}, nil
}

// Delete walks the upload backwards: reverse the credit grant, remove
// the stored file, drop the index entry and the record. Only the owner
// gets past the authorization check; anyone else is rejected with no
// side effects.
func (s *Service) Delete(ctx context.Context, id, userID int) error {
	paper, err := s.paper(id)
	if err != nil {
		return err
	}

	if paper.UploadedBy != userID {
		return errors.New("not authorized to delete this paper", errors.Forbidden())
	}

	if _, err := s.ledger.ReverseUploadCredit(userID); err != nil {
		return errors.New("could not reverse upload credits", errors.WithCause(err))
	}

	s.removeFile(ctx, paper.FilePath)

	if err := s.index.Delete(paper.ID); err != nil {
		s.logger.Errorf("could not deindex paper %d: %v", paper.ID, err)
	}

	if err := s.store.Delete(paper.ID); err != nil {
		return errors.New("could not delete paper", errors.WithCause(err))
	}

	return nil
}

// Verify lets an admin mark a paper as verified.
func (s *Service) Verify(ctx context.Context, id, userID int) (*paperbank.Paper, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, errors.New("could not get user", errors.WithCause(err))
	} else if user == nil || user.Role != paperbank.RoleAdmin {
		return nil, errors.New("only admins can verify papers", errors.Forbidden())
	}

	paper, err := s.paper(id)
	if err != nil {
		return nil, err
	}

	paper.IsVerified = true
	if err := s.store.Upsert(paper); err != nil {
		return nil, errors.New("could not save paper", errors.WithCause(err))
	}
	if err := s.index.Index(paper); err != nil {
		s.logger.Errorf("could not reindex paper %d: %v", paper.ID, err)
	}

	return paper, nil
}

func (s *Service) paper(id int) (*paperbank.Paper, error) {
	papers, err := s.store.Get(id)
	if err != nil {
		return nil, errors.New("could not get paper", errors.WithCause(err))
	} else if len(papers) == 0 {
		return nil, errors.New(fmt.Sprintf("<Paper %d> not found", id), errors.NotFound())
	}
	return papers[0], nil
}

func (s *Service) removeFile(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Errorf("could not remove stored file %s: %v", key, err)
	}
}

func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]struct{})
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		cleaned = append(cleaned, tag)
	}
	return cleaned
}

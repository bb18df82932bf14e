package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/log"
)

// DefaultServiceTimeout bounds a full OCR round-trip.
const DefaultServiceTimeout = 30 * time.Second

// ServiceExtractor sends the document to an external OCR backend and
// maps its response to Fields. Any non-success response, timeout or
// transport error yields a zero Fields: the backend being down must
// never fail an upload.
type ServiceExtractor struct {
	URL     string
	Timeout time.Duration
	Logger  log.Logger

	// Client overrides the HTTP client, mostly for tests.
	Client *http.Client
}

type detectResponse struct {
	Success    bool   `json:"success"`
	CourseCode string `json:"course_code"`
	ExamType   string `json:"exam_type"`
	Year       int    `json:"year"`
	RawOCRText string `json:"raw_ocr_text"`
	Error      string `json:"error"`
}

func (e *ServiceExtractor) Extract(ctx context.Context, r io.Reader, filename string, kind paperbank.FileKind) Fields {
	if kind != paperbank.FileKindPDF {
		return Fields{}
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultServiceTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, contentType, err := multipartBody(r, filename)
	if err != nil {
		e.errorf("could not build OCR request for %s: %v", filename, err)
		return Fields{}
	}

	url := strings.TrimSuffix(e.URL, "/") + "/detect_details"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		e.errorf("could not build OCR request for %s: %v", filename, err)
		return Fields{}
	}
	req.Header.Set("Content-Type", contentType)

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		e.errorf("OCR backend unreachable for %s: %v", filename, err)
		return Fields{}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		e.errorf("OCR backend returned %d for %s", res.StatusCode, filename)
		return Fields{}
	}

	var detected detectResponse
	if err := json.NewDecoder(res.Body).Decode(&detected); err != nil {
		e.errorf("could not decode OCR response for %s: %v", filename, err)
		return Fields{}
	}

	if !detected.Success {
		e.errorf("OCR backend failed for %s: %s", filename, detected.Error)
		return Fields{}
	}

	fields := Fields{
		CourseCode: strings.TrimSpace(detected.CourseCode),
		ExamType:   paperbank.NormalizeExamType(detected.ExamType),
		Year:       detected.Year,
		RawText:    detected.RawOCRText,
	}
	if fields.Year < paperbank.MinYear || fields.Year > paperbank.MaxYear {
		fields.Year = 0
	}

	// The backend only labels course code, exam type and year; dates
	// and session keywords are fished out of the raw text here.
	if detected.RawOCRText != "" {
		fields.ExamDate = examDate(detected.RawOCRText)
		fields.Semester = semester(detected.RawOCRText)
	}

	return fields
}

func (e *ServiceExtractor) errorf(format string, args ...interface{}) {
	if e.Logger != nil {
		e.Logger.Errorf(format, args...)
	}
}

func multipartBody(r io.Reader, filename string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

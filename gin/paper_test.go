package gin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/credits"
	"github.com/bobinette/paperbank/extract"
	"github.com/bobinette/paperbank/inmem"
	"github.com/bobinette/paperbank/jwt"
	"github.com/bobinette/paperbank/log"
	"github.com/bobinette/paperbank/papers"
)

// fixedExtractor stands in for the OCR pipeline.
type fixedExtractor struct {
	fields extract.Fields
}

func (e fixedExtractor) Extract(ctx context.Context, r io.Reader, filename string, kind paperbank.FileKind) extract.Fields {
	if kind != paperbank.FileKindPDF {
		return extract.Fields{}
	}
	return e.fields
}

type fixture struct {
	router  *gin.Engine
	users   *inmem.UserStore
	storage *inmem.FileStorage
	encoder *jwt.EncodeDecoder
}

func createRouter(t *testing.T) *fixture {
	users := inmem.NewUserStore()
	store := inmem.NewPaperStore()
	storage := inmem.NewFileStorage()
	ledger := credits.NewLedger(users, credits.DefaultAmounts())

	service := papers.NewService(
		store,
		inmem.NewPaperIndex(store),
		users,
		storage,
		fixedExtractor{fields: extract.Fields{CourseCode: "CS201", Year: 2022}},
		ledger,
		papers.DefaultMaxFileSize,
		log.New("test"),
	)

	encoder := jwt.NewEncodeDecoder([]byte("test key"))
	authenticator := &Authenticator{Decoder: encoder, Store: users}
	handler := &PaperHandler{Service: service, Authenticator: authenticator}

	gin.SetMode(gin.ReleaseMode) // avoid unnecessary log
	router := gin.New()
	handler.RegisterRoutes(router)

	return &fixture{router: router, users: users, storage: storage, encoder: encoder}
}

func (f *fixture) createUser(t *testing.T, role paperbank.Role, credits int) (*paperbank.User, string) {
	user := &paperbank.User{Name: "Test", Email: "test@example.org", Role: role, Credits: credits}
	if err := f.users.Upsert(user); err != nil {
		t.Fatal("could not insert user:", err)
	}

	token, err := f.encoder.Encode(user.ID)
	if err != nil {
		t.Fatal("could not encode token:", err)
	}

	return user, token
}

func multipartUpload(t *testing.T, filename string, fields map[string]string) (io.Reader, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal("could not create form file:", err)
	}
	fw.Write([]byte("%PDF-1.4 test content"))

	for name, value := range fields {
		w.WriteField(name, value)
	}
	w.Close()

	return &buf, w.FormDataContentType()
}

func (f *fixture) upload(t *testing.T, token, filename string, fields map[string]string) *httptest.ResponseRecorder {
	body, contentType := multipartUpload(t, filename, fields)
	req := httptest.NewRequest("POST", "/paperbank/papers", body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func TestUpload(t *testing.T) {
	f := createRouter(t)
	_, token := f.createUser(t, paperbank.RoleUser, 10)

	resp := f.upload(t, token, "algo.pdf", map[string]string{
		"subject":  "Algorithms",
		"examType": "Mid_Semester",
		"tags":     "trees, graphs",
	})
	if resp.Code != 200 {
		t.Fatalf("incorrect code: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var r struct {
		Data struct {
			ID         int      `json:"id"`
			Subject    string   `json:"subject"`
			CourseCode string   `json:"courseCode"`
			ExamType   string   `json:"examType"`
			Tags       []string `json:"tags"`
		} `json:"data"`
		MetadataExtracted bool `json:"metadataExtracted"`
		Credits           int  `json:"credits"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &r); err != nil {
		t.Fatal("could not decode response:", err)
	}

	if r.Data.CourseCode != "CS201" {
		t.Errorf("incorrect course code: expected CS201 got %s", r.Data.CourseCode)
	}
	if r.Data.ExamType != "mid-semester" {
		t.Errorf("incorrect exam type: expected mid-semester got %s", r.Data.ExamType)
	}
	if !r.MetadataExtracted {
		t.Error("metadataExtracted should be true")
	}
	if r.Credits != 15 {
		t.Errorf("incorrect credits: expected 15 got %d", r.Credits)
	}
	if len(r.Data.Tags) != 2 {
		t.Errorf("incorrect tags: got %v", r.Data.Tags)
	}
}

func TestUpload_Unauthorized(t *testing.T) {
	f := createRouter(t)

	resp := f.upload(t, "", "algo.pdf", nil)
	if resp.Code != 401 {
		t.Fatalf("incorrect code: expected 401 got %d", resp.Code)
	}
	if f.storage.Len() != 0 {
		t.Fatal("no file should have been stored")
	}
}

func TestDownload(t *testing.T) {
	f := createRouter(t)
	_, token := f.createUser(t, paperbank.RoleUser, 10)

	resp := f.upload(t, token, "algo.pdf", map[string]string{"subject": "Algorithms"})
	if resp.Code != 200 {
		t.Fatalf("could not upload: %s", resp.Body.String())
	}
	var uploaded struct {
		Data struct {
			ID int `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &uploaded); err != nil {
		t.Fatal("could not decode response:", err)
	}

	req := httptest.NewRequest("GET", fmt.Sprintf("/paperbank/papers/%d/download", uploaded.Data.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	dl := httptest.NewRecorder()
	f.router.ServeHTTP(dl, req)

	if dl.Code != 200 {
		t.Fatalf("incorrect code: expected 200 got %d: %s", dl.Code, dl.Body.String())
	}
	if dl.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("incorrect content type: %s", dl.Header().Get("Content-Type"))
	}
	if dl.Header().Get("Content-Disposition") == "" {
		t.Error("missing content disposition")
	}
	if dl.Body.String() != "%PDF-1.4 test content" {
		t.Errorf("incorrect body: %q", dl.Body.String())
	}
}

func TestDownload_InsufficientCredits(t *testing.T) {
	f := createRouter(t)
	_, uploaderToken := f.createUser(t, paperbank.RoleUser, 10)
	_, brokeToken := f.createUser(t, paperbank.RoleUser, 1)

	resp := f.upload(t, uploaderToken, "algo.pdf", map[string]string{"subject": "Algorithms"})
	if resp.Code != 200 {
		t.Fatalf("could not upload: %s", resp.Body.String())
	}

	req := httptest.NewRequest("GET", "/paperbank/papers/1/download", nil)
	req.Header.Set("Authorization", "Bearer "+brokeToken)
	dl := httptest.NewRecorder()
	f.router.ServeHTTP(dl, req)

	if dl.Code != 400 {
		t.Fatalf("incorrect code: expected 400 got %d: %s", dl.Code, dl.Body.String())
	}
}

func TestGet(t *testing.T) {
	f := createRouter(t)
	_, token := f.createUser(t, paperbank.RoleUser, 10)

	resp := f.upload(t, token, "algo.pdf", map[string]string{"subject": "Algorithms"})
	if resp.Code != 200 {
		t.Fatalf("could not upload: %s", resp.Body.String())
	}

	var tts = []struct {
		Query string
		Code  int
	}{
		{
			// Paper is inserted above
			Query: "/paperbank/papers/1",
			Code:  200,
		},
		{
			// test cannot be decoded as an int
			Query: "/paperbank/papers/test",
			Code:  400,
		},
		{
			// 2 is not in the database
			Query: "/paperbank/papers/2",
			Code:  404,
		},
	}

	for _, tt := range tts {
		req := httptest.NewRequest("GET", tt.Query, nil)
		resp := httptest.NewRecorder()
		f.router.ServeHTTP(resp, req)
		if resp.Code != tt.Code {
			t.Errorf("%s - incorrect code: expected %d got %d", tt.Query, tt.Code, resp.Code)
		}
	}
}

func TestList(t *testing.T) {
	f := createRouter(t)
	_, token := f.createUser(t, paperbank.RoleUser, 10)

	for _, filename := range []string{"algo.pdf", "thermo.pdf"} {
		resp := f.upload(t, token, filename, map[string]string{"subject": filename})
		if resp.Code != 200 {
			t.Fatalf("could not upload: %s", resp.Body.String())
		}
	}

	req := httptest.NewRequest("GET", "/paperbank/papers?courseCode=CS201&limit=1", nil)
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	if resp.Code != 200 {
		t.Fatalf("incorrect code: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var r struct {
		Data       []json.RawMessage    `json:"data"`
		Pagination paperbank.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &r); err != nil {
		t.Fatal("could not decode response:", err)
	}
	if len(r.Data) != 1 {
		t.Fatalf("incorrect number of papers: expected 1 got %d", len(r.Data))
	}
	if r.Pagination.Total != 2 {
		t.Fatalf("incorrect total: expected 2 got %d", r.Pagination.Total)
	}

	// Bad query params are rejected before hitting the index.
	req = httptest.NewRequest("GET", "/paperbank/papers?year=not-a-year", nil)
	resp = httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	if resp.Code != 400 {
		t.Fatalf("incorrect code: expected 400 got %d", resp.Code)
	}
}

func TestDelete_NotOwner(t *testing.T) {
	f := createRouter(t)
	_, ownerToken := f.createUser(t, paperbank.RoleUser, 10)
	_, otherToken := f.createUser(t, paperbank.RoleUser, 10)

	resp := f.upload(t, ownerToken, "algo.pdf", map[string]string{"subject": "Algorithms"})
	if resp.Code != 200 {
		t.Fatalf("could not upload: %s", resp.Body.String())
	}

	req := httptest.NewRequest("DELETE", "/paperbank/papers/1", nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	del := httptest.NewRecorder()
	f.router.ServeHTTP(del, req)
	if del.Code != 403 {
		t.Fatalf("incorrect code: expected 403 got %d", del.Code)
	}

	req = httptest.NewRequest("DELETE", "/paperbank/papers/1", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken)
	del = httptest.NewRecorder()
	f.router.ServeHTTP(del, req)
	if del.Code != 200 {
		t.Fatalf("incorrect code: expected 200 got %d: %s", del.Code, del.Body.String())
	}
	if f.storage.Len() != 0 {
		t.Fatal("file should have been removed")
	}
}

func TestVerify(t *testing.T) {
	f := createRouter(t)
	_, userToken := f.createUser(t, paperbank.RoleUser, 10)
	_, adminToken := f.createUser(t, paperbank.RoleAdmin, 10)

	resp := f.upload(t, userToken, "algo.pdf", map[string]string{"subject": "Algorithms"})
	if resp.Code != 200 {
		t.Fatalf("could not upload: %s", resp.Body.String())
	}

	req := httptest.NewRequest("PUT", "/paperbank/papers/1/verify", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	verify := httptest.NewRecorder()
	f.router.ServeHTTP(verify, req)
	if verify.Code != 403 {
		t.Fatalf("incorrect code: expected 403 got %d", verify.Code)
	}

	req = httptest.NewRequest("PUT", "/paperbank/papers/1/verify", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	verify = httptest.NewRecorder()
	f.router.ServeHTTP(verify, req)
	if verify.Code != 200 {
		t.Fatalf("incorrect code: expected 200 got %d: %s", verify.Code, verify.Body.String())
	}

	var r struct {
		Data struct {
			IsVerified bool `json:"isVerified"`
		} `json:"data"`
	}
	if err := json.Unmarshal(verify.Body.Bytes(), &r); err != nil {
		t.Fatal("could not decode response:", err)
	}
	if !r.Data.IsVerified {
		t.Error("paper should be verified")
	}
}

package gin

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/errors"
	"github.com/bobinette/paperbank/papers"
)

type PaperHandler struct {
	Service *papers.Service

	Authenticator *Authenticator
}

func (h *PaperHandler) RegisterRoutes(router *gin.Engine) {
	auth := h.Authenticator.Authenticate

	router.GET("/paperbank/papers", JSONFormatter(h.List))
	router.GET("/paperbank/papers/:id", JSONFormatter(h.Get))
	router.POST("/paperbank/papers", JSONFormatter(auth(h.Upload)))
	router.DELETE("/paperbank/papers/:id", JSONFormatter(auth(h.Delete)))
	router.PUT("/paperbank/papers/:id/verify", JSONFormatter(auth(h.Verify)))
	router.GET("/paperbank/papers/:id/download", h.Download)
}

func (h *PaperHandler) Upload(c *gin.Context) (interface{}, error) {
	user, err := userFromContext(c)
	if err != nil {
		return nil, err
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return nil, errors.New("no file in request", errors.BadRequest(), errors.WithCause(err))
	}
	defer file.Close()

	year := 0
	if v := c.PostForm("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("invalid year", errors.BadRequest(), errors.WithCause(err))
		}
	}

	req := papers.UploadRequest{
		UserID:   user.ID,
		Filename: header.Filename,
		File:     file,
		UserFields: papers.UserFields{
			Title:       c.PostForm("title"),
			Subject:     c.PostForm("subject"),
			Course:      c.PostForm("course"),
			CourseCode:  c.PostForm("courseCode"),
			ExamType:    c.PostForm("examType"),
			Year:        year,
			Semester:    c.PostForm("semester"),
			Tags:        splitTags(c.PostForm("tags")),
			Description: c.PostForm("description"),
		},
	}

	return h.Service.Upload(c.Request.Context(), req)
}

func (h *PaperHandler) Get(c *gin.Context) (interface{}, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errors.New("invalid paper id", errors.BadRequest(), errors.WithCause(err))
	}

	paper, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": paper,
	}, nil
}

func (h *PaperHandler) List(c *gin.Context) (interface{}, error) {
	search := paperbank.PaperSearch{
		Q:          c.Query("q"),
		CourseCode: c.Query("courseCode"),
		ExamType:   paperbank.ExamType(c.Query("examType")),
		Semester:   paperbank.Semester(c.Query("semester")),
		OrderBy:    c.Query("orderBy"),
	}

	var err error
	if search.Year, err = queryInt(c, "year"); err != nil {
		return nil, err
	}
	if search.UploadedBy, err = queryInt(c, "uploadedBy"); err != nil {
		return nil, err
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		return nil, err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return nil, err
	}
	search.Limit = uint64(limit)
	search.Offset = uint64(offset)

	return h.Service.List(c.Request.Context(), search)
}

func (h *PaperHandler) Delete(c *gin.Context) (interface{}, error) {
	user, err := userFromContext(c)
	if err != nil {
		return nil, err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errors.New("invalid paper id", errors.BadRequest(), errors.WithCause(err))
	}

	if err := h.Service.Delete(c.Request.Context(), id, user.ID); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": "ok",
	}, nil
}

func (h *PaperHandler) Verify(c *gin.Context) (interface{}, error) {
	user, err := userFromContext(c)
	if err != nil {
		return nil, err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errors.New("invalid paper id", errors.BadRequest(), errors.WithCause(err))
	}

	paper, err := h.Service.Verify(c.Request.Context(), id, user.ID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": paper,
	}, nil
}

// Download streams the file, so it bypasses JSONFormatter and renders
// its own errors.
func (h *PaperHandler) Download(c *gin.Context) {
	user, err := h.Authenticator.user(c)
	if err != nil {
		renderError(c, err)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		renderError(c, errors.New("invalid paper id", errors.BadRequest(), errors.WithCause(err)))
		return
	}

	res, err := h.Service.Download(c.Request.Context(), id, user.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	defer res.File.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, res.Filename),
	}
	c.DataFromReader(http.StatusOK, res.Paper.FileSize, contentType(res.Paper.FileKind), res.File, headers)
}

func renderError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	if err, ok := err.(errors.Error); ok {
		code = err.Code()
	}

	c.JSON(code, map[string]interface{}{
		"message": err.Error(),
	})
}

func contentType(kind paperbank.FileKind) string {
	if kind == paperbank.FileKindPDF {
		return "application/pdf"
	}
	return "application/octet-stream"
}

func queryInt(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid "+name, errors.BadRequest(), errors.WithCause(err))
	}
	return i, nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}

	tags := strings.Split(raw, ",")
	for i, tag := range tags {
		tags[i] = strings.TrimSpace(tag)
	}
	return tags
}

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Afonso-Front-End/torre-de-controle/internal/api/middleware"
	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
	"github.com/Afonso-Front-End/torre-de-controle/internal/service"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// Guards are the middlewares handlers attach to their routes.
type Guards struct {
	Auth        gin.HandlerFunc
	Table       gin.HandlerFunc
	Upload      gin.HandlerFunc
	Limiter     *middleware.RateLimiter
	MaxUploadMB int
}

// Data is the chain for authenticated routes scoped to a table.
func (g Guards) Data(extra ...gin.HandlerFunc) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{g.Auth, g.Table}
	return append(chain, extra...)
}

// Limit returns the rate limit middleware for a named rule.
func (g Guards) Limit(name string, perMinute int) gin.HandlerFunc {
	return g.Limiter.Limit(name, perMinute, time.Minute)
}

// Import is the chain for spreadsheet uploads: 20 per minute.
func (g Guards) Import(name string) []gin.HandlerFunc {
	return g.Data(g.Limit(name, 20), g.Upload)
}

func respondError(c *gin.Context, err error) {
	status, msg := apperr.Status(err)
	c.JSON(status, gin.H{"error": msg})
}

// parseDates splits the comma separated datas query parameter. Blank
// entries are dropped; nil means no filter.
func parseDates(c *gin.Context) []string {
	return splitCSV(c.Query("datas"))
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// pageQuery reads page, per_page (clamped to 1..MaxPerPage) and datas.
func pageQuery(c *gin.Context) service.PageQuery {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constants.DefaultPage)))
	if err != nil || page < 1 {
		page = constants.DefaultPage
	}
	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(constants.DefaultPerPage)))
	if err != nil {
		perPage = constants.DefaultPerPage
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > constants.MaxPerPage {
		perPage = constants.MaxPerPage
	}
	return service.PageQuery{Page: page, PerPage: perPage, Dates: parseDates(c)}
}

// readUpload returns the bytes of the multipart field "file", which must
// be an .xlsx file no larger than maxMB.
func readUpload(c *gin.Context, maxMB int) ([]byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return nil, apperr.SizeLimitExceeded(maxMB)
		}
		return nil, apperr.InvalidInput(constants.ErrFileMissing)
	}
	if fh.Filename == "" {
		return nil, apperr.InvalidInput(constants.ErrFileMissing)
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
		return nil, apperr.InvalidInput(constants.ErrFileNotXLSX)
	}
	if maxMB > 0 && fh.Size > int64(maxMB)*1024*1024 {
		return nil, apperr.SizeLimitExceeded(maxMB)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperr.InvalidInput(constants.ErrFileMissing)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperr.InvalidFormat(err)
	}
	return data, nil
}

// slaFilter reads the shared SLA query parameters.
func slaFilter(c *gin.Context) service.SLAFilter {
	return service.SLAFilter{
		Dates:   parseDates(c),
		Bases:   splitCSV(c.Query("bases")),
		Cities:  splitCSV(c.Query("cidades")),
		Periodo: c.Query("periodo"),
	}
}

func respondDates(c *gin.Context, list func() ([]string, error)) {
	datas, err := list()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datas": datas})
}

// handleImport reads the uploaded workbook and runs an import on it for
// the authenticated user.
func handleImport[T any](c *gin.Context, maxMB int, run func(ctx context.Context, userID string, data []byte) (T, error)) {
	data, err := readUpload(c, maxMB)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := run(c.Request.Context(), middleware.UserID(c), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

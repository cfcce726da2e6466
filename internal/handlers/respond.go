package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/apperrors"
	"github.com/thereayou/studybud/internal/database"
	"github.com/thereayou/studybud/internal/forms"
	"github.com/thereayou/studybud/internal/handlers/dto"
	"github.com/thereayou/studybud/internal/logger"
)

// respondError writes the status and payload an error maps to.
func respondError(c *gin.Context, err error) {
	var ferrs forms.Errors
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &ferrs):
		c.JSON(http.StatusBadRequest, ferrs)
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": apperrors.Message(err, "Not found.")})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": apperrors.Message(err, "You do not have permission to perform this action.")})
	case errors.Is(err, apperrors.ErrInvalidCredentials), errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.Message(err, "Invalid email or password.")})
	case errors.Is(err, apperrors.ErrRegistrationFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": apperrors.Message(err, "registration failed")})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
	default:
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// idParam parses a uuid path parameter; a malformed id cannot name anything,
// so it answers 404 with notFound.
func idParam(c *gin.Context, name, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return uuid.Nil, false
	}
	return id, true
}

func pageRequest(c *gin.Context) database.PageRequest {
	return database.PageRequest{
		Number: database.ParsePageNumber(c.Query("page")),
		Size:   database.ParsePageSize(c.Query("page_size"), database.DefaultPageSize),
	}
}

func paginated[M any, R any](c *gin.Context, page database.Page[M], results []R) dto.Paginated[R] {
	out := dto.Paginated[R]{Count: page.Total, Results: results}
	if page.HasNext {
		next := pageURL(c, page.Number+1)
		out.Next = &next
	}
	if page.HasPrevious {
		prev := pageURL(c, page.Number-1)
		out.Previous = &prev
	}
	return out
}

// pageURL is the absolute URL of the current listing at page number. Page 1
// drops the parameter.
func pageURL(c *gin.Context, number int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(proto)
	}

	query := c.Request.URL.Query()
	if number <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}
	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path, RawQuery: query.Encode()}
	return u.String()
}

// optionalFile returns the uploaded part named field, or nil.
func optionalFile(c *gin.Context, field string) *multipart.FileHeader {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}

func files(c *gin.Context, field string) []*multipart.FileHeader {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	return form.File[field]
}

// bindForm fills form from a JSON or form-encoded body.
func bindForm(c *gin.Context, form interface{}) bool {
	if err := c.ShouldBind(form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, err)
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

package documents

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"persona-review/internal/shared/server/middleware"
	"persona-review/internal/shared/server/respond"
)

const defaultMaxUpload = 10 << 20 // 10MB

// Nested contributes one keyed collection to the document detail view.
type Nested interface {
	Key() string
	ForDocument(ctx context.Context, documentID string) (any, error)
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	Nested         []Nested
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, nested ...Nested) *Handler {
	return &Handler{Svc: svc, Nested: nested, MaxUploadBytes: defaultMaxUpload}
}

// RegisterRoutes attaches document routes to the router group. Uploads make
// no model call, so completion middleware is not used.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, _ ...gin.HandlerFunc) {
	rg.POST("/documents", h.create)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.detail)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	// multipart framing needs a little headroom above the file limit
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)

	if err := c.Request.ParseMultipartForm(limit); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds the upload limit", gin.H{"maxBytes": limit})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart body", nil)
		return
	}

	in := CreateInput{Title: c.PostForm("title")}

	file, header, err := c.Request.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		if header.Size > limit {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds the upload limit", gin.H{"maxBytes": limit})
			return
		}
		in.FileName = header.Filename
		in.Body = file
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	doc, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.DocumentIDKey, doc.ID)
	respond.Created(c, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	limit := queryInt(c, "limit", defaultListLimit)
	offset := queryInt(c, "offset", 0)
	limit, offset = clampPage(limit, offset)

	docs, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toResponse(doc))
	}
	respond.OK(c, respond.Page[DocumentResponse]{Items: items, Limit: limit, Offset: offset})
}

func (h *Handler) detail(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.DocumentIDKey, id)

	doc, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	out := DocumentDetail{DocumentResponse: toResponse(doc), Related: make(map[string]any, len(h.Nested))}
	for _, n := range h.Nested {
		related, err := n.ForDocument(c.Request.Context(), id)
		if err != nil {
			h.fail(c, err)
			return
		}
		out.Related[n.Key()] = related
	}
	respond.OK(c, out)
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.DocumentIDKey, id)

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Document request failed", nil)
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

package analyses

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"persona-review/internal/documents"
	"persona-review/internal/extract"
	"persona-review/internal/llm"
	"persona-review/internal/shared/server/middleware"
	"persona-review/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, completion ...gin.HandlerFunc) {
	rg.POST("/documents/:id/analyze", append(completion, h.analyze)...)
	rg.GET("/analyses", h.list)
	rg.POST("/analyses", h.create)
	rg.GET("/analyses/:id", h.get)
}

func (h *Handler) analyze(c *gin.Context) {
	documentID := c.Param("id")
	c.Set(middleware.DocumentIDKey, documentID)

	analysis, created, err := h.Svc.Analyze(c.Request.Context(), documentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.AnalysisIDKey, analysis.ID)

	if !created {
		respond.OK(c, AnalyzeResponse{
			Message:          "Analysis already exists",
			AnalysisID:       analysis.ID,
			StructuredResult: analysis.StructuredResult,
		})
		return
	}
	respond.Created(c, AnalyzeResponse{AnalysisID: analysis.ID, StructuredResult: analysis.StructuredResult})
}

func (h *Handler) create(c *gin.Context) {
	var req createAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	c.Set(middleware.DocumentIDKey, req.DocumentID)

	analysis, err := h.Svc.Create(c.Request.Context(), req.DocumentID, req.StructuredResult)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.AnalysisIDKey, analysis.ID)
	respond.Created(c, toResponse(analysis))
}

func (h *Handler) get(c *gin.Context) {
	analysis, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.AnalysisIDKey, analysis.ID)
	c.Set(middleware.DocumentIDKey, analysis.DocumentID)
	respond.OK(c, toResponse(analysis))
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, offset = clampPage(limit, offset)

	items, err := h.Svc.List(c.Request.Context(), c.Query("documentId"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, respond.Page[AnalysisResponse]{Items: ToResponses(items), Limit: limit, Offset: offset})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNoFile):
		respond.Error(c, http.StatusBadRequest, "no_file", "Document has no file to analyze", nil)
	case errors.Is(err, documents.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Analysis not found", nil)
	case errors.Is(err, ErrAlreadyExists):
		respond.Error(c, http.StatusConflict, "already_exists", "Document already has an analysis", nil)
	case errors.Is(err, extract.ErrExtraction), errors.Is(err, extract.ErrEmptyContent):
		respond.Error(c, http.StatusInternalServerError, "extraction_failed", "Could not extract text from the document", nil)
	case errors.Is(err, llm.ErrCompletion):
		respond.Error(c, http.StatusInternalServerError, "completion_failed", "The persona could not produce an analysis", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Analysis request failed", nil)
	}
}

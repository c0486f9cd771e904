package conversations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"persona-review/internal/documents"
	"persona-review/internal/llm"
	"persona-review/internal/shared/server/middleware"
	"persona-review/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the conversations service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches conversation routes. completion runs in front of
// the two chat routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, completion ...gin.HandlerFunc) {
	rg.POST("/documents/:id/chat", append(completion, h.documentChat)...)
	rg.POST("/chat", append(completion, h.generalChat)...)
	rg.GET("/documents/:id/conversations", h.history)
	rg.GET("/conversations", h.list)
	rg.POST("/conversations", h.create)
	rg.GET("/conversations/:id", h.get)
	rg.DELETE("/conversations/:id", h.delete)
}

func (h *Handler) documentChat(c *gin.Context) {
	documentID := c.Param("id")
	c.Set(middleware.DocumentIDKey, documentID)
	h.chat(c, documentID)
}

func (h *Handler) generalChat(c *gin.Context) {
	h.chat(c, "")
}

func (h *Handler) chat(c *gin.Context, documentID string) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}

	exchange, err := h.Svc.Chat(c.Request.Context(), ChatInput{
		Message:    req.Message,
		DocumentID: documentID,
		GroupID:    req.ConversationGroupID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.ConversationIDKey, exchange.User.ConversationGroupID)
	respond.OK(c, ChatResponse{Conversation: []TurnResponse{toResponse(exchange.User), toResponse(exchange.Reply)}})
}

func (h *Handler) history(c *gin.Context) {
	documentID := c.Param("id")
	c.Set(middleware.DocumentIDKey, documentID)

	turns, err := h.Svc.History(c.Request.Context(), documentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, ToResponses(turns))
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, offset = clampPage(limit, offset)

	turns, err := h.Svc.List(c.Request.Context(), c.Query("documentId"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, respond.Page[TurnResponse]{Items: ToResponses(turns), Limit: limit, Offset: offset})
}

func (h *Handler) create(c *gin.Context) {
	var req createTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	c.Set(middleware.DocumentIDKey, req.DocumentID)

	turn, err := h.Svc.Create(c.Request.Context(), Turn{
		DocumentID:          req.DocumentID,
		Message:             req.Message,
		IsPersonaReply:      req.IsPersonaReply,
		ParentTurnID:        req.ParentTurnID,
		ConversationGroupID: req.ConversationGroupID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.Created(c, toResponse(turn))
}

func (h *Handler) get(c *gin.Context) {
	turn, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.DocumentIDKey, turn.DocumentID)
	respond.OK(c, toResponse(turn))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Message is required", nil)
	case errors.Is(err, ErrAnalysisRequired):
		respond.Error(c, http.StatusBadRequest, "analysis_required", "Document must be analyzed before chatting", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, documents.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Conversation turn not found", nil)
	case errors.Is(err, llm.ErrCompletion):
		respond.Error(c, http.StatusInternalServerError, "completion_failed", "The persona could not reply", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Conversation request failed", nil)
	}
}

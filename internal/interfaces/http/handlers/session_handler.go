package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
	"github.com/BlockchainHB/launchfast-sub000/internal/interfaces/http/middleware"
	"github.com/BlockchainHB/launchfast-sub000/pkg/errors"
)

// SessionHandler serves stored-session endpoints.
type SessionHandler struct {
	service    ResearchService
	logger     logging.Logger
	nameMaxLen int
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(service ResearchService, log logging.Logger, nameMaxLen int) *SessionHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SessionHandler{service: service, logger: log.Named("session_handler"), nameMaxLen: nameMaxLen}
}

// RegisterRoutes wires the session endpoints into the authenticated group.
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sessions", h.List)
	rg.GET("/sessions/:id", h.Get)
	rg.DELETE("/sessions/:id", h.Delete)
	rg.PATCH("/sessions/:id", h.Rename)
}

// List handles GET /sessions.
func (h *SessionHandler) List(c *gin.Context) {
	summaries, err := h.service.ListSessions(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if summaries == nil {
		summaries = []keyword.SessionSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": summaries})
}

// Get handles GET /sessions/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.service.GetSession(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Delete handles DELETE /sessions/:id.
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteSession(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type renameRequestBody struct {
	Name string `json:"name" binding:"required"`
}

// Rename handles PATCH /sessions/:id.
func (h *SessionHandler) Rename(c *gin.Context) {
	var body renameRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "invalid request body"))
		return
	}
	if h.nameMaxLen > 0 && len(body.Name) > h.nameMaxLen {
		respondError(c, errors.Newf(errors.ErrCodeSessionNameTooLong,
			"session name exceeds %d characters", h.nameMaxLen))
		return
	}

	if err := h.service.RenameSession(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), body.Name); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

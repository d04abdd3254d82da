package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BlockchainHB/launchfast-sub000/internal/application/research"
	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
	"github.com/BlockchainHB/launchfast-sub000/internal/interfaces/http/middleware"
	"github.com/BlockchainHB/launchfast-sub000/pkg/errors"
)

// ResearchHandler serves research-run endpoints.
type ResearchHandler struct {
	service        ResearchService
	logger         logging.Logger
	nameMaxLen     int
	enhanceDefault bool
}

// NewResearchHandler constructs the handler.  nameMaxLen bounds session names;
// enhanceDefault applies when the request leaves enhancement unset.
func NewResearchHandler(service ResearchService, log logging.Logger, nameMaxLen int, enhanceDefault bool) *ResearchHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ResearchHandler{
		service:        service,
		logger:         log.Named("research_handler"),
		nameMaxLen:     nameMaxLen,
		enhanceDefault: enhanceDefault,
	}
}

// RegisterRoutes wires the research endpoints into the authenticated group.
func (h *ResearchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/research", h.Run)
	rg.POST("/research/stream", h.RunStream)
}

// researchRequestBody is the JSON request for both research endpoints.
type researchRequestBody struct {
	ProductIDs []string         `json:"product_ids" binding:"required"`
	Name       string           `json:"name"`
	Options    *keyword.Options `json:"options"`
}

func (h *ResearchHandler) buildRequest(c *gin.Context) (research.ResearchRequest, error) {
	var body researchRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return research.ResearchRequest{}, errors.Wrap(err, errors.ErrCodeValidation, "invalid request body")
	}
	if h.nameMaxLen > 0 && len(body.Name) > h.nameMaxLen {
		return research.ResearchRequest{}, errors.Newf(errors.ErrCodeSessionNameTooLong,
			"session name exceeds %d characters", h.nameMaxLen)
	}

	opts := keyword.Options{EnhanceResults: h.enhanceDefault}
	if body.Options != nil {
		opts = *body.Options
	}

	return research.ResearchRequest{
		UserID:     middleware.GetUserID(c),
		ProductIDs: body.ProductIDs,
		Options:    opts,
		Name:       body.Name,
	}, nil
}

// Run handles POST /research: synchronous execution, full session in the
// response.
func (h *ResearchHandler) Run(c *gin.Context) {
	req, err := h.buildRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := h.service.Research(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// RunStream handles POST /research/stream: progress checkpoints as
// server-sent events, then the completed session as the final event.
func (h *ResearchHandler) RunStream(c *gin.Context) {
	req, err := h.buildRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}

	// Generously buffered so the pipeline's non-blocking sends are not
	// dropped while the previous event is being flushed.
	progress := make(chan research.ProgressEvent, 64)
	req.Progress = progress

	type outcome struct {
		session *keyword.ResearchSession
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		session, err := h.service.Research(c.Request.Context(), req)
		done <- outcome{session: session, err: err}
		close(progress)
	}()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")

	var result outcome
	c.Stream(func(_ io.Writer) bool {
		select {
		case evt, ok := <-progress:
			if !ok {
				return false
			}
			c.SSEvent("progress", evt)
			return true
		case result = <-done:
			// Drain checkpoints emitted before completion.
			for evt := range progress {
				c.SSEvent("progress", evt)
			}
			return false
		}
	})
	if result.session == nil && result.err == nil {
		result = <-done
	}

	if result.err != nil {
		c.SSEvent("error", ErrorResponse{
			Code:    errors.GetCode(result.err).String(),
			Message: result.err.Error(),
		})
		return
	}
	c.SSEvent("result", result.session)
}

package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mikeboe/deep-research/pkg/peer"
	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/vectorstore"
)

type Handler struct {
	Service *Service

	// Engine serves the synchronous run path and the peer endpoints.
	// Background jobs build their own engine so each job logs to its
	// own DB handler.
	Engine *research.Engine
}

func NewHandler(s *Service, engine *research.Engine) *Handler {
	return &Handler{Service: s, Engine: engine}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.POST("/research", h.createJob)
		api.POST("/research/run", h.runResearch)
		api.GET("/research", h.listJobs)
		api.GET("/research/:id", h.getJob)
		api.GET("/research/:id/logs", h.getJobLogs)
		api.GET("/sources", h.searchSources)
	}

	// Peer endpoints let another node delegate its search rounds and
	// relevance evaluations here.
	p := r.Group("/peer")
	{
		p.POST("/search", h.peerSearch)
		p.POST("/evaluate", h.peerEvaluate)
	}
}

func (h *Handler) createJob(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.Service.CreateJob(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, job)
}

// runResearch executes the whole pipeline synchronously and returns
// the rendered markdown report.
func (h *Handler) runResearch(c *gin.Context) {
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.Engine.Run(c.Request.Context(), req.Query, req.Budget())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	report, err := h.Engine.RenderReport(c.Request.Context(), rec)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, research.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, research.ErrPeerUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) listJobs(c *gin.Context) {
	jobs, err := h.Service.ListJobs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// Return empty list instead of null
	if jobs == nil {
		jobs = []Job{}
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) getJob(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	job, err := h.Service.GetJob(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *Handler) getJobLogs(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}

	logs, err := h.Service.GetJobLogs(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if logs == nil {
		logs = []LogEntry{}
	}
	c.JSON(http.StatusOK, logs)
}

func (h *Handler) searchSources(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	topK := 5
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		topK = n
	}

	if h.Service.Archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "source archive not configured"})
		return
	}

	chunks, err := h.Service.Archive.Search(c.Request.Context(), query, topK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if chunks == nil {
		chunks = []vectorstore.ScoredChunk{}
	}
	c.JSON(http.StatusOK, chunks)
}

func (h *Handler) peerSearch(c *gin.Context) {
	var req peer.SearchProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Always run the round locally; a peer forwarding to another
	// peer would loop.
	accepted, err := h.Engine.ProcessSearch(c.Request.Context(), req.Query, req.AccumulatedSources)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, peer.SearchProcessResponse{
		SearchResults: accepted,
		Message:       "ok",
	})
}

func (h *Handler) peerEvaluate(c *gin.Context) {
	var req peer.EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verdict, err := h.Engine.Evaluate(c.Request.Context(), req.Query, req.PendingResult, req.AccumulatedSources)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, peer.EvaluationResponse{Evaluation: verdict})
}

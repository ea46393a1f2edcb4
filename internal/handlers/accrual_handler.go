package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"month-end-close-backend/internal/models"
	"month-end-close-backend/internal/repository"
	"month-end-close-backend/internal/services/accrual"
	"month-end-close-backend/internal/services/posting"
)

type AccrualService interface {
	RunDetection(ctx context.Context, orgID string, from, to time.Time, debug bool) (*accrual.Result, error)
	List(ctx context.Context, f repository.CandidateFilter) ([]models.AccrualCandidate, error)
	Approve(ctx context.Context, id uuid.UUID) (*accrual.Approval, error)
	Reject(ctx context.Context, id uuid.UUID) (*models.AccrualCandidate, error)
	Post(ctx context.Context, id uuid.UUID) (posting.Result, error)
}

type AccrualHandler struct {
	service AccrualService
}

func NewAccrualHandler(s AccrualService) *AccrualHandler {
	return &AccrualHandler{service: s}
}

func (h *AccrualHandler) Detect(c *gin.Context) {
	var payload struct {
		PeriodFrom string `json:"period_from"`
		PeriodTo   string `json:"period_to"`
		Debug      bool   `json:"debug"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	from, to, err := parsePeriod(payload.PeriodFrom, payload.PeriodTo)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.RunDetection(c.Request.Context(), c.Param("orgId"), from, to, payload.Debug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"candidates": res.Candidates,
		"debug":      res.Debug,
	})
}

func (h *AccrualHandler) List(c *gin.Context) {
	filter := repository.CandidateFilter{
		OrgID:  c.Param("orgId"),
		Status: c.Query("status"),
	}
	if s := c.Query("period_from"); s != "" {
		from, err := time.Parse(dateLayout, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_from, expected YYYY-MM-DD"})
			return
		}
		filter.PeriodFrom = &from
	}
	if s := c.Query("period_to"); s != "" {
		to, err := time.Parse(dateLayout, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_to, expected YYYY-MM-DD"})
			return
		}
		filter.PeriodTo = &to
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *AccrualHandler) Approve(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}
	approval, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidate": approval.Candidate, "posting": approval.Posting})
}

func (h *AccrualHandler) Reject(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}
	candidate, err := h.service.Reject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "candidate rejected", "candidate": candidate})
}

func (h *AccrualHandler) Post(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}
	res, err := h.service.Post(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posting": res})
}

func candidateID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid candidate ID"})
		return uuid.Nil, false
	}
	return id, true
}

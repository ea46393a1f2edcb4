package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"month-end-close-backend/internal/services/review"
)

type Reviewer interface {
	Summarize(ctx context.Context, orgID string, from, to time.Time) (*review.Summary, error)
}

type ReviewHandler struct {
	reviewer Reviewer
}

func NewReviewHandler(r Reviewer) *ReviewHandler {
	return &ReviewHandler{reviewer: r}
}

func (h *ReviewHandler) CloseReview(c *gin.Context) {
	from, to, err := parsePeriod(c.Query("period_from"), c.Query("period_to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	summary, err := h.reviewer.Summarize(c.Request.Context(), c.Param("orgId"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

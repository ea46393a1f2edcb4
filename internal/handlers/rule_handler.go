package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"month-end-close-backend/internal/models"
	"month-end-close-backend/internal/services/rules"
)

type RuleStore interface {
	Get(ctx context.Context, orgID string) (*models.AccrualRule, error)
	Save(ctx context.Context, orgID string, update rules.Update) (*models.AccrualRule, error)
	ResetToDefaults(ctx context.Context, orgID string) (*models.AccrualRule, error)
}

type RuleHandler struct {
	store RuleStore
}

func NewRuleHandler(store RuleStore) *RuleHandler {
	return &RuleHandler{store: store}
}

func (h *RuleHandler) Get(c *gin.Context) {
	rule, err := h.store.Get(c.Request.Context(), c.Param("orgId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

func (h *RuleHandler) Update(c *gin.Context) {
	var payload rules.Update
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	rule, err := h.store.Save(c.Request.Context(), c.Param("orgId"), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "accrual rule saved", "rule": rule})
}

func (h *RuleHandler) Reset(c *gin.Context) {
	rule, err := h.store.ResetToDefaults(c.Request.Context(), c.Param("orgId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "accrual rule reset", "rule": rule})
}

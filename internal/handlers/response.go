package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"month-end-close-backend/internal/ledger"
	"month-end-close-backend/internal/repository"
	"month-end-close-backend/internal/services/accrual"
	"month-end-close-backend/internal/services/review"
	"month-end-close-backend/internal/services/rules"
)

const dateLayout = "2006-01-02"

func statusFor(err error) int {
	var apiErr *ledger.APIError
	switch {
	case errors.Is(err, accrual.ErrInvalidPeriod),
		errors.Is(err, review.ErrInvalidPeriod),
		errors.Is(err, rules.ErrInvalidRule):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, ledger.ErrNoConnection):
		return http.StatusNotFound
	case errors.Is(err, accrual.ErrInvalidTransition):
		return http.StatusConflict
	case errors.As(err, &apiErr),
		errors.Is(err, ledger.ErrCredentialExpired):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// parsePeriod reads YYYY-MM-DD dates. Both must be present.
func parsePeriod(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, errors.New("period_from and period_to are required")
	}
	from, err := time.Parse(dateLayout, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid period_from, expected YYYY-MM-DD")
	}
	to, err := time.Parse(dateLayout, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid period_to, expected YYYY-MM-DD")
	}
	return from, to, nil
}

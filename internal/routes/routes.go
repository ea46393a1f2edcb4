package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"month-end-close-backend/internal/config"
	handler "month-end-close-backend/internal/handlers"
	"month-end-close-backend/internal/ledger"
	"month-end-close-backend/internal/repository"
	"month-end-close-backend/internal/services/accrual"
	"month-end-close-backend/internal/services/posting"
	"month-end-close-backend/internal/services/review"
	"month-end-close-backend/internal/services/rules"
)

type Handlers struct {
	Rules    *handler.RuleHandler
	Accruals *handler.AccrualHandler
	Review   *handler.ReviewHandler
}

// RegisterRoutes wires repositories, services and handlers onto r.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, logger *logrus.Logger, locker posting.Locker) {
	ruleRepo := repository.NewAccrualRuleRepository(db)
	candidateRepo := repository.NewAccrualCandidateRepository(db)
	postingRepo := repository.NewPostingRecordRepository(db)
	connectionRepo := repository.NewLedgerConnectionRepository(db)

	creds := ledger.NewDBCredentialProvider(connectionRepo, nil)
	ledgerClient := ledger.NewClient(cfg.LedgerBaseURL, cfg.LedgerMinorVersion, &http.Client{Timeout: cfg.LedgerHTTPTimeout}, creds, logger)

	ruleStore := rules.NewStore(ruleRepo, logger)
	detector := accrual.NewDetector(ledgerClient, accrual.Options{
		PresentTolerance:  cfg.PresentTolerance,
		NoiseFloor:        cfg.NoiseFloor,
		DebugExampleLimit: cfg.DebugExampleLimit,
		ReportName:        accrual.ProfitAndLossReport,
	}, logger)
	gateway := posting.NewGateway(ledgerClient, creds, postingRepo, locker, logger)
	accrualService := accrual.NewService(ruleStore, detector, candidateRepo, gateway, logger)
	reviewService := review.NewService(ledgerClient, ruleStore, logger)

	Mount(r, Handlers{
		Rules:    handler.NewRuleHandler(ruleStore),
		Accruals: handler.NewAccrualHandler(accrualService),
		Review:   handler.NewReviewHandler(reviewService),
	})
}

func Mount(r *gin.Engine, h Handlers) {
	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	orgs := api.Group("/orgs/:orgId")
	orgs.GET("/accrual-rules", h.Rules.Get)
	orgs.PUT("/accrual-rules", h.Rules.Update)
	orgs.POST("/accrual-rules/reset", h.Rules.Reset)
	orgs.POST("/accruals/detect", h.Accruals.Detect)
	orgs.GET("/accruals", h.Accruals.List)
	orgs.GET("/close-review", h.Review.CloseReview)

	// Candidate-level routes
	accruals := api.Group("/accruals")
	accruals.POST("/:id/approve", h.Accruals.Approve)
	accruals.POST("/:id/reject", h.Accruals.Reject)
	accruals.POST("/:id/post", h.Accruals.Post)
}

package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"buildinspect/internal/config"
	"buildinspect/internal/domain/complaint"
	"buildinspect/internal/domain/dashboard"
	"buildinspect/internal/domain/identity"
	"buildinspect/internal/domain/inspection"
	"buildinspect/internal/domain/ledger"
	"buildinspect/internal/domain/message"
	"buildinspect/internal/domain/report"
	"buildinspect/internal/middleware"
	"buildinspect/internal/pkg/jwt"
	"buildinspect/internal/pkg/metrics"
)

// App holds the wired services and the HTTP router built on them.
type App struct {
	Router *gin.Engine
	Tokens *jwt.Service

	Identity   *identity.Service
	Inspection *inspection.Service
	Ledger     *ledger.Service
	Messages   *message.Service
	Complaints *complaint.Service
}

func New(db *gorm.DB, cfg *config.Config) *App {
	tokens := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	identityRepo := identity.NewRepository(db)
	identityService := identity.NewService(identityRepo)
	credentials := identity.NewCredentials(identityRepo, identityService)

	inspectionRepo := inspection.NewRepository(db)
	inspectionService := inspection.NewService(inspectionRepo, identityService, cfg.DefaultFee)
	ledgerService := ledger.NewService(db, identityService, inspectionService)
	messageService := message.NewService(db, identityService)
	complaintService := complaint.NewService(db, identityService)
	reportService := report.NewService(inspectionRepo, identityService)
	dashboardService := dashboard.NewService(identityService, inspectionService, ledgerService, messageService)

	// Rejecting an inspector purges dependants in this order; payments must go
	// before the requests they reference.
	identityService.RegisterPurger(messageService)
	identityService.RegisterPurger(complaintService)
	identityService.RegisterPurger(ledgerService)
	identityService.RegisterPurger(inspectionService)

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	require := middleware.NewRoles(identityService).Require

	identityHandler := identity.NewHandler(identityService, credentials, tokens)

	v1 := r.Group("/api/v1")
	{
		identityHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(tokens))
		{
			identityHandler.RegisterProtectedRoutes(protected, require)
			inspection.NewHandler(inspectionService, identityService).RegisterRoutes(protected, require)
			report.NewHandler(reportService).RegisterRoutes(protected)
			ledger.NewHandler(ledgerService, inspectionService).RegisterRoutes(protected, require)
			message.NewHandler(messageService).RegisterRoutes(protected)
			complaint.NewHandler(complaintService).RegisterRoutes(protected, require)
			dashboard.NewHandler(dashboardService).RegisterRoutes(protected, require)
		}
	}

	return &App{
		Router:     r,
		Tokens:     tokens,
		Identity:   identityService,
		Inspection: inspectionService,
		Ledger:     ledgerService,
		Messages:   messageService,
		Complaints: complaintService,
	}
}

// Package server assembles the HTTP router.
package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "spendsync/internal/docs" // registers the swagger spec
	"spendsync/internal/handlers"
	"spendsync/internal/middleware"
	"spendsync/internal/parser"
	"spendsync/internal/services"
)

// Options configures the router's middleware.
type Options struct {
	JWTSecret    []byte
	IngestAPIKey string
	CORSOrigins  []string
}

// Services are the collaborators the handlers are built from.
type Services struct {
	Transactions  services.TransactionServicer
	Categories    services.CategoryServicer
	Summary       services.SummaryServicer
	Settings      services.SettingsServicer
	Mail          services.MailConnectionServicer
	Notifications services.NotificationServicer
	Sync          services.SyncServicer
	SyncRuns      services.SyncRunServicer
	Registry      *parser.Registry
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Options, svc Services) *gin.Engine {
	syncHandler := handlers.NewSyncHandler(svc.Sync, svc.SyncRuns)
	ruleHandler := handlers.NewRuleHandler(svc.Registry)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	summaryHandler := handlers.NewSummaryHandler(svc.Summary)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings)
	mailHandler := handlers.NewMailHandler(svc.Mail)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(corsMiddleware(opts.CORSOrigins))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Machine-to-machine ingest
	ingest := v1.Group("/ingest")
	ingest.Use(middleware.IngestAuthMiddleware(opts.IngestAPIKey))
	ingest.POST("/users/:userID/emails", syncHandler.Ingest)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(opts.JWTSecret))

	sync := protected.Group("/sync")
	sync.POST("", syncHandler.Sync)
	sync.POST("/emails", syncHandler.SyncEmails)
	sync.GET("/runs", syncHandler.ListRuns)

	protected.POST("/parse", ruleHandler.Parse)
	rules := protected.Group("/rules")
	rules.GET("", ruleHandler.ListRules)
	rules.GET("/lookup", ruleHandler.LookupRule)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id/category", transactionHandler.AssignCategory)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	summary := protected.Group("/summary")
	summary.GET("", summaryHandler.GetSummary)
	summary.GET("/categories", summaryHandler.GetCategoryUsage)
	summary.GET("/top-categories", summaryHandler.GetTopCategories)

	protected.GET("/settings", settingsHandler.GetSettings)
	protected.PUT("/settings", settingsHandler.UpdateSettings)

	mailbox := protected.Group("/mail/connection")
	mailbox.PUT("", mailHandler.Connect)
	mailbox.GET("", mailHandler.GetConnection)
	mailbox.DELETE("", mailHandler.Disconnect)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.ListNotifications)
	notifications.POST("/:id/delivered", notificationHandler.MarkDelivered)

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

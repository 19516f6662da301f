package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Engineernoob/Term-Mail/internal/api/handlers"
	"github.com/Engineernoob/Term-Mail/internal/api/middleware"
	"github.com/Engineernoob/Term-Mail/internal/config"
	"github.com/Engineernoob/Term-Mail/internal/services"
)

// SetupRouter initializes and returns the Gin router with all routes configured
func SetupRouter(cfg *config.Config, accountService *services.AccountService, mailService *services.MailService, logService *services.LogService) (*gin.Engine, *middleware.APIKeyManager, error) {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.CORSOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	apiKeyManager, err := middleware.NewAPIKeyManager(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	accountHandler := handlers.NewAccountHandler(accountService, logService)
	mailHandler := handlers.NewMailHandler(mailService, logService)
	addressHandler := handlers.NewAddressHandler(accountService, mailService, logService)

	// Health check endpoint (no auth required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api")
	{
		api.Use(middleware.APIKeyMiddleware(apiKeyManager))

		accounts := api.Group("/accounts")
		{
			accounts.GET("", accountHandler.ListAccounts)
			accounts.POST("/:id/test", accountHandler.TestConnection)

			accounts.GET("/:id/folders", mailHandler.ListFolders)
			accounts.GET("/:id/folders/:folder/messages", mailHandler.ListMessages)
			accounts.GET("/:id/folders/:folder/messages/:msgId", mailHandler.GetMessage)
			accounts.PUT("/:id/folders/:folder/messages/:msgId/read", mailHandler.MarkRead)
			accounts.PUT("/:id/folders/:folder/messages/:msgId/starred", mailHandler.MarkStarred)
			accounts.DELETE("/:id/folders/:folder/messages/:msgId", mailHandler.DeleteMessage)

			accounts.POST("/:id/messages/send", mailHandler.SendMessage)
			accounts.GET("/:id/messages/:msgId/attachments/:filename", addressHandler.DownloadAttachment)
			accounts.GET("/:id/search", mailHandler.Search)
		}

		addresses := api.Group("/addresses")
		{
			addresses.GET("", addressHandler.ListAddresses)
			addresses.POST("", addressHandler.CreateAddress)
			addresses.DELETE("/:address", addressHandler.DeleteAddress)
			addresses.PUT("/:address/relay", addressHandler.SetRelay)
		}

		api.GET("/logs", accountHandler.ListLogs)
	}

	return router, apiKeyManager, nil
}

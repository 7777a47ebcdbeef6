// main.go
package main

import (
	"fmt"
	"net/http"

	"github.com/ariebrainware/rental-unit-registry/config"
	"github.com/ariebrainware/rental-unit-registry/endpoint"
	"github.com/ariebrainware/rental-unit-registry/middleware"
	"github.com/ariebrainware/rental-unit-registry/model"
	"github.com/ariebrainware/rental-unit-registry/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func setupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	codes := router.Group("/unit-code", middleware.RateLimiter(middleware.RateLimitConfig{}))
	{
		codes.POST("", endpoint.GenerateUnitCode)
		codes.POST("/sequence", endpoint.GenerateSequentialUnitCodes)
		codes.GET("/:code", endpoint.ParseUnitCode)
		codes.GET("/:code/validate", endpoint.ValidateUnitCode)
	}

	auth := middleware.ValidateAPIToken()

	router.GET("/property", endpoint.ListProperties)
	router.POST("/property", auth, endpoint.CreateProperty)
	router.GET("/property/:id", endpoint.GetProperty)
	router.GET("/property/:id/unit", endpoint.ListUnits)
	router.POST("/property/:id/unit", auth, endpoint.CreateUnit)
	router.POST("/property/:id/floor/:floor/units", auth, endpoint.CreateFloorUnits)

	router.GET("/unit/:code", middleware.RateLimiter(middleware.RateLimitConfig{}), endpoint.GetUnitByNumber)
	router.POST("/unit/resolve", endpoint.ResolveUnits)
	router.PATCH("/unit/:id", auth, endpoint.UpdateUnit)
	router.DELETE("/unit/:id", auth, endpoint.DeleteUnit)

	return router
}

func main() {
	// Load the configuration
	cfg := config.LoadConfig()
	util.InitLogger(cfg.AppName, cfg.LogLevel)

	db, err := config.ConnectDatabase()
	if err != nil {
		util.Logger.Fatalf("Error connecting to database: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		util.Logger.Fatalf("Error migrating database: %v", err)
	}
	util.SetAuditLoggerDB(db)
	util.InitUnitCache(cfg.UnitCacheTTL)

	if _, err := config.ConnectRedis(); err != nil {
		util.Logger.WithError(err).Warn("Redis unavailable, falling back to local rate limits and no allocation lock")
	}
	if err := util.RegisterValidators(); err != nil {
		util.Logger.Fatalf("Error registering validators: %v", err)
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := setupRouter(cfg, db)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	util.Logger.Infof("Listening on %s", address)
	if err := router.Run(address); err != nil {
		util.Logger.Fatalf("error starting server: %v", err)
	}
}

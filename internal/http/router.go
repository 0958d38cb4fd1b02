package http

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router over an output
// directory of probability forecast files.
func SetupRouter(outputDir string) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(allowedOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(outputDir)

	v1 := router.Group("/v1")
	v1.GET("/runs", handler.ListRuns)
	v1.GET("/probabilities", handler.GetPointProbabilities)
	v1.GET("/grid", handler.GetGrid)

	router.GET("/health", handler.HealthCheck)

	return router
}

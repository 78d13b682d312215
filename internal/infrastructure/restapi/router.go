package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// RouterOptions configures SetupRouter.
type RouterOptions struct {
	Logger         *zap.Logger
	SwaggerEnabled bool
	SwaggerPath    string
	// SwaggerSpecFile is served at /docs/swagger.yaml.
	SwaggerSpecFile string
}

// SetupRouter builds the gin engine with every route registered.
func SetupRouter(handler *StatsHandler, opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))
	router.Use(ZapLoggerMiddleware(opts.Logger))
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/networks", handler.ListNetworksHandler)
		apiV1.GET("/stats", handler.ListStatsHandler)
		apiV1.GET("/tokens/:address/stats", handler.ComputeAllHandler)
		apiV1.GET("/tokens/:address/stats/:id", handler.ComputeHandler)
		apiV1.DELETE("/tokens/:address/cache", handler.InvalidateHandler)
		apiV1.DELETE("/cache", handler.FlushHandler)
	}

	if opts.SwaggerEnabled {
		path := opts.SwaggerPath
		if path == "" {
			path = "/swagger"
		}
		specFile := opts.SwaggerSpecFile
		if specFile == "" {
			specFile = "./docs/swagger.yaml"
		}
		router.StaticFile("/docs/swagger.yaml", specFile)
		swaggerURL := ginSwagger.URL("/docs/swagger.yaml")
		router.GET(path+"/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, swaggerURL))
	}

	return router
}

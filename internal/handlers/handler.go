package handlers

import (
	"net/http"

	"aquastream/internal/logger"
	"aquastream/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "aquastream/docs"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
}

// NewHandler constructs a new HTTP handler with dependencies.
// metrics may be nil, in which case /metrics is not registered.
func NewHandler(services *service.Service, log *logger.Logger, metrics http.Handler) *Handler {
	return &Handler{services: services, log: log, metrics: metrics}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Browsers cannot set headers on the upgrade request, so the token may come as ?token=.
	router.GET("/ws", h.userIdMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.userIdMiddleware, h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		api.GET("/state", h.getState)
		// Body example: {"on":true}
		api.POST("/control/:command", h.setActuator)
		h.registerDeviceRoutes(api)
		h.registerSettingsRoutes(api)
		h.registerHistoryRoutes(api)
		api.GET("/automation/status", h.automationStatus)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	dev := api.Group("/device")
	{
		dev.POST("/refresh", h.refreshDevice)
		dev.POST("/test", h.testDevice)
	}
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	settings := api.Group("/settings")
	{
		settings.GET("/automation", h.getAutomationSettings)
		settings.PUT("/automation", h.updateAutomationSettings)
		settings.DELETE("/automation", h.resetAutomationSettings)
		settings.GET("/device", h.getDeviceSettings)
		settings.PUT("/device", h.updateDeviceSettings)
		settings.DELETE("/device", h.resetDeviceSettings)
	}
}

func (h *Handler) registerHistoryRoutes(api *gin.RouterGroup) {
	history := api.Group("/history")
	{
		history.GET("/automation", h.listAutomationHistory)
		history.DELETE("/automation", h.clearAutomationHistory)
		history.GET("/sensors", h.listSensorHistory)
		history.DELETE("/sensors", h.clearSensorHistory)
	}
}

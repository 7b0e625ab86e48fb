package handlers

import (
	"thermometer_alarm/internal/logger"
	"thermometer_alarm/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	hub      *Hub
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
// hub may be nil, in which case /ws streams snapshots only.
func NewHandler(services *service.Service, hub *Hub, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: hub, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Browser event stream
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerDeviceRoutes(api)
		h.registerRecordingRoutes(api)
		h.registerChemicalRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	device := api.Group("/device")
	{
		device.GET("/status", h.getStatus)
		device.POST("/connect", h.connectDevice)
		device.POST("/disconnect", h.disconnectDevice)
		// Body example: {"threshold_c":100}
		device.PUT("/threshold", h.setThreshold)
	}
}

func (h *Handler) registerRecordingRoutes(api *gin.RouterGroup) {
	rec := api.Group("/recording")
	{
		rec.POST("/start", h.startRecording)
		rec.POST("/stop", h.stopRecording)
		rec.DELETE("", h.clearRecording)
		rec.GET("/export", h.exportRecording)
		rec.POST("/save", h.saveRecording)
	}
	api.GET("/readings", h.listReadings)
}

func (h *Handler) registerChemicalRoutes(api *gin.RouterGroup) {
	chem := api.Group("/chemicals")
	{
		chem.GET("", h.listChemicals)
		chem.POST("", h.createChemical)
		chem.GET("/:id", h.getChemical)
		chem.PUT("/:id", h.updateChemical)
		chem.DELETE("/:id", h.deleteChemical)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
	}
}

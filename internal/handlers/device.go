package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"thermometer_alarm/internal/device"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK           = "ok"
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	statusThresholdSet = "threshold_set"

	errConnectDevice   = "failed to connect to device"
	errSaveThreshold   = "failed to save threshold"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err, "user_id", operatorID(c)}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include the current snapshot.
func (h *Handler) respondWithStatusAndSnapshot(c *gin.Context, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	resp["snapshot"] = h.services.Dashboard.Status(c.Request.Context())
	c.JSON(http.StatusOK, resp)
}

// connectErrorStatus maps session errors onto HTTP codes.
func connectErrorStatus(err error) int {
	switch {
	case errors.Is(err, device.ErrSessionActive), errors.Is(err, device.ErrConnectCancelled):
		return http.StatusConflict
	case errors.Is(err, device.ErrDirectoryUnavailable), errors.Is(err, device.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ThresholdRequest is the payload of PUT /device/threshold.
type ThresholdRequest struct {
	// Alert threshold in Celsius
	ThresholdC *float64 `json:"threshold_c" binding:"required" example:"100"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Dashboard status
// @Tags         device
// @Produce      json
// @Success      200  {object}  models.DashboardSnapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/device/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Dashboard.Status(c.Request.Context()))
}

// @Summary      Connect to the device
// @Description  Resolves the device address and opens the session. If another client holds the device, the session retries in the background.
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, snapshot"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/device/connect [post]
// @Security     BearerAuth
func (h *Handler) connectDevice(c *gin.Context) {
	if err := h.services.Dashboard.Connect(c.Request.Context()); err != nil {
		code := connectErrorStatus(err)
		msg := errConnectDevice
		if code == http.StatusConflict {
			msg = err.Error()
		}
		h.logAndJSONError(c, code, msg, "device_connect_failed", err)
		return
	}
	if h.log != nil {
		h.log.Infow("api_device_connect", "user_id", operatorID(c))
	}
	h.respondWithStatusAndSnapshot(c, statusConnected, gin.H{})
}

// @Summary      Disconnect from the device
// @Description  Closes the session and cancels any pending retry.
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/device/disconnect [post]
// @Security     BearerAuth
func (h *Handler) disconnectDevice(c *gin.Context) {
	h.services.Dashboard.Disconnect(c.Request.Context())
	if h.log != nil {
		h.log.Infow("api_device_disconnect", "user_id", operatorID(c))
	}
	h.respondWithStatusAndSnapshot(c, statusDisconnected, gin.H{})
}

// @Summary      Set alert threshold
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body   ThresholdRequest  true  "Threshold payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/device/threshold [put]
// @Security     BearerAuth
func (h *Handler) setThreshold(c *gin.Context) {
	var req ThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Dashboard.SetThreshold(c.Request.Context(), *req.ThresholdC); err != nil {
		if errors.Is(err, device.ErrInvalidThreshold) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveThreshold, "threshold_save_failed", err)
		return
	}
	h.respondWithStatusAndSnapshot(c, statusThresholdSet, gin.H{"threshold_c": *req.ThresholdC})
}

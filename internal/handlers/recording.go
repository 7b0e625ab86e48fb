package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"thermometer_alarm/internal/service"
)

const (
	statusRecording = "recording"
	statusStopped   = "stopped"
	statusCleared   = "cleared"
	statusSaved     = "saved"

	errNoData       = "No data to export. Start recording first."
	errExport       = "failed to export readings"
	errSaveReadings = "failed to save readings"
	errListReadings = "failed to load readings"
	csvContentType  = "text/csv; charset=utf-8"
)

// @Summary      Start recording
// @Tags         recording
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, changed, snapshot"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/recording/start [post]
// @Security     BearerAuth
func (h *Handler) startRecording(c *gin.Context) {
	changed := h.services.Dashboard.StartRecording(c.Request.Context())
	h.respondWithStatusAndSnapshot(c, statusRecording, gin.H{"changed": changed})
}

// @Summary      Stop recording
// @Tags         recording
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, changed, snapshot"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/recording/stop [post]
// @Security     BearerAuth
func (h *Handler) stopRecording(c *gin.Context) {
	changed := h.services.Dashboard.StopRecording(c.Request.Context())
	h.respondWithStatusAndSnapshot(c, statusStopped, gin.H{"changed": changed})
}

// @Summary      Clear recorded readings
// @Tags         recording
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/recording [delete]
// @Security     BearerAuth
func (h *Handler) clearRecording(c *gin.Context) {
	h.services.Dashboard.ClearReadings(c.Request.Context())
	h.respondWithStatusAndSnapshot(c, statusCleared, gin.H{})
}

// @Summary      Export readings as CSV
// @Tags         recording
// @Produce      text/csv
// @Success      200  {file}    file
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/recording/export [get]
// @Security     BearerAuth
func (h *Handler) exportRecording(c *gin.Context) {
	file, err := h.services.Dashboard.ExportCSV(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoReadings) {
			c.JSON(http.StatusConflict, gin.H{"error": errNoData})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errExport, "readings_export_failed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, csvContentType, file.Content)
}

// @Summary      Save readings
// @Description  Persists the recorded readings under a new recording id.
// @Tags         recording
// @Produce      json
// @Success      200  {object}  service.SavedRecording
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/recording/save [post]
// @Security     BearerAuth
func (h *Handler) saveRecording(c *gin.Context) {
	saved, err := h.services.Dashboard.SaveRecording(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoReadings) {
			c.JSON(http.StatusConflict, gin.H{"error": errNoData})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveReadings, "readings_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSaved, "recording_id": saved.RecordingID, "count": saved.Count})
}

// @Summary      List saved readings
// @Tags         recording
// @Produce      json
// @Param        from          query  string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        to            query  string  false  "End of range; date-only treated as end of day"
// @Param        recording_id  query  string  false  "Recording id"
// @Success      200  {object}  map[string]interface{}  "count, readings"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/readings [get]
// @Security     BearerAuth
func (h *Handler) listReadings(c *gin.Context) {
	from, to, ok := h.parseRange(c)
	if !ok {
		return
	}
	readings, err := h.services.Dashboard.ListSaved(c.Request.Context(), service.ReadingFilter{
		From:        from,
		To:          to,
		RecordingID: strings.TrimSpace(c.Query("recording_id")),
	})
	if errors.Is(err, service.ErrInvalidFilter) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListReadings, "readings_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(readings),
		"readings": readings,
	})
}

// parseRange reads optional from/to query bounds; on failure it has already written a 400.
func (h *Handler) parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time
	var err error
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return from, to, false
		}
	}
	// If only a date is provided, make it end-of-day inclusive.
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return from, to, false
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return from, to, false
	}
	return from, to, true
}

package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"aquastream/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errHistoryLoad = "failed to load history"
	errHistoryWipe = "failed to clear history"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List automation history
// @Description  Newest first, at most 100 entries. Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'); a date-only 'to' covers the whole day.
// @Tags         history
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2026-05-01)
// @Param        to    query   string  false  "End of range. Date-only treated as end of day."  example(2026-05-31)
// @Param        type  query   string  false  "Event type"  example(auto_water_change)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/history/automation [get]
// @Security     BearerAuth
func (h *Handler) listAutomationHistory(c *gin.Context) {
	var (
		from time.Time
		to   time.Time
		err  error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	filter := service.EventFilter{From: from, To: to, Type: c.Query("type")}
	events, err := h.services.History.ListEvents(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, errHistoryLoad, "automation_history_list_failed", err,
			"from", from, "to", to, "type", filter.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// @Summary      Clear automation history
// @Tags         history
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/history/automation [delete]
// @Security     BearerAuth
func (h *Handler) clearAutomationHistory(c *gin.Context) {
	if err := h.services.History.ClearEvents(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errHistoryWipe, "automation_history_clear_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusCleared})
}

// @Summary      List sensor history
// @Description  Newest first, at most 20 snapshots taken no more than once every 30 seconds.
// @Tags         history
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, entries"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/history/sensors [get]
// @Security     BearerAuth
func (h *Handler) listSensorHistory(c *gin.Context) {
	entries, err := h.services.History.ListSensors(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errHistoryLoad, "sensor_history_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

// @Summary      Clear sensor history
// @Tags         history
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/history/sensors [delete]
// @Security     BearerAuth
func (h *Handler) clearSensorHistory(c *gin.Context) {
	if err := h.services.History.ClearSensors(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errHistoryWipe, "sensor_history_clear_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusCleared})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2026-05-01T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}

package handlers

import (
	"net/http"

	"aquastream/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errGetState      = "failed to load state"
	errControl       = "device did not confirm the command"
	errRefresh       = "device poll failed"
	errDeviceTest    = "device unreachable"
	errAutomationGet = "failed to load automation status"
)

// ControlRequest switches one actuator.
type ControlRequest struct {
	On *bool `json:"on" binding:"required" example:"true"`
}

// DeviceTestRequest optionally overrides the saved controller URL.
type DeviceTestRequest struct {
	ESP32URL string `json:"esp32Url,omitempty" example:"http://192.168.1.150"`
}

// @Summary      Get live state
// @Description  Last polled telemetry, pending timed offs and rule clocks. Never contacts the device.
// @Tags         device
// @Produce      json
// @Success      200  {object}  service.State
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Switch an actuator
// @Description  Manual commands cancel any pending timed off of an overlapping actuator.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        command  path  string          true  "Actuator"  Enums(pump_in,pump_out,master_pump,feeder)
// @Param        body     body  ControlRequest  true  "Desired state"
// @Success      200  {object}  automation.Ack
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/control/{command} [post]
// @Security     BearerAuth
func (h *Handler) setActuator(c *gin.Context) {
	cmd, err := models.ParseCommand(c.Param("command"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var req ControlRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	ack, err := h.services.Control.SetActuator(c.Request.Context(), cmd, *req.On)
	if err != nil {
		h.respondError(c, http.StatusBadGateway, errControl, "control_failed", err, "command", cmd, "on", *req.On)
		return
	}
	c.JSON(http.StatusOK, ack)
}

// @Summary      Poll the device now
// @Description  Runs a full control tick. 409 when a poll is already running.
// @Tags         device
// @Produce      json
// @Success      200  {object}  models.Telemetry
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/device/refresh [post]
// @Security     BearerAuth
func (h *Handler) refreshDevice(c *gin.Context) {
	snap, err := h.services.Control.Refresh(c.Request.Context())
	if err != nil {
		h.respondError(c, http.StatusBadGateway, errRefresh, "device_refresh_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Test device connection
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body  DeviceTestRequest  false  "URL to test instead of the saved one"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/device/test [post]
// @Security     BearerAuth
func (h *Handler) testDevice(c *gin.Context) {
	var req DeviceTestRequest
	if c.Request.ContentLength > 0 {
		if !h.bindJSONOrBadRequest(c, &req) {
			return
		}
	}
	if err := h.services.Settings.TestDeviceConnection(c.Request.Context(), req.ESP32URL); err != nil {
		h.respondError(c, http.StatusBadGateway, errDeviceTest, "device_test_failed", err, "url", req.ESP32URL)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Automation status
// @Description  Breached metrics, cooldown and feeder timing.
// @Tags         automation
// @Produce      json
// @Success      200  {object}  automation.Status
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/automation/status [get]
// @Security     BearerAuth
func (h *Handler) automationStatus(c *gin.Context) {
	st, err := h.services.Monitoring.AutomationStatus(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errAutomationGet, "automation_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

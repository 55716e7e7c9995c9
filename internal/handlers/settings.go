package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	errSettingsLoad  = "failed to load settings"
	errSettingsSave  = "failed to save settings"
	errSettingsReset = "failed to reset settings"
)

// PUT bodies are partial: the current settings are loaded first and the
// request JSON is bound over them, so omitted fields keep their value.

// @Summary      Get automation settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.AutomationSettings
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings/automation [get]
// @Security     BearerAuth
func (h *Handler) getAutomationSettings(c *gin.Context) {
	s, err := h.services.Settings.GetAutomationSettings(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSettingsLoad, "automation_settings_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Update automation settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  models.AutomationSettings  true  "Fields to change"
// @Success      200  {object}  models.AutomationSettings
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings/automation [put]
// @Security     BearerAuth
func (h *Handler) updateAutomationSettings(c *gin.Context) {
	ctx := c.Request.Context()
	cur, err := h.services.Settings.GetAutomationSettings(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSettingsLoad, "automation_settings_get_failed", err)
		return
	}
	if !h.bindJSONOrBadRequest(c, &cur) {
		return
	}
	out, err := h.services.Settings.UpdateAutomationSettings(ctx, cur)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, errSettingsSave, "automation_settings_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Reset automation settings to defaults
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.AutomationSettings
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings/automation [delete]
// @Security     BearerAuth
func (h *Handler) resetAutomationSettings(c *gin.Context) {
	out, err := h.services.Settings.ResetAutomationSettings(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSettingsReset, "automation_settings_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Get device settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.DeviceSettings
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings/device [get]
// @Security     BearerAuth
func (h *Handler) getDeviceSettings(c *gin.Context) {
	s, err := h.services.Settings.GetDeviceSettings(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSettingsLoad, "device_settings_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Update device settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  models.DeviceSettings  true  "Fields to change"
// @Success      200  {object}  models.DeviceSettings
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings/device [put]
// @Security     BearerAuth
func (h *Handler) updateDeviceSettings(c *gin.Context) {
	ctx := c.Request.Context()
	cur, err := h.services.Settings.GetDeviceSettings(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSettingsLoad, "device_settings_get_failed", err)
		return
	}
	if !h.bindJSONOrBadRequest(c, &cur) {
		return
	}
	out, err := h.services.Settings.UpdateDeviceSettings(ctx, cur)
	if err != nil {
		h.respondError(c, http.StatusInternalServerError, errSettingsSave, "device_settings_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Reset device settings to defaults
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.DeviceSettings
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings/device [delete]
// @Security     BearerAuth
func (h *Handler) resetDeviceSettings(c *gin.Context) {
	out, err := h.services.Settings.ResetDeviceSettings(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSettingsReset, "device_settings_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

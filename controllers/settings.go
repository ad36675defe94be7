package controllers

import (
	"net/http"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"
)

// SettingsController serves the site-wide settings document
type SettingsController struct {
	Settings store.SettingsStore
}

func NewSettingsController(settings store.SettingsStore) *SettingsController {
	return &SettingsController{Settings: settings}
}

// GetSettings returns the settings, creating the defaults on first read
func (sc *SettingsController) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	settings, err := sc.Settings.Get(ctx)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondData(w, http.StatusOK, settings)
}

// UpdateSettings applies a partial settings change (Admin only)
func (sc *SettingsController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var input models.SettingsUpdate
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	settings, err := sc.Settings.Get(ctx)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	input.Apply(settings)
	if err := sc.Settings.Update(ctx, settings); err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Response{Success: true, Message: "Settings updated successfully", Data: settings})
}

// GetMaintenanceMode reports whether the site is in maintenance
func (sc *SettingsController) GetMaintenanceMode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	settings, err := sc.Settings.Get(ctx)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"maintenanceMode": settings.MaintenanceMode,
	})
}

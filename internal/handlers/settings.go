package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kyraajewelz/storefront/internal/models"
)

type SettingsHandler struct {
	DB *gorm.DB
}

func (h *SettingsHandler) GetSetting(c echo.Context) error {
	key := c.Param("key")

	var setting models.Setting
	if err := h.DB.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "setting not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, setting)
}

func (h *SettingsHandler) PutSetting(c echo.Context) error {
	key := c.Param("key")

	var req struct {
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var setting models.Setting
	err := h.DB.Where("key = ?", key).First(&setting).Error
	switch {
	case err == nil:
		setting.Value = req.Value
		if err := h.DB.Save(&setting).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = models.Setting{Key: key, Value: req.Value}
		if err := h.DB.Create(&setting).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, setting)
}

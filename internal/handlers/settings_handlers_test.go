package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/kyraajewelz/storefront/internal/models"
)

func TestPutSettingUpserts(t *testing.T) {
	db := InitTestDB(t)
	h := &SettingsHandler{DB: db}

	c, rec := newContext(t, http.MethodPut, "/admin/settings/store_name", `{"value": "Kyraa Jewelz"}`)
	c.SetParamNames("key")
	c.SetParamValues("store_name")
	require.NoError(t, h.PutSetting(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// a second put overwrites, it does not duplicate
	c, rec = newContext(t, http.MethodPut, "/admin/settings/store_name", `{"value": "Kyraa Jewelz & Co"}`)
	c.SetParamNames("key")
	c.SetParamValues("store_name")
	require.NoError(t, h.PutSetting(c))

	var count int64
	require.NoError(t, db.Model(&models.Setting{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	c, rec = newContext(t, http.MethodGet, "/settings/store_name", "")
	c.SetParamNames("key")
	c.SetParamValues("store_name")
	require.NoError(t, h.GetSetting(c))

	var setting models.Setting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &setting))
	require.Equal(t, "Kyraa Jewelz & Co", setting.Value)
}

func TestGetSettingMissing(t *testing.T) {
	db := InitTestDB(t)
	h := &SettingsHandler{DB: db}

	c, _ := newContext(t, http.MethodGet, "/settings/nope", "")
	c.SetParamNames("key")
	c.SetParamValues("nope")
	err := h.GetSetting(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, httpErr.Code)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/kyraajewelz/storefront/internal/models"
)

func TestCreateAndGetCategories(t *testing.T) {
	db := InitTestDB(t)
	h := &CategoryHandler{DB: db}

	c, rec := newContext(t, http.MethodPost, "/admin/categories",
		`{"name": "Rings", "description": "Hand-crafted rings"}`)
	require.NoError(t, h.CreateCategory(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newContext(t, http.MethodPost, "/admin/categories", `{"name": "Bracelets"}`)
	require.NoError(t, h.CreateCategory(c))

	// an inactive category stays out of the public list
	hidden := models.Category{Name: "Archive", IsActive: false}
	require.NoError(t, db.Create(&hidden).Error)

	c, rec = newContext(t, http.MethodGet, "/categories", "")
	require.NoError(t, h.GetCategories(c))

	var cats []models.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cats))
	require.Len(t, cats, 2)
	// sorted by name
	require.Equal(t, "Bracelets", cats[0].Name)
	require.Equal(t, "Rings", cats[1].Name)
}

func TestCreateCategoryRequiresName(t *testing.T) {
	db := InitTestDB(t)
	h := &CategoryHandler{DB: db}

	c, _ := newContext(t, http.MethodPost, "/admin/categories", `{"description": "no name"}`)
	err := h.CreateCategory(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestGetCategoryHidesInactive(t *testing.T) {
	db := InitTestDB(t)
	h := &CategoryHandler{DB: db}

	hidden := models.Category{Name: "Archive", IsActive: false}
	require.NoError(t, db.Create(&hidden).Error)

	c, _ := newContext(t, http.MethodGet, "/categories/1", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(hidden.ID)))
	err := h.GetCategory(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestPatchCategory(t *testing.T) {
	db := InitTestDB(t)
	h := &CategoryHandler{DB: db}

	cat := models.Category{Name: "Rings", Description: "old", IsActive: true}
	require.NoError(t, db.Create(&cat).Error)

	c, rec := newContext(t, http.MethodPatch, "/admin/categories/1", `{"description": "new", "is_active": false}`)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(cat.ID)))
	require.NoError(t, h.PatchCategory(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, "new", updated.Description)
	require.False(t, updated.IsActive)
	require.Equal(t, "Rings", updated.Name)
}

func TestDeleteCategory(t *testing.T) {
	db := InitTestDB(t)
	h := &CategoryHandler{DB: db}

	cat := models.Category{Name: "Rings", IsActive: true}
	require.NoError(t, db.Create(&cat).Error)

	c, rec := newContext(t, http.MethodDelete, "/admin/categories/1", "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(int(cat.ID)))
	require.NoError(t, h.DeleteCategory(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	require.Zero(t, count)
}

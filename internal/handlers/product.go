package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kyraajewelz/storefront/internal/models"
	"github.com/kyraajewelz/storefront/internal/mykafka"
	"github.com/kyraajewelz/storefront/internal/service/review"
	"github.com/kyraajewelz/storefront/internal/service/search"
	"github.com/kyraajewelz/storefront/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	ESIndex  string
	Reviews  *review.Service
}

type productView struct {
	models.Product
	Category      string  `json:"category"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

func (h *ProductHandler) view(c echo.Context, p models.Product) productView {
	v := productView{Product: p, Category: "Unknown"}

	var cat models.Category
	if err := h.DB.First(&cat, p.CategoryID).Error; err == nil {
		v.Category = cat.Name
	}

	if h.Reviews != nil {
		if avg, cnt, err := h.Reviews.Average(c.Request().Context(), p.ID); err == nil {
			v.AverageRating = avg
			v.ReviewCount = cnt
		}
	}
	return v
}

func (h *ProductHandler) views(c echo.Context, products []models.Product) []productView {
	out := make([]productView, len(products))
	for i, p := range products {
		out[i] = h.view(c, p)
	}
	return out
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !product.IsActive {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	return c.JSON(http.StatusOK, h.view(c, product))
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	if q := c.QueryParam("search"); q != "" && h.ES != nil {
		return h.searchProducts(c, q)
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	query := h.DB.Model(&models.Product{}).Where("is_active = ?", true)
	if categoryID := parseIntDefault(c.QueryParam("category_id"), 0); categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if c.QueryParam("featured") == "true" {
		query = query.Where("is_featured = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Product
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": h.views(c, items),
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) searchProducts(c echo.Context, q string) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, products, err := search.Search(c.Request().Context(), h.ES, h.ESIndex, q, from, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": h.views(c, products),
		"meta": map[string]any{"page": page, "size": limit, "total": total},
	})
}

func (h *ProductHandler) GetFeaturedProducts(c echo.Context) error {
	var items []models.Product
	if err := h.DB.Where("is_featured = ? AND is_active = ?", true, true).
		Order("id DESC").Limit(8).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.views(c, items))
}

type productInput struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"original_price"`
	Images        []string `json:"images"`
	CategoryID    uint     `json:"category_id"`
	Material      string   `json:"material"`
	Stock         uint     `json:"stock"`
	IsFeatured    bool     `json:"is_featured"`
}

func filterImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img != "" {
			out = append(out, img)
		}
	}
	return out
}

func (h *ProductHandler) categoryExists(id uint) (bool, error) {
	var count int64
	if err := h.DB.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ok, err := h.categoryExists(req.CategoryID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "category not found")
	}

	if req.OriginalPrice == 0 {
		req.OriginalPrice = req.Price
	}

	prod := models.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Images:        filterImages(req.Images),
		CategoryID:    req.CategoryID,
		Material:      req.Material,
		Stock:         req.Stock,
		IsActive:      true,
		IsFeatured:    req.IsFeatured,
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.index(c, &prod)
	publishEvent(c, h.Producer, "product_events", map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req struct {
		Name          *string   `json:"name"`
		Description   *string   `json:"description"`
		Price         *float64  `json:"price"`
		OriginalPrice *float64  `json:"original_price"`
		Images        *[]string `json:"images"`
		CategoryID    *uint     `json:"category_id"`
		Material      *string   `json:"material"`
		Stock         *uint     `json:"stock"`
		IsActive      *bool     `json:"is_active"`
		IsFeatured    *bool     `json:"is_featured"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.CategoryID != nil {
		ok, err := h.categoryExists(*req.CategoryID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "category not found")
		}
		prod.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Price != nil {
		prod.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		prod.OriginalPrice = *req.OriginalPrice
	}
	if req.Images != nil {
		prod.Images = filterImages(*req.Images)
	}
	if req.Material != nil {
		prod.Material = *req.Material
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}
	if req.IsActive != nil {
		prod.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		prod.IsFeatured = *req.IsFeatured
	}

	if err := h.DB.Save(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.index(c, &prod)
	publishEvent(c, h.Producer, "product_events", map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteProduct(ctx, h.ES, h.ESIndex, uint(id)); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}
	publishEvent(c, h.Producer, "product_events", map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) index(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, h.ESIndex, p); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

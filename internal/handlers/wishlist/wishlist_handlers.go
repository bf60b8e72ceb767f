package wishlist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	auth "github.com/kyraajewelz/storefront/internal/middleware/auth"
	"github.com/kyraajewelz/storefront/internal/models"
)

type eventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

type WishlistHandler struct {
	DB       *gorm.DB
	Producer eventPublisher
}

func (h *WishlistHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "wishlist_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

type wishlistItemView struct {
	models.WishlistItem
	Product models.Product `json:"product"`
}

func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var items []models.WishlistItem
	if err := h.DB.Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	views := []wishlistItemView{}
	for _, item := range items {
		var p models.Product
		err := h.DB.First(&p, item.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !p.IsActive) {
			if err := h.DB.Delete(&models.WishlistItem{}, item.ID).Error; err != nil {
				c.Logger().Errorf("stale wishlist row prune error: %v", err)
			}
			continue
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		views = append(views, wishlistItemView{WishlistItem: item, Product: p})
	}

	return c.JSON(http.StatusOK, views)
}

// AddToWishlist is an idempotent no-op when the product is already
// listed.
func (h *WishlistHandler) AddToWishlist(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !product.IsActive {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	var item models.WishlistItem
	tx := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item)
	if tx.Error == nil {
		return c.JSON(http.StatusOK, item)
	}
	if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, tx.Error.Error())
	}

	item = models.WishlistItem{UserID: userID, ProductID: req.ProductID}
	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "wishlist_item_added",
		"userID":    userID,
		"productID": req.ProductID,
	})
	return c.JSON(http.StatusOK, item)
}

// RemoveFromWishlist is idempotent: removing an absent product is fine.
func (h *WishlistHandler) RemoveFromWishlist(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("product_id"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := h.DB.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "wishlist_item_removed",
		"userID":    userID,
		"productID": productID,
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *WishlistHandler) IsInWishlist(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("product_id"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var count int64
	if err := h.DB.Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"in_wishlist": count > 0})
}

func (h *WishlistHandler) WishlistCount(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var count int64
	if err := h.DB.Model(&models.WishlistItem{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	auth "github.com/kyraajewelz/storefront/internal/middleware/auth"
	"github.com/kyraajewelz/storefront/internal/models"
	"github.com/kyraajewelz/storefront/internal/mykafka"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type cartItemView struct {
	models.CartItem
	Product models.Product `json:"product"`
}

// GetCart returns the user's rows joined with their products. Rows whose
// product has gone missing or inactive are pruned, not just hidden.
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	views := []cartItemView{}
	for _, item := range items {
		var p models.Product
		err := h.DB.First(&p, item.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !p.IsActive) {
			if err := h.DB.Delete(&models.CartItem{}, item.ID).Error; err != nil {
				c.Logger().Errorf("stale cart row prune error: %v", err)
			}
			continue
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		views = append(views, cartItemView{CartItem: item, Product: p})
	}

	return c.JSON(http.StatusOK, views)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Quantity < 1 {
		req.Quantity = 1
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
	if product.Stock == 0 {
		return echo.NewHTTPError(http.StatusConflict, "product is out of stock")
	}

	item := models.CartItem{
		UserID:    userID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}

	// Merge-or-insert in one transaction so concurrent adds cannot
	// produce duplicate rows.
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND product_id = ?", userID, req.ProductID).
			Update("quantity", gorm.Expr("quantity + ?", req.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item).Error
		}
		return tx.Create(&item).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

// UpdateCartItem sets the quantity; zero or less removes the row.
func (h *CartHandler) UpdateCartItem(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var item models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "cart item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Quantity <= 0 {
		if err := h.DB.Delete(&item).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.publish(c, map[string]any{
			"type":   "cart_item_deleted",
			"userID": userID,
			"itemID": item.ID,
		})
		return c.JSON(http.StatusOK, map[string]any{"deleted_item": item.ID})
	}

	item.Quantity = uint(req.Quantity)
	if err := h.DB.Save(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":     "cart_item_updated",
		"userID":   userID,
		"itemID":   item.ID,
		"quantity": item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var item models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "cart item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.DB.Delete(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":   "cart_item_deleted",
		"userID": userID,
		"itemID": item.ID,
	})
	return c.JSON(http.StatusOK, map[string]any{"deleted_item": item.ID})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})
	return c.JSON(http.StatusOK, []models.CartItem{})
}

// CartCount is the badge number: the sum of quantities, not the row
// count.
func (h *CartHandler) CartCount(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var count int64
	if err := h.DB.Model(&models.CartItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("user_id = ?", userID).
		Scan(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

package order

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
	"github.com/kyraajewelz/storefront/internal/mykafka"
	ordersvc "github.com/kyraajewelz/storefront/internal/service/order"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Orders   *ordersvc.Service
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ordersvc.ErrOrderNotFound),
		errors.Is(err, ordersvc.ErrProductNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ordersvc.ErrEmptyOrder),
		errors.Is(err, ordersvc.ErrInvalidQuantity),
		errors.Is(err, ordersvc.ErrUnknownStatus),
		errors.Is(err, ordersvc.ErrUnknownPaymentStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ordersvc.ErrInsufficientStock),
		errors.Is(err, ordersvc.ErrNotCancellable),
		errors.Is(err, ordersvc.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Items           []ordersvc.LineInput     `json:"items"`
		ShippingAddress ordersvc.ShippingAddress `json:"shipping_address"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.Orders.Checkout(c.Request().Context(), userID, req.Items, req.ShippingAddress)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":        "order_created",
		"userID":      userID,
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"total":       order.TotalAmount,
	})

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetMyOrders(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var orders []models.Order
	if err := h.DB.Preload("Items").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.DB.Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	order, err := h.Orders.Cancel(c.Request().Context(), userID, uint(id))
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":    "order_cancelled",
		"userID":  userID,
		"orderID": order.ID,
	})

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	limit := 50
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}

	query := h.DB.Preload("Items").Order("id DESC").Limit(limit)
	if status := c.QueryParam("status"); status != "" {
		if !ordersvc.ValidStatus(models.OrderStatus(status)) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown order status")
		}
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status         models.OrderStatus `json:"status"`
		TrackingNumber string             `json:"tracking_number"`
		Notes          string             `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.Orders.UpdateStatus(c.Request().Context(), uint(id), req.Status, req.TrackingNumber, req.Notes)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":    "order_status_updated",
		"userID":  order.UserID,
		"orderID": order.ID,
		"status":  order.Status,
	})

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdatePaymentStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		PaymentStatus models.PaymentStatus `json:"payment_status"`
		PaymentID     string               `json:"payment_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.Orders.UpdatePayment(c.Request().Context(), uint(id), req.PaymentStatus, req.PaymentID)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":    "order_payment_updated",
		"userID":  order.UserID,
		"orderID": order.ID,
		"status":  order.PaymentStatus,
	})

	return c.JSON(http.StatusOK, order)
}

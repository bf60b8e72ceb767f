package review

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
	reviewsvc "github.com/kyraajewelz/storefront/internal/service/review"
)

type ReviewHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Reviews  *reviewsvc.Service
}

func (h *ReviewHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "review_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func productIDParam(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("product_id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	return uint(id), nil
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint   `json:"product_id"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ProductID == 0 {
		if id, err := productIDParam(c); err == nil {
			req.ProductID = id
		}
	}

	rev, err := h.Reviews.Create(c.Request().Context(), userID, req.ProductID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, reviewsvc.ErrInvalidRating):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, reviewsvc.ErrNotEligible):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, reviewsvc.ErrAlreadyReviewed):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "review_created",
		"userID":    userID,
		"productID": req.ProductID,
		"rating":    req.Rating,
	})

	return c.JSON(http.StatusCreated, rev)
}

type reviewView struct {
	models.Review
	UserName string `json:"user_name"`
}

func (h *ReviewHandler) GetProductReviews(c echo.Context) error {
	productID, err := productIDParam(c)
	if err != nil {
		return err
	}

	var reviews []models.Review
	if err := h.DB.Where("product_id = ?", productID).
		Order("id DESC").
		Find(&reviews).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	views := make([]reviewView, len(reviews))
	for i, rev := range reviews {
		views[i] = reviewView{Review: rev, UserName: "Anonymous"}
		var user models.User
		if err := h.DB.First(&user, rev.UserID).Error; err == nil && user.Username != "" {
			views[i].UserName = user.Username
		}
	}

	return c.JSON(http.StatusOK, views)
}

func (h *ReviewHandler) GetAverageRating(c echo.Context) error {
	productID, err := productIDParam(c)
	if err != nil {
		return err
	}

	avg, count, err := h.Reviews.Average(c.Request().Context(), productID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"average_rating": avg,
		"review_count":   count,
	})
}

func (h *ReviewHandler) CanReview(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	productID, err := productIDParam(c)
	if err != nil {
		return err
	}

	canReview, err := h.Reviews.CanReview(c.Request().Context(), userID, productID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"can_review": canReview})
}

func (h *ReviewHandler) GetPendingReviews(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	pending, err := h.Reviews.PendingItems(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, pending)
}

func (h *ReviewHandler) DismissPendingReview(c echo.Context) error {
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
	if req.ProductID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := h.Reviews.Dismiss(c.Request().Context(), userID, req.ProductID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

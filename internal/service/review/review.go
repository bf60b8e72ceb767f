package review

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kyraajewelz/storefront/internal/models"
)

var (
	ErrNotEligible     = errors.New("you can only review products you have purchased and received")
	ErrAlreadyReviewed = errors.New("you have already reviewed this product")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
)

type Service struct {
	DB *gorm.DB
}

// hasDeliveredPurchase reports whether any of the user's delivered
// orders contains the product.
func (s *Service) hasDeliveredPurchase(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, models.OrderStatusDelivered, productID).
		Count(&count).Error
	return count > 0, err
}

func (s *Service) alreadyReviewed(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

// CanReview is true iff the user has a delivered order containing the
// product and has not reviewed it yet.
func (s *Service) CanReview(ctx context.Context, userID, productID uint) (bool, error) {
	purchased, err := s.hasDeliveredPurchase(ctx, userID, productID)
	if err != nil || !purchased {
		return false, err
	}
	reviewed, err := s.alreadyReviewed(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	return !reviewed, nil
}

// Create re-validates eligibility server-side and inserts a verified
// review. The unique (user, product) index is the duplicate check:
// concurrent submissions both reach the insert, the loser gets the
// index violation and sees ErrAlreadyReviewed.
func (s *Service) Create(ctx context.Context, userID, productID uint, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var rev models.Review

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.OrderItem{}).
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
				userID, models.OrderStatusDelivered, productID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotEligible
		}

		rev = models.Review{
			UserID:     userID,
			ProductID:  productID,
			Rating:     rating,
			Comment:    comment,
			IsVerified: true,
		}
		if err := tx.Create(&rev).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyReviewed
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &rev, nil
}

// Average returns (0, 0) when the product has no reviews; callers must
// treat that as "no data", not a lowest score.
func (s *Service) Average(ctx context.Context, productID uint) (float64, int64, error) {
	var agg struct {
		Avg float64
		Cnt int64
	}
	err := s.DB.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS cnt").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return 0, 0, err
	}
	if agg.Cnt == 0 {
		return 0, 0, nil
	}
	return agg.Avg, agg.Cnt, nil
}

type PendingItem struct {
	OrderID   uint            `json:"order_id"`
	ProductID uint            `json:"product_id"`
	Quantity  uint            `json:"quantity"`
	Product   *models.Product `json:"product,omitempty"`
}

// PendingItems lists line items of delivered orders that the user has
// neither reviewed nor dismissed, with a product snapshot for the UI.
func (s *Service) PendingItems(ctx context.Context, userID uint) ([]PendingItem, error) {
	var orders []models.Order
	if err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND status = ?", userID, models.OrderStatusDelivered).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	pending := []PendingItem{}
	seen := map[uint]bool{}

	for _, o := range orders {
		for _, it := range o.Items {
			if seen[it.ProductID] {
				continue
			}
			seen[it.ProductID] = true

			reviewed, err := s.alreadyReviewed(ctx, userID, it.ProductID)
			if err != nil {
				return nil, err
			}
			if reviewed {
				continue
			}

			var dismissed int64
			if err := s.DB.WithContext(ctx).Model(&models.ReviewDismissal{}).
				Where("user_id = ? AND product_id = ?", userID, it.ProductID).
				Count(&dismissed).Error; err != nil {
				return nil, err
			}
			if dismissed > 0 {
				continue
			}

			entry := PendingItem{
				OrderID:   o.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
			}
			var p models.Product
			if err := s.DB.WithContext(ctx).First(&p, it.ProductID).Error; err == nil {
				entry.Product = &p
			}
			pending = append(pending, entry)
		}
	}

	return pending, nil
}

// Dismiss hides the product from the user's pending prompts. Idempotent.
func (s *Service) Dismiss(ctx context.Context, userID, productID uint) error {
	err := s.DB.WithContext(ctx).Create(&models.ReviewDismissal{
		UserID:    userID,
		ProductID: productID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

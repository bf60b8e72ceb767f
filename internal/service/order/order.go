package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kyraajewelz/storefront/internal/models"
)

var (
	ErrEmptyOrder           = errors.New("no items in order")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrProductNotFound      = errors.New("product not found")
	ErrInsufficientStock    = errors.New("not enough stock")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotCancellable       = errors.New("order cannot be cancelled")
	ErrInvalidTransition    = errors.New("illegal status transition")
	ErrUnknownStatus        = errors.New("unknown order status")
	ErrUnknownPaymentStatus = errors.New("unknown payment status")
)

// transitions is the allowed forward-only lifecycle. Delivered and
// cancelled are terminal.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered: {},
	models.OrderStatusCancelled: {},
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidStatus(s models.OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}

func ValidPaymentStatus(s models.PaymentStatus) bool {
	switch s {
	case models.PaymentStatusPending, models.PaymentStatusPaid,
		models.PaymentStatusFailed, models.PaymentStatusRefunded:
		return true
	}
	return false
}

// NewOrderNumber returns a customer-facing order number. Uniqueness is
// backed by the index on orders.order_number.
func NewOrderNumber() string {
	return fmt.Sprintf("KJ-%s", uuid.NewString())
}

type Service struct {
	DB *gorm.DB
}

type LineInput struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

type ShippingAddress struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Phone    string `json:"phone"`
}

// Checkout turns the given lines into an immutable order. Every product
// must exist, be active and have enough stock; stock is decremented and
// the user's cart cleared in the same transaction. Any failure aborts
// the whole order.
func (s *Service) Checkout(ctx context.Context, userID uint, lines []LineInput, addr ShippingAddress) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	var order models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			total float64
			items []models.OrderItem
		)

		for _, line := range lines {
			if line.Quantity < 1 {
				return ErrInvalidQuantity
			}

			var p models.Product
			if err := tx.First(&p, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return err
			}
			if !p.IsActive {
				return ErrProductNotFound
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", p.ID, line.Quantity).
				Update("stock", gorm.Expr("stock - ?", line.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientStock
			}

			image := ""
			if len(p.Images) > 0 {
				image = p.Images[0]
			}
			items = append(items, models.OrderItem{
				ProductID:    p.ID,
				ProductName:  p.Name,
				ProductImage: image,
				Price:        p.Price,
				Quantity:     line.Quantity,
			})
			total += p.Price * float64(line.Quantity)
		}

		order = models.Order{
			UserID:        userID,
			OrderNumber:   NewOrderNumber(),
			TotalAmount:   total,
			Status:        models.OrderStatusPending,
			FullName:      addr.FullName,
			Address:       addr.Address,
			City:          addr.City,
			State:         addr.State,
			ZipCode:       addr.ZipCode,
			Phone:         addr.Phone,
			PaymentStatus: models.PaymentStatusPending,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		order.Items = items

		return tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	return &order, nil
}

// Cancel is the user-driven cancellation. Allowed until the order is
// delivered; restocks every line.
func (s *Service) Cancel(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	var order models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.Status == models.OrderStatusCancelled || order.Status == models.OrderStatusDelivered {
			return ErrNotCancellable
		}

		if err := restock(tx, order.Items); err != nil {
			return err
		}

		order.Status = models.OrderStatusCancelled
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("status", models.OrderStatusCancelled).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	return &order, nil
}

// UpdateStatus is the admin-driven transition. Rejects anything the
// transition table does not allow; cancelling restocks.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus, trackingNumber, notes string) (*models.Order, error) {
	if !ValidStatus(status) {
		return nil, ErrUnknownStatus
	}

	var order models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !CanTransition(order.Status, status) {
			return ErrInvalidTransition
		}

		if status == models.OrderStatusCancelled {
			if err := restock(tx, order.Items); err != nil {
				return err
			}
		}

		updates := map[string]any{"status": status}
		if trackingNumber != "" {
			updates["tracking_number"] = trackingNumber
		}
		if notes != "" {
			updates["notes"] = notes
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}

		order.Status = status
		if trackingNumber != "" {
			order.TrackingNumber = trackingNumber
		}
		if notes != "" {
			order.Notes = notes
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &order, nil
}

func (s *Service) UpdatePayment(ctx context.Context, orderID uint, status models.PaymentStatus, paymentID string) (*models.Order, error) {
	if !ValidPaymentStatus(status) {
		return nil, ErrUnknownPaymentStatus
	}

	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	updates := map[string]any{"payment_status": status}
	if paymentID != "" {
		updates["payment_id"] = paymentID
	}
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	order.PaymentStatus = status
	if paymentID != "" {
		order.PaymentID = paymentID
	}
	return &order, nil
}

func restock(tx *gorm.DB, items []models.OrderItem) error {
	for _, it := range items {
		if err := tx.Model(&models.Product{}).Where("id = ?", it.ProductID).
			Update("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}

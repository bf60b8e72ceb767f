package models

import (
	"time"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"uniqueIndex"              json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"unique;not null"          json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	IsActive    bool   `gorm:"index;default:true"       json:"is_active"`
}

type Product struct {
	ID            uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string   `gorm:"not null"                 json:"name"`
	Description   string   `json:"description"`
	Price         float64  `gorm:"not null"                 json:"price"`
	OriginalPrice float64  `json:"original_price,omitempty"`
	Images        []string `gorm:"serializer:json"          json:"images"`
	CategoryID    uint     `gorm:"index;not null"           json:"category_id"`
	Material      string   `json:"material"`
	Stock         uint     `json:"stock"`
	IsActive      bool     `gorm:"index;default:true"       json:"is_active"`
	IsFeatured    bool     `gorm:"index;default:false"      json:"is_featured"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                                       json:"id"`
	UserID    uint `gorm:"not null;index;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_user_product"       json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"                       json:"quantity"`
}

type WishlistItem struct {
	ID        uint `gorm:"primaryKey"                                           json:"id"`
	UserID    uint `gorm:"not null;index;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_wishlist_user_product"       json:"product_id"`
}

type Order struct {
	ID             uint          `gorm:"primaryKey;autoIncrement"                json:"id"`
	UserID         uint          `gorm:"index;not null"                          json:"user_id"`
	OrderNumber    string        `gorm:"uniqueIndex;not null"                    json:"order_number"`
	Items          []OrderItem   `gorm:"foreignKey:OrderID"                      json:"items"`
	TotalAmount    float64       `gorm:"not null"                                json:"total_amount"`
	Status         OrderStatus   `gorm:"type:varchar(20);index;default:pending"  json:"status"`
	FullName       string        `json:"full_name"`
	Address        string        `json:"address"`
	City           string        `json:"city"`
	State          string        `json:"state"`
	ZipCode        string        `json:"zip_code"`
	Phone          string        `json:"phone"`
	PaymentStatus  PaymentStatus `gorm:"type:varchar(20);default:pending"        json:"payment_status"`
	PaymentID      string        `json:"payment_id,omitempty"`
	TrackingNumber string        `json:"tracking_number,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// OrderItem is a snapshot of the product at checkout time. Later product
// edits never change it.
type OrderItem struct {
	ID           uint    `gorm:"primaryKey"     json:"id"`
	OrderID      uint    `gorm:"index;not null" json:"order_id"`
	ProductID    uint    `gorm:"index;not null" json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image"`
	Price        float64 `json:"price"`
	Quantity     uint    `json:"quantity"`
}

type Review struct {
	ID         uint      `gorm:"primaryKey"                                         json:"id"`
	UserID     uint      `gorm:"not null;index;uniqueIndex:idx_review_user_product" json:"user_id"`
	ProductID  uint      `gorm:"not null;index;uniqueIndex:idx_review_user_product" json:"product_id"`
	Rating     int       `gorm:"not null;check:rating BETWEEN 1 AND 5"              json:"rating"`
	Comment    string    `json:"comment"`
	IsVerified bool      `gorm:"default:true" json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewDismissal hides a product from the pending-review prompts of one
// user, across devices.
type ReviewDismissal struct {
	ID        uint `gorm:"primaryKey"                                            json:"id"`
	UserID    uint `gorm:"not null;index;uniqueIndex:idx_dismissal_user_product" json:"user_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_dismissal_user_product"       json:"product_id"`
}

type Setting struct {
	ID    uint   `gorm:"primaryKey"           json:"id"`
	Key   string `gorm:"uniqueIndex;not null" json:"key"`
	Value string `json:"value"`
}

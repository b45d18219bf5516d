package models

import (
	"time"
)

// CreateOrderRequest is the payload posted by the storefront checkout flow.
// The checkoutRequestId correlates the order with an M-Pesa payment attempt.
type CreateOrderRequest struct {
	TotalAmount       float64            `json:"totalAmount" binding:"required"`
	CustomerName      string             `json:"customerName"`
	CustomerEmail     string             `json:"customerEmail"`
	CustomerPhone     string             `json:"customerPhone"`
	PaymentMethod     string             `json:"paymentMethod"`
	CheckoutRequestID string             `json:"checkoutRequestId"`
	Items             []OrderItemRequest `json:"items" binding:"required"`
}

type OrderItemRequest struct {
	ProductID  string  `json:"productId" binding:"required"`
	Quantity   int     `json:"quantity" binding:"required"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// UserOrder is the shape returned to buyers: the public id is the order
// number, and line items carry product details.
type UserOrder struct {
	ID       string             `json:"id"`
	Products []UserOrderProduct `json:"products"`
	Status   string             `json:"status"`
	Date     string             `json:"date"`
	Total    float64            `json:"total"`
}

type UserOrderProduct struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type AdminOrder struct {
	ID            string  `json:"id"`
	Customer      string  `json:"customer"`
	Total         float64 `json:"total"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"paymentStatus"`
	Date          string  `json:"date"`
}

// SellerOrder lists only the seller's own line items; total is the sum of
// those lines, not the whole order total.
type SellerOrder struct {
	ID            string            `json:"id"`
	CustomerName  string            `json:"customerName"`
	Items         []SellerOrderItem `json:"items"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"paymentStatus"`
	Date          string            `json:"date"`
	Total         float64           `json:"total"`
}

type SellerOrderItem struct {
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

// Order statuses. Delivered is set by fulfillment, never through the
// storefront status endpoint.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusDispatched = "dispatched"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

type OrderEvent struct {
	OrderID  int       `json:"order_id"`
	Type     string    `json:"type"` // created, status_updated, payment_check
	Status   string    `json:"status"`
	Total    float64   `json:"total"`
	Occurred time.Time `json:"occurred"`
}

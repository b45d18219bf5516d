package client

import (
	"context"
	"log"
	"sync"

	"kukuhub/models"
)

type ordersEnvelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Orders  []models.UserOrder `json:"orders"`
}

// CreateOrderResult mirrors the create-order response envelope.
type CreateOrderResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// OrdersStore holds the authenticated user's order list. Consistency after a
// mutation is full refresh: CreateOrder re-fetches the whole list instead of
// patching it in place.
type OrdersStore struct {
	api  *Client
	mu   sync.Mutex
	once sync.Once

	orders []models.UserOrder
}

func NewOrdersStore(api *Client) *OrdersStore {
	return &OrdersStore{api: api}
}

// Bootstrap runs the initial fetch exactly once, independent of any later
// explicit FetchOrders calls.
func (s *OrdersStore) Bootstrap(ctx context.Context) {
	s.once.Do(func() {
		s.FetchOrders(ctx)
	})
}

// FetchOrders refreshes the order list. Any failure is logged and leaves the
// previously held list untouched (stale read over empty view).
func (s *OrdersStore) FetchOrders(ctx context.Context) {
	var envelope ordersEnvelope
	if err := s.api.get(ctx, "/api/orders/user", &envelope); err != nil {
		log.Printf("Error fetching orders: %v", err)
		return
	}
	if !envelope.Success {
		log.Printf("Failed to fetch orders: %s", envelope.Message)
		return
	}

	s.mu.Lock()
	s.orders = envelope.Orders
	s.mu.Unlock()
}

// CreateOrder posts a new order. On success the whole list is re-fetched; on
// failure the held state is left unchanged and the failure is returned.
func (s *OrdersStore) CreateOrder(ctx context.Context, req models.CreateOrderRequest) CreateOrderResult {
	var result CreateOrderResult
	if err := s.api.post(ctx, "/api/orders/create", req, &result); err != nil {
		log.Printf("Error creating order: %v", err)
		return CreateOrderResult{Success: false}
	}
	if result.Success {
		s.FetchOrders(ctx)
	}
	return result
}

// Orders returns a snapshot copy of the held list.
func (s *OrdersStore) Orders() []models.UserOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := make([]models.UserOrder, len(s.orders))
	copy(orders, s.orders)
	return orders
}

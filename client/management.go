package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"kukuhub/models"
)

var (
	ErrNotAuthenticated      = errors.New("seller not authenticated")
	ErrTransitionUnavailable = errors.New("status transition not available")
)

// StatusColor maps an order status to its badge color.
func StatusColor(status string) string {
	switch status {
	case models.StatusConfirmed, models.StatusDelivered:
		return "green"
	case models.StatusPending:
		return "yellow"
	case models.StatusDispatched:
		return "blue"
	case models.StatusCancelled:
		return "red"
	default:
		return "gray"
	}
}

// CanUpdateStatus reports whether the management surface offers any
// transition for an order in the given status. Dispatched, delivered and
// cancelled orders render no controls.
func CanUpdateStatus(status string) bool {
	return status == models.StatusPending || status == models.StatusConfirmed
}

type adminOrdersEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Orders  []models.AdminOrder `json:"orders"`
}

// AdminOrdersView is the read-only admin order list with its own
// fetch/loading/error state.
type AdminOrdersView struct {
	api      *Client
	notifier Notifier

	mu      sync.Mutex
	orders  []models.AdminOrder
	loading bool
	lastErr error
}

func NewAdminOrdersView(api *Client, notifier Notifier) *AdminOrdersView {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AdminOrdersView{api: api, notifier: notifier, loading: true}
}

func (v *AdminOrdersView) FetchOrders(ctx context.Context) {
	defer func() {
		v.mu.Lock()
		v.loading = false
		v.mu.Unlock()
	}()

	var envelope adminOrdersEnvelope
	if err := v.api.get(ctx, "/api/orders/admin", &envelope); err != nil {
		v.setErr(err)
		v.notifier.Notify(Notification{
			Title:       "Error",
			Description: "Failed to connect to server",
			Error:       true,
		})
		return
	}
	if !envelope.Success {
		v.setErr(fmt.Errorf("fetching admin orders: %s", envelope.Message))
		v.notifier.Notify(Notification{
			Title:       "Error",
			Description: "Failed to fetch orders",
			Error:       true,
		})
		return
	}

	v.mu.Lock()
	v.orders = envelope.Orders
	v.lastErr = nil
	v.mu.Unlock()
}

func (v *AdminOrdersView) setErr(err error) {
	v.mu.Lock()
	v.lastErr = err
	v.mu.Unlock()
}

func (v *AdminOrdersView) Orders() []models.AdminOrder {
	v.mu.Lock()
	defer v.mu.Unlock()
	orders := make([]models.AdminOrder, len(v.orders))
	copy(orders, v.orders)
	return orders
}

func (v *AdminOrdersView) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *AdminOrdersView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

type sellerOrdersEnvelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Orders  []models.SellerOrder `json:"orders"`
}

type checkAuthResponse struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Email           string `json:"email"`
}

type statusUpdateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SellerOrdersView lists the seller's orders and mutates their status. The
// local auth flag is advisory only; the backend re-checks every request.
type SellerOrdersView struct {
	api      *Client
	local    *Storage
	notifier Notifier

	mu            sync.Mutex
	orders        []models.SellerOrder
	authenticated bool
}

func NewSellerOrdersView(api *Client, local *Storage, notifier Notifier) *SellerOrdersView {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &SellerOrdersView{api: api, local: local, notifier: notifier}
}

// CheckAuth validates the cached auth flag against the backend. A stale
// flag is cleared; a confirmed one triggers the initial order fetch.
func (v *SellerOrdersView) CheckAuth(ctx context.Context) {
	flag, _ := v.local.Get(KeySellerAuthed)
	email, _ := v.local.Get(KeySellerEmail)
	if flag != "true" || email == "" {
		return
	}

	var resp checkAuthResponse
	if err := v.api.get(ctx, "/api/seller/check-auth", &resp); err != nil {
		return
	}

	if !resp.IsAuthenticated {
		v.local.Remove(KeySellerAuthed)
		v.local.Remove(KeySellerEmail)
		return
	}

	v.mu.Lock()
	v.authenticated = true
	v.mu.Unlock()
	v.FetchOrders(ctx)
}

func (v *SellerOrdersView) IsAuthenticated() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.authenticated
}

func (v *SellerOrdersView) FetchOrders(ctx context.Context) {
	var envelope sellerOrdersEnvelope
	if err := v.api.get(ctx, "/api/orders/seller", &envelope); err != nil {
		v.notifier.Notify(Notification{
			Title:       "Error",
			Description: "Failed to connect to server",
			Error:       true,
		})
		return
	}
	if !envelope.Success {
		v.notifier.Notify(Notification{
			Title:       "Error",
			Description: "Failed to fetch orders",
			Error:       true,
		})
		return
	}

	v.mu.Lock()
	v.orders = envelope.Orders
	v.mu.Unlock()
}

func (v *SellerOrdersView) Orders() []models.SellerOrder {
	v.mu.Lock()
	defer v.mu.Unlock()
	orders := make([]models.SellerOrder, len(v.orders))
	copy(orders, v.orders)
	return orders
}

// Dispatch moves a pending or confirmed order to dispatched.
func (v *SellerOrdersView) Dispatch(ctx context.Context, orderID string) error {
	return v.UpdateStatus(ctx, orderID, models.StatusDispatched)
}

// Cancel moves a pending or confirmed order to cancelled.
func (v *SellerOrdersView) Cancel(ctx context.Context, orderID string) error {
	return v.UpdateStatus(ctx, orderID, models.StatusCancelled)
}

// UpdateStatus issues the status transition. Only pending and confirmed
// orders offer controls, and only dispatched and cancelled are reachable
// through this surface. On success the list is fully re-fetched.
func (v *SellerOrdersView) UpdateStatus(ctx context.Context, orderID, newStatus string) error {
	if !v.IsAuthenticated() {
		v.notifier.Notify(Notification{
			Title:       "Authentication Required",
			Description: "Please sign in to update orders",
			Error:       true,
		})
		return ErrNotAuthenticated
	}

	if newStatus != models.StatusDispatched && newStatus != models.StatusCancelled {
		return ErrTransitionUnavailable
	}
	v.mu.Lock()
	for _, order := range v.orders {
		if order.ID == orderID && !CanUpdateStatus(order.Status) {
			v.mu.Unlock()
			return ErrTransitionUnavailable
		}
	}
	v.mu.Unlock()

	var resp statusUpdateResponse
	err := v.api.put(ctx, "/api/orders/"+orderID+"/status",
		map[string]string{"status": newStatus}, &resp)
	if err != nil {
		v.notifier.Notify(Notification{
			Title:       "Error",
			Description: "Failed to connect to server",
			Error:       true,
		})
		return err
	}
	if !resp.Success {
		description := resp.Message
		if description == "" {
			description = "Failed to update order"
		}
		v.notifier.Notify(Notification{
			Title:       "Error",
			Description: description,
			Error:       true,
		})
		return fmt.Errorf("updating order status: %s", description)
	}

	v.notifier.Notify(Notification{
		Title:       "Order Updated",
		Description: fmt.Sprintf("Order #%s has been updated to %s.", orderID, newStatus),
	})
	v.FetchOrders(ctx)
	return nil
}

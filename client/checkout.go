package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kukuhub/models"
)

var (
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrEmptyCart          = errors.New("empty cart")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrPaymentFailed      = errors.New("payment initiation failed")
	ErrOrderCreation      = errors.New("order creation failed")
	ErrNoPendingOrder     = errors.New("no pending order to retry")
)

// CheckoutFlow orchestrates cart, push payment and order creation into one
// user-visible transaction. The payment and the order-create calls are not
// transactional: when the second step fails after a successful push, the
// transaction reference is retained so the order-create step alone can be
// retried with the same reference.
type CheckoutFlow struct {
	api      *Client
	cart     *CartStore
	orders   *OrdersStore
	payments *PaymentInitiator
	notifier Notifier
	session  *Storage

	// Poll cadence for the post-checkout payment confirmation.
	PollInterval time.Duration
	PollTimeout  time.Duration

	mu       sync.Mutex
	inFlight bool
	pending  *models.CreateOrderRequest

	pollWG     sync.WaitGroup
	pollCancel context.CancelFunc
}

func NewCheckoutFlow(api *Client, cart *CartStore, orders *OrdersStore, session *Storage, notifier Notifier) *CheckoutFlow {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &CheckoutFlow{
		api:          api,
		cart:         cart,
		orders:       orders,
		payments:     NewPaymentInitiator(api),
		notifier:     notifier,
		session:      session,
		PollInterval: 5 * time.Second,
		PollTimeout:  2 * time.Minute,
	}
}

// SubmitPayment runs the two-step checkout: push payment, then order
// creation. Local validation failures issue no network call. A failed push
// halts the flow with the cart untouched. A failed order-create after a
// successful push leaves the cart untouched and the payment reference
// retained for RetryOrderCreate.
func (f *CheckoutFlow) SubmitPayment(ctx context.Context, phoneNumber string) error {
	if len(phoneNumber) < 10 {
		f.notifier.Notify(Notification{
			Title:       "Invalid Phone Number",
			Description: "Please enter a valid M-Pesa phone number",
			Error:       true,
		})
		return ErrInvalidPhone
	}

	items := f.cart.Items()
	if len(items) == 0 {
		f.notifier.Notify(Notification{
			Title:       "Empty Cart",
			Description: "Please add items to your cart before checkout",
			Error:       true,
		})
		return ErrEmptyCart
	}

	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrCheckoutInProgress
	}
	f.inFlight = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight = false
		f.mu.Unlock()
	}()

	cartTotal := f.cart.Total()
	// The provider rejects zero amounts; charge at least one shilling.
	amount := cartTotal
	if amount < 1 {
		amount = 1
	}

	result, err := f.payments.InitiateSTKPush(ctx, phoneNumber, amount)
	if err != nil {
		f.notifier.Notify(Notification{
			Title:       "Payment Error",
			Description: "An unexpected error occurred. Please try again.",
			Error:       true,
		})
		return fmt.Errorf("initiating payment: %w", err)
	}
	if !result.Success {
		description := result.Message
		if description == "" {
			description = "Failed to initiate payment. Please try again."
		}
		f.notifier.Notify(Notification{
			Title:       "Payment Failed",
			Description: description,
			Error:       true,
		})
		return ErrPaymentFailed
	}

	orderReq := models.CreateOrderRequest{
		TotalAmount:       cartTotal,
		CustomerPhone:     phoneNumber,
		PaymentMethod:     "mpesa",
		CheckoutRequestID: result.CheckoutRequestID,
		Items:             orderItems(items),
	}

	// Persist the reference before the second step so a failure in between
	// leaves a visible, retryable record instead of an orphaned payment.
	f.session.Set(KeyPendingCheckout, result.CheckoutRequestID)
	f.mu.Lock()
	f.pending = &orderReq
	f.mu.Unlock()

	return f.createOrder(ctx, orderReq)
}

// RetryOrderCreate re-attempts only the order-create step of a checkout
// whose payment succeeded but whose order creation failed, reusing the same
// transaction reference.
func (f *CheckoutFlow) RetryOrderCreate(ctx context.Context) error {
	f.mu.Lock()
	if f.pending == nil {
		f.mu.Unlock()
		return ErrNoPendingOrder
	}
	orderReq := *f.pending
	f.mu.Unlock()

	return f.createOrder(ctx, orderReq)
}

// PendingReference reports the transaction reference of a payment that has
// no corresponding order yet.
func (f *CheckoutFlow) PendingReference() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return "", false
	}
	return f.pending.CheckoutRequestID, true
}

func (f *CheckoutFlow) createOrder(ctx context.Context, orderReq models.CreateOrderRequest) error {
	result := f.orders.CreateOrder(ctx, orderReq)
	if !result.Success {
		f.notifier.Notify(Notification{
			Title:       "Order Creation Failed",
			Description: "Failed to create order. Your payment is pending reconciliation.",
			Error:       true,
		})
		return ErrOrderCreation
	}

	f.mu.Lock()
	f.pending = nil
	f.mu.Unlock()
	f.session.Remove(KeyPendingCheckout)

	f.notifier.Notify(Notification{
		Title:       "Payment Initiated",
		Description: "Please check your phone for the M-Pesa payment prompt and enter your PIN",
	})

	f.cart.Clear()

	f.notifier.Notify(Notification{
		Title:       "Processing Payment",
		Description: "Please wait while we confirm your payment...",
	})

	f.startConfirmation(orderReq.CheckoutRequestID)
	return nil
}

// startConfirmation launches the cancellable confirmation poller. At most
// one poller runs at a time; a new checkout supersedes the previous one.
func (f *CheckoutFlow) startConfirmation(checkoutRequestID string) {
	f.mu.Lock()
	if f.pollCancel != nil {
		f.pollCancel()
	}
	pollCtx, cancel := context.WithTimeout(context.Background(), f.PollTimeout)
	f.pollCancel = cancel
	f.mu.Unlock()

	f.pollWG.Add(1)
	go func() {
		defer f.pollWG.Done()
		defer cancel()
		f.confirmPayment(pollCtx, checkoutRequestID)
	}()
}

func (f *CheckoutFlow) confirmPayment(ctx context.Context, checkoutRequestID string) {
	ticker := time.NewTicker(f.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var status struct {
			Success bool   `json:"success"`
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		if err := f.api.get(ctx, "/api/mpesa/status/"+checkoutRequestID, &status); err != nil {
			continue
		}

		switch status.Status {
		case "completed":
			f.notifier.Notify(Notification{
				Title:       "Payment Successful",
				Description: "Your order has been created successfully!",
			})
			f.orders.FetchOrders(ctx)
			return
		case "failed":
			f.notifier.Notify(Notification{
				Title:       "Payment Failed",
				Description: "The M-Pesa payment was not completed.",
				Error:       true,
			})
			return
		}
	}
}

// Close cancels any running confirmation poller and waits for it to stop.
// Deterministic teardown, unlike the timers it replaces.
func (f *CheckoutFlow) Close() {
	f.mu.Lock()
	if f.pollCancel != nil {
		f.pollCancel()
		f.pollCancel = nil
	}
	f.mu.Unlock()
	f.pollWG.Wait()
}

func orderItems(items []CartItem) []models.OrderItemRequest {
	reqs := make([]models.OrderItemRequest, 0, len(items))
	for _, item := range items {
		reqs = append(reqs, models.OrderItemRequest{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.UnitPrice * float64(item.Quantity),
		})
	}
	return reqs
}

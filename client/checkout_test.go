package client

import (
	"context"
	"testing"
	"time"
)

func newTestFlow(t *testing.T, b *fakeBackend) (*CheckoutFlow, *CartStore, *Storage, *recordingNotifier) {
	t.Helper()
	session := NewStorage()
	cart := NewCartStore(session)
	notifier := &recordingNotifier{}
	api := b.client()
	orders := NewOrdersStore(api)
	flow := NewCheckoutFlow(api, cart, orders, session, notifier)
	flow.PollInterval = 10 * time.Millisecond
	flow.PollTimeout = 2 * time.Second
	t.Cleanup(flow.Close)
	return flow, cart, session, notifier
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestSubmitPaymentHappyPath(t *testing.T) {
	b := newFakeBackend(t)
	b.paymentStatus["ws_CO_TEST_1"] = "completed"
	flow, cart, session, notifier := newTestFlow(t, b)

	cart.Add(CartItem{ProductID: "p1", Name: "Kienyeji Eggs", Quantity: 2, UnitPrice: 500})

	if err := flow.SubmitPayment(context.Background(), "0712345678"); err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}

	b.mu.Lock()
	if b.stkCalls != 1 {
		t.Errorf("stk push calls = %d, want 1", b.stkCalls)
	}
	if got := b.stkRequests[0].Amount; got != 1000 {
		t.Errorf("stk push amount = %v, want 1000", got)
	}
	if got := b.stkRequests[0].PhoneNumber; got != "0712345678" {
		t.Errorf("stk push phone = %q, want %q", got, "0712345678")
	}
	if b.createCalls != 1 {
		t.Errorf("create order calls = %d, want 1", b.createCalls)
	}
	created := b.createRequests[0]
	b.mu.Unlock()

	if created.TotalAmount != 1000 {
		t.Errorf("order totalAmount = %v, want 1000", created.TotalAmount)
	}
	if created.CheckoutRequestID != "ws_CO_TEST_1" {
		t.Errorf("order checkoutRequestId = %q, want %q", created.CheckoutRequestID, "ws_CO_TEST_1")
	}
	if len(created.Items) != 1 {
		t.Fatalf("order items = %d, want 1", len(created.Items))
	}
	item := created.Items[0]
	if item.ProductID != "p1" || item.Quantity != 2 || item.UnitPrice != 500 || item.TotalPrice != 1000 {
		t.Errorf("order item = %+v, want p1 x2 @500 total 1000", item)
	}

	if got := cart.Items(); len(got) != 0 {
		t.Errorf("cart has %d items after checkout, want 0", len(got))
	}
	if _, ok := session.Get(KeyCartItems); ok {
		t.Error("cartItems still in session storage after checkout")
	}
	if _, ok := session.Get(KeyCartTotal); ok {
		t.Error("cartTotal still in session storage after checkout")
	}
	if _, ok := session.Get(KeyPendingCheckout); ok {
		t.Error("pending checkout reference still in session storage after success")
	}
	if _, ok := flow.PendingReference(); ok {
		t.Error("PendingReference still set after successful create")
	}

	if !notifier.has("Payment Initiated") {
		t.Error("missing Payment Initiated notification")
	}
	if !notifier.has("Processing Payment") {
		t.Error("missing Processing Payment notification")
	}
	if !waitFor(t, time.Second, func() bool { return notifier.has("Payment Successful") }) {
		t.Error("confirmation poller never reported Payment Successful")
	}
}

func TestSubmitPaymentEmptyCart(t *testing.T) {
	b := newFakeBackend(t)
	flow, _, _, notifier := newTestFlow(t, b)

	if err := flow.SubmitPayment(context.Background(), "0712345678"); err != ErrEmptyCart {
		t.Fatalf("SubmitPayment error = %v, want ErrEmptyCart", err)
	}
	if got := b.totalCalls(); got != 0 {
		t.Errorf("backend calls = %d, want 0", got)
	}
	if !notifier.has("Empty Cart") {
		t.Error("missing Empty Cart notification")
	}
}

func TestSubmitPaymentInvalidPhone(t *testing.T) {
	b := newFakeBackend(t)
	flow, cart, _, notifier := newTestFlow(t, b)
	cart.Add(CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 100})

	if err := flow.SubmitPayment(context.Background(), "07123"); err != ErrInvalidPhone {
		t.Fatalf("SubmitPayment error = %v, want ErrInvalidPhone", err)
	}
	if got := b.totalCalls(); got != 0 {
		t.Errorf("backend calls = %d, want 0", got)
	}
	if !notifier.has("Invalid Phone Number") {
		t.Error("missing Invalid Phone Number notification")
	}
}

func TestSubmitPaymentPushRejected(t *testing.T) {
	b := newFakeBackend(t)
	b.stkFail = true
	b.stkMessage = "Insufficient funds on the account"
	flow, cart, session, notifier := newTestFlow(t, b)
	cart.Add(CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 250})

	if err := flow.SubmitPayment(context.Background(), "0712345678"); err != ErrPaymentFailed {
		t.Fatalf("SubmitPayment error = %v, want ErrPaymentFailed", err)
	}

	b.mu.Lock()
	createCalls := b.createCalls
	b.mu.Unlock()
	if createCalls != 0 {
		t.Errorf("create order calls = %d, want 0 after rejected push", createCalls)
	}
	if got := cart.Items(); len(got) != 1 {
		t.Errorf("cart has %d items, want 1 (untouched)", len(got))
	}
	if _, ok := session.Get(KeyCartItems); !ok {
		t.Error("cartItems removed from session storage after failed push")
	}
	if _, ok := session.Get(KeyPendingCheckout); ok {
		t.Error("pending checkout reference persisted before a successful push")
	}

	last, ok := notifier.last()
	if !ok || last.Title != "Payment Failed" {
		t.Fatalf("last notification = %+v, want Payment Failed", last)
	}
	if last.Description != "Insufficient funds on the account" {
		t.Errorf("notification description = %q, want provider message", last.Description)
	}
}

func TestSubmitPaymentOrderCreateFailsThenRetry(t *testing.T) {
	b := newFakeBackend(t)
	b.createFail = true
	b.paymentStatus["ws_CO_TEST_1"] = "completed"
	flow, cart, session, notifier := newTestFlow(t, b)
	cart.Add(CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 250})

	if err := flow.SubmitPayment(context.Background(), "0712345678"); err != ErrOrderCreation {
		t.Fatalf("SubmitPayment error = %v, want ErrOrderCreation", err)
	}

	// Payment went through but the order did not: cart stays, reference stays.
	if got := cart.Items(); len(got) != 1 {
		t.Errorf("cart has %d items, want 1 (untouched)", len(got))
	}
	ref, ok := flow.PendingReference()
	if !ok || ref != "ws_CO_TEST_1" {
		t.Fatalf("PendingReference = %q, %v; want ws_CO_TEST_1, true", ref, ok)
	}
	if v, ok := session.Get(KeyPendingCheckout); !ok || v != "ws_CO_TEST_1" {
		t.Errorf("session pending reference = %q, %v; want ws_CO_TEST_1, true", v, ok)
	}
	if !notifier.has("Order Creation Failed") {
		t.Error("missing Order Creation Failed notification")
	}

	// The retry reuses the same reference without a second push.
	b.mu.Lock()
	b.createFail = false
	b.mu.Unlock()

	if err := flow.RetryOrderCreate(context.Background()); err != nil {
		t.Fatalf("RetryOrderCreate: %v", err)
	}

	b.mu.Lock()
	if b.stkCalls != 1 {
		t.Errorf("stk push calls = %d, want 1 (retry must not re-charge)", b.stkCalls)
	}
	if b.createCalls != 2 {
		t.Errorf("create order calls = %d, want 2", b.createCalls)
	}
	first, second := b.createRequests[0].CheckoutRequestID, b.createRequests[1].CheckoutRequestID
	b.mu.Unlock()
	if first != second {
		t.Errorf("retry used reference %q, want original %q", second, first)
	}

	if got := cart.Items(); len(got) != 0 {
		t.Errorf("cart has %d items after retry success, want 0", len(got))
	}
	if _, ok := flow.PendingReference(); ok {
		t.Error("PendingReference still set after successful retry")
	}
	if _, ok := session.Get(KeyPendingCheckout); ok {
		t.Error("session pending reference still set after successful retry")
	}
}

func TestRetryOrderCreateWithoutPending(t *testing.T) {
	b := newFakeBackend(t)
	flow, _, _, _ := newTestFlow(t, b)

	if err := flow.RetryOrderCreate(context.Background()); err != ErrNoPendingOrder {
		t.Fatalf("RetryOrderCreate error = %v, want ErrNoPendingOrder", err)
	}
}

func TestSubmitPaymentFreeCartChargesMinimum(t *testing.T) {
	b := newFakeBackend(t)
	b.paymentStatus["ws_CO_TEST_1"] = "completed"
	flow, cart, _, _ := newTestFlow(t, b)
	cart.Add(CartItem{ProductID: "sample", Quantity: 1, UnitPrice: 0})

	if err := flow.SubmitPayment(context.Background(), "0712345678"); err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if got := b.stkRequests[0].Amount; got != 1 {
		t.Errorf("stk push amount = %v, want minimum charge 1", got)
	}
	if got := b.createRequests[0].TotalAmount; got != 0 {
		t.Errorf("order totalAmount = %v, want actual cart total 0", got)
	}
}

func TestConfirmationPollerFailedPayment(t *testing.T) {
	b := newFakeBackend(t)
	b.paymentStatus["ws_CO_TEST_1"] = "failed"
	flow, cart, _, notifier := newTestFlow(t, b)
	cart.Add(CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 100})

	if err := flow.SubmitPayment(context.Background(), "0712345678"); err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	if !waitFor(t, time.Second, func() bool { return notifier.has("Payment Failed") }) {
		t.Error("confirmation poller never reported Payment Failed")
	}
}

func TestCloseStopsConfirmationPoller(t *testing.T) {
	b := newFakeBackend(t)
	// Status stays pending so the poller would otherwise run until timeout.
	flow, cart, _, notifier := newTestFlow(t, b)
	cart.Add(CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 100})

	if err := flow.SubmitPayment(context.Background(), "0712345678"); err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}

	done := make(chan struct{})
	go func() {
		flow.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not stop the confirmation poller")
	}

	if notifier.has("Payment Successful") {
		t.Error("poller reported success for a pending payment")
	}
}

package client

import (
	"context"
	"testing"

	"kukuhub/models"
)

func TestFetchOrdersKeepsStaleListOnError(t *testing.T) {
	b := newFakeBackend(t)
	b.userOrders = []models.UserOrder{
		{ID: "ORD202501010000AB", Status: models.StatusPending, Total: 1000},
	}
	store := NewOrdersStore(b.client())

	store.FetchOrders(context.Background())
	if got := store.Orders(); len(got) != 1 {
		t.Fatalf("orders after fetch = %d, want 1", len(got))
	}

	b.mu.Lock()
	b.userFetchFail = true
	b.mu.Unlock()

	store.FetchOrders(context.Background())
	got := store.Orders()
	if len(got) != 1 || got[0].ID != "ORD202501010000AB" {
		t.Errorf("orders after failed fetch = %+v, want previous list retained", got)
	}
}

func TestBootstrapFetchesOnce(t *testing.T) {
	b := newFakeBackend(t)
	store := NewOrdersStore(b.client())

	store.Bootstrap(context.Background())
	store.Bootstrap(context.Background())

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.userFetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1", b.userFetchCalls)
	}
}

func TestCreateOrderRefreshesList(t *testing.T) {
	b := newFakeBackend(t)
	b.userOrders = []models.UserOrder{
		{ID: "ORD202501010000AB", Status: models.StatusPending, Total: 1000},
	}
	store := NewOrdersStore(b.client())

	result := store.CreateOrder(context.Background(), models.CreateOrderRequest{
		TotalAmount:       1000,
		CheckoutRequestID: "ws_CO_TEST_1",
		Items: []models.OrderItemRequest{
			{ProductID: "p1", Quantity: 2, UnitPrice: 500, TotalPrice: 1000},
		},
	})
	if !result.Success {
		t.Fatalf("CreateOrder result = %+v, want success", result)
	}
	if result.OrderNumber == "" {
		t.Error("CreateOrder returned empty order number")
	}

	b.mu.Lock()
	fetches := b.userFetchCalls
	b.mu.Unlock()
	if fetches != 1 {
		t.Errorf("fetch calls after create = %d, want 1 (full refresh)", fetches)
	}
	if got := store.Orders(); len(got) != 1 {
		t.Errorf("orders after create = %d, want 1", len(got))
	}
}

func TestCreateOrderFailureLeavesListAlone(t *testing.T) {
	b := newFakeBackend(t)
	b.createFail = true
	store := NewOrdersStore(b.client())

	result := store.CreateOrder(context.Background(), models.CreateOrderRequest{TotalAmount: 100})
	if result.Success {
		t.Fatal("CreateOrder succeeded, want failure")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.userFetchCalls != 0 {
		t.Errorf("fetch calls after failed create = %d, want 0", b.userFetchCalls)
	}
}

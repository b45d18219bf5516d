package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"kukuhub/models"
)

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) has(title string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notes {
		if n.Title == title {
			return true
		}
	}
	return false
}

func (r *recordingNotifier) last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Notification{}, false
	}
	return r.notes[len(r.notes)-1], true
}

// fakeBackend is an httptest stand-in for the KukuHub API.
type fakeBackend struct {
	server *httptest.Server

	mu sync.Mutex

	stkCalls    int
	stkRequests []models.STKPushRequest
	stkFail     bool
	stkMessage  string

	createCalls    int
	createRequests []models.CreateOrderRequest
	createFail     bool

	userFetchCalls   int
	userOrders       []models.UserOrder
	userFetchFail    bool
	sellerFetchCalls int
	sellerOrders     []models.SellerOrder
	adminOrders      []models.AdminOrder

	sellerAuthed bool

	paymentStatus map[string]string

	statusCalls    int
	statusRequests []string
	statusFail     string // server-side failure message, empty for success

	messages      []models.Message
	markReadCalls []string
	markReadFail  bool
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{paymentStatus: make(map[string]string)}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/mpesa/stkpush", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.stkCalls++
		var req models.STKPushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding stk push request: %v", err)
		}
		b.stkRequests = append(b.stkRequests, req)
		if b.stkFail {
			writeJSON(w, map[string]interface{}{"success": false, "message": b.stkMessage})
			return
		}
		writeJSON(w, map[string]interface{}{
			"success":           true,
			"message":           "STK push sent successfully",
			"checkoutRequestID": "ws_CO_TEST_1",
		})
	})

	mux.HandleFunc("GET /api/mpesa/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		status, ok := b.paymentStatus[r.PathValue("id")]
		if !ok {
			status = "pending"
		}
		writeJSON(w, map[string]interface{}{"success": true, "status": status})
	})

	mux.HandleFunc("POST /api/orders/create", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.createCalls++
		var req models.CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding create order request: %v", err)
		}
		b.createRequests = append(b.createRequests, req)
		if b.createFail {
			writeJSON(w, map[string]interface{}{"success": false, "message": "Error creating order"})
			return
		}
		writeJSON(w, map[string]interface{}{
			"success":     true,
			"orderId":     1,
			"orderNumber": "ORD202501010000AB",
		})
	})

	mux.HandleFunc("GET /api/orders/user", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.userFetchCalls++
		if b.userFetchFail {
			writeJSON(w, map[string]interface{}{"success": false, "message": "Error fetching orders"})
			return
		}
		writeJSON(w, map[string]interface{}{"success": true, "orders": b.userOrders})
	})

	mux.HandleFunc("GET /api/orders/admin", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, map[string]interface{}{"success": true, "orders": b.adminOrders})
	})

	mux.HandleFunc("GET /api/orders/seller", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.sellerFetchCalls++
		writeJSON(w, map[string]interface{}{"success": true, "orders": b.sellerOrders})
	})

	mux.HandleFunc("PUT /api/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.statusCalls++
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding status update request: %v", err)
		}
		b.statusRequests = append(b.statusRequests, r.PathValue("id")+":"+req.Status)
		if b.statusFail != "" {
			writeJSON(w, map[string]interface{}{"success": false, "message": b.statusFail})
			return
		}
		for i := range b.sellerOrders {
			if b.sellerOrders[i].ID == r.PathValue("id") {
				b.sellerOrders[i].Status = req.Status
			}
		}
		writeJSON(w, map[string]interface{}{"success": true, "message": "Order status updated successfully"})
	})

	mux.HandleFunc("GET /api/seller/check-auth", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, map[string]interface{}{"isAuthenticated": b.sellerAuthed})
	})

	mux.HandleFunc("GET /api/seller/messages", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, map[string]interface{}{"success": true, "messages": b.messages})
	})

	mux.HandleFunc("PUT /api/seller/messages/mark-read/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.markReadCalls = append(b.markReadCalls, r.PathValue("id"))
		if b.markReadFail {
			writeJSON(w, map[string]interface{}{"success": false, "message": "Error marking message as read"})
			return
		}
		for i := range b.messages {
			if b.messages[i].ID == r.PathValue("id") {
				b.messages[i].IsRead = true
			}
		}
		writeJSON(w, map[string]interface{}{"success": true})
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) client() *Client {
	return New(b.server.URL)
}

func (b *fakeBackend) totalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stkCalls + b.createCalls + b.userFetchCalls + b.sellerFetchCalls + b.statusCalls
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(err)
	}
}

package client

import "sync"

// Storage keys used by the storefront.
const (
	KeyCartTotal       = "cartTotal"
	KeyCartItems       = "cartItems"
	KeyPendingCheckout = "pendingCheckoutRequestId"
	KeySellerAuthed    = "isSellerAuthenticated"
	KeySellerEmail     = "sellerEmail"
)

// Storage is a mutex-guarded string map standing in for the browser's
// session and local storage. One instance per scope.
type Storage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewStorage() *Storage {
	return &Storage{values: make(map[string]string)}
}

func (s *Storage) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Storage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *Storage) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

package client

import (
	"encoding/json"
	"strconv"
	"sync"
)

// CartItem is one line in the cart. UnitPrice is the price captured at
// add-time; checkout recomputes line totals from it, never re-fetches.
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// CartStore owns the cart lines and mirrors them into session storage under
// the cartItems/cartTotal keys. Cleared on successful order creation.
type CartStore struct {
	mu      sync.Mutex
	items   []CartItem
	session *Storage
}

func NewCartStore(session *Storage) *CartStore {
	return &CartStore{session: session}
}

// Add merges quantity into an existing line for the same product.
func (s *CartStore) Add(item CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			s.items[i].Quantity += item.Quantity
			s.persist()
			return
		}
	}
	s.items = append(s.items, item)
	s.persist()
}

func (s *CartStore) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.persist()
}

func (s *CartStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.session.Remove(KeyCartItems)
	s.session.Remove(KeyCartTotal)
}

// Items returns a snapshot copy.
func (s *CartStore) Items() []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]CartItem, len(s.items))
	copy(items, s.items)
	return items
}

func (s *CartStore) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total()
}

func (s *CartStore) total() float64 {
	var total float64
	for _, item := range s.items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// persist mirrors cart state to session storage. Callers hold the lock.
func (s *CartStore) persist() {
	if data, err := json.Marshal(s.items); err == nil {
		s.session.Set(KeyCartItems, string(data))
	}
	s.session.Set(KeyCartTotal, strconv.FormatFloat(s.total(), 'f', -1, 64))
}

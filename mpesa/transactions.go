package mpesa

import (
	"sync"
	"time"
)

// Transaction is a push-payment attempt keyed by CheckoutRequestID. Status
// starts pending and is settled by the Daraja callback.
type Transaction struct {
	Amount      float64   `json:"amount"`
	PhoneNumber string    `json:"phone_number"`
	Status      string    `json:"status"` // pending, completed, failed
	ResultCode  int       `json:"result_code,omitempty"`
	ResultDesc  string    `json:"result_desc,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// TransactionStore holds in-flight transactions in memory. Orders carry the
// reference durably; this store only serves status polling between the push
// and the callback.
type TransactionStore struct {
	mu           sync.RWMutex
	transactions map[string]*Transaction
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{transactions: make(map[string]*Transaction)}
}

func (s *TransactionStore) Put(checkoutRequestID string, phoneNumber string, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[checkoutRequestID] = &Transaction{
		Amount:      amount,
		PhoneNumber: phoneNumber,
		Status:      "pending",
		Timestamp:   time.Now(),
	}
}

func (s *TransactionStore) Get(checkoutRequestID string) (Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[checkoutRequestID]
	if !ok {
		return Transaction{}, false
	}
	return *tx, true
}

// Settle records the callback result. Returns false when the reference is
// unknown, which happens for callbacks that outlive a restart.
func (s *TransactionStore) Settle(checkoutRequestID string, resultCode int, resultDesc string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[checkoutRequestID]
	if !ok {
		return false
	}
	if resultCode == 0 {
		tx.Status = "completed"
	} else {
		tx.Status = "failed"
		tx.ResultCode = resultCode
		tx.ResultDesc = resultDesc
	}
	return true
}

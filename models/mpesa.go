package models

// STKPushRequest initiates a push payment: the customer gets a prompt on
// their phone and the caller receives only a pending reference.
type STKPushRequest struct {
	PhoneNumber string  `json:"phoneNumber" binding:"required"`
	Amount      float64 `json:"amount"`
}

type STKPushResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message,omitempty"`
	CheckoutRequestID string `json:"checkoutRequestID,omitempty"`
}

type UpdatePaymentRequest struct {
	CheckoutRequestID string `json:"checkoutRequestId" binding:"required"`
	PaymentStatus     string `json:"paymentStatus" binding:"required"`
	ReceiptNumber     string `json:"receiptNumber"`
}

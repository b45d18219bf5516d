package client

import (
	"context"

	"kukuhub/models"
)

// PaymentResult carries the pending transaction reference on success, or the
// provider's message on failure.
type PaymentResult struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	CheckoutRequestID string `json:"checkoutRequestID"`
}

// PaymentInitiator wraps the single push-payment call. The returned
// reference is write-once and passed through unchanged to order creation.
type PaymentInitiator struct {
	api *Client
}

func NewPaymentInitiator(api *Client) *PaymentInitiator {
	return &PaymentInitiator{api: api}
}

func (p *PaymentInitiator) InitiateSTKPush(ctx context.Context, phoneNumber string, amount float64) (PaymentResult, error) {
	req := models.STKPushRequest{
		PhoneNumber: phoneNumber,
		Amount:      amount,
	}
	var result PaymentResult
	if err := p.api.post(ctx, "/api/mpesa/stkpush", req, &result); err != nil {
		return PaymentResult{}, err
	}
	return result, nil
}

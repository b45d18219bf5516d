package controllers

import (
	"log"
	"net/http"

	"kukuhub/middlewares"
	"kukuhub/models"

	"github.com/gin-gonic/gin"
)

// InitiateSTKPush sends the push-payment prompt. On success the caller gets
// only a pending CheckoutRequestID; the actual result arrives later on the
// callback endpoint.
func InitiateSTKPush(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordPaymentOperation("stk_push", status)
	}()

	var req models.STKPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Phone number is required"})
		return
	}

	amount := req.Amount
	if amount <= 0 {
		amount = 1
	}

	checkoutRequestID, err := mpesaClient.STKPush(c.Request.Context(), req.PhoneNumber, amount)
	if err != nil {
		log.Printf("STK push error: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": "Failed to initiate STK push",
			"details": err.Error(),
		})
		return
	}

	transactions.Put(checkoutRequestID, req.PhoneNumber, amount)

	c.JSON(http.StatusOK, models.STKPushResponse{
		Success:           true,
		Message:           "STK push sent successfully",
		CheckoutRequestID: checkoutRequestID,
	})
}

func CheckPaymentStatus(c *gin.Context) {
	checkoutRequestID := c.Param("id")

	tx, ok := transactions.Get(checkoutRequestID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"status":  "failed",
			"message": "Transaction not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  tx.Status,
		"message": "Payment " + tx.Status,
		"details": tx,
	})
}

type stkCallbackBody struct {
	Body struct {
		StkCallback struct {
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// MpesaCallback receives the Daraja payment result and settles the pending
// transaction. Always acknowledges so Daraja stops retrying.
func MpesaCallback(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordPaymentOperation("callback", status)
	}()

	var payload stkCallbackBody
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("Callback processing error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ResultCode": 1, "ResultDesc": "Rejected"})
		return
	}

	cb := payload.Body.StkCallback
	if !transactions.Settle(cb.CheckoutRequestID, cb.ResultCode, cb.ResultDesc) {
		log.Printf("Callback for unknown transaction: %s", cb.CheckoutRequestID)
	}

	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}

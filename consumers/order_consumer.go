package consumers

import (
	"log"
	"strconv"
	"strings"

	"kukuhub/config"
	"kukuhub/database"
	"kukuhub/models"
	"kukuhub/mpesa"

	amqp "github.com/rabbitmq/amqp091-go"
)

var transactions *mpesa.TransactionStore

// StartOrderConsumer consumes order events and the dead-letter queue. The
// transaction store is consulted by the delayed payment_check pass to
// reconcile orders whose payment never completed.
func StartOrderConsumer(ch *amqp.Channel, cfg *config.Config, txStore *mpesa.TransactionStore) {
	transactions = txStore

	msgs, err := ch.Consume(
		cfg.OrderQueue,
		"kukuhub", // consumer tag
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,
	)
	if err != nil {
		log.Fatalf("Failed to register consumer: %v", err)
	}

	go func() {
		for msg := range msgs {
			processOrderMessage(msg)
		}
	}()

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"kukuhub-dlq", // consumer tag
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,
	)
	if err != nil {
		log.Printf("Failed to register DLQ consumer: %v", err)
	}

	go func() {
		for msg := range dlqMsgs {
			processDeadLetterMessage(msg)
		}
	}()
}

func processOrderMessage(msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in message processing: %v", r)
		}
	}()

	parts := strings.Split(string(msg.Body), "|")
	if len(parts) < 2 {
		log.Printf("Invalid message format: %s", msg.Body)
		err := msg.Nack(false, false)
		if err != nil {
			return
		}
		return
	}

	orderID, err := strconv.Atoi(parts[0])
	if err != nil {
		log.Printf("Invalid order ID: %s", parts[0])
		err := msg.Nack(false, false)
		if err != nil {
			return
		}
		return
	}

	eventType := parts[1]
	log.Printf("Processing order event: ID=%d, Type=%s", orderID, eventType)

	switch eventType {
	case "created":
		handleOrderCreated(orderID)
	case "status_updated":
		handleStatusUpdated(orderID)
	case "payment_check":
		handlePaymentCheck(orderID)
	default:
		log.Printf("Unknown event type: %s", eventType)
	}

	err = msg.Ack(false)
	if err != nil {
		return
	}
}

func processDeadLetterMessage(msg amqp.Delivery) {
	log.Printf("Received dead letter: %s", msg.Body)
	err := msg.Ack(false)
	if err != nil {
		return
	}
}

func handleOrderCreated(orderID int) {
	log.Printf("Handling order created: %d", orderID)
}

func handleStatusUpdated(orderID int) {
	var status string
	err := database.DB.QueryRow("SELECT status FROM orders WHERE order_id = ?", orderID).Scan(&status)
	if err != nil {
		log.Printf("Failed to get order status: %v", err)
		return
	}
	log.Printf("Handling status update for order %d: %s", orderID, status)
}

// handlePaymentCheck runs a fixed delay after checkout. It reconciles the
// order with the M-Pesa transaction so a push payment that was never
// completed does not leave the order pending forever.
func handlePaymentCheck(orderID int) {
	var (
		paymentStatus     string
		checkoutRequestID string
	)
	err := database.DB.QueryRow(
		"SELECT payment_status, COALESCE(mpesa_checkout_request_id, '') FROM orders WHERE order_id = ?",
		orderID,
	).Scan(&paymentStatus, &checkoutRequestID)
	if err != nil {
		log.Printf("Failed to get order payment status: %v", err)
		return
	}

	if paymentStatus != models.PaymentPending {
		return
	}

	if transactions != nil && checkoutRequestID != "" {
		if tx, ok := transactions.Get(checkoutRequestID); ok && tx.Status == "completed" {
			_, err := database.DB.Exec(
				"UPDATE orders SET payment_status = ?, status = ?, updated_at = NOW() WHERE order_id = ?",
				models.PaymentCompleted, models.StatusConfirmed, orderID,
			)
			if err != nil {
				log.Printf("Failed to confirm order %d: %v", orderID, err)
			} else {
				log.Printf("Confirmed order %d after payment check", orderID)
			}
			return
		}
	}

	_, err = database.DB.Exec(
		"UPDATE orders SET status = ?, payment_status = ?, updated_at = NOW() WHERE order_id = ?",
		models.StatusCancelled, models.PaymentFailed, orderID,
	)
	if err != nil {
		log.Printf("Failed to auto-cancel order %d: %v", orderID, err)
	} else {
		log.Printf("Auto-cancelled order %d due to non-payment", orderID)
	}
}

package controllers

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kukuhub/database"
	"kukuhub/middlewares"
	"kukuhub/models"

	"github.com/gin-gonic/gin"
)

// newOrderNumber builds the public order id: ORD + timestamp + random tail.
func newOrderNumber() string {
	buf := make([]byte, 2)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("ORD%s0000", time.Now().Format("20060102150405"))
	}
	return fmt.Sprintf("ORD%s%s", time.Now().Format("20060102150405"),
		strings.ToUpper(hex.EncodeToString(buf)))
}

func CreateOrder(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("create", status)
	}()

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Order must contain at least one item"})
		return
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "mpesa"
	}

	orderNumber := newOrderNumber()

	// Guest checkout is allowed; user_id stays NULL without a session.
	var userID sql.NullInt64
	if id, ok := middlewares.SessionUserID(c); ok {
		userID = sql.NullInt64{Int64: int64(id), Valid: true}
	}

	tx, err := database.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not start transaction"})
		return
	}

	now := time.Now()
	result, err := tx.Exec(`
		INSERT INTO orders
			(order_number, user_id, customer_name, customer_email, customer_phone,
			 total_amount, status, payment_status, payment_method,
			 mpesa_checkout_request_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		orderNumber, userID, nullable(req.CustomerName), nullable(req.CustomerEmail),
		nullable(req.CustomerPhone), req.TotalAmount, models.StatusPending,
		models.PaymentPending, paymentMethod, nullable(req.CheckoutRequestID), now, now,
	)
	if err != nil {
		if err := tx.Rollback(); err != nil {
			return
		}
		log.Printf("Error creating order: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error creating order"})
		return
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		if err := tx.Rollback(); err != nil {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to get order ID"})
		return
	}

	for _, item := range req.Items {
		productID, err := strconv.Atoi(item.ProductID)
		if err != nil {
			if err := tx.Rollback(); err != nil {
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product ID: " + item.ProductID})
			return
		}
		_, err = tx.Exec(`
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			orderID, productID, item.Quantity, item.UnitPrice, item.TotalPrice, now,
		)
		if err != nil {
			if err := tx.Rollback(); err != nil {
				return
			}
			log.Printf("Error adding order item: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error creating order"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Transaction commit failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Order created successfully",
		"orderId":     orderID,
		"orderNumber": orderNumber,
	})

	invalidateOrderCaches(c)

	if rabbitMQ != nil {
		priority := 5
		if req.TotalAmount > 1000 {
			priority = 9
		}
		if err := rabbitMQ.PublishOrderEvent(int(orderID), priority, "created"); err != nil {
			log.Printf("Failed to publish order created event: %v", err)
		}
		// Reconciliation pass: if the push payment never completes, the
		// delayed check cancels the order instead of leaving it pending.
		if err := rabbitMQ.PublishDelayedEvent(int(orderID), cfg.PaymentCheckDelay, "payment_check"); err != nil {
			log.Printf("Failed to publish delayed payment check event: %v", err)
		}
	}
}

func GetUserOrders(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("list_user", status)
	}()

	userID, ok := middlewares.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	cacheKey := fmt.Sprintf("orders:user:%d", userID)
	if orderCache != nil {
		var cached []models.UserOrder
		if err := orderCache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "orders": cached})
			return
		}
	}

	rows, err := database.DB.Query(`
		SELECT o.order_number, o.status, o.created_at, o.total_amount,
		       p.product_id, p.name, COALESCE(p.image_url, ''), oi.unit_price, oi.quantity
		FROM orders o
		JOIN order_items oi ON o.order_id = oi.order_id
		JOIN products p ON oi.product_id = p.product_id
		WHERE o.user_id = ?
		ORDER BY o.created_at DESC, oi.item_id ASC`, userID)
	if err != nil {
		log.Printf("Error fetching user orders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error fetching orders"})
		return
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {

		}
	}(rows)

	ordersMap := make(map[string]*models.UserOrder)
	var orderedNumbers []string
	for rows.Next() {
		var (
			orderNumber string
			status      string
			createdAt   time.Time
			total       float64
			productID   int
			name        string
			image       string
			price       float64
			quantity    int
		)
		if err := rows.Scan(&orderNumber, &status, &createdAt, &total,
			&productID, &name, &image, &price, &quantity); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}

		if _, exists := ordersMap[orderNumber]; !exists {
			ordersMap[orderNumber] = &models.UserOrder{
				ID:       orderNumber,
				Status:   status,
				Date:     createdAt.Format("2006-01-02"),
				Total:    total,
				Products: []models.UserOrderProduct{},
			}
			orderedNumbers = append(orderedNumbers, orderNumber)
		}

		ordersMap[orderNumber].Products = append(ordersMap[orderNumber].Products, models.UserOrderProduct{
			ID:       strconv.Itoa(productID),
			Name:     name,
			Image:    image,
			Price:    price,
			Quantity: quantity,
		})
	}

	orders := make([]models.UserOrder, 0, len(orderedNumbers))
	for _, number := range orderedNumbers {
		orders = append(orders, *ordersMap[number])
	}

	if orderCache != nil {
		if err := orderCache.Set(c.Request.Context(), cacheKey, orders); err != nil {
			log.Printf("Failed to cache user orders: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

func GetAdminOrders(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("list_admin", status)
	}()

	if _, ok := middlewares.SessionAdminID(c); !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Admin not authenticated"})
		return
	}

	rows, err := database.DB.Query(`
		SELECT order_number, COALESCE(customer_name, 'Guest'), total_amount,
		       status, payment_status, created_at
		FROM orders
		ORDER BY created_at DESC`)
	if err != nil {
		log.Printf("Error fetching admin orders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error fetching orders"})
		return
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {

		}
	}(rows)

	orders := make([]models.AdminOrder, 0)
	for rows.Next() {
		var (
			order     models.AdminOrder
			createdAt time.Time
		)
		if err := rows.Scan(&order.ID, &order.Customer, &order.Total,
			&order.Status, &order.PaymentStatus, &createdAt); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}
		order.Date = createdAt.Format("2006-01-02")
		orders = append(orders, order)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

func GetSellerOrders(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("list_seller", status)
	}()

	sellerID, ok := middlewares.SessionSellerID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Seller not authenticated"})
		return
	}

	rows, err := database.DB.Query(`
		SELECT o.order_number, COALESCE(o.customer_name, 'Guest'), o.status,
		       o.payment_status, o.created_at,
		       p.name, oi.quantity, oi.unit_price, oi.total_price
		FROM orders o
		JOIN order_items oi ON o.order_id = oi.order_id
		JOIN products p ON oi.product_id = p.product_id
		WHERE p.seller_id = ?
		ORDER BY o.created_at DESC, oi.item_id ASC`, sellerID)
	if err != nil {
		log.Printf("Error fetching seller orders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error fetching orders"})
		return
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {

		}
	}(rows)

	ordersMap := make(map[string]*models.SellerOrder)
	var orderedNumbers []string
	for rows.Next() {
		var (
			orderNumber   string
			customerName  string
			status        string
			paymentStatus string
			createdAt     time.Time
			item          models.SellerOrderItem
		)
		if err := rows.Scan(&orderNumber, &customerName, &status, &paymentStatus,
			&createdAt, &item.ProductName, &item.Quantity, &item.UnitPrice,
			&item.TotalPrice); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}

		if _, exists := ordersMap[orderNumber]; !exists {
			ordersMap[orderNumber] = &models.SellerOrder{
				ID:            orderNumber,
				CustomerName:  customerName,
				Status:        status,
				PaymentStatus: paymentStatus,
				Date:          createdAt.Format("2006-01-02"),
				Items:         []models.SellerOrderItem{},
			}
			orderedNumbers = append(orderedNumbers, orderNumber)
		}

		order := ordersMap[orderNumber]
		order.Items = append(order.Items, item)
		// Seller totals cover only this seller's line items.
		order.Total += item.TotalPrice
	}

	orders := make([]models.SellerOrder, 0, len(orderedNumbers))
	for _, number := range orderedNumbers {
		orders = append(orders, *ordersMap[number])
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

func UpdateOrderStatus(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("update_status", status)
	}()

	sellerID, isSeller := middlewares.SessionSellerID(c)
	_, isAdmin := middlewares.SessionAdminID(c)
	if !isSeller && !isAdmin {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Authentication required"})
		return
	}

	orderNumber := c.Param("id")

	var req struct {
		Status string `json:"status" binding:"required,oneof=pending confirmed dispatched delivered cancelled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var orderID int
	err := database.DB.QueryRow(
		"SELECT order_id FROM orders WHERE order_number = ?", orderNumber,
	).Scan(&orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error updating order status"})
		return
	}

	// Sellers may only touch orders containing their own products; the
	// client-side gate is advisory, this is the real check.
	if isSeller && !isAdmin {
		var itemID int
		err := database.DB.QueryRow(`
			SELECT oi.item_id
			FROM order_items oi
			JOIN products p ON oi.product_id = p.product_id
			WHERE oi.order_id = ? AND p.seller_id = ?
			LIMIT 1`, orderID, sellerID).Scan(&itemID)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": "You do not have products in this order"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error updating order status"})
			return
		}
	}

	_, err = database.DB.Exec(
		"UPDATE orders SET status = ?, updated_at = NOW() WHERE order_id = ?",
		req.Status, orderID,
	)
	if err != nil {
		log.Printf("Error updating order status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error updating order status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order status updated successfully"})

	invalidateOrderCaches(c)

	if rabbitMQ != nil {
		priority := 5
		if req.Status == models.StatusCancelled {
			priority = 8
		}
		if err := rabbitMQ.PublishOrderEvent(orderID, priority, "status_updated"); err != nil {
			log.Printf("Failed to publish order updated event: %v", err)
		}
	}
}

// UpdateOrderPayment settles the payment leg of an order, keyed by the
// M-Pesa checkout request id it was created with.
func UpdateOrderPayment(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("update_payment", status)
	}()

	var req models.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var orderID int
	err := database.DB.QueryRow(
		"SELECT order_id FROM orders WHERE mpesa_checkout_request_id = ?",
		req.CheckoutRequestID,
	).Scan(&orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error updating order payment"})
		return
	}

	status := ""
	switch req.PaymentStatus {
	case models.PaymentCompleted:
		status = models.StatusConfirmed
	case models.PaymentFailed:
		status = models.StatusCancelled
	}

	var execErr error
	if status != "" {
		_, execErr = database.DB.Exec(`
			UPDATE orders
			SET payment_status = ?, status = ?, mpesa_receipt_number = COALESCE(NULLIF(?, ''), mpesa_receipt_number), updated_at = NOW()
			WHERE order_id = ?`,
			req.PaymentStatus, status, req.ReceiptNumber, orderID)
	} else {
		_, execErr = database.DB.Exec(`
			UPDATE orders
			SET payment_status = ?, mpesa_receipt_number = COALESCE(NULLIF(?, ''), mpesa_receipt_number), updated_at = NOW()
			WHERE order_id = ?`,
			req.PaymentStatus, req.ReceiptNumber, orderID)
	}
	if execErr != nil {
		log.Printf("Error updating order payment: %v", execErr)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error updating order payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order payment status updated"})

	invalidateOrderCaches(c)
}

// HandleDeadLetter accepts manually replayed dead-letter payloads.
func HandleDeadLetter(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("dead_letter", status)
	}()

	var deadLetter struct {
		OrderID int    `json:"order_id"`
		Reason  string `json:"reason"`
	}

	if err := c.ShouldBindJSON(&deadLetter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	log.Printf("Handling dead letter for order %d: %s", deadLetter.OrderID, deadLetter.Reason)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Dead letter processed"})
}

func invalidateOrderCaches(c *gin.Context) {
	if orderCache == nil {
		return
	}
	if err := orderCache.DeleteByPrefix(c.Request.Context(), "orders:"); err != nil {
		log.Printf("Failed to invalidate order cache: %v", err)
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package controllers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"kukuhub/database"
	"kukuhub/middlewares"
	"kukuhub/models"

	"github.com/gin-gonic/gin"
)

// SendMessage stores a customer enquiry for a seller. Senders may be
// anonymous, so no session is required.
func SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	sellerID, err := strconv.Atoi(req.SellerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid seller ID"})
		return
	}

	var existing int
	err = database.DB.QueryRow(
		"SELECT seller_id FROM seller_profile WHERE seller_id = ?", sellerID,
	).Scan(&existing)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "Seller not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error sending message"})
		return
	}

	senderName := req.SenderName
	if senderName == "" {
		senderName = "Anonymous"
	}
	senderEmail := req.SenderEmail
	if senderEmail == "" {
		senderEmail = "no-email@example.com"
	}
	productName := req.ProductName
	if productName == "" {
		productName = "Unknown Product"
	}

	result, err := database.DB.Exec(`
		INSERT INTO messages (content, seller_id, sender_name, sender_email, product_name, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, false, ?)`,
		req.Content, sellerID, senderName, senderEmail, productName, time.Now(),
	)
	if err != nil {
		log.Printf("Error sending message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error sending message"})
		return
	}

	messageID, _ := result.LastInsertId()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Message sent successfully",
		"messageId": messageID,
	})
}

func GetSellerMessages(c *gin.Context) {
	sellerID, ok := middlewares.SessionSellerID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Seller not authenticated"})
		return
	}

	rows, err := database.DB.Query(`
		SELECT message_id, COALESCE(sender_name, ''), COALESCE(sender_email, ''),
		       content, COALESCE(product_name, ''), is_read, created_at
		FROM messages
		WHERE seller_id = ?
		ORDER BY created_at DESC`, sellerID)
	if err != nil {
		log.Printf("Error fetching messages: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error fetching messages"})
		return
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {

		}
	}(rows)

	messages := make([]models.Message, 0)
	for rows.Next() {
		var (
			messageID int
			msg       models.Message
			createdAt time.Time
		)
		if err := rows.Scan(&messageID, &msg.SenderName, &msg.SenderEmail,
			&msg.Message, &msg.ProductName, &msg.IsRead, &createdAt); err != nil {
			log.Printf("Error scanning message: %v", err)
			continue
		}
		msg.ID = strconv.Itoa(messageID)
		msg.CreatedAt = createdAt.Format(time.RFC3339)
		messages = append(messages, msg)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

// MarkMessageRead flips is_read once; re-marking an already-read message is
// a no-op on the server side.
func MarkMessageRead(c *gin.Context) {
	sellerID, ok := middlewares.SessionSellerID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Seller not authenticated"})
		return
	}

	messageID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid message ID"})
		return
	}

	var ownerID int
	err = database.DB.QueryRow(
		"SELECT seller_id FROM messages WHERE message_id = ?", messageID,
	).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "Message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error marking message as read"})
		return
	}

	if ownerID != sellerID {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "This message does not belong to you"})
		return
	}

	_, err = database.DB.Exec(
		"UPDATE messages SET is_read = true WHERE message_id = ?", messageID,
	)
	if err != nil {
		log.Printf("Error marking message as read: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error marking message as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message marked as read"})
}

func GetSellerMessageCount(c *gin.Context) {
	sellerID, ok := middlewares.SessionSellerID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Seller not authenticated"})
		return
	}

	var count int
	err := database.DB.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE seller_id = ? AND is_read = false",
		sellerID,
	).Scan(&count)
	if err != nil {
		log.Printf("Error fetching message count: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error fetching message count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

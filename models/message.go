package models

// Message is a customer enquiry addressed to a seller. Senders may be
// anonymous, so the contact fields travel with the message itself.
type Message struct {
	ID          string `json:"id"`
	SenderName  string `json:"senderName"`
	SenderEmail string `json:"senderEmail"`
	Message     string `json:"message"`
	ProductName string `json:"productName"`
	IsRead      bool   `json:"isRead"`
	CreatedAt   string `json:"createdAt"`
}

type SendMessageRequest struct {
	SellerID    string `json:"sellerId" binding:"required"`
	Content     string `json:"content" binding:"required"`
	SenderName  string `json:"senderName"`
	SenderEmail string `json:"senderEmail"`
	ProductName string `json:"productName"`
}

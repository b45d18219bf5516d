package controllers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"kukuhub/database"
	"kukuhub/middlewares"
	"kukuhub/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	PhoneNumber string `json:"phone_number"`
}

func setSessionCookie(c *gin.Context, role string, id int) error {
	token, err := utils.NewSessionToken(cfg.JWTSecret, role, id)
	if err != nil {
		return err
	}
	c.SetCookie(cfg.SessionCookie, token, int((24 * time.Hour).Seconds()), "/", "", false, true)
	return nil
}

func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var existing int
	err := database.DB.QueryRow("SELECT user_id FROM users WHERE email = ?", req.Email).Scan(&existing)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Email already registered"})
		return
	}
	if err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Registration failed"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Registration failed"})
		return
	}

	_, err = database.DB.Exec(`
		INSERT INTO users (username, email, password_hash, phone_number, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		req.Username, req.Email, string(hash), nullable(req.PhoneNumber), time.Now(),
	)
	if err != nil {
		log.Printf("Error during registration: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Registration failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User registered successfully"})
}

func Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var (
		userID       int
		username     string
		passwordHash string
	)
	err := database.DB.QueryRow(
		"SELECT user_id, username, password_hash FROM users WHERE email = ?", req.Email,
	).Scan(&userID, &username, &passwordHash)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	if err := setSessionCookie(c, utils.RoleUser, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Login successful",
		"user_id":  userID,
		"username": username,
		"email":    req.Email,
	})
}

func CheckAuth(c *gin.Context) {
	userID, ok := middlewares.SessionUserID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false})
		return
	}

	var (
		username string
		email    string
	)
	err := database.DB.QueryRow(
		"SELECT username, email FROM users WHERE user_id = ?", userID,
	).Scan(&username, &email)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": true,
		"user_id":         userID,
		"username":        username,
		"email":           email,
	})
}

func Logout(c *gin.Context) {
	c.SetCookie(cfg.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

func SellerLogin(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var (
		sellerID       int
		username       string
		businessName   string
		approvalStatus string
		passwordHash   string
	)
	err := database.DB.QueryRow(`
		SELECT seller_id, username, business_name, approval_status, password_hash
		FROM seller_profile WHERE email = ?`, req.Email,
	).Scan(&sellerID, &username, &businessName, &approvalStatus, &passwordHash)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	if err := setSessionCookie(c, utils.RoleSeller, sellerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Login successful",
		"seller_id":       sellerID,
		"username":        username,
		"email":           req.Email,
		"business_name":   businessName,
		"approval_status": approvalStatus,
	})
}

func SellerCheckAuth(c *gin.Context) {
	sellerID, ok := middlewares.SessionSellerID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false})
		return
	}

	var (
		username     string
		email        string
		businessName string
	)
	err := database.DB.QueryRow(
		"SELECT username, email, business_name FROM seller_profile WHERE seller_id = ?", sellerID,
	).Scan(&username, &email, &businessName)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": true,
		"seller_id":       sellerID,
		"username":        username,
		"email":           email,
		"business_name":   businessName,
	})
}

func AdminLogin(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var (
		adminID      int
		username     string
		role         string
		passwordHash string
	)
	err := database.DB.QueryRow(
		"SELECT admin_id, username, role, password_hash FROM admin_profile WHERE email = ?", req.Email,
	).Scan(&adminID, &username, &role, &passwordHash)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid admin credentials"})
		return
	}

	if err := setSessionCookie(c, utils.RoleAdmin, adminID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Admin login successful",
		"admin_id": adminID,
		"username": username,
		"email":    req.Email,
		"role":     role,
	})
}

func AdminCheckAuth(c *gin.Context) {
	adminID, ok := middlewares.SessionAdminID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false})
		return
	}

	var (
		username string
		email    string
		role     string
	)
	err := database.DB.QueryRow(
		"SELECT username, email, role FROM admin_profile WHERE admin_id = ?", adminID,
	).Scan(&username, &email, &role)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": true,
		"admin_id":        adminID,
		"username":        username,
		"email":           email,
		"role":            role,
	})
}

package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jungha-dev/newsVideo-sub000/models"
	"gorm.io/gorm"
)

const sessionLifetime = 7 * 24 * time.Hour

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

type createSessionRequest struct {
	APIToken string `json:"api_token" binding:"required"`
}

// CreateSession exchanges an API token for a session cookie.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.DB.Where("api_token = ? AND is_active = true", req.APIToken).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API token"})
		return
	}

	token, err := models.GenerateSessionToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	session := models.Session{
		SessionToken:   token,
		UserID:         user.ID,
		ExpiresAt:      time.Now().Add(sessionLifetime),
		LastAccessedAt: time.Now(),
	}
	if err := h.DB.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	now := time.Now()
	h.DB.Model(&user).Update("last_login_at", &now)

	// Browser clients ride the cookie; API clients take the JWT as a
	// bearer token instead.
	jwtToken, err := GenerateJWT(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.SetCookie("session_token", token, int(sessionLifetime.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"user": user, "token": jwtToken})
}

// GetCurrentUser returns the authenticated user's info
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Logout deletes the session row and clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie("session_token"); err == nil && token != "" {
		h.DB.Where("session_token = ?", token).Delete(&models.Session{})
	}
	c.SetCookie("session_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

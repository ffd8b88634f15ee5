package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/tracker/pkg/tracker/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler handles authentication requests
type Handler struct {
	db     *gorm.DB
	tokens *Tokens
	log    *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(db *gorm.DB, tokens *Tokens, log *zap.Logger) *Handler {
	return &Handler{db: db, tokens: tokens, log: log}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username      string `json:"username" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=12"`
	DisplayName   string `json:"display_name" binding:"required"`
	PreferredLang string `json:"preferred_lang" binding:"omitempty,oneof=en fr"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	PreferredLang  string `json:"preferred_lang"`
	EmailValidated bool   `json:"email_validated"`
}

func newUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		PreferredLang:  u.PreferredLang,
		EmailValidated: u.EmailValidated,
	}
}

// Register handles user registration
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))

	var existing models.User
	err := h.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already registered"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		h.log.Error("database error while registering user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	lang := req.PreferredLang
	if lang == "" {
		lang = models.LocaleEnglish
	}
	user := models.User{
		Username:      username,
		DisplayName:   strings.TrimSpace(req.DisplayName),
		PasswordHash:  hashedPassword,
		PreferredLang: lang,
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.log.Error("database error while registering user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	h.log.Info("user registered", zap.Uint("user_key", user.ID))
	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: newUserResponse(user)})
}

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("username = ?", strings.ToLower(strings.TrimSpace(req.Username))).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if !CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: newUserResponse(user)})
}

// Me returns the current authenticated user
func (h *Handler) Me(c *gin.Context) {
	userID, exists := GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.GET("/me", Middleware(h.tokens), h.Me)
}

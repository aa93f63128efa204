package api

import (
	. "chatwire/internal/auth"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandlers struct {
	authService *AuthService
}

func NewAuthHandlers(db *gorm.DB) *AuthHandlers {
	return &AuthHandlers{
		authService: NewAuthService(db),
	}
}

type UserRegisterInput struct {
	Username string `json:"username" binding:"required" example:"john_doe"`
	Password string `json:"password" binding:"required" example:"securePassword123"`
}

type UserLoginInput struct {
	Username string `json:"username" binding:"required" example:"john_doe"`
	Password string `json:"password" binding:"required" example:"securePassword123"`
}

type UserResponse struct {
	ID       string `json:"id" example:"a1b2c3d4"`
	Username string `json:"username" example:"john_doe"`
}

type AuthResponse struct {
	Message string       `json:"message" example:"Login successful"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"username cannot be empty"`
}

// RegisterHandler registers a new user
// @Summary Register a new user
// @Description Register a new user and issue a bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body UserRegisterInput true "Registration request"
// @Success 200 {object} AuthResponse "User registered successfully"
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /register [post]
func (h *AuthHandlers) RegisterHandler(c *gin.Context) {
	var input UserRegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	user, err := h.authService.Register(input.Username, input.Password)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	token, err := GenerateToken(user.ID, user.Username)
	if err != nil {
		c.JSON(500, gin.H{"error": "User created but token generation failed"})
		return
	}

	c.JSON(200, gin.H{
		"message": "Register successful",
		"token":   token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
		},
	})
}

// LoginHandler authenticates a user
// @Summary Login user
// @Description Authenticate user and issue a bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body UserLoginInput true "Login request"
// @Success 200 {object} AuthResponse "User logged in successfully"
// @Failure 400 {object} ErrorResponse "Invalid credentials"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /login [post]
func (h *AuthHandlers) LoginHandler(c *gin.Context) {
	var input UserLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	user, err := h.authService.Login(input.Username, input.Password)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := GenerateToken(user.ID, user.Username)
	if err != nil {
		c.JSON(500, gin.H{"error": "Token generation failed"})
		return
	}

	c.JSON(200, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
		},
	})
}

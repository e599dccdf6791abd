package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/postboard-dev/postboard/internal/auth"
	"github.com/postboard-dev/postboard/internal/models"
)

// SignUpRequest represents an account registration request
type SignUpRequest struct {
	Username        string `json:"username" binding:"required" validate:"required,min=4,max=32,alphanumdash"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required" validate:"required,min=5"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
	Role            string `json:"role" binding:"required"`
}

// SignInRequest represents a sign-in request
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required" validate:"required,min=5"`
}

// RoleDetail represents role information returned in responses
type RoleDetail struct {
	ID          string   `json:"id"`
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      *RoleDetail `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// SignInResponse is the signed-in user with its bearer token
type SignInResponse struct {
	UserDetail
	Token string `json:"token"`
}

func roleDetail(role models.Role) *RoleDetail {
	permissions := role.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	return &RoleDetail{
		ID:          role.ID,
		Key:         role.Key,
		Name:        role.Name,
		Permissions: permissions,
	}
}

func userDetail(user models.User) UserDetail {
	return UserDetail{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      roleDetail(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

// @Summary Sign up
// @Description Register a new account with the selected role
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Sign-up request"
// @Success 201 {object} UserDetail
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /auth/sign-up [post]
func (s *Server) signUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var role models.Role
	if err := s.db.Where("key = ?", req.Role).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find role")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).
		Where("email = ? OR username = ?", req.Email, req.Username).
		Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already registered"})
		return
	}

	// Hash password
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		RoleID:       role.ID,
		Role:         role,
	}

	if err := s.db.Omit("Role").Create(&user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", role.Key).Msg("User signed up")

	c.JSON(http.StatusCreated, userDetail(user))
}

// @Summary Sign in
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignInRequest true "Sign-in request"
// @Success 200 {object} SignInResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/sign-in [post]
func (s *Server) signIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Find user by email
	var user models.User
	if err := s.db.Preload("Role").Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Verify password
	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role.Key)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("User signed in")

	c.JSON(http.StatusOK, SignInResponse{
		UserDetail: userDetail(user),
		Token:      token,
	})
}

// @Summary Get current user
// @Description Get the user the bearer token belongs to, with role and permissions
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDetail
// @Failure 401 {object} map[string]interface{}
// @Router /auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := models.FindByIDWithPreload(s.db, sessionData.UserID, &user, "Role"); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, userDetail(user))
}

// @Summary List roles
// @Description Roles a new account can pick at sign-up
// @Tags auth
// @Produce json
// @Success 200 {array} RoleDetail
// @Router /roles [get]
func (s *Server) listRoles(c *gin.Context) {
	var roles []models.Role
	if err := s.db.Order("key").Find(&roles).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list roles")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	details := make([]*RoleDetail, len(roles))
	for i, role := range roles {
		details[i] = roleDetail(role)
	}

	c.JSON(http.StatusOK, details)
}

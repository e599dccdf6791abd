package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/postboard-dev/postboard/internal/auth"
	"github.com/postboard-dev/postboard/internal/models"
	"github.com/postboard-dev/postboard/internal/session"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

// sessionUser adapts request session data to the permission evaluator
// clients use, so both sides answer the same way
func sessionUser(data *auth.SessionData) *session.User {
	if data == nil {
		return nil
	}
	return &session.User{
		ID:       data.UserID,
		Username: data.Username,
		Email:    data.Email,
		Role: &session.Role{
			Key:         data.RoleKey,
			Permissions: data.Permissions,
		},
	}
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// JWTAuthMiddleware validates bearer tokens and loads the user behind them
func JWTAuthMiddleware(db *gorm.DB, tokens *auth.TokenManager, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		token, err := extractBearerToken(authHeader)
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		// Validate JWT token
		claims, err := tokens.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to validate JWT token")
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		// Verify user exists in database; the role is read fresh so role
		// changes apply to tokens already issued
		var user models.User
		if err := models.FindByIDWithPreload(db, claims.UserID, &user, "Role"); err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("User not found")
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		setSession(c, &auth.SessionData{
			UserID:      user.ID,
			Username:    user.Username,
			Email:       user.Email,
			RoleKey:     user.Role.Key,
			Permissions: user.Role.Permissions,
		})

		c.Next()
	}
}

// RequireRole ensures the authenticated user holds roleKey
func RequireRole(log zerolog.Logger, roleKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionUser(sessionData).HasRole(roleKey) {
			respondWithError(c, log, http.StatusForbidden, errors.New("missing role "+roleKey), "Insufficient role")
			return
		}

		c.Next()
	}
}

// RequirePermission ensures the authenticated user holds every permission listed
func RequirePermission(log zerolog.Logger, required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionUser(sessionData).HasPermission(required...) {
			respondWithError(c, log, http.StatusForbidden, errors.New("missing permission"), "Insufficient permissions")
			return
		}

		c.Next()
	}
}

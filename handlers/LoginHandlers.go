package handlers

import (
	"backend/models"
	"backend/storage"
	"backend/utils"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const maxSessions = 3

// SignupHandler registers a new user account
// @Summary Signup user
// @Description Create a new user account with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Signup details"
// @Success 201 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/signup [post]
func SignupHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var signupData models.SignupRequest
		if err := c.ShouldBindJSON(&signupData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		email := strings.ToLower(strings.TrimSpace(signupData.Email))
		if email == "" || !strings.Contains(email, "@") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
			return
		}
		if len(signupData.Password) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
			return
		}

		var exists bool
		if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = $1)", email).Scan(&exists); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing user", "details": err.Error()})
			return
		}
		if exists {
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
			return
		}

		hashed, err := utils.HashPassword(signupData.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		displayName := strings.TrimSpace(signupData.DisplayName)
		if displayName == "" {
			displayName = strings.Split(email, "@")[0]
		}

		var userID int
		err = db.QueryRow(`
			INSERT INTO users (email, password, display_name, provider, created_at, updated_at)
			VALUES ($1, $2, $3, 'password', NOW(), NOW())
			RETURNING id`, email, hashed, displayName).Scan(&userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Account created successfully",
			"user": gin.H{
				"id":           userID,
				"email":        email,
				"display_name": displayName,
			},
		})
	}
}

// LoginHandler handles user authentication
// @Summary Login user
// @Description Authenticate user and return session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/login [post]

func LoginHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for the token in the Authorization header
		token := c.GetHeader("Authorization")
		token = strings.TrimPrefix(token, "Bearer ")
		token = strings.TrimSpace(token)

		// If token exists and is valid, use token-based login
		if token != "" {
			parsedToken, err := utils.ValidateJWT(token)
			// If token validation fails, fall through to email/password login
			// so users with expired tokens can still log in with credentials
			if err == nil && parsedToken.Valid {
				claims, ok := parsedToken.Claims.(jwt.MapClaims)
				if !ok {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims structure"})
					return
				}

				email, ok := claims["email"].(string)
				if !ok || email == "" {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "Email claim missing or invalid"})
					return
				}

				user, err := storage.GetUserByEmail(db, email)
				if err != nil {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
					return
				}

				if user.Suspended {
					c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
					return
				}

				c.JSON(http.StatusOK, gin.H{
					"message":      "User successfully logged in via token",
					"access_token": token,
					"user": gin.H{
						"id":           user.ID,
						"email":        user.Email,
						"display_name": user.DisplayName,
					},
				})
				return
			}
		}

		// No valid token; proceed with email and password login
		var loginData struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
			IP       string `json:"ip"`
		}

		if err := c.ShouldBindJSON(&loginData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		user, err := storage.GetUserByEmail(db, loginData.Email)
		if err != nil || !utils.ValidatePassword(user.Password, loginData.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if user.Suspended {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
			return
		}

		// Check device count FIRST before generating any tokens.
		// Users must log out a device themselves; nothing is evicted here.
		sessionCount, err := storage.GetUserSessionCount(db, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check active sessions", "details": err.Error()})
			return
		}

		if sessionCount >= maxSessions {
			devices, err := storage.GetActiveDevices(db, user.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get active devices", "details": err.Error()})
				return
			}

			c.JSON(http.StatusConflict, gin.H{
				"error":           "Maximum device limit reached",
				"message":         "You have reached the maximum limit of 3 active devices. Please logout from one device to continue.",
				"max_devices":     maxSessions,
				"current_devices": sessionCount,
				"active_devices":  devices,
				"requires_logout": true,
			})
			return
		}

		newToken, err := utils.GenerateJWT(user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		refreshToken, err := utils.GenerateRefreshToken(user.Email, newToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
			return
		}

		// Access token expires in 15 minutes, refresh token expires in 15 days
		session := &models.Session{
			UserID:                user.ID,
			SessionID:             newToken,
			HostName:              user.Email,
			IPAddress:             loginData.IP,
			Timestamp:             time.Now(),
			ExpiresAt:             time.Now().Add(15 * time.Minute),
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: time.Now().Add(15 * 24 * time.Hour),
		}

		if err := storage.SaveSession(db, session, true); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session", "details": err.Error()})
			return
		}

		_ = storage.TouchLastAccess(db, user.ID)

		c.JSON(http.StatusOK, gin.H{
			"message":       "Login successful",
			"access_token":  newToken,
			"refresh_token": refreshToken,
			"expires_in":    900, // 15 minutes in seconds
			"user": gin.H{
				"id":           user.ID,
				"email":        user.Email,
				"display_name": user.DisplayName,
			},
		})

		log := models.ActivityLog{
			EventContext: "Login",
			EventName:    "Post",
			Description:  "User Logged In",
			UserName:     user.DisplayName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    0,
		}

		if logErr := SaveActivityLog(db, log); logErr != nil {
			return
		}
	}
}

// DeleteSessionHandler deletes user session
// @Summary Delete session
// @Description Delete user session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/session/{user_id} [delete]
func DeleteSessionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")

		userIDInt, err := strconv.Atoi(userID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}

		if err := storage.DeleteSession(db, userIDInt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Session deleted, user logged out"})
	}
}

// GetActiveDevicesHandler returns all active devices for the authenticated user
// @Summary Get active devices
// @Description Get list of all active devices/sessions for the current user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Router /api/active-devices [get]
func GetActiveDevicesHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing Authorization header"})
			return
		}

		sessionToken := authHeader
		const bearerPrefix = "Bearer "
		if strings.HasPrefix(sessionToken, bearerPrefix) {
			sessionToken = strings.TrimSpace(strings.TrimPrefix(sessionToken, bearerPrefix))
		}

		parsedToken, err := utils.ValidateJWT(sessionToken)
		if err != nil || !parsedToken.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		claims, ok := parsedToken.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		email, _ := claims["email"].(string)
		if email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email claim missing or invalid"})
			return
		}

		user, err := storage.GetUserByEmail(db, email)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		devices, err := storage.GetActiveDevices(db, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get active devices", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":        "Active devices retrieved successfully",
			"active_devices": devices,
			"device_count":   len(devices),
		})
	}
}

// LogoutDeviceHandler logs out a specific device by session_id
// @Summary Logout specific device
// @Description Logout a specific device by providing its session_id
// @Tags Authentication
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body map[string]string true "Session ID to logout"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/logout-device [post]
func LogoutDeviceHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var requestData struct {
			SessionID string `json:"session_id" binding:"required"`
		}

		if err := c.ShouldBindJSON(&requestData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		var sessionUserID int
		err := db.QueryRow("SELECT user_id FROM session WHERE session_id = $1", requestData.SessionID).Scan(&sessionUserID)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify session", "details": err.Error()})
			return
		}

		if err := storage.DeleteSessionByID(db, requestData.SessionID, sessionUserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout device", "details": err.Error()})
			return
		}

		// Also clear the refresh token
		_ = storage.DeleteRefreshToken(db, requestData.SessionID)

		c.JSON(http.StatusOK, gin.H{
			"message":    "Device logged out successfully",
			"session_id": requestData.SessionID,
		})
	}
}

// RefreshTokenHandler handles refresh token requests to get new access tokens
// @Summary Refresh access token
// @Description Exchange refresh token for a new access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body object true "Refresh token request" SchemaExample({"refresh_token": "string"})
// @Success 200 {object} object "New access token"
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/refresh-token [post]
func RefreshTokenHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var refreshRequest struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}

		if err := c.ShouldBindJSON(&refreshRequest); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token is required"})
			return
		}

		parsedToken, err := utils.ValidateJWT(refreshRequest.RefreshToken)
		if err != nil || !parsedToken.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}

		claims, ok := parsedToken.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims structure"})
			return
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != "refresh" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token type"})
			return
		}

		sessionID, ok := claims["sessionId"].(string)
		if !ok || sessionID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session information missing in refresh token"})
			return
		}

		email, ok := claims["email"].(string)
		if !ok || email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email claim missing or invalid"})
			return
		}

		user, err := storage.GetUserByEmail(db, email)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		if user.Suspended {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
			return
		}

		// Verify refresh token exists and is still valid.
		// Query by refresh_token and user_id instead of session_id, since
		// session_id changes on each refresh. Only refresh_token_expires_at
		// matters here because access tokens expire every 15 minutes.
		var existingUserID int
		var existingSessionID string
		var refreshTokenExpiresAt time.Time
		err = db.QueryRow(`
			SELECT user_id, session_id, refresh_token_expires_at FROM session
			WHERE refresh_token = $1 AND user_id = $2 AND refresh_token_expires_at > NOW()`,
			refreshRequest.RefreshToken, user.ID).Scan(&existingUserID, &existingSessionID, &refreshTokenExpiresAt)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found, expired, or refresh token mismatch"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify session", "details": err.Error()})
			}
			return
		}

		newAccessToken, err := utils.GenerateJWT(user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
			return
		}

		// Only rotate the refresh token when it expires within 1 day.
		now := time.Now()
		refreshTokenExpiresSoon := refreshTokenExpiresAt.Sub(now) < 24*time.Hour
		var newRefreshToken string
		var newRefreshTokenExpiresAt time.Time

		if refreshTokenExpiresSoon {
			newRefreshToken, err = utils.GenerateRefreshToken(user.Email, newAccessToken)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
				return
			}
			newRefreshTokenExpiresAt = time.Now().Add(15 * 24 * time.Hour)
		} else {
			newRefreshToken = refreshRequest.RefreshToken
			newRefreshTokenExpiresAt = refreshTokenExpiresAt
		}

		var result sql.Result
		var updateErr error
		if refreshTokenExpiresSoon {
			result, updateErr = db.Exec(`
				UPDATE session
				SET session_id = $1, expires_at = $2, timestp = $3, refresh_token = $4, refresh_token_expires_at = $5
				WHERE refresh_token = $6 AND user_id = $7`,
				newAccessToken, time.Now().Add(15*time.Minute), time.Now(), newRefreshToken, newRefreshTokenExpiresAt, refreshRequest.RefreshToken, user.ID)
		} else {
			result, updateErr = db.Exec(`
				UPDATE session
				SET session_id = $1, expires_at = $2, timestp = $3
				WHERE refresh_token = $4 AND user_id = $5`,
				newAccessToken, time.Now().Add(15*time.Minute), time.Now(), refreshRequest.RefreshToken, user.ID)
		}

		if updateErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update session", "details": updateErr.Error()})
			return
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify session update", "details": err.Error()})
			return
		}
		if rowsAffected == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session update failed - no matching session found"})
			return
		}
		if rowsAffected > 1 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Multiple sessions updated - this should not happen"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "Token refreshed successfully",
			"access_token":  newAccessToken,
			"refresh_token": newRefreshToken,
			"expires_in":    900,
		})
	}
}

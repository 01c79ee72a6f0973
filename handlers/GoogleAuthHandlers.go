package handlers

import (
	"backend/models"
	"backend/storage"
	"backend/utils"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

func googleOAuthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  redirectURI,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleLoginHandler signs a user in with a Google OAuth authorization code.
// Creates the account on first login, then issues the same session and
// token pair as the password login.
// @Summary Login with Google
// @Description Exchange a Google OAuth code for a session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.GoogleLoginRequest true "Google auth code"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/google-login [post]
func GoogleLoginHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginData models.GoogleLoginRequest
		if err := c.ShouldBindJSON(&loginData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		conf := googleOAuthConfig(loginData.RedirectURI)
		if conf.ClientID == "" || conf.ClientSecret == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Google login is not configured"})
			return
		}

		token, err := conf.Exchange(c.Request.Context(), loginData.Code)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to exchange authorization code", "details": err.Error()})
			return
		}

		client := conf.Client(c.Request.Context(), token)
		resp, err := client.Get(googleUserInfoURL)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to fetch Google profile", "details": err.Error()})
			return
		}
		defer resp.Body.Close()

		var profile struct {
			Email         string `json:"email"`
			VerifiedEmail bool   `json:"verified_email"`
			Name          string `json:"name"`
			Picture       string `json:"picture"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode Google profile"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(profile.Email))
		if email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Google account has no email"})
			return
		}

		user, err := storage.GetUserByEmail(db, email)
		if err != nil {
			// First Google login creates the account
			displayName := profile.Name
			if displayName == "" {
				displayName = strings.Split(email, "@")[0]
			}

			var userID int
			insertErr := db.QueryRow(`
				INSERT INTO users (email, password, display_name, photo_url, provider, created_at, updated_at)
				VALUES ($1, '', $2, $3, 'google', NOW(), NOW())
				RETURNING id`, email, displayName, profile.Picture).Scan(&userID)
			if insertErr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "details": insertErr.Error()})
				return
			}

			user = &models.User{ID: userID, Email: email, DisplayName: displayName, Provider: "google"}
		}

		if user.Suspended {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
			return
		}

		// Same 3-device cap as password login
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
			"expires_in":    900,
			"user": gin.H{
				"id":           user.ID,
				"email":        user.Email,
				"display_name": user.DisplayName,
			},
		})

		log := models.ActivityLog{
			EventContext: "Login",
			EventName:    "Post",
			Description:  "User Logged In via Google",
			UserName:     user.DisplayName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    0,
		}
		_ = SaveActivityLog(db, log)
	}
}

package handlers

import (
	"backend/services"
	"backend/utils"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ForgetPasswordHandler godoc
// @Summary      Forgot password
// @Description  Request a password reset link by email. The link is valid for 15 minutes and can be used once.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      object  true  "{\"email\":\"user@example.com\"}"
// @Success      200   {object}  models.SuccessResponse
// @Failure      400   {object}  models.ErrorResponse
// @Failure      404   {object}  models.ErrorResponse
// @Router       /api/auth/forgot-password [post]
func ForgetPasswordHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		type Request struct {
			Email string `json:"email" binding:"required,email"`
		}
		var req Request

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
			return
		}

		var userID int
		var provider sql.NullString
		err := db.QueryRow("SELECT id, provider FROM users WHERE email = $1", req.Email).Scan(&userID, &provider)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Email not found"})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		if provider.String == "google" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "This account signs in with Google and has no password to reset"})
			return
		}

		token := uuid.New().String()
		expiry := time.Now().Add(15 * time.Minute)

		_, err = db.Exec(`
			INSERT INTO password_resets (email, token, expires_at, used)
			VALUES ($1, $2, $3, false)
		`, req.Email, token, expiry)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save token"})
			return
		}

		frontendBaseURL := os.Getenv("FRONTEND_RESET_URL")
		if frontendBaseURL == "" {
			frontendBaseURL = "http://localhost:5173/reset-password/"
		}
		resetLink := fmt.Sprintf("%s%s", frontendBaseURL, token)

		mailer := services.NewEmailService()
		if err := mailer.SendPasswordResetEmail(req.Email, resetLink); err != nil {
			log.Printf("Failed to send email: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send reset email"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Reset link sent to email"})
	}
}

// ResetPasswordHandler godoc
// @Summary      Reset password with token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token   path      string  true  "Reset token"
// @Param        body    body      object  true  "{\"new_password\":\"newpassword\"}"
// @Success      200     {object}  models.SuccessResponse
// @Failure      400     {object}  models.ErrorResponse
// @Router       /api/auth/reset-password/{token} [post]
func ResetPasswordHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
			return
		}

		type Request struct {
			NewPassword string `json:"new_password" binding:"required,min=8"`
		}
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid password format"})
			return
		}

		var email string
		var expiry time.Time
		var used bool
		err := db.QueryRow(`
			SELECT email, expires_at, used FROM password_resets WHERE token = $1
		`, token).Scan(&email, &expiry, &used)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		if used || time.Now().After(expiry) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Token has expired"})
			return
		}

		hashed, err := utils.HashPassword(req.NewPassword)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`UPDATE users SET password = $1, updated_at = NOW() WHERE email = $2`, hashed, email); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
			return
		}
		if _, err := tx.Exec(`UPDATE password_resets SET used = true WHERE token = $1`, token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update token"})
			return
		}
		// A password reset invalidates every open session for the account
		if _, err := tx.Exec(`DELETE FROM session WHERE user_id = (SELECT id FROM users WHERE email = $1)`, email); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear sessions"})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
	}
}

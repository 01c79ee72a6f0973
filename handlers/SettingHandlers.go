package handlers

import (
	"backend/models"
	"backend/storage"
	"backend/utils"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// GetProfileHandler godoc
// @Summary      Get profile
// @Description  Return the signed-in user's profile details.
// @Tags         settings
// @Produce      json
// @Param        Authorization  header    string  true  "Session token"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/profile [get]
func GetProfileHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}

		user, err := storage.GetUserBySessionID(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// UpdateProfileHandler godoc
// @Summary      Update profile
// @Description  Update the display name and profile photo of the signed-in user. Only the fields present in the request body are touched.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        profile        body    object  true  "Fields to update"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/profile [put]
func UpdateProfileHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var input struct {
			DisplayName *string `json:"display_name"`
			PhotoURL    *string `json:"photo_url"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data"})
			return
		}

		if input.DisplayName == nil && input.PhotoURL == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
			return
		}

		var setClauses []string
		var args []interface{}
		argPos := 1
		if input.DisplayName != nil {
			name := strings.TrimSpace(*input.DisplayName)
			if name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Display name cannot be empty"})
				return
			}
			setClauses = append(setClauses, fmt.Sprintf("display_name = $%d", argPos))
			args = append(args, name)
			argPos++
		}
		if input.PhotoURL != nil {
			setClauses = append(setClauses, fmt.Sprintf("photo_url = $%d", argPos))
			args = append(args, *input.PhotoURL)
			argPos++
		}
		setClauses = append(setClauses, "updated_at = NOW()")

		query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argPos)
		args = append(args, session.UserID)

		if _, err := db.Exec(query, args...); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to update profile: %v", err)})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})

		log := models.ActivityLog{
			EventContext: "Profile",
			EventName:    "Update",
			Description:  "Updated profile details",
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    0,
		}
		_ = SaveActivityLog(db, log)
	}
}

// ChangePasswordHandler godoc
// @Summary      Change password
// @Description  Change the signed-in user's password after verifying the current one. Accounts created through Google sign-in have no password and are rejected.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        passwords      body    object  true  "Current and new password"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/profile/password [put]
func ChangePasswordHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var input struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data"})
			return
		}

		if len(input.NewPassword) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "New password must be at least 8 characters"})
			return
		}

		var storedHash string
		var provider sql.NullString
		err = db.QueryRow(`SELECT password, provider FROM users WHERE id = $1`, session.UserID).Scan(&storedHash, &provider)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		}

		if provider.String == "google" || storedHash == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password change is not available for Google sign-in accounts"})
			return
		}

		if !utils.ValidatePassword(storedHash, input.CurrentPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
			return
		}

		newHash, err := utils.HashPassword(input.NewPassword)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		if _, err := db.Exec(`UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, newHash, session.UserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
			return
		}

		// Sign out every other device after a password change
		_, _ = db.Exec(`DELETE FROM session WHERE user_id = $1 AND session_id != $2`, session.UserID, sessionID)

		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})

		log := models.ActivityLog{
			EventContext: "Profile",
			EventName:    "Update",
			Description:  "Changed account password",
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    0,
		}
		_ = SaveActivityLog(db, log)
	}
}

package handlers

import (
	"backend/models"
	"database/sql"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Helper to fetch session details
func GetSessionDetails(db *sql.DB, sessionID string) (models.Session, string, error) {
	var session models.Session
	var userName string

	query := `
        SELECT s.user_id, COALESCE(NULLIF(u.display_name, ''), u.email) AS user_name, s.host_name, s.ip_address
        FROM session s
        JOIN users u ON s.user_id = u.id
        WHERE s.session_id = $1`

	err := db.QueryRow(query, sessionID).Scan(
		&session.UserID,
		&userName,
		&session.HostName,
		&session.IPAddress,
	)
	if err != nil {
		return models.Session{}, "", err
	}
	return session, userName, nil
}

// Helper to save activity logs
func SaveActivityLog(db *sql.DB, log models.ActivityLog) error {
	query := `
    INSERT INTO activity_logs (
        created_at, user_name, host_name, event_context, ip_address,
        description, event_name, affected_user_name, affected_user_email, project_id
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := db.Exec(query,
		log.CreatedAt, log.UserName, log.HostName, log.EventContext, log.IPAddress,
		log.Description, log.EventName, log.AffectedUserName, log.AffectedUserEmail, log.ProjectID,
	)
	return err
}

// GetActivityLogsHandler godoc
// @Summary      Get activity logs
// @Tags         activity-logs
// @Param        page        query  int  false  "Page"
// @Param        limit       query  int  false  "Limit"
// @Param        project_id  query  int  false  "Filter by project"
// @Success      200    {object}  object
// @Router       /api/activity-logs [get]
func GetActivityLogsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if _, _, err := GetSessionDetails(db, sessionID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		pageStr := c.DefaultQuery("page", "1")
		limitStr := c.DefaultQuery("limit", "10")

		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			page = 1
		}

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			limit = 10
		}

		offset := (page - 1) * limit

		projectFilter := c.Query("project_id")

		// ----------- Step 1: Count total records -----------
		var totalRecords int
		countQuery := `SELECT COUNT(*) FROM activity_logs`
		countArgs := []interface{}{}
		if projectFilter != "" {
			countQuery += ` WHERE project_id = $1`
			countArgs = append(countArgs, projectFilter)
		}
		if err := db.QueryRow(countQuery, countArgs...).Scan(&totalRecords); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting logs"})
			return
		}

		totalPages := int(math.Ceil(float64(totalRecords) / float64(limit)))
		hasNext := page < totalPages
		hasPrev := page > 1

		// ----------- Step 2: Fetch paginated data -----------
		query := `
			SELECT id, created_at, user_name, host_name, event_context, ip_address,
				   description, event_name, affected_user_name, affected_user_email, project_id
			FROM activity_logs`
		args := []interface{}{}
		if projectFilter != "" {
			query += ` WHERE project_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`
			args = append(args, projectFilter, limit, offset)
		} else {
			query += `
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`
			args = append(args, limit, offset)
		}

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error querying logs"})
			return
		}
		defer rows.Close()

		var logs []models.ActivityLog
		for rows.Next() {
			var (
				log               models.ActivityLog
				userName          sql.NullString
				hostName          sql.NullString
				eventContext      sql.NullString
				ipAddress         sql.NullString
				description       sql.NullString
				eventName         sql.NullString
				affectedUserName  sql.NullString
				affectedUserEmail sql.NullString
				projectID         sql.NullInt64
			)

			err := rows.Scan(
				&log.ID, &log.CreatedAt, &userName, &hostName, &eventContext, &ipAddress,
				&description, &eventName, &affectedUserName, &affectedUserEmail, &projectID,
			)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning logs"})
				return
			}

			log.UserName = userName.String
			log.HostName = hostName.String
			log.EventContext = eventContext.String
			log.IPAddress = ipAddress.String
			log.Description = description.String
			log.EventName = eventName.String
			log.AffectedUserName = affectedUserName.String
			log.AffectedUserEmail = affectedUserEmail.String
			log.ProjectID = int(projectID.Int64)

			logs = append(logs, log)
		}

		if logs == nil {
			logs = []models.ActivityLog{}
		}

		c.JSON(http.StatusOK, gin.H{
			"logs": logs,
			"pagination": models.Pagination{
				CurrentPage:  page,
				Limit:        limit,
				TotalRecords: totalRecords,
				TotalPages:   totalPages,
				HasNext:      hasNext,
				HasPrev:      hasPrev,
			},
		})
	}
}

package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/services"
	"backend/utils"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetProjectStatusCounts godoc
// @Summary      Project counts by status
// @Description  Counts of the caller's projects grouped into active, pending, completed and on-hold.
// @Tags         dashboard
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/dashboard/project-status [get]
func GetProjectStatusCounts(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing session ID in Authorization header"})
			return
		}
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		ctx, cancel := utils.GetFastQueryContext(c.Request.Context())
		defer cancel()

		var total, active, pending, completed, onHold int
		err = db.QueryRowContext(ctx, `
			SELECT
				COUNT(*) AS total,
				COUNT(*) FILTER (WHERE status = 'active') AS active_count,
				COUNT(*) FILTER (WHERE status = 'pending') AS pending_count,
				COUNT(*) FILTER (WHERE status = 'completed') AS completed_count,
				COUNT(*) FILTER (WHERE status = 'on-hold') AS hold_count
			FROM projects
			WHERE user_id = $1
		`, session.UserID).Scan(&total, &active, &pending, &completed, &onHold)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project counts"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"total":     total,
			"active":    active,
			"pending":   pending,
			"completed": completed,
			"on_hold":   onHold,
		})
	}
}

// GetDashboardSummary godoc
// @Summary      Dashboard summary
// @Description  Aggregated stock and task figures across all of the caller's projects, broken down by system. Stock figures come straight from the stocks table; task figures walk every checklist.
// @Tags         dashboard
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/dashboard/summary [get]
func GetDashboardSummary(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		ctx, cancel := utils.GetReportQueryContext(c.Request.Context())
		defer cancel()

		// Stock totals per system across the user's projects
		stockRows, err := db.QueryContext(ctx, `
			SELECT s.system,
			       COUNT(*),
			       COALESCE(SUM(s.boq), 0),
			       COALESCE(SUM(s.supplied_qty), 0),
			       COALESCE(SUM(s.installed_qty), 0),
			       COALESCE(SUM(s.attic_stock), 0)
			FROM stocks s
			JOIN projects p ON s.project_id = p.id
			WHERE p.user_id = $1
			GROUP BY s.system
		`, session.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stock summary"})
			return
		}
		defer stockRows.Close()

		stockStats := make(map[string]gin.H)
		for _, system := range models.SystemNames() {
			stockStats[system] = gin.H{"total": 0, "boq": 0.0, "supplied": 0.0, "installed": 0.0, "pending": 0.0, "attic": 0.0}
		}
		for stockRows.Next() {
			var system string
			var count int
			var boq, supplied, installed, attic float64
			if err := stockRows.Scan(&system, &count, &boq, &supplied, &installed, &attic); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan stock summary"})
				return
			}
			stockStats[system] = gin.H{
				"total":     count,
				"boq":       boq,
				"supplied":  supplied,
				"installed": installed,
				"pending":   supplied - installed,
				"attic":     attic,
			}
		}
		if err := stockRows.Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read stock summary"})
			return
		}

		// Task totals require walking the checkpoint lists, so load the
		// checklists project by project.
		projectRows, err := db.QueryContext(ctx, `SELECT id FROM projects WHERE user_id = $1`, session.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch projects"})
			return
		}
		defer projectRows.Close()

		var projectIDs []int
		for projectRows.Next() {
			var id int
			if err := projectRows.Scan(&id); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan project ID"})
				return
			}
			projectIDs = append(projectIDs, id)
		}
		if err := projectRows.Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read projects"})
			return
		}

		var systemStats []models.SystemStats
		for _, projectID := range projectIDs {
			for _, system := range models.SystemNames() {
				floors, err := repository.FetchFloorsWithDoors(db, projectID, system)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load checklist"})
					return
				}
				systemStats = append(systemStats, services.ComputeSystemStats(system, floors))
			}
		}
		totals := services.ComputeTaskStats(systemStats)

		c.JSON(http.StatusOK, gin.H{
			"stock_stats": stockStats,
			"task_stats":  totals,
			"projects":    len(projectIDs),
		})
	}
}

package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/services"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CreateProjectHandler godoc
// @Summary      Create a project
// @Description  Create a new installation project owned by the current user
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string                true  "Session token"
// @Param        request        body    models.ProjectRequest true  "Project details"
// @Success      201  {object}  models.Project
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/projects [post]
func CreateProjectHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		var req models.ProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		status := req.Status
		if status == "" {
			status = "active"
		}
		if !models.ProjectStatuses[status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid status: %s", status)})
			return
		}

		var project models.Project
		err = db.QueryRow(`
			INSERT INTO projects (user_id, name, client, location, description, status, start_date, end_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			RETURNING id, user_id, name, client, location, description, status,
			          COALESCE(start_date, ''), COALESCE(end_date, ''), created_at, updated_at`,
			session.UserID, req.Name, req.Client, req.Location, req.Description, status, req.StartDate, req.EndDate,
		).Scan(
			&project.ID, &project.UserID, &project.Name, &project.Client, &project.Location,
			&project.Description, &project.Status, &project.StartDate, &project.EndDate,
			&project.CreatedAt, &project.UpdatedAt,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, project)

		log := models.ActivityLog{
			EventContext: "Project",
			EventName:    "Post",
			Description:  fmt.Sprintf("Created project %s", project.Name),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    project.ID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// GetProjectsHandler godoc
// @Summary      List projects
// @Description  List the current user's projects, newest first
// @Tags         projects
// @Produce      json
// @Param        Authorization  header  string  true   "Session token"
// @Param        status         query   string  false  "Filter by status"
// @Success      200  {array}   models.Project
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/projects [get]
func GetProjectsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		query := `
			SELECT id, user_id, name, client, location, description, status,
			       COALESCE(start_date, ''), COALESCE(end_date, ''), created_at, updated_at
			FROM projects
			WHERE user_id = $1`
		args := []interface{}{session.UserID}

		if status := c.Query("status"); status != "" {
			query += ` AND status = $2`
			args = append(args, status)
		}
		query += ` ORDER BY created_at DESC, id DESC`

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query projects", "details": err.Error()})
			return
		}
		defer rows.Close()

		projects := []models.Project{}
		for rows.Next() {
			var project models.Project
			if err := rows.Scan(
				&project.ID, &project.UserID, &project.Name, &project.Client, &project.Location,
				&project.Description, &project.Status, &project.StartDate, &project.EndDate,
				&project.CreatedAt, &project.UpdatedAt,
			); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan project", "details": err.Error()})
				return
			}
			projects = append(projects, project)
		}

		c.JSON(http.StatusOK, projects)
	}
}

// GetProjectHandler godoc
// @Summary      Get one project
// @Tags         projects
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Project ID"
// @Success      200  {object}  models.Project
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id} [get]
func GetProjectHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		project, err := repository.FetchProject(db, projectID, session.UserID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		c.JSON(http.StatusOK, project)
	}
}

// UpdateProjectHandler godoc
// @Summary      Update a project
// @Description  Update project fields; only provided fields are changed
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Project ID"
// @Param        request        body    object  true  "Fields to update"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id} [put]
func UpdateProjectHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		var input struct {
			Name        *string `json:"name"`
			Client      *string `json:"client"`
			Location    *string `json:"location"`
			Description *string `json:"description"`
			Status      *string `json:"status"`
			StartDate   *string `json:"start_date"`
			EndDate     *string `json:"end_date"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		if input.Status != nil && !models.ProjectStatuses[*input.Status] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid status: %s", *input.Status)})
			return
		}

		// Build the UPDATE dynamically so omitted fields stay untouched
		setClauses := []string{}
		args := []interface{}{}
		argPos := 1

		addClause := func(column string, value interface{}) {
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argPos))
			args = append(args, value)
			argPos++
		}

		if input.Name != nil {
			addClause("name", *input.Name)
		}
		if input.Client != nil {
			addClause("client", *input.Client)
		}
		if input.Location != nil {
			addClause("location", *input.Location)
		}
		if input.Description != nil {
			addClause("description", *input.Description)
		}
		if input.Status != nil {
			addClause("status", *input.Status)
		}
		if input.StartDate != nil {
			addClause("start_date", *input.StartDate)
		}
		if input.EndDate != nil {
			addClause("end_date", *input.EndDate)
		}

		if len(setClauses) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
			return
		}

		setClauses = append(setClauses, "updated_at = NOW()")

		query := fmt.Sprintf("UPDATE projects SET %s WHERE id = $%d AND user_id = $%d",
			strings.Join(setClauses, ", "), argPos, argPos+1)
		args = append(args, projectID, session.UserID)

		result, err := db.Exec(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project", "details": err.Error()})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Project updated successfully"})

		log := models.ActivityLog{
			EventContext: "Project",
			EventName:    "Put",
			Description:  fmt.Sprintf("Updated project %d", projectID),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// DeleteProjectHandler godoc
// @Summary      Delete a project
// @Description  Delete a project and all of its stocks, floors and doors
// @Tags         projects
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Project ID"
// @Success      200  {object}  models.SuccessResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id} [delete]
func DeleteProjectHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		var projectName string
		err = tx.QueryRow(`SELECT name FROM projects WHERE id = $1 AND user_id = $2`, projectID, session.UserID).Scan(&projectName)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify project", "details": err.Error()})
			return
		}

		// Children first: doors, floors, stocks, history, then the project
		if _, err := tx.Exec(`DELETE FROM doors WHERE floor_id IN (SELECT id FROM floors WHERE project_id = $1)`, projectID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete doors", "details": err.Error()})
			return
		}
		if _, err := tx.Exec(`DELETE FROM floors WHERE project_id = $1`, projectID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete floors", "details": err.Error()})
			return
		}
		if _, err := tx.Exec(`DELETE FROM stock_history WHERE project_id = $1`, projectID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stock history", "details": err.Error()})
			return
		}
		if _, err := tx.Exec(`DELETE FROM stocks WHERE project_id = $1`, projectID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stocks", "details": err.Error()})
			return
		}
		if _, err := tx.Exec(`DELETE FROM projects WHERE id = $1`, projectID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project", "details": err.Error()})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})

		log := models.ActivityLog{
			EventContext: "Project",
			EventName:    "Delete",
			Description:  fmt.Sprintf("Deleted project %s", projectName),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// GetProjectStatsHandler godoc
// @Summary      Project statistics
// @Description  Per-system installation progress plus stock and task totals
// @Tags         projects
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Project ID"
// @Success      200  {object}  object
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/stats [get]
func GetProjectStatsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		projectID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}

		project, err := repository.FetchProject(db, projectID, session.UserID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		stocks, err := repository.FetchStocks(db, projectID, "")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stocks", "details": err.Error()})
			return
		}

		systemStats := []models.SystemStats{}
		stockStats := []models.StockStats{}
		for _, system := range models.SystemNames() {
			floors, err := repository.FetchFloorsWithDoors(db, projectID, system)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load checklist", "details": err.Error()})
				return
			}
			systemStats = append(systemStats, services.ComputeSystemStats(system, floors))
			stockStats = append(stockStats, services.ComputeStockStats(system, stocks))
		}

		c.JSON(http.StatusOK, gin.H{
			"project":      project,
			"system_stats": systemStats,
			"stock_stats":  stockStats,
			"task_stats":   services.ComputeTaskStats(systemStats),
		})
	}
}

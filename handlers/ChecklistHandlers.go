package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/services"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// checklistScope resolves and authorizes the project/system pair shared by
// every checklist route.
func checklistScope(c *gin.Context, db *sql.DB, userID int) (projectID int, system string, ok bool) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return 0, "", false
	}
	system = c.Param("system")
	if !models.IsValidSystem(system) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown system type: %s", system)})
		return 0, "", false
	}
	if err := verifyProjectOwner(db, projectID, userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return 0, "", false
	}
	return projectID, system, true
}

// GetChecklistHandler godoc
// @Summary      Get system checklist
// @Description  Floors and doors of one system together with progress rollups
// @Tags         checklist
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Project ID"
// @Param        system         path    string  true  "System type"
// @Success      200  {object}  object
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/checklist/{system} [get]
func GetChecklistHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		projectID, system, ok := checklistScope(c, db, session.UserID)
		if !ok {
			return
		}

		floors, err := repository.FetchFloorsWithDoors(db, projectID, system)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load checklist", "details": err.Error()})
			return
		}

		progress := make([]services.FloorProgress, 0, len(floors))
		for _, floor := range floors {
			progress = append(progress, services.ComputeFloorProgress(floor))
		}

		c.JSON(http.StatusOK, gin.H{
			"system":   system,
			"template": models.SystemTemplates[system],
			"floors":   floors,
			"progress": progress,
			"stats":    services.ComputeSystemStats(system, floors),
		})
	}
}

// CreateFloorHandler godoc
// @Summary      Add a floor
// @Tags         checklist
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string              true  "Session token"
// @Param        id             path    int                 true  "Project ID"
// @Param        system         path    string              true  "System type"
// @Param        request        body    models.FloorRequest true  "Floor details"
// @Success      201  {object}  models.Floor
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/checklist/{system}/floors [post]
func CreateFloorHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		projectID, system, ok := checklistScope(c, db, session.UserID)
		if !ok {
			return
		}

		var req models.FloorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		var floor models.Floor
		err = db.QueryRow(`
			INSERT INTO floors (project_id, system, name, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING id, project_id, system, name, created_at, updated_at`,
			projectID, system, req.Name,
		).Scan(&floor.ID, &floor.ProjectID, &floor.System, &floor.Name, &floor.CreatedAt, &floor.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create floor", "details": err.Error()})
			return
		}
		floor.Doors = []models.Door{}

		c.JSON(http.StatusCreated, floor)

		log := models.ActivityLog{
			EventContext: "Checklist",
			EventName:    "Post",
			Description:  fmt.Sprintf("Added floor %s to %s", floor.Name, system),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// DeleteFloorHandler godoc
// @Summary      Delete a floor and its doors
// @Tags         checklist
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Project ID"
// @Param        system         path    string  true  "System type"
// @Param        floor_id       path    int     true  "Floor ID"
// @Success      200  {object}  models.SuccessResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/checklist/{system}/floors/{floor_id} [delete]
func DeleteFloorHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		projectID, system, ok := checklistScope(c, db, session.UserID)
		if !ok {
			return
		}

		floorID, err := strconv.Atoi(c.Param("floor_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid floor ID"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		var floorName string
		err = tx.QueryRow(`SELECT name FROM floors WHERE id = $1 AND project_id = $2 AND system = $3`,
			floorID, projectID, system).Scan(&floorName)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Floor not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify floor", "details": err.Error()})
			return
		}

		if _, err := tx.Exec(`DELETE FROM doors WHERE floor_id = $1`, floorID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete doors", "details": err.Error()})
			return
		}
		if _, err := tx.Exec(`DELETE FROM floors WHERE id = $1`, floorID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete floor", "details": err.Error()})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Floor deleted successfully"})

		log := models.ActivityLog{
			EventContext: "Checklist",
			EventName:    "Delete",
			Description:  fmt.Sprintf("Deleted floor %s from %s", floorName, system),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// CreateDoorHandler godoc
// @Summary      Add a door
// @Description  Create a door with a fresh copy of the system's checkpoint template
// @Tags         checklist
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string             true  "Session token"
// @Param        id             path    int                true  "Project ID"
// @Param        system         path    string             true  "System type"
// @Param        floor_id       path    int                true  "Floor ID"
// @Param        request        body    models.DoorRequest true  "Door details"
// @Success      201  {object}  models.Door
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/checklist/{system}/floors/{floor_id}/doors [post]
func CreateDoorHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		projectID, system, ok := checklistScope(c, db, session.UserID)
		if !ok {
			return
		}

		floorID, err := strconv.Atoi(c.Param("floor_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid floor ID"})
			return
		}

		var floorExists int
		err = db.QueryRow(`SELECT id FROM floors WHERE id = $1 AND project_id = $2 AND system = $3`,
			floorID, projectID, system).Scan(&floorExists)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Floor not found"})
			return
		}

		var req models.DoorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		checkpoints, err := models.NewCheckpoints(system)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var door models.Door
		err = db.QueryRow(`
			INSERT INTO doors (floor_id, name, checkpoints, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING id, floor_id, name, checkpoints, created_at, updated_at`,
			floorID, req.Name, checkpoints,
		).Scan(&door.ID, &door.FloorID, &door.Name, &door.Checkpoints, &door.CreatedAt, &door.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create door", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, door)

		log := models.ActivityLog{
			EventContext: "Checklist",
			EventName:    "Post",
			Description:  fmt.Sprintf("Added door %s (%s)", door.Name, system),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// DeleteDoorHandler godoc
// @Summary      Delete a door
// @Tags         checklist
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Project ID"
// @Param        system         path    string  true  "System type"
// @Param        floor_id       path    int     true  "Floor ID"
// @Param        door_id        path    int     true  "Door ID"
// @Success      200  {object}  models.SuccessResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/checklist/{system}/floors/{floor_id}/doors/{door_id} [delete]
func DeleteDoorHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		projectID, system, ok := checklistScope(c, db, session.UserID)
		if !ok {
			return
		}

		floorID, err := strconv.Atoi(c.Param("floor_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid floor ID"})
			return
		}
		doorID, err := strconv.Atoi(c.Param("door_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid door ID"})
			return
		}

		var doorName string
		err = db.QueryRow(`
			SELECT d.name FROM doors d
			JOIN floors f ON d.floor_id = f.id
			WHERE d.id = $1 AND d.floor_id = $2 AND f.project_id = $3 AND f.system = $4`,
			doorID, floorID, projectID, system).Scan(&doorName)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Door not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify door", "details": err.Error()})
			return
		}

		if _, err := db.Exec(`DELETE FROM doors WHERE id = $1`, doorID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete door", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Door deleted successfully"})

		log := models.ActivityLog{
			EventContext: "Checklist",
			EventName:    "Delete",
			Description:  fmt.Sprintf("Deleted door %s (%s)", doorName, system),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// lockDoor loads a door row FOR UPDATE within tx, verifying it belongs to
// the given floor, project and system.
func lockDoor(tx *sql.Tx, doorID, floorID, projectID int, system string) (*models.Door, error) {
	var door models.Door
	err := tx.QueryRow(`
		SELECT d.id, d.floor_id, d.name, d.checkpoints, d.created_at, d.updated_at
		FROM doors d
		JOIN floors f ON d.floor_id = f.id
		WHERE d.id = $1 AND d.floor_id = $2 AND f.project_id = $3 AND f.system = $4
		FOR UPDATE OF d`,
		doorID, floorID, projectID, system,
	).Scan(&door.ID, &door.FloorID, &door.Name, &door.Checkpoints, &door.CreatedAt, &door.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &door, nil
}

// toggleCheckpoint flips the completed state of one checkpoint. Any attached
// photo is kept either way; completion and proof are independent.
func toggleCheckpoint(cp *models.Checkpoint, completed bool) {
	cp.Completed = completed
	if completed {
		now := time.Now()
		cp.CompletedAt = &now
	} else {
		cp.CompletedAt = nil
	}
}

// ToggleCheckpointHandler godoc
// @Summary      Toggle a checkpoint
// @Description  Mark one checkpoint done or not done. Runs in a row-locked transaction so concurrent updates to the same door serialize instead of overwriting each other.
// @Tags         checklist
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string                         true  "Session token"
// @Param        id             path    int                            true  "Project ID"
// @Param        system         path    string                         true  "System type"
// @Param        floor_id       path    int                            true  "Floor ID"
// @Param        door_id        path    int                            true  "Door ID"
// @Param        request        body    models.CheckpointToggleRequest true  "Checkpoint index and state"
// @Success      200  {object}  models.Door
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/checklist/{system}/floors/{floor_id}/doors/{door_id}/checkpoints [patch]
func ToggleCheckpointHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		projectID, system, ok := checklistScope(c, db, session.UserID)
		if !ok {
			return
		}

		floorID, err := strconv.Atoi(c.Param("floor_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid floor ID"})
			return
		}
		doorID, err := strconv.Atoi(c.Param("door_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid door ID"})
			return
		}

		var req models.CheckpointToggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		door, err := lockDoor(tx, doorID, floorID, projectID, system)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Door not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load door", "details": err.Error()})
			return
		}

		if req.Index < 0 || req.Index >= len(door.Checkpoints) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Checkpoint index out of range: %d", req.Index)})
			return
		}

		toggleCheckpoint(&door.Checkpoints[req.Index], req.Completed)

		err = tx.QueryRow(`UPDATE doors SET checkpoints = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`,
			door.Checkpoints, door.ID).Scan(&door.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update checkpoints", "details": err.Error()})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, door)

		state := "incomplete"
		if req.Completed {
			state = "complete"
		}
		log := models.ActivityLog{
			EventContext: "Checklist",
			EventName:    "Patch",
			Description:  fmt.Sprintf("Marked %s %s on door %s", door.Checkpoints[req.Index].Name, state, door.Name),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// AttachCheckpointPhotoHandler godoc
// @Summary      Attach a proof photo
// @Description  Attach an uploaded photo to a checkpoint. The checkpoint is marked completed at the same time.
// @Tags         checklist
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Project ID"
// @Param        system         path    string  true  "System type"
// @Param        floor_id       path    int     true  "Floor ID"
// @Param        door_id        path    int     true  "Door ID"
// @Param        request        body    object  true  "Checkpoint index plus photo url/public_id/folder"
// @Success      200  {object}  models.Door
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/checklist/{system}/floors/{floor_id}/doors/{door_id}/checkpoints/photo [post]
func AttachCheckpointPhotoHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		projectID, system, ok := checklistScope(c, db, session.UserID)
		if !ok {
			return
		}

		floorID, err := strconv.Atoi(c.Param("floor_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid floor ID"})
			return
		}
		doorID, err := strconv.Atoi(c.Param("door_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid door ID"})
			return
		}

		var req struct {
			Index    int    `json:"index"`
			URL      string `json:"url" binding:"required"`
			PublicID string `json:"public_id" binding:"required"`
			Folder   string `json:"folder"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		door, err := lockDoor(tx, doorID, floorID, projectID, system)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Door not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load door", "details": err.Error()})
			return
		}

		if req.Index < 0 || req.Index >= len(door.Checkpoints) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Checkpoint index out of range: %d", req.Index)})
			return
		}

		now := time.Now()
		cp := &door.Checkpoints[req.Index]
		cp.Completed = true
		cp.CompletedAt = &now
		cp.Photo = &models.CheckpointPhoto{
			URL:        req.URL,
			PublicID:   req.PublicID,
			Folder:     req.Folder,
			UploadedAt: now,
			UploadedBy: session.HostName,
		}

		err = tx.QueryRow(`UPDATE doors SET checkpoints = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`,
			door.Checkpoints, door.ID).Scan(&door.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update checkpoints", "details": err.Error()})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, door)

		log := models.ActivityLog{
			EventContext: "Checklist",
			EventName:    "Post",
			Description:  fmt.Sprintf("Attached photo to %s on door %s", door.Checkpoints[req.Index].Name, door.Name),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

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

// verifyProjectOwner confirms the project belongs to the session user.
func verifyProjectOwner(db *sql.DB, projectID, userID int) error {
	var id int
	err := db.QueryRow(`SELECT id FROM projects WHERE id = $1 AND user_id = $2`, projectID, userID).Scan(&id)
	return err
}

func writeStockHistory(db *sql.DB, stock models.Stock, action, changedBy string) error {
	_, err := db.Exec(`
		INSERT INTO stock_history (stock_id, project_id, system, item_name, action,
		                           boq, supplied_qty, installed_qty, attic_stock, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
		stock.ID, stock.ProjectID, stock.System, stock.ItemName, action,
		stock.BOQ, stock.SuppliedQty, stock.InstalledQty, stock.AtticStock, changedBy,
	)
	return err
}

// CreateStockHandler godoc
// @Summary      Add a stock record
// @Description  Add an inventory line to a project; attic stock is derived from supplied minus installed
// @Tags         stocks
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string              true  "Session token"
// @Param        id             path    int                 true  "Project ID"
// @Param        request        body    models.StockRequest true  "Stock details"
// @Success      201  {object}  models.Stock
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/stocks [post]
func CreateStockHandler(db *sql.DB) gin.HandlerFunc {
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
		if err := verifyProjectOwner(db, projectID, session.UserID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		var req models.StockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
		if !models.IsValidSystem(req.System) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown system type: %s", req.System)})
			return
		}
		if req.BOQ < 0 || req.SuppliedQty < 0 || req.InstalledQty < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantities must not be negative"})
			return
		}

		attic := services.AtticStock(req.SuppliedQty, req.InstalledQty)

		var stock models.Stock
		err = db.QueryRow(`
			INSERT INTO stocks (project_id, system, item_name, brand, model, unit, boq,
			                    supplied_qty, installed_qty, attic_stock, remarks, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
			RETURNING id, project_id, system, item_name, brand, model, unit, boq,
			          supplied_qty, installed_qty, attic_stock, remarks, created_at, updated_at`,
			projectID, req.System, req.ItemName, req.Brand, req.Model, req.Unit, req.BOQ,
			req.SuppliedQty, req.InstalledQty, attic, req.Remarks,
		).Scan(
			&stock.ID, &stock.ProjectID, &stock.System, &stock.ItemName,
			&stock.Brand, &stock.Model, &stock.Unit, &stock.BOQ,
			&stock.SuppliedQty, &stock.InstalledQty, &stock.AtticStock,
			&stock.Remarks, &stock.CreatedAt, &stock.UpdatedAt,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create stock", "details": err.Error()})
			return
		}

		if err := writeStockHistory(db, stock, "create", session.HostName); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write stock history", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, stock)

		log := models.ActivityLog{
			EventContext: "Stock",
			EventName:    "Post",
			Description:  fmt.Sprintf("Added stock %s (%s)", stock.ItemName, stock.System),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// GetStocksHandler godoc
// @Summary      List stock records
// @Tags         stocks
// @Produce      json
// @Param        Authorization  header  string  true   "Session token"
// @Param        id             path    int     true   "Project ID"
// @Param        system         query   string  false  "Filter by system"
// @Success      200  {array}   models.Stock
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/stocks [get]
func GetStocksHandler(db *sql.DB) gin.HandlerFunc {
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
		if err := verifyProjectOwner(db, projectID, session.UserID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		system := c.Query("system")
		if system != "" && !models.IsValidSystem(system) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown system type: %s", system)})
			return
		}

		stocks, err := repository.FetchStocks(db, projectID, system)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query stocks", "details": err.Error()})
			return
		}
		if stocks == nil {
			stocks = []models.Stock{}
		}

		c.JSON(http.StatusOK, stocks)
	}
}

// UpdateStockHandler godoc
// @Summary      Update a stock record
// @Description  Update fields of a stock line; attic stock is recomputed on every update
// @Tags         stocks
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Project ID"
// @Param        stock_id       path    int     true  "Stock ID"
// @Param        request        body    object  true  "Fields to update"
// @Success      200  {object}  models.Stock
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/stocks/{stock_id} [put]
func UpdateStockHandler(db *sql.DB) gin.HandlerFunc {
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
		stockID, err := strconv.Atoi(c.Param("stock_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stock ID"})
			return
		}
		if err := verifyProjectOwner(db, projectID, session.UserID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		var input struct {
			ItemName     *string  `json:"item_name"`
			Brand        *string  `json:"brand"`
			Model        *string  `json:"model"`
			Unit         *string  `json:"unit"`
			BOQ          *float64 `json:"boq"`
			SuppliedQty  *float64 `json:"supplied_qty"`
			InstalledQty *float64 `json:"installed_qty"`
			Remarks      *string  `json:"remarks"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
		if (input.BOQ != nil && *input.BOQ < 0) ||
			(input.SuppliedQty != nil && *input.SuppliedQty < 0) ||
			(input.InstalledQty != nil && *input.InstalledQty < 0) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantities must not be negative"})
			return
		}

		// Serialize the read-modify-write so two updates cannot overwrite
		// each other's quantities.
		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		var stock models.Stock
		err = tx.QueryRow(`
			SELECT id, project_id, system, item_name, brand, model, unit, boq,
			       supplied_qty, installed_qty, attic_stock, remarks, created_at, updated_at
			FROM stocks
			WHERE id = $1 AND project_id = $2
			FOR UPDATE`, stockID, projectID,
		).Scan(
			&stock.ID, &stock.ProjectID, &stock.System, &stock.ItemName,
			&stock.Brand, &stock.Model, &stock.Unit, &stock.BOQ,
			&stock.SuppliedQty, &stock.InstalledQty, &stock.AtticStock,
			&stock.Remarks, &stock.CreatedAt, &stock.UpdatedAt,
		)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Stock record not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stock", "details": err.Error()})
			return
		}

		if input.ItemName != nil {
			stock.ItemName = *input.ItemName
		}
		if input.Brand != nil {
			stock.Brand = *input.Brand
		}
		if input.Model != nil {
			stock.Model = *input.Model
		}
		if input.Unit != nil {
			stock.Unit = *input.Unit
		}
		if input.BOQ != nil {
			stock.BOQ = *input.BOQ
		}
		if input.SuppliedQty != nil {
			stock.SuppliedQty = *input.SuppliedQty
		}
		if input.InstalledQty != nil {
			stock.InstalledQty = *input.InstalledQty
		}
		if input.Remarks != nil {
			stock.Remarks = *input.Remarks
		}
		stock.AtticStock = services.AtticStock(stock.SuppliedQty, stock.InstalledQty)

		err = tx.QueryRow(`
			UPDATE stocks
			SET item_name = $1, brand = $2, model = $3, unit = $4, boq = $5,
			    supplied_qty = $6, installed_qty = $7, attic_stock = $8,
			    remarks = $9, updated_at = NOW()
			WHERE id = $10
			RETURNING updated_at`,
			stock.ItemName, stock.Brand, stock.Model, stock.Unit, stock.BOQ,
			stock.SuppliedQty, stock.InstalledQty, stock.AtticStock,
			stock.Remarks, stock.ID,
		).Scan(&stock.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock", "details": err.Error()})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		if err := writeStockHistory(db, stock, "update", session.HostName); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write stock history", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, stock)

		log := models.ActivityLog{
			EventContext: "Stock",
			EventName:    "Put",
			Description:  fmt.Sprintf("Updated stock %s (%s)", stock.ItemName, stock.System),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// DeleteStockHandler godoc
// @Summary      Delete a stock record
// @Tags         stocks
// @Produce      json
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Project ID"
// @Param        stock_id       path    int     true  "Stock ID"
// @Success      200  {object}  models.SuccessResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/stocks/{stock_id} [delete]
func DeleteStockHandler(db *sql.DB) gin.HandlerFunc {
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
		stockID, err := strconv.Atoi(c.Param("stock_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stock ID"})
			return
		}
		if err := verifyProjectOwner(db, projectID, session.UserID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		var stock models.Stock
		err = db.QueryRow(`
			SELECT id, project_id, system, item_name, boq, supplied_qty, installed_qty, attic_stock
			FROM stocks WHERE id = $1 AND project_id = $2`, stockID, projectID,
		).Scan(&stock.ID, &stock.ProjectID, &stock.System, &stock.ItemName,
			&stock.BOQ, &stock.SuppliedQty, &stock.InstalledQty, &stock.AtticStock)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Stock record not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stock", "details": err.Error()})
			return
		}

		if _, err := db.Exec(`DELETE FROM stocks WHERE id = $1`, stockID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stock", "details": err.Error()})
			return
		}

		_ = writeStockHistory(db, stock, "delete", session.HostName)

		c.JSON(http.StatusOK, gin.H{"message": "Stock record deleted successfully"})

		log := models.ActivityLog{
			EventContext: "Stock",
			EventName:    "Delete",
			Description:  fmt.Sprintf("Deleted stock %s (%s)", stock.ItemName, stock.System),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// GetStockHistoryHandler godoc
// @Summary      Stock change history
// @Description  Audit entries written on every stock create, update and delete
// @Tags         stocks
// @Produce      json
// @Param        Authorization  header  string  true   "Session token"
// @Param        id             path    int     true   "Project ID"
// @Param        stock_id       query   int     false  "Filter by stock record"
// @Success      200  {array}   models.StockHistory
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/stock-history [get]
func GetStockHistoryHandler(db *sql.DB) gin.HandlerFunc {
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
		if err := verifyProjectOwner(db, projectID, session.UserID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		query := `
			SELECT id, stock_id, project_id, system, item_name, action,
			       boq, supplied_qty, installed_qty, attic_stock, changed_by, created_at
			FROM stock_history
			WHERE project_id = $1`
		args := []interface{}{projectID}

		if stockFilter := c.Query("stock_id"); stockFilter != "" {
			query += ` AND stock_id = $2`
			args = append(args, stockFilter)
		}
		query += ` ORDER BY created_at DESC, id DESC`

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query stock history", "details": err.Error()})
			return
		}
		defer rows.Close()

		entries := []models.StockHistory{}
		for rows.Next() {
			var entry models.StockHistory
			if err := rows.Scan(
				&entry.ID, &entry.StockID, &entry.ProjectID, &entry.System, &entry.ItemName,
				&entry.Action, &entry.BOQ, &entry.SuppliedQty, &entry.InstalledQty, &entry.AtticStock,
				&entry.ChangedBy, &entry.CreatedAt,
			); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan history entry", "details": err.Error()})
				return
			}
			entries = append(entries, entry)
		}

		c.JSON(http.StatusOK, entries)
	}
}

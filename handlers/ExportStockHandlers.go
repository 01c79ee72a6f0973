package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/services"
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// DownloadStockTemplate downloads an empty stock CSV template
func DownloadStockTemplate(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=stock_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// Write header - matching the import function requirements
	header := []string{"System", "ItemName", "Brand", "Unit", "BOQ", "SuppliedQty", "InstalledQty"}
	if err := writer.Write(header); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV header"})
		return
	}

	// Add sample data row for reference
	sampleRow := []string{"CCTV", "Dome Camera 4MP", "Hikvision", "PCS", "24", "20", "12"}
	if err := writer.Write(sampleRow); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing sample row"})
		return
	}
}

// ExportStockCSV godoc
// @Summary      Export project stock as CSV
// @Tags         export
// @Produce      text/csv
// @Param        Authorization  header  string  true   "Session token"
// @Param        id             path    int     true   "Project ID"
// @Param        system         query   string  false  "Limit to one system"
// @Success      200  {file}  file  "CSV file"
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/stocks/export [get]
func ExportStockCSV(db *sql.DB) gin.HandlerFunc {
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

		system := c.Query("system")
		if system != "" && !models.IsValidSystem(system) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown system type: %s", system)})
			return
		}

		stocks, err := repository.FetchStocks(db, projectID, system)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching stock data"})
			return
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=%s-stock-export.csv", project.Name))

		writer := csv.NewWriter(c.Writer)
		defer writer.Flush()

		header := []string{"System", "ItemName", "Brand", "Unit", "BOQ", "SuppliedQty", "InstalledQty", "AtticStock"}
		if err := writer.Write(header); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV header"})
			return
		}

		for _, s := range stocks {
			row := []string{
				s.System,
				s.ItemName,
				s.Brand,
				s.Unit,
				strconv.FormatFloat(s.BOQ, 'f', -1, 64),
				strconv.FormatFloat(s.SuppliedQty, 'f', -1, 64),
				strconv.FormatFloat(s.InstalledQty, 'f', -1, 64),
				strconv.FormatFloat(s.AtticStock, 'f', -1, 64),
			}
			if err := writer.Write(row); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV row"})
				return
			}
		}
	}
}

// ExportStockXLSX godoc
// @Summary      Export project stock as Excel workbook
// @Description  Builds an XLSX file with a summary sheet and one sheet per system that has stock items.
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Project ID"
// @Success      200  {file}  file  "XLSX file"
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/stocks/export-xlsx [get]
func ExportStockXLSX(db *sql.DB) gin.HandlerFunc {
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

		project, err := repository.FetchProject(db, projectID, session.UserID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		stocks, err := repository.FetchStocks(db, projectID, "")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching stock data"})
			return
		}

		// Create a new Excel file
		f := excelize.NewFile()
		defer func() {
			if err := f.Close(); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error closing Excel file"})
			}
		}()

		// Create Summary Sheet
		summarySheet := "Summary"
		index, err := f.NewSheet(summarySheet)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating summary sheet"})
			return
		}
		f.SetActiveSheet(index)
		f.DeleteSheet("Sheet1") // Delete default sheet

		titleStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{
				Bold:   true,
				Size:   14,
				Family: "Arial",
				Color:  "#FFFFFF",
			},
			Fill: excelize.Fill{
				Type:    "pattern",
				Color:   []string{"#4472C4"},
				Pattern: 1,
			},
			Alignment: &excelize.Alignment{
				Horizontal: "left",
				Vertical:   "center",
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating title style"})
			return
		}

		headerStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{
				Bold:   true,
				Size:   12,
				Family: "Arial",
				Color:  "#FFFFFF",
			},
			Fill: excelize.Fill{
				Type:    "pattern",
				Color:   []string{"#70AD47"},
				Pattern: 1,
			},
			Alignment: &excelize.Alignment{
				Horizontal: "left",
				Vertical:   "center",
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating header style"})
			return
		}

		// Add summary information
		f.SetCellValue(summarySheet, "A1", "Stock Export Summary")
		f.SetCellValue(summarySheet, "A2", "Project ID")
		f.SetCellValue(summarySheet, "B2", projectID)
		f.SetCellValue(summarySheet, "A3", "Project Name")
		f.SetCellValue(summarySheet, "B3", project.Name)
		f.SetCellValue(summarySheet, "A4", "Client")
		f.SetCellValue(summarySheet, "B4", project.Client)
		f.SetCellValue(summarySheet, "A5", "Exported On")
		f.SetCellValue(summarySheet, "B5", time.Now().Format("2006-01-02 15:04:05"))
		f.SetCellStyle(summarySheet, "A1", "B1", titleStyle)

		summaryRow := 7
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", summaryRow), "System")
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", summaryRow), "Items")
		f.SetCellValue(summarySheet, fmt.Sprintf("C%d", summaryRow), "BOQ")
		f.SetCellValue(summarySheet, fmt.Sprintf("D%d", summaryRow), "Supplied")
		f.SetCellValue(summarySheet, fmt.Sprintf("E%d", summaryRow), "Installed")
		f.SetCellValue(summarySheet, fmt.Sprintf("F%d", summaryRow), "Attic Stock")
		f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("F%d", summaryRow), headerStyle)

		for _, system := range models.SystemNames() {
			stats := services.ComputeStockStats(system, stocks)
			if stats.TotalItems == 0 {
				continue
			}

			summaryRow++
			f.SetCellValue(summarySheet, fmt.Sprintf("A%d", summaryRow), system)
			f.SetCellValue(summarySheet, fmt.Sprintf("B%d", summaryRow), stats.TotalItems)
			f.SetCellValue(summarySheet, fmt.Sprintf("C%d", summaryRow), stats.TotalBOQ)
			f.SetCellValue(summarySheet, fmt.Sprintf("D%d", summaryRow), stats.Supplied)
			f.SetCellValue(summarySheet, fmt.Sprintf("E%d", summaryRow), stats.Installed)
			f.SetCellValue(summarySheet, fmt.Sprintf("F%d", summaryRow), stats.TotalAttic)

			// One sheet per system that actually holds stock
			sheetName := system
			if len(sheetName) > 31 {
				sheetName = sheetName[:31]
			}
			if _, err := f.NewSheet(sheetName); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating system sheet"})
				return
			}

			headers := []string{"Item Name", "Brand", "Unit", "BOQ", "Supplied Qty", "Installed Qty", "Attic Stock"}
			for i, h := range headers {
				cell, _ := excelize.CoordinatesToCellName(i+1, 1)
				f.SetCellValue(sheetName, cell, h)
			}
			f.SetCellStyle(sheetName, "A1", "G1", headerStyle)

			row := 1
			for _, s := range stocks {
				if s.System != system {
					continue
				}
				row++
				f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), s.ItemName)
				f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), s.Brand)
				f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), s.Unit)
				f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), s.BOQ)
				f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), s.SuppliedQty)
				f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), s.InstalledQty)
				f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), s.AtticStock)
			}

			f.SetColWidth(sheetName, "A", "A", 30)
			f.SetColWidth(sheetName, "B", "G", 15)
		}

		f.SetColWidth(summarySheet, "A", "A", 25)
		f.SetColWidth(summarySheet, "B", "F", 15)

		safeProjectName := strings.ReplaceAll(project.Name, " ", "_")
		filename := fmt.Sprintf("stock_export_%s_%d.xlsx", safeProjectName, projectID)

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=%s", filename))

		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing Excel file"})
			return
		}

		log := models.ActivityLog{
			EventContext: "Stock",
			EventName:    "Export",
			Description:  fmt.Sprintf("Exported stock workbook for %s", project.Name),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

// ImportStockCSV godoc
// @Summary      Import stock items from CSV
// @Description  Uploads a CSV in the template format and creates one stock item per row. Rows with an unknown system or a non-numeric quantity are reported back and skipped.
// @Tags         export
// @Accept       multipart/form-data
// @Param        Authorization  header    string  true  "Session token"
// @Param        id             path      int     true  "Project ID"
// @Param        file           formData  file    true  "CSV file"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/stocks/import [post]
func ImportStockCSV(db *sql.DB) gin.HandlerFunc {
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

		project, err := repository.FetchProject(db, projectID, session.UserID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file not found"})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open uploaded file"})
			return
		}
		defer src.Close()

		reader := csv.NewReader(src)

		// Read CSV Header
		header, err := reader.Read()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to read CSV header: %v", err)})
			return
		}

		expected := []string{"System", "ItemName", "Brand", "Unit", "BOQ", "SuppliedQty", "InstalledQty"}
		if len(header) < len(expected) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("CSV header must contain columns: %s", strings.Join(expected, ", "))})
			return
		}
		for i, col := range expected {
			if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unexpected column %q, want %q", header[i], col)})
				return
			}
		}

		imported := 0
		var skipped []string
		lineNo := 1
		for {
			record, err := reader.Read()
			if err != nil {
				break
			}
			lineNo++

			if len(record) < len(expected) {
				skipped = append(skipped, fmt.Sprintf("line %d: not enough columns", lineNo))
				continue
			}

			system := strings.TrimSpace(record[0])
			itemName := strings.TrimSpace(record[1])
			brand := strings.TrimSpace(record[2])
			unit := strings.TrimSpace(record[3])

			if !models.IsValidSystem(system) {
				skipped = append(skipped, fmt.Sprintf("line %d: unknown system %q", lineNo, system))
				continue
			}
			if itemName == "" {
				skipped = append(skipped, fmt.Sprintf("line %d: item name is required", lineNo))
				continue
			}

			boq, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
			if err != nil || boq < 0 {
				skipped = append(skipped, fmt.Sprintf("line %d: invalid BOQ quantity", lineNo))
				continue
			}
			supplied, err := strconv.ParseFloat(strings.TrimSpace(record[5]), 64)
			if err != nil || supplied < 0 {
				skipped = append(skipped, fmt.Sprintf("line %d: invalid supplied quantity", lineNo))
				continue
			}
			installed, err := strconv.ParseFloat(strings.TrimSpace(record[6]), 64)
			if err != nil || installed < 0 {
				skipped = append(skipped, fmt.Sprintf("line %d: invalid installed quantity", lineNo))
				continue
			}

			attic := services.AtticStock(supplied, installed)

			var stockID int
			err = db.QueryRow(`
				INSERT INTO stocks (project_id, system, item_name, brand, unit, boq, supplied_qty, installed_qty, attic_stock, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
				RETURNING id
			`, projectID, system, itemName, brand, unit, boq, supplied, installed, attic).Scan(&stockID)
			if err != nil {
				skipped = append(skipped, fmt.Sprintf("line %d: %v", lineNo, err))
				continue
			}

			_ = writeStockHistory(db, models.Stock{
				ID:           stockID,
				ProjectID:    projectID,
				System:       system,
				ItemName:     itemName,
				BOQ:          boq,
				SuppliedQty:  supplied,
				InstalledQty: installed,
				AtticStock:   attic,
			}, "create", userName)
			imported++
		}

		c.JSON(http.StatusOK, gin.H{
			"message":  "Stock import completed",
			"imported": imported,
			"skipped":  skipped,
		})

		log := models.ActivityLog{
			EventContext: "Stock",
			EventName:    "Import",
			Description:  fmt.Sprintf("Imported %d stock items into %s", imported, project.Name),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

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
	"github.com/jung-kurt/gofpdf"
)

type stockReport struct {
	Project     *models.Project     `json:"project"`
	GeneratedAt time.Time           `json:"generated_at"`
	Reference   string              `json:"reference"`
	Stocks      []models.Stock      `json:"stocks"`
	Stats       []models.StockStats `json:"stats"`
}

// buildStockReport assembles the report data. An empty system means the
// all-systems layout; a named system restricts both stats and detail rows.
func buildStockReport(db *sql.DB, projectID, userID int, system string) (*stockReport, error) {
	project, err := repository.FetchProject(db, projectID, userID)
	if err != nil {
		return nil, err
	}

	stocks, err := repository.FetchStocks(db, projectID, system)
	if err != nil {
		return nil, err
	}
	if stocks == nil {
		stocks = []models.Stock{}
	}

	report := &stockReport{
		Project:     project,
		GeneratedAt: time.Now(),
		Reference:   repository.GenerateRandomCode(),
		Stocks:      stocks,
	}

	systems := models.SystemNames()
	if system != "" {
		systems = []string{system}
	}
	for _, s := range systems {
		report.Stats = append(report.Stats, services.ComputeStockStats(s, stocks))
	}

	return report, nil
}

// GetStockReportHandler godoc
// @Summary      Stock report (JSON)
// @Tags         reports
// @Produce      json
// @Param        Authorization  header  string  true   "Session token"
// @Param        id             path    int     true   "Project ID"
// @Param        system         query   string  false  "Limit to one system"
// @Success      200  {object}  object
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/stock-report [get]
func GetStockReportHandler(db *sql.DB) gin.HandlerFunc {
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

		system := c.Query("system")
		if system != "" && !models.IsValidSystem(system) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown system type: %s", system)})
			return
		}

		report, err := buildStockReport(db, projectID, session.UserID, system)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build stock report", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// GenerateStockReportPDF godoc
// @Summary      Stock report (PDF)
// @Description  Download the project's stock inventory as a PDF
// @Tags         reports
// @Produce      application/pdf
// @Param        Authorization  header  string  true   "Session token"
// @Param        id             path    int     true   "Project ID"
// @Param        system         query   string  false  "Limit to one system"
// @Success      200  "PDF file"
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/stock-report/pdf [get]
func GenerateStockReportPDF(db *sql.DB) gin.HandlerFunc {
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

		system := c.Query("system")
		if system != "" && !models.IsValidSystem(system) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown system type: %s", system)})
			return
		}

		report, err := buildStockReport(db, projectID, session.UserID, system)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build stock report", "details": err.Error()})
			return
		}
		project := report.Project

		// --- Generate PDF ---
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)
		pdf.SetFont("Arial", "", 10)

		// --- Header ---
		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(190, 10, "STOCK REPORT")
		pdf.Ln(12)

		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(95, 6, fmt.Sprintf("Project: %s", project.Name))
		pdf.Cell(95, 6, fmt.Sprintf("Reference: %s", report.Reference))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(95, 6, fmt.Sprintf("Client: %s", project.Client))
		pdf.Cell(95, 6, fmt.Sprintf("Date: %s", report.GeneratedAt.Format("02-Jan-2006")))
		pdf.Ln(10)

		// --- Summary Table ---
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(190, 8, "Summary by System")
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(40, 8, "System", "1", 0, "L", true, 0, "")
		pdf.CellFormat(20, 8, "Items", "1", 0, "C", true, 0, "")
		pdf.CellFormat(26, 8, "BOQ", "1", 0, "C", true, 0, "")
		pdf.CellFormat(26, 8, "Supplied", "1", 0, "C", true, 0, "")
		pdf.CellFormat(26, 8, "Installed", "1", 0, "C", true, 0, "")
		pdf.CellFormat(26, 8, "Pending", "1", 0, "C", true, 0, "")
		pdf.CellFormat(26, 8, "Attic Stock", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		var totalAttic float64
		for _, stats := range report.Stats {
			tableBreak(pdf)
			totalAttic += stats.TotalAttic
			pdf.CellFormat(40, 8, stats.System, "1", 0, "L", false, 0, "")
			pdf.CellFormat(20, 8, strconv.Itoa(stats.TotalItems), "1", 0, "C", false, 0, "")
			pdf.CellFormat(26, 8, fmt.Sprintf("%.2f", stats.TotalBOQ), "1", 0, "C", false, 0, "")
			pdf.CellFormat(26, 8, fmt.Sprintf("%.2f", stats.Supplied), "1", 0, "C", false, 0, "")
			pdf.CellFormat(26, 8, fmt.Sprintf("%.2f", stats.Installed), "1", 0, "C", false, 0, "")
			pdf.CellFormat(26, 8, fmt.Sprintf("%.2f", stats.Pending), "1", 0, "C", false, 0, "")
			pdf.CellFormat(26, 8, fmt.Sprintf("%.2f", stats.TotalAttic), "1", 1, "R", false, 0, "")
		}

		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(164, 8, "Total Attic Stock")
		pdf.CellFormat(26, 8, fmt.Sprintf("%.2f", totalAttic), "1", 1, "R", false, 0, "")

		// --- Per-system detail tables ---
		for _, stats := range report.Stats {
			if stats.TotalItems == 0 {
				continue
			}

			pdf.Ln(8)
			tableBreak(pdf)
			pdf.SetFont("Arial", "B", 12)
			pdf.Cell(190, 8, stats.System)
			pdf.Ln(8)

			pdf.SetFont("Arial", "B", 10)
			pdf.SetFillColor(240, 240, 240)
			pdf.CellFormat(50, 8, "Item", "1", 0, "L", true, 0, "")
			pdf.CellFormat(28, 8, "Brand", "1", 0, "L", true, 0, "")
			pdf.CellFormat(16, 8, "Unit", "1", 0, "C", true, 0, "")
			pdf.CellFormat(24, 8, "BOQ", "1", 0, "C", true, 0, "")
			pdf.CellFormat(24, 8, "Supplied", "1", 0, "C", true, 0, "")
			pdf.CellFormat(24, 8, "Installed", "1", 0, "C", true, 0, "")
			pdf.CellFormat(24, 8, "Attic", "1", 1, "C", true, 0, "")

			pdf.SetFont("Arial", "", 9)
			for _, stock := range report.Stocks {
				if stock.System != stats.System {
					continue
				}
				tableBreak(pdf)
				pdf.CellFormat(50, 8, stock.ItemName, "1", 0, "L", false, 0, "")
				pdf.CellFormat(28, 8, stock.Brand, "1", 0, "L", false, 0, "")
				pdf.CellFormat(16, 8, stock.Unit, "1", 0, "C", false, 0, "")
				pdf.CellFormat(24, 8, fmt.Sprintf("%.2f", stock.BOQ), "1", 0, "C", false, 0, "")
				pdf.CellFormat(24, 8, fmt.Sprintf("%.2f", stock.SuppliedQty), "1", 0, "C", false, 0, "")
				pdf.CellFormat(24, 8, fmt.Sprintf("%.2f", stock.InstalledQty), "1", 0, "C", false, 0, "")
				pdf.CellFormat(24, 8, fmt.Sprintf("%.2f", stock.AtticStock), "1", 1, "R", false, 0, "")
			}
		}

		// --- Footer ---
		pdf.SetY(-20)
		pdf.SetFont("Arial", "I", 8)
		pdf.Cell(190, 6, "This is a computer-generated report. No signature required.")
		pdf.Ln(5)
		pdf.Cell(190, 6, "Generated on: "+time.Now().Format("2006-01-02 15:04:05"))

		// --- Output PDF ---
		c.Header("Content-Type", "application/pdf")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-stock-report.pdf", project.Name))
		if err := pdf.Output(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
			return
		}

		log := models.ActivityLog{
			EventContext: "Report",
			EventName:    "Get",
			Description:  fmt.Sprintf("Generated stock report for %s", project.Name),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

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
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const pageHeight = 297.0

// tableBreak starts a new page when fewer than 20 units remain, so table
// rows never collide with the footer.
func tableBreak(pdf *gofpdf.Fpdf) {
	if pdf.GetY() > pageHeight-20 {
		pdf.AddPage()
	}
}

// photoBreak starts a new page when fewer than 90 units remain, enough for
// one photo block.
func photoBreak(pdf *gofpdf.Fpdf) {
	if pdf.GetY() > pageHeight-90 {
		pdf.AddPage()
	}
}

// installationReport is the assembled report data shared by the JSON and
// PDF endpoints.
type installationReport struct {
	Project     *models.Project       `json:"project"`
	GeneratedAt time.Time             `json:"generated_at"`
	Reference   string                `json:"reference"`
	Systems     []systemReportSection `json:"systems"`
	TaskStats   models.TaskStats      `json:"task_stats"`
}

type systemReportSection struct {
	Stats  models.SystemStats       `json:"stats"`
	Floors []services.FloorProgress `json:"floors"`
}

// buildInstallationReport assembles the report data. An empty system means
// the all-systems layout; a named system restricts the report to it and the
// PDF switches to the door-level detail branch.
func buildInstallationReport(db *sql.DB, projectID, userID int, system string) (*installationReport, error) {
	project, err := repository.FetchProject(db, projectID, userID)
	if err != nil {
		return nil, err
	}

	report := &installationReport{
		Project:     project,
		GeneratedAt: time.Now(),
		Reference:   repository.GenerateRandomCode(),
	}

	systems := models.SystemNames()
	if system != "" {
		systems = []string{system}
	}

	systemStats := []models.SystemStats{}
	for _, system := range systems {
		floors, err := repository.FetchFloorsWithDoors(db, projectID, system)
		if err != nil {
			return nil, err
		}
		stats := services.ComputeSystemStats(system, floors)
		progress := make([]services.FloorProgress, 0, len(floors))
		for _, floor := range floors {
			progress = append(progress, services.ComputeFloorProgress(floor))
		}
		report.Systems = append(report.Systems, systemReportSection{Stats: stats, Floors: progress})
		systemStats = append(systemStats, stats)
	}
	report.TaskStats = services.ComputeTaskStats(systemStats)

	return report, nil
}

// GetInstallationReportHandler godoc
// @Summary      Installation report (JSON)
// @Description  Full progress report data for a project
// @Tags         reports
// @Produce      json
// @Param        Authorization  header  string  true   "Session token"
// @Param        id             path    int     true   "Project ID"
// @Param        system         query   string  false  "Limit to one system"
// @Success      200  {object}  object
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/report [get]
func GetInstallationReportHandler(db *sql.DB) gin.HandlerFunc {
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

		report, err := buildInstallationReport(db, projectID, session.UserID, system)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// GenerateInstallationReportPDF godoc
// @Summary      Installation report (PDF)
// @Description  Download the project progress report as a PDF
// @Tags         reports
// @Produce      application/pdf
// @Param        Authorization  header  string  true   "Session token"
// @Param        id             path    int     true   "Project ID"
// @Param        system         query   string  false  "Limit to one system"
// @Success      200  "PDF file"
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/report/pdf [get]
func GenerateInstallationReportPDF(db *sql.DB) gin.HandlerFunc {
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

		report, err := buildInstallationReport(db, projectID, session.UserID, system)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report", "details": err.Error()})
			return
		}

		titleCaser := cases.Title(language.Und)
		project := report.Project

		// --- Generate PDF ---
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)
		pdf.SetFont("Arial", "", 10)

		// --- Header ---
		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(190, 10, "INSTALLATION REPORT")
		pdf.Ln(12)

		// --- Project Info ---
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(95, 6, fmt.Sprintf("Project: %s", project.Name))
		pdf.Cell(95, 6, fmt.Sprintf("Reference: %s", report.Reference))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(95, 6, fmt.Sprintf("Client: %s", project.Client))
		pdf.Cell(95, 6, fmt.Sprintf("Status: %s", titleCaser.String(project.Status)))
		pdf.Ln(6)
		pdf.Cell(95, 6, fmt.Sprintf("Location: %s", project.Location))
		pdf.Cell(95, 6, fmt.Sprintf("Date: %s", report.GeneratedAt.Format("02-Jan-2006")))
		pdf.Ln(10)

		// --- Overall Summary ---
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(190, 8, "Overall Progress")
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(45, 8, "System", "1", 0, "L", true, 0, "")
		pdf.CellFormat(20, 8, "Floors", "1", 0, "C", true, 0, "")
		pdf.CellFormat(20, 8, "Doors", "1", 0, "C", true, 0, "")
		pdf.CellFormat(20, 8, "Done", "1", 0, "C", true, 0, "")
		pdf.CellFormat(22, 8, "Pending", "1", 0, "C", true, 0, "")
		pdf.CellFormat(33, 8, "Checkpoints", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 8, "Progress", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, section := range report.Systems {
			stats := section.Stats
			tableBreak(pdf)
			pdf.CellFormat(45, 8, stats.System, "1", 0, "L", false, 0, "")
			pdf.CellFormat(20, 8, strconv.Itoa(stats.TotalFloors), "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 8, strconv.Itoa(stats.TotalDoors), "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 8, strconv.Itoa(stats.CompletedDoors), "1", 0, "C", false, 0, "")
			pdf.CellFormat(22, 8, strconv.Itoa(stats.PendingDoors), "1", 0, "C", false, 0, "")
			pdf.CellFormat(33, 8, fmt.Sprintf("%d / %d", stats.CompletedCheckpoints, stats.TotalCheckpoints), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 8, fmt.Sprintf("%.1f%%", stats.Percentage), "1", 1, "R", false, 0, "")
		}

		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(140, 8, "Total Tasks")
		pdf.CellFormat(50, 8, strconv.Itoa(report.TaskStats.TotalTasks), "1", 1, "R", false, 0, "")
		pdf.Cell(140, 8, "Completed Tasks")
		pdf.CellFormat(50, 8, strconv.Itoa(report.TaskStats.CompletedTasks), "1", 1, "R", false, 0, "")
		pdf.Cell(140, 8, "Pending Tasks")
		pdf.CellFormat(50, 8, strconv.Itoa(report.TaskStats.PendingTasks), "1", 1, "R", false, 0, "")
		pdf.Cell(140, 8, "Proof Photos")
		pdf.CellFormat(50, 8, strconv.Itoa(report.TaskStats.TotalPhotos), "1", 1, "R", false, 0, "")

		if system != "" {
			// System branch: one table per floor listing every door
			for _, section := range report.Systems {
				for _, floor := range section.Floors {
					pdf.Ln(8)
					tableBreak(pdf)
					pdf.SetFont("Arial", "B", 12)
					pdf.Cell(190, 8, fmt.Sprintf("%s (%d / %d doors done)", floor.FloorName, floor.CompletedDoors, floor.TotalDoors))
					pdf.Ln(8)

					pdf.SetFont("Arial", "B", 10)
					pdf.SetFillColor(240, 240, 240)
					pdf.CellFormat(80, 8, "Door", "1", 0, "L", true, 0, "")
					pdf.CellFormat(35, 8, "Checkpoints", "1", 0, "C", true, 0, "")
					pdf.CellFormat(25, 8, "Photos", "1", 0, "C", true, 0, "")
					pdf.CellFormat(25, 8, "Status", "1", 0, "C", true, 0, "")
					pdf.CellFormat(25, 8, "Progress", "1", 1, "C", true, 0, "")

					pdf.SetFont("Arial", "", 10)
					for _, door := range floor.Doors {
						tableBreak(pdf)
						status := "Pending"
						if door.Completed {
							status = "Done"
						}
						pdf.CellFormat(80, 8, door.DoorName, "1", 0, "L", false, 0, "")
						pdf.CellFormat(35, 8, fmt.Sprintf("%d / %d", door.CompletedCheckpoints, door.TotalCheckpoints), "1", 0, "C", false, 0, "")
						pdf.CellFormat(25, 8, strconv.Itoa(door.Photos), "1", 0, "C", false, 0, "")
						pdf.CellFormat(25, 8, status, "1", 0, "C", false, 0, "")
						pdf.CellFormat(25, 8, fmt.Sprintf("%.1f%%", door.Percentage), "1", 1, "R", false, 0, "")
					}
				}
			}
		} else {
			// All-systems branch: per-system floor rollups
			for _, section := range report.Systems {
				if section.Stats.TotalFloors == 0 {
					continue
				}

				pdf.Ln(8)
				tableBreak(pdf)
				pdf.SetFont("Arial", "B", 12)
				pdf.Cell(190, 8, section.Stats.System)
				pdf.Ln(8)

				pdf.SetFont("Arial", "B", 10)
				pdf.SetFillColor(240, 240, 240)
				pdf.CellFormat(60, 8, "Floor", "1", 0, "L", true, 0, "")
				pdf.CellFormat(30, 8, "Doors", "1", 0, "C", true, 0, "")
				pdf.CellFormat(35, 8, "Done Doors", "1", 0, "C", true, 0, "")
				pdf.CellFormat(35, 8, "Checkpoints", "1", 0, "C", true, 0, "")
				pdf.CellFormat(30, 8, "Progress", "1", 1, "C", true, 0, "")

				pdf.SetFont("Arial", "", 10)
				for _, floor := range section.Floors {
					tableBreak(pdf)
					pdf.CellFormat(60, 8, floor.FloorName, "1", 0, "L", false, 0, "")
					pdf.CellFormat(30, 8, strconv.Itoa(floor.TotalDoors), "1", 0, "C", false, 0, "")
					pdf.CellFormat(35, 8, strconv.Itoa(floor.CompletedDoors), "1", 0, "C", false, 0, "")
					pdf.CellFormat(35, 8, fmt.Sprintf("%d / %d", floor.CompletedCheckpoints, floor.TotalCheckpoints), "1", 0, "C", false, 0, "")
					pdf.CellFormat(30, 8, fmt.Sprintf("%.1f%%", floor.Percentage), "1", 1, "R", false, 0, "")
				}
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
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-report.pdf", project.Name))
		if err := pdf.Output(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
			return
		}

		log := models.ActivityLog{
			EventContext: "Report",
			EventName:    "Get",
			Description:  fmt.Sprintf("Generated installation report for %s", project.Name),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

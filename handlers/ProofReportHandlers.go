package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/services"
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// loadProofPhoto reads a stored proof photo from disk by its public ID and
// returns the bytes plus the gofpdf image type.
func loadProofPhoto(publicID string) ([]byte, string, error) {
	cleanID := filepath.Clean(publicID)
	if strings.Contains(cleanID, "..") || filepath.IsAbs(cleanID) {
		return nil, "", fmt.Errorf("invalid public id: %s", publicID)
	}

	matches, err := filepath.Glob(filepath.Join(imageDir, cleanID) + ".*")
	if err != nil || len(matches) == 0 {
		return nil, "", fmt.Errorf("photo not found: %s", publicID)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, "", err
	}

	imageType := "JPEG"
	if strings.EqualFold(filepath.Ext(matches[0]), ".png") {
		imageType = "PNG"
	}
	return data, imageType, nil
}

// doorQRCode encodes the door's identity as a QR code PNG so a printed
// report links back to the door on site.
func doorQRCode(projectID int, system string, floorID, doorID int) ([]byte, error) {
	payload := struct {
		ProjectID int    `json:"project_id"`
		System    string `json:"system"`
		FloorID   int    `json:"floor_id"`
		DoorID    int    `json:"door_id"`
	}{projectID, system, floorID, doorID}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(jsonData), qrcode.Medium, 256)
}

// proofReport is the assembled photo inventory shared by the JSON and PDF
// endpoints.
type proofReport struct {
	Project     *models.Project      `json:"project"`
	GeneratedAt time.Time            `json:"generated_at"`
	Systems     []proofSystemSection `json:"systems"`
}

type proofSystemSection struct {
	Stats  models.SystemStats `json:"stats"`
	Floors []proofFloor       `json:"floors"`
}

type proofFloor struct {
	FloorID   int         `json:"floor_id"`
	FloorName string      `json:"floor_name"`
	Doors     []proofDoor `json:"doors"`
}

type proofDoor struct {
	DoorID               int          `json:"door_id"`
	DoorName             string       `json:"door_name"`
	TotalCheckpoints     int          `json:"total_checkpoints"`
	CompletedCheckpoints int          `json:"completed_checkpoints"`
	Photos               []proofPhoto `json:"photos"`
}

type proofPhoto struct {
	Checkpoint  string                  `json:"checkpoint"`
	CompletedAt *time.Time              `json:"completed_at"`
	Photo       *models.CheckpointPhoto `json:"photo"`
}

// buildProofFloor lists each door of a floor with its checkpoint progress
// and the photos attached so far.
func buildProofFloor(floor models.Floor) proofFloor {
	pf := proofFloor{FloorID: floor.ID, FloorName: floor.Name}
	for _, door := range floor.Doors {
		progress := services.ComputeDoorProgress(door)
		pd := proofDoor{
			DoorID:               door.ID,
			DoorName:             door.Name,
			TotalCheckpoints:     progress.TotalCheckpoints,
			CompletedCheckpoints: progress.CompletedCheckpoints,
		}
		for _, cp := range door.Checkpoints {
			if cp.Photo == nil {
				continue
			}
			pd.Photos = append(pd.Photos, proofPhoto{
				Checkpoint:  cp.Name,
				CompletedAt: cp.CompletedAt,
				Photo:       cp.Photo,
			})
		}
		pf.Doors = append(pf.Doors, pd)
	}
	return pf
}

// buildProofReport assembles the per-door photo inventory. Summary stats
// always cover the whole system; a non-zero floorFilter narrows only the
// floor listing.
func buildProofReport(db *sql.DB, projectID, userID int, systems []string, floorFilter int) (*proofReport, error) {
	project, err := repository.FetchProject(db, projectID, userID)
	if err != nil {
		return nil, err
	}

	report := &proofReport{Project: project, GeneratedAt: time.Now()}
	for _, system := range systems {
		floors, err := repository.FetchFloorsWithDoors(db, projectID, system)
		if err != nil {
			return nil, err
		}

		section := proofSystemSection{Stats: services.ComputeSystemStats(system, floors)}
		for _, floor := range floors {
			if floorFilter != 0 && floor.ID != floorFilter {
				continue
			}
			section.Floors = append(section.Floors, buildProofFloor(floor))
		}
		report.Systems = append(report.Systems, section)
	}
	return report, nil
}

// proofReportScope parses the shared system and floor query filters.
func proofReportScope(c *gin.Context) (systems []string, floorFilter int, ok bool) {
	systems = models.SystemNames()
	if filter := c.Query("system"); filter != "" {
		if !models.IsValidSystem(filter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown system type: %s", filter)})
			return nil, 0, false
		}
		systems = []string{filter}
	}

	if raw := c.Query("floor"); raw != "" {
		var err error
		floorFilter, err = strconv.Atoi(raw)
		if err != nil || floorFilter < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid floor ID"})
			return nil, 0, false
		}
	}
	return systems, floorFilter, true
}

// GetProofReportHandler godoc
// @Summary      Proof report (JSON)
// @Description  Summary stats plus the per-door photo inventory backing the proof PDF
// @Tags         reports
// @Produce      json
// @Param        Authorization  header  string  true   "Session token"
// @Param        id             path    int     true   "Project ID"
// @Param        system         query   string  false  "Limit to one system"
// @Param        floor          query   int     false  "Limit to one floor"
// @Success      200  {object}  object
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/proof-report [get]
func GetProofReportHandler(db *sql.DB) gin.HandlerFunc {
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

		systems, floorFilter, ok := proofReportScope(c)
		if !ok {
			return
		}

		report, err := buildProofReport(db, projectID, session.UserID, systems, floorFilter)
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

// GenerateProofReportPDF godoc
// @Summary      Proof report (PDF)
// @Description  Download the photo proof report. Every completed checkpoint with a photo gets a photo block; photos that cannot be read render a placeholder instead of failing the report.
// @Tags         reports
// @Produce      application/pdf
// @Param        Authorization  header  string  true   "Session token"
// @Param        id             path    int     true   "Project ID"
// @Param        system         query   string  false  "Limit to one system"
// @Param        floor          query   int     false  "Limit to one floor"
// @Success      200  "PDF file"
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/projects/{id}/proof-report/pdf [get]
func GenerateProofReportPDF(db *sql.DB) gin.HandlerFunc {
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

		systems, floorFilter, ok := proofReportScope(c)
		if !ok {
			return
		}

		report, err := buildProofReport(db, projectID, session.UserID, systems, floorFilter)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report", "details": err.Error()})
			return
		}
		project := report.Project

		// --- Generate PDF ---
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)
		pdf.SetFont("Arial", "", 10)

		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(190, 10, "INSTALLATION PROOF REPORT")
		pdf.Ln(12)

		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(95, 6, fmt.Sprintf("Project: %s", project.Name))
		pdf.Cell(95, 6, fmt.Sprintf("Date: %s", report.GeneratedAt.Format("02-Jan-2006")))
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(190, 6, fmt.Sprintf("Client: %s", project.Client))
		pdf.Ln(10)

		// --- Summary table ---
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(190, 8, "SUMMARY")
		pdf.Ln(9)

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(70, 8, "System", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 8, "Floors", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 8, "Doors", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 8, "Completed", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 8, "Photos", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, section := range report.Systems {
			stats := section.Stats
			pdf.CellFormat(70, 8, stats.System, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 8, strconv.Itoa(stats.TotalFloors), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 8, strconv.Itoa(stats.TotalDoors), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 8, strconv.Itoa(stats.CompletedDoors), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 8, strconv.Itoa(stats.TotalPhotos), "1", 1, "C", false, 0, "")
		}
		pdf.Ln(6)

		imageCount := 0
		for _, section := range report.Systems {
			if section.Stats.TotalDoors == 0 {
				continue
			}

			tableBreak(pdf)
			pdf.SetFont("Arial", "B", 14)
			pdf.Cell(190, 10, section.Stats.System)
			pdf.Ln(10)

			for _, floor := range section.Floors {
				for _, door := range floor.Doors {
					tableBreak(pdf)
					pdf.SetFont("Arial", "B", 11)
					pdf.SetFillColor(240, 240, 240)
					pdf.CellFormat(160, 8, fmt.Sprintf("%s / %s", floor.FloorName, door.DoorName), "1", 0, "L", true, 0, "")
					pdf.CellFormat(30, 8, fmt.Sprintf("%d / %d", door.CompletedCheckpoints, door.TotalCheckpoints), "1", 1, "C", true, 0, "")

					// Door QR code on the right of the header row
					if qrBytes, err := doorQRCode(projectID, section.Stats.System, floor.FloorID, door.DoorID); err == nil {
						imageCount++
						imageName := fmt.Sprintf("qr-%d", imageCount)
						pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrBytes))
						pdf.ImageOptions(imageName, 172, pdf.GetY(), 25, 25, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
					}

					pdf.SetFont("Arial", "", 9)
					for _, proof := range door.Photos {
						photoBreak(pdf)
						pdf.SetFont("Arial", "B", 10)
						label := proof.Checkpoint
						if proof.CompletedAt != nil {
							label = fmt.Sprintf("%s  (completed %s)", proof.Checkpoint, proof.CompletedAt.Format("02-Jan-2006 15:04"))
						}
						pdf.Cell(190, 7, label)
						pdf.Ln(7)

						photoData, imageType, err := loadProofPhoto(proof.Photo.PublicID)
						if err != nil {
							// Keep the report going when a photo is unreadable
							pdf.SetFont("Arial", "I", 9)
							pdf.SetTextColor(150, 150, 150)
							pdf.CellFormat(80, 60, "Error loading photo", "1", 1, "C", false, 0, "")
							pdf.SetTextColor(0, 0, 0)
							pdf.Ln(3)
							continue
						}

						imageCount++
						imageName := fmt.Sprintf("proof-%d", imageCount)
						pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(photoData))
						pdf.ImageOptions(imageName, 10, pdf.GetY(), 80, 60, false, gofpdf.ImageOptions{ImageType: imageType}, 0, "")
						pdf.SetY(pdf.GetY() + 62)

						pdf.SetFont("Arial", "", 8)
						pdf.Cell(190, 5, fmt.Sprintf("Uploaded by %s on %s", proof.Photo.UploadedBy, proof.Photo.UploadedAt.Format("02-Jan-2006 15:04")))
						pdf.Ln(7)
					}

					pdf.Ln(4)
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
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-proof-report.pdf", project.Name))
		if err := pdf.Output(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
			return
		}

		log := models.ActivityLog{
			EventContext: "Report",
			EventName:    "Get",
			Description:  fmt.Sprintf("Generated proof report for %s", project.Name),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    projectID,
		}
		_ = SaveActivityLog(db, log)
	}
}

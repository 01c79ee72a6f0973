package handlers

import (
	"backend/services"
	"bytes"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// addLabel adds text to an image at the specified position with larger font
func addLabel(img *image.RGBA, x, y int, label string, fontSize float64) {
	col := color.RGBA{0, 0, 0, 255}

	face := inconsolata.Regular8x16
	if fontSize > 16 {
		face = inconsolata.Bold8x16
	}

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

// addLabelBold adds bold text with larger font for labels
func addLabelBold(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{30, 30, 30, 255}
	face := inconsolata.Bold8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

func truncateLabel(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// GenerateDoorQRCodeJPEG godoc
// @Summary      Generate door QR code as JPEG
// @Description  Returns a printable JPEG with the door QR code on top and the door, floor, system and project names below it. Installers stick the printout on the door frame and scan it from the checklist screen.
// @Tags         qr
// @Param        Authorization  header  string  true  "Session token"
// @Param        id             path    int     true  "Door ID"
// @Success      200  {file}    file  "JPEG image"
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/doors/{id}/qr [get]
func GenerateDoorQRCodeJPEG(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		doorID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid door ID"})
			return
		}

		// Resolve the door with its floor and project in one query, scoped to
		// the caller's projects.
		var (
			floorID     int
			projectID   int
			doorName    string
			floorName   string
			system      string
			projectName string
			checkpoints string
		)
		err = db.QueryRow(`
			SELECT d.floor_id, f.project_id, d.name, f.name, f.system, p.name, d.checkpoints
			FROM doors d
			JOIN floors f ON d.floor_id = f.id
			JOIN projects p ON f.project_id = p.id
			WHERE d.id = $1 AND p.user_id = $2
		`, doorID, session.UserID).Scan(&floorID, &projectID, &doorName, &floorName, &system, &projectName, &checkpoints)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Door not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch door details"})
			return
		}

		completed := 0
		total := 0
		var list []struct {
			Completed bool `json:"completed"`
		}
		if err := json.Unmarshal([]byte(checkpoints), &list); err == nil {
			total = len(list)
			for _, cp := range list {
				if cp.Completed {
					completed++
				}
			}
		}

		qrData := struct {
			DoorID    int     `json:"door_id"`
			FloorID   int     `json:"floor_id"`
			ProjectID int     `json:"project_id"`
			System    string  `json:"system"`
			Progress  float64 `json:"progress"`
		}{
			DoorID:    doorID,
			FloorID:   floorID,
			ProjectID: projectID,
			System:    system,
			Progress:  services.Percent(completed, total),
		}

		jsonData, err := json.Marshal(qrData)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to marshal door data"})
			return
		}

		qr, err := qrcode.New(string(jsonData), qrcode.Medium)
		if err != nil {
			c.String(http.StatusInternalServerError, "QR code generation failed")
			return
		}

		qrImg := qr.Image(512)

		// Calculate dimensions for the combined image
		qrSize := qrImg.Bounds().Dy()
		padding := 30
		lineHeight := 28
		textAreaHeight := 4*lineHeight + padding
		totalHeight := qrSize + padding + textAreaHeight

		// Create a new RGBA image with white background
		combinedImg := image.NewRGBA(image.Rect(0, 0, qrSize, totalHeight))
		draw.Draw(combinedImg, combinedImg.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

		// Draw QR code at the top
		qrRect := image.Rect(0, 0, qrSize, qrSize)
		draw.Draw(combinedImg, qrRect, qrImg, image.Point{}, draw.Src)

		// Draw a subtle separator line between QR code and text
		separatorY := qrSize + padding/2
		for x := 0; x < qrSize; x++ {
			combinedImg.Set(x, separatorY, color.RGBA{200, 200, 200, 255})
		}

		startY := qrSize + padding + lineHeight
		xPos := 20

		addLabelBold(combinedImg, xPos, startY, "Door:")
		addLabel(combinedImg, xPos+120, startY, truncateLabel(doorName, 30), 16)

		addLabelBold(combinedImg, xPos, startY+lineHeight, "Floor:")
		addLabel(combinedImg, xPos+120, startY+lineHeight, truncateLabel(floorName, 25), 16)

		addLabelBold(combinedImg, xPos, startY+2*lineHeight, "System:")
		addLabel(combinedImg, xPos+120, startY+2*lineHeight, truncateLabel(system, 25), 16)

		addLabelBold(combinedImg, xPos, startY+3*lineHeight, "Project:")
		addLabel(combinedImg, xPos+120, startY+3*lineHeight, truncateLabel(projectName, 30), 16)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, combinedImg, nil); err != nil {
			c.String(http.StatusInternalServerError, "JPEG encoding failed")
			return
		}

		c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
	}
}

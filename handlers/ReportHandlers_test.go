package handlers

import (
	"bytes"
	"testing"

	"backend/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableBreakStartsNewPageNearBottom(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetY(100)
	tableBreak(pdf)
	assert.Equal(t, 1, pdf.PageNo())

	pdf.SetY(pageHeight - 10)
	tableBreak(pdf)
	assert.Equal(t, 2, pdf.PageNo())
}

func TestPhotoBreakReservesPhotoBlock(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// 90 units must remain below the cursor for a photo block
	pdf.SetY(pageHeight - 100)
	photoBreak(pdf)
	assert.Equal(t, 1, pdf.PageNo())

	pdf.SetY(pageHeight - 50)
	photoBreak(pdf)
	assert.Equal(t, 2, pdf.PageNo())
}

func TestDoorQRCodeEncodesIdentity(t *testing.T) {
	png, err := doorQRCode(7, "CCTV", 3, 42)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	// Same identity encodes to the same code
	again, err := doorQRCode(7, "CCTV", 3, 42)
	require.NoError(t, err)
	assert.Equal(t, png, again)
}

func TestLoadProofPhotoRejectsTraversal(t *testing.T) {
	_, _, err := loadProofPhoto("../../etc/passwd")
	assert.Error(t, err)

	_, _, err = loadProofPhoto("/etc/passwd")
	assert.Error(t, err)
}

func TestBuildProofFloorCollectsPhotos(t *testing.T) {
	floor := models.Floor{
		ID:   5,
		Name: "Level 3",
		Doors: []models.Door{
			{ID: 11, Name: "D-301", Checkpoints: models.CheckpointList{
				{Name: "EM Lock Installation", Completed: true, Photo: &models.CheckpointPhoto{PublicID: "proof/a"}},
				{Name: "Door Contact", Completed: true},
				{Name: "Cabling", Completed: false, Photo: &models.CheckpointPhoto{PublicID: "proof/b"}},
			}},
			{ID: 12, Name: "D-302", Checkpoints: models.CheckpointList{
				{Name: "EM Lock Installation"},
			}},
		},
	}

	pf := buildProofFloor(floor)
	assert.Equal(t, 5, pf.FloorID)
	require.Len(t, pf.Doors, 2)

	first := pf.Doors[0]
	assert.Equal(t, 3, first.TotalCheckpoints)
	assert.Equal(t, 2, first.CompletedCheckpoints)
	// Photos are listed whether or not the checkpoint is completed
	require.Len(t, first.Photos, 2)
	assert.Equal(t, "proof/a", first.Photos[0].Photo.PublicID)
	assert.Equal(t, "proof/b", first.Photos[1].Photo.PublicID)

	assert.Empty(t, pf.Doors[1].Photos)
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "short", truncateLabel("short", 20))
	assert.Equal(t, "a very long doo...", truncateLabel("a very long door name here", 18))
	assert.Len(t, truncateLabel("a very long door name here", 18), 18)
}

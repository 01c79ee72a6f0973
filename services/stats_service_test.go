package services

import (
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeDoor(t *testing.T, system string, completed int, photos int) models.Door {
	t.Helper()
	checkpoints, err := models.NewCheckpoints(system)
	require.NoError(t, err)
	now := time.Now()
	for i := 0; i < completed && i < len(checkpoints); i++ {
		checkpoints[i].Completed = true
		checkpoints[i].CompletedAt = &now
	}
	for i := 0; i < photos && i < len(checkpoints); i++ {
		checkpoints[i].Photo = &models.CheckpointPhoto{
			URL:        "https://files.example.com/proof.jpg",
			PublicID:   "proof/1700000000-proof",
			Folder:     "proof",
			UploadedAt: now,
			UploadedBy: "user@example.com",
		}
	}
	return models.Door{Name: "Door", Checkpoints: checkpoints}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 50.0, Percent(1, 2))
	assert.Equal(t, 100.0, Percent(7, 7))
	assert.Equal(t, 33.33, Percent(1, 3))
}

func TestComputeDoorProgress(t *testing.T) {
	door := makeDoor(t, "Fire Alarm", 3, 2)

	dp := ComputeDoorProgress(door)
	assert.Equal(t, 7, dp.TotalCheckpoints)
	assert.Equal(t, 3, dp.CompletedCheckpoints)
	assert.Equal(t, 2, dp.Photos)
	assert.False(t, dp.Completed)
	assert.InDelta(t, 42.86, dp.Percentage, 0.01)
}

func TestComputeDoorProgressAllDone(t *testing.T) {
	door := makeDoor(t, "Fire Alarm", 7, 7)

	dp := ComputeDoorProgress(door)
	assert.True(t, dp.Completed)
	assert.Equal(t, 100.0, dp.Percentage)
}

func TestComputeDoorProgressNoCheckpoints(t *testing.T) {
	dp := ComputeDoorProgress(models.Door{Name: "Empty"})
	assert.False(t, dp.Completed, "a door without checkpoints must not count as completed")
	assert.Equal(t, 0.0, dp.Percentage)
}

func TestComputeFloorProgress(t *testing.T) {
	floor := models.Floor{
		Name: "Level 1",
		Doors: []models.Door{
			makeDoor(t, "Access Control", 7, 7),
			makeDoor(t, "Access Control", 2, 1),
		},
	}

	fp := ComputeFloorProgress(floor)
	assert.Equal(t, 2, fp.TotalDoors)
	assert.Equal(t, 1, fp.CompletedDoors)
	assert.Equal(t, 14, fp.TotalCheckpoints)
	assert.Equal(t, 9, fp.CompletedCheckpoints)
	assert.Equal(t, 8, fp.Photos)
	assert.InDelta(t, 64.29, fp.Percentage, 0.01)
	assert.Len(t, fp.Doors, 2)
}

func TestComputeFloorProgressEmptyFloor(t *testing.T) {
	fp := ComputeFloorProgress(models.Floor{Name: "Empty"})
	assert.Equal(t, 0, fp.TotalDoors)
	assert.Equal(t, 0.0, fp.Percentage)
	assert.NotNil(t, fp.Doors)
}

func TestComputeSystemStats(t *testing.T) {
	floors := []models.Floor{
		{Name: "Level 1", Doors: []models.Door{
			makeDoor(t, "CCTV", 7, 7),
			makeDoor(t, "CCTV", 7, 6),
		}},
		{Name: "Level 2", Doors: []models.Door{
			makeDoor(t, "CCTV", 7, 7),
			makeDoor(t, "CCTV", 7, 7),
			makeDoor(t, "CCTV", 7, 7),
		}},
	}

	stats := ComputeSystemStats("CCTV", floors)
	assert.Equal(t, 2, stats.TotalFloors)
	assert.Equal(t, 5, stats.TotalDoors)
	assert.Equal(t, 5, stats.CompletedDoors)
	assert.Equal(t, 0, stats.PendingDoors)
	assert.Equal(t, 35, stats.TotalCheckpoints)
	assert.Equal(t, 35, stats.CompletedCheckpoints)
	assert.Equal(t, 34, stats.TotalPhotos)
	assert.Equal(t, 100.0, stats.Percentage)
}

func TestComputeSystemStatsPartial(t *testing.T) {
	floors := []models.Floor{
		{Name: "Level 1", Doors: []models.Door{
			makeDoor(t, "PAS", 7, 0),
			makeDoor(t, "PAS", 3, 3),
		}},
		{Name: "Level 2", Doors: []models.Door{
			makeDoor(t, "PAS", 0, 0),
			makeDoor(t, "PAS", 7, 7),
			makeDoor(t, "PAS", 4, 2),
		}},
	}

	stats := ComputeSystemStats("PAS", floors)
	assert.Equal(t, 5, stats.TotalDoors)
	assert.Equal(t, 2, stats.CompletedDoors)
	assert.Equal(t, 3, stats.PendingDoors)
	assert.Equal(t, 35, stats.TotalCheckpoints)
	assert.Equal(t, 21, stats.CompletedCheckpoints)
	assert.Equal(t, 60.0, stats.Percentage)
}

func TestComputeSystemStatsEmpty(t *testing.T) {
	stats := ComputeSystemStats("Fire Alarm", nil)
	assert.Equal(t, "Fire Alarm", stats.System)
	assert.Equal(t, 0, stats.TotalDoors)
	assert.Equal(t, 0.0, stats.Percentage)
}

func TestComputeTaskStats(t *testing.T) {
	systems := []models.SystemStats{
		{TotalCheckpoints: 70, CompletedCheckpoints: 35, TotalPhotos: 30},
		{TotalCheckpoints: 14, CompletedCheckpoints: 14, TotalPhotos: 14},
		{},
	}

	stats := ComputeTaskStats(systems)
	assert.Equal(t, 84, stats.TotalTasks)
	assert.Equal(t, 49, stats.CompletedTasks)
	assert.Equal(t, 35, stats.PendingTasks)
	assert.Equal(t, 44, stats.TotalPhotos)
}

func TestAtticStock(t *testing.T) {
	assert.Equal(t, 14.0, AtticStock(40, 26))
	assert.Equal(t, 0.0, AtticStock(10, 10))
	assert.Equal(t, -3.0, AtticStock(5, 8), "over-installed stock goes negative")
}

func TestComputeStockStats(t *testing.T) {
	stocks := []models.Stock{
		{System: "CCTV", BOQ: 50, SuppliedQty: 40, InstalledQty: 26, AtticStock: 14},
		{System: "CCTV", BOQ: 100, SuppliedQty: 100, InstalledQty: 100, AtticStock: 0},
		{System: "Fire Alarm", BOQ: 10, SuppliedQty: 10, InstalledQty: 2, AtticStock: 8},
	}

	stats := ComputeStockStats("CCTV", stocks)
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 150.0, stats.TotalBOQ)
	assert.Equal(t, 140.0, stats.Supplied)
	assert.Equal(t, 126.0, stats.Installed)
	assert.Equal(t, 14.0, stats.Pending)
	assert.Equal(t, 14.0, stats.TotalAttic)
}

func TestComputeStockStatsIgnoresStaleAttic(t *testing.T) {
	// Stored attic lagging behind supplied/installed must not leak into totals
	stocks := []models.Stock{{System: "CCTV", SuppliedQty: 80, InstalledQty: 90, AtticStock: 30}}
	stats := ComputeStockStats("CCTV", stocks)
	assert.Equal(t, -10.0, stats.TotalAttic)
}

func TestComputeStockStatsNoMatches(t *testing.T) {
	stats := ComputeStockStats("PAS", []models.Stock{{System: "CCTV", SuppliedQty: 1}})
	assert.Equal(t, 0, stats.TotalItems)
	assert.Equal(t, 0.0, stats.Supplied)
}

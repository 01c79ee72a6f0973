package services

import (
	"math"

	"backend/models"
)

// DoorProgress is the per-door completion summary used by checklist views
// and reports.
type DoorProgress struct {
	DoorID               int     `json:"door_id"`
	DoorName             string  `json:"door_name"`
	TotalCheckpoints     int     `json:"total_checkpoints"`
	CompletedCheckpoints int     `json:"completed_checkpoints"`
	Photos               int     `json:"photos"`
	Completed            bool    `json:"completed"`
	Percentage           float64 `json:"percentage"`
}

// FloorProgress is the per-floor rollup of its doors.
type FloorProgress struct {
	FloorID              int            `json:"floor_id"`
	FloorName            string         `json:"floor_name"`
	TotalDoors           int            `json:"total_doors"`
	CompletedDoors       int            `json:"completed_doors"`
	TotalCheckpoints     int            `json:"total_checkpoints"`
	CompletedCheckpoints int            `json:"completed_checkpoints"`
	Photos               int            `json:"photos"`
	Percentage           float64        `json:"percentage"`
	Doors                []DoorProgress `json:"doors"`
}

// Percent returns done/total as a percentage rounded to two decimals.
// A zero total yields 0, never NaN.
func Percent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(done)/float64(total)*10000) / 100
}

// ComputeDoorProgress summarises one door. A door is completed when every
// checkpoint is marked done; a door with no checkpoints is never completed.
func ComputeDoorProgress(door models.Door) DoorProgress {
	total := len(door.Checkpoints)
	completed := door.Checkpoints.CompletedCount()

	return DoorProgress{
		DoorID:               door.ID,
		DoorName:             door.Name,
		TotalCheckpoints:     total,
		CompletedCheckpoints: completed,
		Photos:               door.Checkpoints.PhotoCount(),
		Completed:            total > 0 && completed == total,
		Percentage:           Percent(completed, total),
	}
}

// ComputeFloorProgress rolls up all doors of a floor.
func ComputeFloorProgress(floor models.Floor) FloorProgress {
	progress := FloorProgress{
		FloorID:   floor.ID,
		FloorName: floor.Name,
		Doors:     make([]DoorProgress, 0, len(floor.Doors)),
	}

	for _, door := range floor.Doors {
		dp := ComputeDoorProgress(door)
		progress.TotalDoors++
		if dp.Completed {
			progress.CompletedDoors++
		}
		progress.TotalCheckpoints += dp.TotalCheckpoints
		progress.CompletedCheckpoints += dp.CompletedCheckpoints
		progress.Photos += dp.Photos
		progress.Doors = append(progress.Doors, dp)
	}

	progress.Percentage = Percent(progress.CompletedCheckpoints, progress.TotalCheckpoints)
	return progress
}

// ComputeSystemStats rolls up every floor of one system in a project.
func ComputeSystemStats(system string, floors []models.Floor) models.SystemStats {
	stats := models.SystemStats{System: system}

	for _, floor := range floors {
		fp := ComputeFloorProgress(floor)
		stats.TotalFloors++
		stats.TotalDoors += fp.TotalDoors
		stats.CompletedDoors += fp.CompletedDoors
		stats.TotalCheckpoints += fp.TotalCheckpoints
		stats.CompletedCheckpoints += fp.CompletedCheckpoints
		stats.TotalPhotos += fp.Photos
	}

	stats.PendingDoors = stats.TotalDoors - stats.CompletedDoors
	stats.Percentage = Percent(stats.CompletedCheckpoints, stats.TotalCheckpoints)
	return stats
}

// ComputeTaskStats merges per-system stats into the project-wide task view
// shown on the dashboard.
func ComputeTaskStats(systems []models.SystemStats) models.TaskStats {
	var stats models.TaskStats
	for _, s := range systems {
		stats.TotalTasks += s.TotalCheckpoints
		stats.CompletedTasks += s.CompletedCheckpoints
		stats.TotalPhotos += s.TotalPhotos
	}
	stats.PendingTasks = stats.TotalTasks - stats.CompletedTasks
	return stats
}

// AtticStock derives the attic quantity from supplied and installed. The
// result may be negative when more was installed than recorded as supplied.
func AtticStock(suppliedQty, installedQty float64) float64 {
	return suppliedQty - installedQty
}

// ComputeStockStats summarises stock records of one system. The attic total
// is re-derived per record from supplied and installed rather than read from
// the stored attic_stock, which can lag behind a partial quantity update.
func ComputeStockStats(system string, stocks []models.Stock) models.StockStats {
	stats := models.StockStats{System: system}
	for _, stock := range stocks {
		if stock.System != system {
			continue
		}
		stats.TotalItems++
		stats.TotalBOQ += stock.BOQ
		stats.Supplied += stock.SuppliedQty
		stats.Installed += stock.InstalledQty
		stats.Pending += stock.SuppliedQty - stock.InstalledQty
		stats.TotalAttic += AtticStock(stock.SuppliedQty, stock.InstalledQty)
	}
	return stats
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SystemTemplates maps each supported system type to its checkpoint
// template. New doors copy the template for their system, so edits here
// only affect doors created afterwards.
var SystemTemplates = map[string][]string{
	"Access Control": {
		"Door Contact Installation",
		"EM Lock Installation",
		"Card Reader Installation",
		"Exit Switch Installation",
		"Power Supply Connection",
		"Cable Termination",
		"Testing & Commissioning",
	},
	"CCTV": {
		"Camera Mounting",
		"Cable Routing",
		"Power Connection",
		"Network Configuration",
		"View Angle Adjustment",
		"Recording Test",
		"Motion Detection Setup",
	},
	"Fire Alarm": {
		"Detector Installation",
		"Manual Call Point Setup",
		"Sounder Installation",
		"Panel Connection",
		"Zone Configuration",
		"Battery Backup Check",
		"Alarm Test",
	},
	"PAS": {
		"Speaker Mounting",
		"Cable Installation",
		"Amplifier Setup",
		"Zone Assignment",
		"Volume Adjustment",
		"Audio Quality Test",
		"Emergency Broadcast Test",
	},
}

// SystemNames returns the supported system types in a stable order.
func SystemNames() []string {
	return []string{"Access Control", "CCTV", "Fire Alarm", "PAS"}
}

// IsValidSystem reports whether name is one of the supported system types.
func IsValidSystem(name string) bool {
	_, ok := SystemTemplates[name]
	return ok
}

// CheckpointPhoto is the stored proof photo for a completed checkpoint.
type CheckpointPhoto struct {
	URL        string    `json:"url" example:"https://files.example.com/uploads/proof/1700000000-door.jpg"`
	PublicID   string    `json:"public_id" example:"proof/1700000000-door"`
	Folder     string    `json:"folder" example:"proof"`
	UploadedAt time.Time `json:"uploaded_at" example:"2024-01-15T10:30:00Z"`
	UploadedBy string    `json:"uploaded_by" example:"user@example.com"`
}

// Checkpoint is a single installation step on a door.
type Checkpoint struct {
	Name        string           `json:"name" example:"EM Lock Installation"`
	Completed   bool             `json:"completed" example:"false"`
	Photo       *CheckpointPhoto `json:"photo"`
	CompletedAt *time.Time       `json:"completed_at"`
}

// CheckpointList is stored as a JSONB column on the doors table so the
// checkpoints travel with their door as a single value.
type CheckpointList []Checkpoint

// Value implements driver.Valuer for JSONB storage.
func (cl CheckpointList) Value() (driver.Value, error) {
	if cl == nil {
		return json.Marshal(CheckpointList{})
	}
	return json.Marshal(cl)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (cl *CheckpointList) Scan(value interface{}) error {
	if value == nil {
		*cl = CheckpointList{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("checkpoints column is not a byte slice")
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, cl)
}

// NewCheckpoints builds a fresh checkpoint list from the template of the
// given system type. Returns an error for unknown systems so that a typo
// never produces an empty checklist silently.
func NewCheckpoints(system string) (CheckpointList, error) {
	names, ok := SystemTemplates[system]
	if !ok {
		return nil, fmt.Errorf("unknown system type: %q", system)
	}
	checkpoints := make(CheckpointList, 0, len(names))
	for _, name := range names {
		checkpoints = append(checkpoints, Checkpoint{
			Name:      name,
			Completed: false,
		})
	}
	return checkpoints, nil
}

// CompletedCount returns how many checkpoints are marked completed.
func (cl CheckpointList) CompletedCount() int {
	count := 0
	for _, cp := range cl {
		if cp.Completed {
			count++
		}
	}
	return count
}

// PhotoCount returns how many checkpoints carry a proof photo.
func (cl CheckpointList) PhotoCount() int {
	count := 0
	for _, cp := range cl {
		if cp.Photo != nil {
			count++
		}
	}
	return count
}

// Floor groups doors of one system type within a project.
type Floor struct {
	ID        int       `json:"id" example:"1"`
	ProjectID int       `json:"project_id" example:"1"`
	System    string    `json:"system" example:"Access Control"`
	Name      string    `json:"name" example:"Level 3"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
	Doors     []Door    `json:"doors,omitempty"`
}

// Door is a single installation point with its own checkpoint list.
type Door struct {
	ID          int            `json:"id" example:"1"`
	FloorID     int            `json:"floor_id" example:"1"`
	Name        string         `json:"name" example:"Main Entrance"`
	Checkpoints CheckpointList `json:"checkpoints"`
	CreatedAt   time.Time      `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time      `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// FloorRequest is the create/update payload for floors.
type FloorRequest struct {
	Name string `json:"name" binding:"required" example:"Level 3"`
}

// DoorRequest is the create/update payload for doors.
type DoorRequest struct {
	Name string `json:"name" binding:"required" example:"Main Entrance"`
}

// CheckpointToggleRequest marks a checkpoint done or not done.
type CheckpointToggleRequest struct {
	Index     int  `json:"index" example:"2"`
	Completed bool `json:"completed" example:"true"`
}

package models

import "time"

// Project is a tracked installation project. Projects are scoped to the
// user that created them.
type Project struct {
	ID          int       `json:"id" example:"1"`
	UserID      int       `json:"user_id" example:"1"`
	Name        string    `json:"name" example:"Marina Bay Tower"`
	Client      string    `json:"client" example:"Acme Facilities"`
	Location    string    `json:"location" example:"12 Marina Blvd"`
	Description string    `json:"description" example:"Access control retrofit, 14 floors"`
	Status      string    `json:"status" example:"active"`
	StartDate   string    `json:"start_date" example:"2024-01-10"`
	EndDate     string    `json:"end_date" example:"2024-06-30"`
	CreatedAt   time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// ProjectRequest is the create/update payload for projects.
type ProjectRequest struct {
	Name        string `json:"name" binding:"required" example:"Marina Bay Tower"`
	Client      string `json:"client" example:"Acme Facilities"`
	Location    string `json:"location" example:"12 Marina Blvd"`
	Description string `json:"description" example:"Access control retrofit"`
	Status      string `json:"status" example:"active"`
	StartDate   string `json:"start_date" example:"2024-01-10"`
	EndDate     string `json:"end_date" example:"2024-06-30"`
}

// ProjectStatuses are the accepted values for Project.Status.
var ProjectStatuses = map[string]bool{
	"active":    true,
	"pending":   true,
	"completed": true,
	"on-hold":   true,
}

// SystemStats is the per-system installation progress of a project.
type SystemStats struct {
	System               string  `json:"system" example:"Access Control"`
	TotalFloors          int     `json:"total_floors" example:"4"`
	TotalDoors           int     `json:"total_doors" example:"28"`
	CompletedDoors       int     `json:"completed_doors" example:"11"`
	PendingDoors         int     `json:"pending_doors" example:"17"`
	TotalCheckpoints     int     `json:"total_checkpoints" example:"196"`
	CompletedCheckpoints int     `json:"completed_checkpoints" example:"96"`
	TotalPhotos          int     `json:"total_photos" example:"80"`
	Percentage           float64 `json:"percentage" example:"48.98"`
}

// TaskStats aggregates checkpoint work across every system of a project.
type TaskStats struct {
	TotalTasks     int `json:"total_tasks" example:"196"`
	CompletedTasks int `json:"completed_tasks" example:"96"`
	PendingTasks   int `json:"pending_tasks" example:"100"`
	TotalPhotos    int `json:"total_photos" example:"80"`
}

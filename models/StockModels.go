package models

import "time"

// Stock is one inventory line for a project and system. AtticStock is
// always recomputed as supplied minus installed on every write, it is
// never accepted from the client.
type Stock struct {
	ID           int       `json:"id" example:"1"`
	ProjectID    int       `json:"project_id" example:"1"`
	System       string    `json:"system" example:"CCTV"`
	ItemName     string    `json:"item_name" example:"Dome Camera 4MP"`
	Brand        string    `json:"brand" example:"Hikvision"`
	Model        string    `json:"model" example:"DS-2CD2143G2"`
	Unit         string    `json:"unit" example:"pcs"`
	BOQ          float64   `json:"boq" example:"50"`
	SuppliedQty  float64   `json:"supplied_qty" example:"40"`
	InstalledQty float64   `json:"installed_qty" example:"26"`
	AtticStock   float64   `json:"attic_stock" example:"14"`
	Remarks      string    `json:"remarks" example:"Level 1-7 done"`
	CreatedAt    time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt    time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// StockRequest is the create/update payload for stock records.
type StockRequest struct {
	System       string  `json:"system" binding:"required" example:"CCTV"`
	ItemName     string  `json:"item_name" binding:"required" example:"Dome Camera 4MP"`
	Brand        string  `json:"brand" example:"Hikvision"`
	Model        string  `json:"model" example:"DS-2CD2143G2"`
	Unit         string  `json:"unit" example:"pcs"`
	BOQ          float64 `json:"boq" example:"50"`
	SuppliedQty  float64 `json:"supplied_qty" example:"40"`
	InstalledQty float64 `json:"installed_qty" example:"26"`
	Remarks      string  `json:"remarks" example:""`
}

// StockHistory is an audit entry written on every stock create or update.
type StockHistory struct {
	ID           int       `json:"id" example:"1"`
	StockID      int       `json:"stock_id" example:"1"`
	ProjectID    int       `json:"project_id" example:"1"`
	System       string    `json:"system" example:"CCTV"`
	ItemName     string    `json:"item_name" example:"Dome Camera 4MP"`
	Action       string    `json:"action" example:"update"`
	BOQ          float64   `json:"boq" example:"50"`
	SuppliedQty  float64   `json:"supplied_qty" example:"40"`
	InstalledQty float64   `json:"installed_qty" example:"26"`
	AtticStock   float64   `json:"attic_stock" example:"14"`
	ChangedBy    string    `json:"changed_by" example:"user@example.com"`
	CreatedAt    time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// StockStats summarises stock quantities for one system of a project.
type StockStats struct {
	System     string  `json:"system" example:"CCTV"`
	TotalItems int     `json:"total_items" example:"12"`
	TotalBOQ   float64 `json:"total_boq" example:"260"`
	Supplied   float64 `json:"supplied" example:"220"`
	Installed  float64 `json:"installed" example:"143"`
	Pending    float64 `json:"pending" example:"77"`
	TotalAttic float64 `json:"total_attic" example:"77"`
}

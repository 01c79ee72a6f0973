package models

import "time"

// GORM models used for schema migration only. Request handlers read and
// write through database/sql, so these carry no JSON tags.

type GormUser struct {
	ID          int    `gorm:"primaryKey"`
	Email       string `gorm:"uniqueIndex;size:255;not null"`
	Password    string `gorm:"size:255"`
	DisplayName string `gorm:"size:255"`
	PhotoURL    string `gorm:"size:512"`
	Provider    string `gorm:"size:32;default:password"`
	Suspended   bool   `gorm:"default:false"`
	LastAccess  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (GormUser) TableName() string { return "users" }

type GormSession struct {
	SessionID             string    `gorm:"primaryKey;size:64"`
	UserID                int       `gorm:"index;not null"`
	HostName              string    `gorm:"size:255"`
	IPAddress             string    `gorm:"size:64"`
	Timestamp             time.Time `gorm:"column:timestp"`
	ExpiresAt             time.Time `gorm:"index"`
	RefreshToken          string    `gorm:"size:512"`
	RefreshTokenExpiresAt time.Time
}

func (GormSession) TableName() string { return "session" }

type GormProject struct {
	ID          int    `gorm:"primaryKey"`
	UserID      int    `gorm:"index;not null"`
	Name        string `gorm:"size:255;not null"`
	Client      string `gorm:"size:255"`
	Location    string `gorm:"size:512"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"size:32;default:active"`
	StartDate   string `gorm:"size:10"`
	EndDate     string `gorm:"size:10"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (GormProject) TableName() string { return "projects" }

type GormStock struct {
	ID           int     `gorm:"primaryKey"`
	ProjectID    int     `gorm:"index;not null"`
	System       string  `gorm:"size:64;not null"`
	ItemName     string  `gorm:"size:255;not null"`
	Brand        string  `gorm:"size:255"`
	Model        string  `gorm:"size:255"`
	Unit         string  `gorm:"size:32"`
	BOQ          float64 `gorm:"column:boq;default:0"`
	SuppliedQty  float64 `gorm:"default:0"`
	InstalledQty float64 `gorm:"default:0"`
	AtticStock   float64 `gorm:"default:0"`
	Remarks      string  `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (GormStock) TableName() string { return "stocks" }

type GormStockHistory struct {
	ID           int     `gorm:"primaryKey"`
	StockID      int     `gorm:"index"`
	ProjectID    int     `gorm:"index;not null"`
	System       string  `gorm:"size:64"`
	ItemName     string  `gorm:"size:255"`
	Action       string  `gorm:"size:32"`
	BOQ          float64 `gorm:"column:boq;default:0"`
	SuppliedQty  float64
	InstalledQty float64
	AtticStock   float64
	ChangedBy    string `gorm:"size:255"`
	CreatedAt    time.Time
}

func (GormStockHistory) TableName() string { return "stock_history" }

type GormFloor struct {
	ID        int    `gorm:"primaryKey"`
	ProjectID int    `gorm:"index;not null"`
	System    string `gorm:"size:64;not null"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GormFloor) TableName() string { return "floors" }

type GormDoor struct {
	ID          int    `gorm:"primaryKey"`
	FloorID     int    `gorm:"index;not null"`
	Name        string `gorm:"size:255;not null"`
	Checkpoints string `gorm:"type:jsonb;default:'[]'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (GormDoor) TableName() string { return "doors" }

type GormActivityLog struct {
	ID                int `gorm:"primaryKey"`
	CreatedAt         time.Time
	UserName          string `gorm:"size:255"`
	HostName          string `gorm:"size:255"`
	EventContext      string `gorm:"size:64"`
	IPAddress         string `gorm:"size:64"`
	Description       string `gorm:"type:text"`
	EventName         string `gorm:"size:64"`
	AffectedUserName  string `gorm:"size:255"`
	AffectedUserEmail string `gorm:"size:255"`
	ProjectID         int    `gorm:"index"`
}

func (GormActivityLog) TableName() string { return "activity_logs" }

type GormPasswordReset struct {
	ID        int    `gorm:"primaryKey"`
	Email     string `gorm:"index;size:255;not null"`
	Token     string `gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time
	Used      bool `gorm:"default:false"`
	CreatedAt time.Time
}

func (GormPasswordReset) TableName() string { return "password_resets" }

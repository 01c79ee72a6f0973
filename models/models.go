package models

import (
	"time"
)

type User struct {
	ID          int       `json:"id" example:"1"`
	Email       string    `json:"email" example:"user@example.com"`
	Password    string    `json:"password" example:""`
	DisplayName string    `json:"display_name" example:"John Doe"`
	PhotoURL    string    `json:"photo_url" example:""`
	Provider    string    `json:"provider" example:"password"`
	CreatedAt   time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
	LastAccess  time.Time `json:"last_access,omitempty" example:"2024-01-15T10:30:00Z"`
	Suspended   bool      `json:"suspended" example:"false"`
}

type Session struct {
	UserID                int       `json:"user_id"`
	SessionID             string    `json:"session_id"`
	HostName              string    `json:"host_name"`
	IPAddress             string    `json:"ip_address"`
	Timestamp             time.Time `json:"timestp"`
	ExpiresAt             time.Time `json:"expires_at"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
}

type ActivityLog struct {
	ID                int       `json:"id" example:"1"`
	CreatedAt         time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UserName          string    `json:"user_name" example:"John Doe"`
	HostName          string    `json:"host_name" example:"user@example.com"`
	EventContext      string    `json:"event_context" example:"project"`
	IPAddress         string    `json:"ip_address" example:"192.168.1.1"`
	Description       string    `json:"description" example:"Created project Marina Bay Tower"`
	EventName         string    `json:"event_name" example:"create"`
	AffectedUserName  string    `json:"affected_user_name" example:""`
	AffectedUserEmail string    `json:"affected_user_email" example:""`
	ProjectID         int       `json:"project_id" example:"1"`
}

// PasswordReset is a one-time reset token sent by email.
type PasswordReset struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

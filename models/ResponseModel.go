package models

// Swagger / API docs: common request and response models referenced by handler annotations

// ErrorResponse is used in @Failure for error responses
type ErrorResponse struct {
	Error   string `json:"error" example:"Invalid input"`
	Details string `json:"details,omitempty" example:""`
}

// LoginRequest is used in @Param for login body
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"password"`
	IP       string `json:"ip" example:"192.168.1.1"`
}

// SignupRequest is used in @Param for signup body
type SignupRequest struct {
	Email       string `json:"email" binding:"required" example:"user@example.com"`
	Password    string `json:"password" binding:"required" example:"password"`
	DisplayName string `json:"display_name" example:"John Doe"`
}

// GoogleLoginRequest carries a Google OAuth authorization code.
type GoogleLoginRequest struct {
	Code        string `json:"code" binding:"required" example:"4/0AX4..."`
	RedirectURI string `json:"redirect_uri" example:"https://app.example.com/auth/callback"`
	IP          string `json:"ip" example:"192.168.1.1"`
}

// LoginResponse is used in @Success for login
type LoginResponse struct {
	Message      string    `json:"message" example:"User successfully logged in"`
	AccessToken  string    `json:"access_token" example:"eyJhbGc..."`
	RefreshToken string    `json:"refresh_token" example:"eyJhbGc..."`
	SessionID    string    `json:"session_id" example:"b2f1..."`
	User         LoginUser `json:"user"`
}

// LoginUser is the user object inside LoginResponse
type LoginUser struct {
	ID          int    `json:"id" example:"1"`
	Email       string `json:"email" example:"user@example.com"`
	DisplayName string `json:"display_name" example:"John Doe"`
}

// SuccessResponse is used in @Success for generic success
type SuccessResponse struct {
	Message string      `json:"message" example:"Success"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	Limit        int  `json:"limit"`
	TotalRecords int  `json:"total_records"`
	TotalPages   int  `json:"total_pages"`
	HasNext      bool `json:"has_next"`
	HasPrev      bool `json:"has_prev"`
}

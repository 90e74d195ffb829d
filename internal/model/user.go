package model

// User role constants
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Auth provider constants
const (
	ProviderLocal    = "local"
	ProviderFirebase = "firebase"
)

// User represents a registered account. Warranties are exclusively owned by
// their user; the engine never reassigns ownership.
type User struct {
	Base
	Email        string `json:"email" db:"email"`
	Name         string `json:"name" db:"name"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
	IsActive     bool   `json:"is_active" db:"is_active"`
	AuthProvider string `json:"auth_provider" db:"auth_provider"`
}

// RegisterRequest represents account registration parameters
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents login parameters
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserStatusRequest suspends or reactivates an account
type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// TokenResponse is returned on successful authentication
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

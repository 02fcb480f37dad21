package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateUserRequest struct {
	Username       string          `json:"username" validate:"required,min=3"`
	Name           string          `json:"name"     validate:"required"`
	Email          string          `json:"email"    validate:"required,email"`
	Password       string          `json:"password" validate:"required,min=8"`
	Role           string          `json:"role"     validate:"required,oneof=cashier supervisor admin"`
	CommissionRate decimal.Decimal `json:"commission_rate" validate:"min=0,max=1"`
}

type UpdateUserRequest struct {
	Name           *string          `json:"name"`
	Email          *string          `json:"email"    validate:"omitempty,email"`
	Password       *string          `json:"password" validate:"omitempty,min=8"`
	Role           *string          `json:"role"     validate:"omitempty,oneof=cashier supervisor admin"`
	CommissionRate *decimal.Decimal `json:"commission_rate" validate:"omitempty,min=0,max=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Role           string          `json:"role"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Active         bool            `json:"active"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}

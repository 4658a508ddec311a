package auth

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loyaltyhub-backend/pkg/db/models"
	"github.com/angelmondragon/loyaltyhub-backend/pkg/enums"
)

// RegisterRequest contains the payload for creating an account.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

// LoginRequest carries the credentials for an email/password login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest rotates an expired access token's session.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserSummary is the safe projection of a user returned by auth flows.
type UserSummary struct {
	ID            uuid.UUID       `json:"id"`
	Email         string          `json:"email"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Role          enums.UserRole  `json:"role"`
	LoyaltyPoints int64           `json:"loyaltyPoints"`
	Tier          enums.Tier      `json:"tier"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
}

// AuthResponse is the token pair plus the authenticated user.
type AuthResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         UserSummary `json:"user"`
}

func summarize(user *models.User) UserSummary {
	return UserSummary{
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Role:          user.Role,
		LoyaltyPoints: user.LoyaltyPoints,
		Tier:          user.Tier,
		TotalSpent:    user.TotalSpent,
	}
}

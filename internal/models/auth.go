package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ActorRole identifies which side of the platform a token acts for.
type ActorRole string

const (
	RoleTeacher ActorRole = "teacher"
	RoleStudent ActorRole = "student"
	RoleParent  ActorRole = "parent"
)

// JWTClaims is the payload of an actor access token minted for the bot
// gateway.
type JWTClaims struct {
	ActorID    string    `json:"actor_id"`
	Role       ActorRole `json:"role"`
	ExternalID string    `json:"external_id"`
	jwt.RegisteredClaims
}

// TokenRequest exchanges a messaging identity for an actor token. Only the
// gateway may call this, authenticated by its API key.
type TokenRequest struct {
	Role       ActorRole `json:"role" validate:"required,oneof=teacher student parent"`
	ExternalID string    `json:"external_id" validate:"required"`
}

// TokenResponse returns the issued actor token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	ActorID     string    `json:"actor_id"`
	Role        ActorRole `json:"role"`
}

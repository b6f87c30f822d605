package model

import "github.com/golang-jwt/jwt/v5"

// HostClaims are JWT claims for host (teacher) authentication
type HostClaims struct {
	HostID string `json:"hostId"`
	jwt.RegisteredClaims
}

// PlayerClaims are JWT claims for player session-scoped tokens
type PlayerClaims struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for host login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token  string `json:"token"`
	HostID string `json:"hostId"`
}

// JoinRequest is the request body for a player joining a session
type JoinRequest struct {
	DisplayName string `json:"displayName"`
	CharacterID string `json:"characterId"`
}

// JoinResponse is returned when a player joins a session
type JoinResponse struct {
	PlayerID string            `json:"playerId"`
	Token    string            `json:"token"`
	Player   *TournamentPlayer `json:"player"`
}

package model

import "time"

// Side identifies one of the two positions within a match.
type Side string

const (
	SideOne Side = "player1"
	SideTwo Side = "player2"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideOne {
		return SideTwo
	}
	return SideOne
}

// Valid reports whether s is one of the two match sides.
func (s Side) Valid() bool {
	return s == SideOne || s == SideTwo
}

type MatchStatus string

const (
	MatchWaiting   MatchStatus = "waiting"
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
)

// Position is a point in the arena.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type SpellKind string

const (
	SpellFireball  SpellKind = "fireball"
	SpellLightning SpellKind = "lightning"
)

// Spell is one in-flight projectile. It lives in a match's active-spell list
// from a validated cast until the first hit report that names it.
type Spell struct {
	ID        string    `json:"spellId"`
	Kind      SpellKind `json:"kind"`
	Start     Position  `json:"start"`
	Target    Position  `json:"target"`
	Direction Position  `json:"direction"`
	Damage    int       `json:"damage"`
	Speed     float64   `json:"speed"`
	Owner     Side      `json:"side"`
	// OwnerID duplicates the caster's player id for older clients that key
	// spells by playerId instead of side.
	OwnerID   string    `json:"playerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// MatchResult is the persisted outcome record for one participant of one match.
type MatchResult struct {
	MatchID        string    `json:"matchId" bson:"matchId"`
	SessionID      string    `json:"sessionId" bson:"sessionId"`
	PlayerID       string    `json:"playerId" bson:"playerId"`
	OpponentID     string    `json:"opponentId" bson:"opponentId"`
	Place          int       `json:"place" bson:"place"`
	HP             int       `json:"hp" bson:"hp"`
	CorrectAnswers int       `json:"correctAnswers" bson:"correctAnswers"`
	DamageDealt    int       `json:"damageDealt" bson:"damageDealt"`
	DamageReceived int       `json:"damageReceived" bson:"damageReceived"`
	Rounds         int       `json:"rounds" bson:"rounds"`
	EndedAt        time.Time `json:"endedAt" bson:"endedAt"`
}

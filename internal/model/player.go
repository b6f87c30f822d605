package model

import "time"

// TournamentPlayer is the session-wide standing of one participant. It is the
// synchronization point between per-match ephemeral state and the tournament:
// the match engine reads it when a match is created and writes back hp,
// elimination and damage totals when a match ends.
type TournamentPlayer struct {
	SessionID      string    `json:"sessionId" bson:"sessionId"`
	PlayerID       string    `json:"playerId" bson:"playerId"`
	DisplayName    string    `json:"displayName" bson:"displayName"`
	CharacterID    string    `json:"characterId" bson:"characterId"`
	HP             int       `json:"hp" bson:"hp"`
	CombatStat     int       `json:"combatStat" bson:"combatStat"`
	CorrectAnswers int       `json:"correctAnswers" bson:"correctAnswers"`
	Eliminated     bool      `json:"eliminated" bson:"eliminated"`
	InQueue        bool      `json:"inQueue" bson:"inQueue"`
	CurrentMatchID string    `json:"currentMatchId" bson:"currentMatchId"`
	DamageDealt    int       `json:"damageDealt" bson:"damageDealt"`
	DamageReceived int       `json:"damageReceived" bson:"damageReceived"`
	JoinedAt       time.Time `json:"joinedAt" bson:"joinedAt"`
}

// PlayerPatch is a partial update to a TournamentPlayer. Nil fields are left
// untouched.
type PlayerPatch struct {
	HP             *int    `json:"hp,omitempty"`
	CombatStat     *int    `json:"combatStat,omitempty"`
	CorrectAnswers *int    `json:"correctAnswers,omitempty"`
	Eliminated     *bool   `json:"eliminated,omitempty"`
	InQueue        *bool   `json:"inQueue,omitempty"`
	CurrentMatchID *string `json:"currentMatchId,omitempty"`
	DamageDealt    *int    `json:"damageDealt,omitempty"`
	DamageReceived *int    `json:"damageReceived,omitempty"`
}

// Apply copies the non-nil patch fields onto p.
func (patch *PlayerPatch) Apply(p *TournamentPlayer) {
	if patch.HP != nil {
		p.HP = *patch.HP
	}
	if patch.CombatStat != nil {
		p.CombatStat = *patch.CombatStat
	}
	if patch.CorrectAnswers != nil {
		p.CorrectAnswers = *patch.CorrectAnswers
	}
	if patch.Eliminated != nil {
		p.Eliminated = *patch.Eliminated
	}
	if patch.InQueue != nil {
		p.InQueue = *patch.InQueue
	}
	if patch.CurrentMatchID != nil {
		p.CurrentMatchID = *patch.CurrentMatchID
	}
	if patch.DamageDealt != nil {
		p.DamageDealt = *patch.DamageDealt
	}
	if patch.DamageReceived != nil {
		p.DamageReceived = *patch.DamageReceived
	}
}

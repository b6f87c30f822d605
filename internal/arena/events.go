package arena

import "quizbrawl/internal/model"

// Outbound message types. The transport layer delivers these verbatim as
// structured messages.
const (
	MsgQueueJoined   = "queue_joined"
	MsgQueueLeft     = "queue_left"
	MsgMatchFound    = "match_found"
	MsgRoundStart    = "round_start"
	MsgOpponentMove  = "opponent_move"
	MsgSpellCast     = "spell_cast"
	MsgSpellHit      = "spell_hit"
	MsgRoundEnd      = "round_end"
	MsgMatchEnd      = "match_end"
	MsgTournamentEnd = "tournament_end"
	MsgError         = "error"
)

type QueueJoinedPayload struct {
	Position int `json:"position"`
}

type QueueLeftPayload struct {
	PlayerID string `json:"playerId"`
}

// OpponentInfo is the opponent metadata sent with match_found.
type OpponentInfo struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	CharacterID string `json:"characterId"`
	HP          int    `json:"hp"`
	CombatStat  int    `json:"combatStat"`
}

type MatchFoundPayload struct {
	MatchID  string       `json:"matchId"`
	Side     model.Side   `json:"side"`
	Opponent OpponentInfo `json:"opponent"`
}

type RoundStartPayload struct {
	Round      int   `json:"round"`
	DurationMs int64 `json:"durationMs"`
	Player1HP  int   `json:"player1Hp"`
	Player2HP  int   `json:"player2Hp"`
}

type OpponentMovePayload struct {
	Side     model.Side     `json:"side"`
	Position model.Position `json:"position"`
}

type SpellHitPayload struct {
	SpellID     string     `json:"spellId"`
	Target      model.Side `json:"target"`
	Damage      int        `json:"damage"`
	RemainingHP int        `json:"remainingHp"`
	Player1HP   int        `json:"player1Hp"`
	Player2HP   int        `json:"player2Hp"`
}

type RoundEndPayload struct {
	Round     int `json:"round"`
	Player1HP int `json:"player1Hp"`
	Player2HP int `json:"player2Hp"`
}

// SideResult is the per-side summary inside match_end.
type SideResult struct {
	PlayerID       string `json:"playerId"`
	HP             int    `json:"hp"`
	Place          int    `json:"place"`
	CorrectAnswers int    `json:"correctAnswers"`
	DamageDealt    int    `json:"damageDealt"`
	DamageReceived int    `json:"damageReceived"`
}

type MatchEndPayload struct {
	MatchID string                    `json:"matchId"`
	Winner  model.Side                `json:"winner"`
	Results map[model.Side]SideResult `json:"results"`
}

type TournamentEndPayload struct {
	SessionID string `json:"sessionId"`
	Winner    struct {
		PlayerID       string `json:"playerId"`
		DisplayName    string `json:"displayName"`
		HP             int    `json:"hp"`
		CorrectAnswers int    `json:"correctAnswers"`
		DamageDealt    int    `json:"damageDealt"`
	} `json:"winner"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

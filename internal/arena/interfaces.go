package arena

import (
	"context"

	"quizbrawl/internal/model"
)

// PlayerChannel is an order-preserving, push-only outbound channel to one
// connected participant. Send never blocks; it reports whether delivery was
// attempted (false when the connection is gone or its buffer is full).
type PlayerChannel interface {
	Send(msgType string, payload interface{}) bool
	Connected() bool
}

// TournamentStore is the session/storage collaborator. Failures during match
// teardown are logged and never block gameplay progression.
type TournamentStore interface {
	GetPlayer(ctx context.Context, sessionID, playerID string) (*model.TournamentPlayer, error)
	UpdatePlayer(ctx context.Context, sessionID, playerID string, patch *model.PlayerPatch) error
	PersistMatchResult(ctx context.Context, sessionID string, winner, loser *model.MatchResult) error
	MarkSessionCompleted(ctx context.Context, sessionID, winnerID string) error
	CountRemainingActive(ctx context.Context, sessionID string) (int, error)
}

// Broadcaster delivers events to every connected participant of a session
// (avoids an import cycle with the transport layer).
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
}

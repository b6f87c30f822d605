package arena

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"quizbrawl/internal/config"
	"quizbrawl/internal/model"
)

var (
	// ErrAlreadyQueued means the player already holds a queue entry for the
	// session.
	ErrAlreadyQueued = errors.New("already in queue")
	// ErrNotEligible means the tournament record shows the player eliminated
	// or still fighting.
	ErrNotEligible = errors.New("not eligible to queue")
)

// QueueEntry is one waiting player. Owned by the matchmaker until it is
// consumed by pairing, withdrawn or the player disconnects.
type QueueEntry struct {
	SessionID      string
	PlayerID       string
	Channel        PlayerChannel
	DisplayName    string
	CharacterID    string
	HP             int
	CombatStat     int
	CorrectAnswers int
	DamageDealt    int
	DamageReceived int
	EnqueuedAt     time.Time
}

// Matchmaker keeps a strict FIFO waitlist per session and pairs the two
// oldest entries as soon as two are waiting. Insertion order is the fairness
// contract; there is no skill-based reordering.
type Matchmaker struct {
	cfg      config.Game
	store    TournamentStore
	events   Broadcaster
	registry *Registry

	mu     sync.Mutex
	queues map[string][]*QueueEntry
}

func NewMatchmaker(cfg config.Game, store TournamentStore, events Broadcaster, registry *Registry) *Matchmaker {
	return &Matchmaker{
		cfg:      cfg,
		store:    store,
		events:   events,
		registry: registry,
		queues:   make(map[string][]*QueueEntry),
	}
}

// Enter appends the player to the session's waitlist and returns the 1-based
// position. A stale currentMatchId on the tournament record is cleared as a
// side effect. Pairing is attempted immediately after a successful enter.
func (mm *Matchmaker) Enter(ctx context.Context, sessionID, playerID string, ch PlayerChannel) (int, error) {
	rec, err := mm.store.GetPlayer(ctx, sessionID, playerID)
	if err != nil {
		return 0, fmt.Errorf("load tournament record: %w", err)
	}
	if rec == nil || rec.Eliminated || rec.HP <= 0 {
		return 0, ErrNotEligible
	}
	// The registry, not the tournament record, is the authority on whether the
	// player is fighting right now: the record's currentMatchId write is best
	// effort and may lag match creation or fail outright.
	if mm.registry.ForPlayer(playerID) != nil {
		return 0, ErrNotEligible
	}

	mm.mu.Lock()
	for _, e := range mm.queues[sessionID] {
		if e.PlayerID == playerID {
			mm.mu.Unlock()
			return 0, ErrAlreadyQueued
		}
	}
	entry := &QueueEntry{
		SessionID:      sessionID,
		PlayerID:       playerID,
		Channel:        ch,
		DisplayName:    rec.DisplayName,
		CharacterID:    rec.CharacterID,
		HP:             rec.HP,
		CombatStat:     rec.CombatStat,
		CorrectAnswers: rec.CorrectAnswers,
		DamageDealt:    rec.DamageDealt,
		DamageReceived: rec.DamageReceived,
		EnqueuedAt:     time.Now(),
	}
	mm.queues[sessionID] = append(mm.queues[sessionID], entry)
	position := len(mm.queues[sessionID])
	mm.mu.Unlock()

	inQueue := true
	noMatch := ""
	if err := mm.store.UpdatePlayer(ctx, sessionID, playerID, &model.PlayerPatch{
		InQueue:        &inQueue,
		CurrentMatchID: &noMatch,
	}); err != nil {
		log.Printf("queue: failed to flag %s in-queue: %v", playerID, err)
	}

	ch.Send(MsgQueueJoined, QueueJoinedPayload{Position: position})
	log.Printf("queue: %s entered session %s at position %d", playerID, sessionID, position)

	mm.TryPair(ctx, sessionID)
	return position, nil
}

// TryPair pops the two oldest entries while the session holds at least two
// and creates a match for each pair. Safe to invoke redundantly.
func (mm *Matchmaker) TryPair(ctx context.Context, sessionID string) {
	for {
		mm.mu.Lock()
		q := mm.queues[sessionID]
		if len(q) < 2 {
			mm.mu.Unlock()
			return
		}
		e1, e2 := q[0], q[1]
		mm.queues[sessionID] = q[2:]
		mm.mu.Unlock()

		// Match creation clears the inQueue flags via its own record patch;
		// it runs outside the queue lock so other sessions never contend.
		NewMatch(ctx, mm.cfg, mm.store, mm.events, mm.registry, sessionID, e1, e2)
	}
}

// Remove withdraws the player from the waitlist. Idempotent: a player who is
// not queued is a no-op.
func (mm *Matchmaker) Remove(ctx context.Context, sessionID, playerID string) {
	mm.mu.Lock()
	q := mm.queues[sessionID]
	var removed *QueueEntry
	for i, e := range q {
		if e.PlayerID == playerID {
			removed = e
			mm.queues[sessionID] = append(q[:i], q[i+1:]...)
			break
		}
	}
	mm.mu.Unlock()
	if removed == nil {
		return
	}

	inQueue := false
	if err := mm.store.UpdatePlayer(ctx, sessionID, playerID, &model.PlayerPatch{InQueue: &inQueue}); err != nil {
		log.Printf("queue: failed to clear in-queue flag for %s: %v", playerID, err)
	}
	removed.Channel.Send(MsgQueueLeft, QueueLeftPayload{PlayerID: playerID})
	log.Printf("queue: %s left session %s", playerID, sessionID)
}

// PositionOf returns the player's 1-based queue position, or false if they
// are not queued.
func (mm *Matchmaker) PositionOf(sessionID, playerID string) (int, bool) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	for i, e := range mm.queues[sessionID] {
		if e.PlayerID == playerID {
			return i + 1, true
		}
	}
	return 0, false
}

// Waiting returns how many players are queued for the session.
func (mm *Matchmaker) Waiting(sessionID string) int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.queues[sessionID])
}

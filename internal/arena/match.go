package arena

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizbrawl/internal/config"
	"quizbrawl/internal/model"
)

// ErrUnknownSpellKind is returned for a cast request naming a kind missing
// from the tuning table.
var ErrUnknownSpellKind = errors.New("unknown spell kind")

const storeTimeout = 5 * time.Second

// MatchPlayer is the per-side ephemeral combat state. hp is clamped at zero
// and never negative; position is clamped to the side's half of the arena on
// every update.
type MatchPlayer struct {
	PlayerID       string
	DisplayName    string
	CharacterID    string
	Channel        PlayerChannel
	HP             int
	CombatStat     int
	CorrectAnswers int
	DamageDealt    int
	DamageReceived int
	Position       model.Position
	Ready          bool
}

// Match owns one skirmish's full lifecycle from creation through the round
// loop to termination. All state mutations are serialized behind mu; matches
// for different ids run without contention on each other.
type Match struct {
	ID        string
	SessionID string

	cfg      config.Game
	store    TournamentStore
	events   Broadcaster
	registry *Registry

	mu     sync.Mutex
	status model.MatchStatus
	round  int
	p1     *MatchPlayer
	p2     *MatchPlayer
	spells []*model.Spell

	// timer is whichever deferred transition is pending (round deadline or
	// inter-round start). epoch is bumped on every arm and on completion so a
	// fire that lost the race can detect staleness and no-op.
	timer *time.Timer
	epoch uint64
}

// NewMatch creates a match from two queue entries, seeds both sides from
// their tournament records, registers the match and notifies both players.
func NewMatch(ctx context.Context, cfg config.Game, store TournamentStore, events Broadcaster, registry *Registry, sessionID string, e1, e2 *QueueEntry) *Match {
	m := &Match{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		cfg:       cfg,
		store:     store,
		events:    events,
		registry:  registry,
		status:    model.MatchWaiting,
		p1:        newMatchPlayer(ctx, store, cfg, sessionID, e1, model.SideOne),
		p2:        newMatchPlayer(ctx, store, cfg, sessionID, e2, model.SideTwo),
	}

	registry.register(m)

	for _, pid := range []string{e1.PlayerID, e2.PlayerID} {
		matchID := m.ID
		inQueue := false
		patch := &model.PlayerPatch{CurrentMatchID: &matchID, InQueue: &inQueue}
		if err := store.UpdatePlayer(ctx, sessionID, pid, patch); err != nil {
			log.Printf("match %s: failed to mark player %s in-match: %v", m.ID, pid, err)
		}
	}

	m.p1.Channel.Send(MsgMatchFound, MatchFoundPayload{
		MatchID: m.ID, Side: model.SideOne, Opponent: opponentInfo(m.p2),
	})
	m.p2.Channel.Send(MsgMatchFound, MatchFoundPayload{
		MatchID: m.ID, Side: model.SideTwo, Opponent: opponentInfo(m.p1),
	})

	log.Printf("match %s created: %s vs %s (session %s)", m.ID, e1.PlayerID, e2.PlayerID, sessionID)
	return m
}

// newMatchPlayer builds one side from a queue entry, preferring the fresh
// tournament record over the snapshot taken at enqueue time.
func newMatchPlayer(ctx context.Context, store TournamentStore, cfg config.Game, sessionID string, e *QueueEntry, side model.Side) *MatchPlayer {
	mp := &MatchPlayer{
		PlayerID:       e.PlayerID,
		DisplayName:    e.DisplayName,
		CharacterID:    e.CharacterID,
		Channel:        e.Channel,
		HP:             e.HP,
		CombatStat:     e.CombatStat,
		CorrectAnswers: e.CorrectAnswers,
		DamageDealt:    e.DamageDealt,
		DamageReceived: e.DamageReceived,
		Position:       spawnPosition(cfg, side),
	}
	if rec, err := store.GetPlayer(ctx, sessionID, e.PlayerID); err == nil && rec != nil {
		mp.HP = rec.HP
		mp.CombatStat = rec.CombatStat
		mp.CorrectAnswers = rec.CorrectAnswers
		mp.DamageDealt = rec.DamageDealt
		mp.DamageReceived = rec.DamageReceived
	}
	if mp.HP <= 0 {
		mp.HP = cfg.StartingHP
	}
	return mp
}

func spawnPosition(cfg config.Game, side model.Side) model.Position {
	x := cfg.ArenaWidth / 4
	if side == model.SideTwo {
		x = cfg.ArenaWidth * 3 / 4
	}
	return model.Position{X: x, Y: cfg.ArenaHeight / 2}
}

func opponentInfo(p *MatchPlayer) OpponentInfo {
	return OpponentInfo{
		PlayerID:    p.PlayerID,
		DisplayName: p.DisplayName,
		CharacterID: p.CharacterID,
		HP:          p.HP,
		CombatStat:  p.CombatStat,
	}
}

// player returns the side's state. Sides are a closed two-variant set, so any
// non-SideOne value maps to player two.
func (m *Match) player(side model.Side) *MatchPlayer {
	if side == model.SideOne {
		return m.p1
	}
	return m.p2
}

// SideOf returns which side the player fights on.
func (m *Match) SideOf(playerID string) (model.Side, bool) {
	switch playerID {
	case m.p1.PlayerID:
		return model.SideOne, true
	case m.p2.PlayerID:
		return model.SideTwo, true
	}
	return "", false
}

// Status returns the current lifecycle status.
func (m *Match) Status() model.MatchStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Round returns the current round counter.
func (m *Match) Round() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.round
}

// SetReady marks a side ready for the next round. When both sides are ready
// while the match is waiting, the round starts.
func (m *Match) SetReady(side model.Side) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != model.MatchWaiting {
		return
	}
	m.player(side).Ready = true
	if m.p1.Ready && m.p2.Ready {
		m.startRoundLocked()
	}
}

func (m *Match) startRoundLocked() {
	m.round++
	m.status = model.MatchActive
	m.p1.Ready = false
	m.p2.Ready = false
	m.spells = nil
	m.armTimerLocked(m.cfg.RoundDuration, m.endRound)

	m.sendBothLocked(MsgRoundStart, RoundStartPayload{
		Round:      m.round,
		DurationMs: m.cfg.RoundDuration.Milliseconds(),
		Player1HP:  m.p1.HP,
		Player2HP:  m.p2.HP,
	})
	log.Printf("match %s: round %d started", m.ID, m.round)
}

// Move validates and stores a client-reported position. The position is
// clamped to the mover's half of the arena and relayed to the opponent only.
func (m *Match) Move(side model.Side, pos model.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != model.MatchActive {
		return
	}
	p := m.player(side)
	p.Position = m.clampPosition(side, pos)
	m.player(side.Opponent()).Channel.Send(MsgOpponentMove, OpponentMovePayload{
		Side:     side,
		Position: p.Position,
	})
}

// clampPosition bounds pos to the side's assigned half. This is a sanity
// bound, not collision validation.
func (m *Match) clampPosition(side model.Side, pos model.Position) model.Position {
	half := m.cfg.ArenaWidth / 2
	minX, maxX := 0.0, half
	if side == model.SideTwo {
		minX, maxX = half, m.cfg.ArenaWidth
	}
	return model.Position{
		X: math.Min(math.Max(pos.X, minX), maxX),
		Y: math.Min(math.Max(pos.Y, 0), m.cfg.ArenaHeight),
	}
}

// CastSpell resolves a cast request into an active spell and announces it to
// both sides. Damage scales the caster's combat stat by the kind's
// multiplier, floor-rounded.
func (m *Match) CastSpell(side model.Side, kind string, direction model.Position) (*model.Spell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != model.MatchActive {
		return nil, nil
	}
	spec, ok := m.cfg.Spells[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpellKind, kind)
	}

	caster := m.player(side)
	dir := normalize(direction, side)
	spell := &model.Spell{
		ID:   uuid.NewString(),
		Kind: model.SpellKind(kind),
		Start: model.Position{
			X: caster.Position.X + dir.X*m.cfg.CastOffset,
			Y: caster.Position.Y + dir.Y*m.cfg.CastOffset,
		},
		Target:    m.player(side.Opponent()).Position,
		Direction: dir,
		Damage:    int(math.Floor(float64(caster.CombatStat) * spec.Multiplier)),
		Speed:     spec.Speed,
		Owner:     side,
		OwnerID:   caster.PlayerID,
		CreatedAt: time.Now(),
	}
	m.spells = append(m.spells, spell)
	m.sendBothLocked(MsgSpellCast, spell)
	return spell, nil
}

// normalize scales direction to unit length. A zero vector degrades to
// straight at the opponent.
func normalize(d model.Position, side model.Side) model.Position {
	length := math.Hypot(d.X, d.Y)
	if length == 0 {
		if side == model.SideOne {
			return model.Position{X: 1}
		}
		return model.Position{X: -1}
	}
	return model.Position{X: d.X / length, Y: d.Y / length}
}

// ReportHit consumes a spell and applies its damage to the target. It is
// idempotent per spell id: an unknown or already-consumed id is a no-op. An
// elimination ends the match immediately, pre-empting any pending round
// deadline.
func (m *Match) ReportHit(spellID string, target model.Side) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != model.MatchActive {
		return
	}
	spell := m.takeSpellLocked(spellID)
	if spell == nil {
		return
	}

	tgt := m.player(target)
	tgt.HP -= spell.Damage
	if tgt.HP < 0 {
		tgt.HP = 0
	}
	m.player(spell.Owner).DamageDealt += spell.Damage
	tgt.DamageReceived += spell.Damage

	m.sendBothLocked(MsgSpellHit, SpellHitPayload{
		SpellID:     spellID,
		Target:      target,
		Damage:      spell.Damage,
		RemainingHP: tgt.HP,
		Player1HP:   m.p1.HP,
		Player2HP:   m.p2.HP,
	})

	if tgt.HP == 0 {
		m.endMatchLocked(target.Opponent())
	}
}

// takeSpellLocked removes and returns the spell with the given id, or nil.
func (m *Match) takeSpellLocked(spellID string) *model.Spell {
	for i, s := range m.spells {
		if s.ID == spellID {
			m.spells = append(m.spells[:i], m.spells[i+1:]...)
			return s
		}
	}
	return nil
}

// endRound fires at the round deadline. A stale fire (the match ended first,
// or the round already ended through another path) is a no-op.
func (m *Match) endRound(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch || m.status != model.MatchActive {
		return
	}
	m.timer = nil
	m.status = model.MatchWaiting

	m.sendBothLocked(MsgRoundEnd, RoundEndPayload{
		Round:     m.round,
		Player1HP: m.p1.HP,
		Player2HP: m.p2.HP,
	})

	if m.p1.HP > 0 && m.p2.HP > 0 {
		m.armTimerLocked(m.cfg.InterRoundDelay, m.startDeferredRound)
		return
	}
	m.endMatchLocked(m.pickWinnerLocked())
}

// startDeferredRound fires after the inter-round delay. Stale fires (match
// completed, or a round already started via both sides readying up) no-op.
func (m *Match) startDeferredRound(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch || m.status != model.MatchWaiting {
		return
	}
	m.startRoundLocked()
}

// pickWinnerLocked resolves the end-of-round winner when at least one side is
// out of hp. On a double zero the heavier hitter wins, player one on a true
// tie.
func (m *Match) pickWinnerLocked() model.Side {
	switch {
	case m.p1.HP > 0:
		return model.SideOne
	case m.p2.HP > 0:
		return model.SideTwo
	case m.p2.DamageDealt > m.p1.DamageDealt:
		return model.SideTwo
	default:
		return model.SideOne
	}
}

// HandleDisconnect forfeits the match to the remaining side.
func (m *Match) HandleDisconnect(side model.Side) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == model.MatchCompleted {
		return
	}
	log.Printf("match %s: %s disconnected, forfeit", m.ID, m.player(side).PlayerID)
	m.endMatchLocked(side.Opponent())
}

// endMatchLocked terminates the match: writes both tournament records back,
// persists result records (best effort), broadcasts the summary, deregisters
// the match and evaluates tournament continuation.
func (m *Match) endMatchLocked(winner model.Side) {
	if m.status == model.MatchCompleted {
		return
	}
	m.status = model.MatchCompleted
	m.epoch++ // invalidate any pending timer fire
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	win := m.player(winner)
	lose := m.player(winner.Opponent())
	lose.HP = 0

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	noMatch := ""
	if err := m.store.UpdatePlayer(ctx, m.SessionID, win.PlayerID, &model.PlayerPatch{
		HP:             &win.HP,
		CurrentMatchID: &noMatch,
		DamageDealt:    &win.DamageDealt,
		DamageReceived: &win.DamageReceived,
	}); err != nil {
		log.Printf("match %s: failed to update winner record: %v", m.ID, err)
	}
	eliminated := true
	if err := m.store.UpdatePlayer(ctx, m.SessionID, lose.PlayerID, &model.PlayerPatch{
		HP:             &lose.HP,
		Eliminated:     &eliminated,
		CurrentMatchID: &noMatch,
		DamageDealt:    &lose.DamageDealt,
		DamageReceived: &lose.DamageReceived,
	}); err != nil {
		log.Printf("match %s: failed to update loser record: %v", m.ID, err)
	}

	now := time.Now()
	if err := m.store.PersistMatchResult(ctx, m.SessionID,
		m.resultLocked(win, lose, 1, now),
		m.resultLocked(lose, win, 2, now),
	); err != nil {
		log.Printf("match %s: failed to persist result: %v", m.ID, err)
	}

	m.sendBothLocked(MsgMatchEnd, MatchEndPayload{
		MatchID: m.ID,
		Winner:  winner,
		Results: map[model.Side]SideResult{
			winner: {
				PlayerID:       win.PlayerID,
				HP:             win.HP,
				Place:          1,
				CorrectAnswers: win.CorrectAnswers,
				DamageDealt:    win.DamageDealt,
				DamageReceived: win.DamageReceived,
			},
			winner.Opponent(): {
				PlayerID:       lose.PlayerID,
				HP:             lose.HP,
				Place:          2,
				CorrectAnswers: lose.CorrectAnswers,
				DamageDealt:    lose.DamageDealt,
				DamageReceived: lose.DamageReceived,
			},
		},
	})

	m.registry.deregister(m)
	log.Printf("match %s: completed after %d rounds, winner %s", m.ID, m.round, win.PlayerID)

	remaining, err := m.store.CountRemainingActive(ctx, m.SessionID)
	if err != nil {
		log.Printf("match %s: failed to count remaining players: %v", m.ID, err)
		return
	}
	if remaining == 1 {
		payload := TournamentEndPayload{SessionID: m.SessionID}
		payload.Winner.PlayerID = win.PlayerID
		payload.Winner.DisplayName = win.DisplayName
		payload.Winner.HP = win.HP
		payload.Winner.CorrectAnswers = win.CorrectAnswers
		payload.Winner.DamageDealt = win.DamageDealt
		m.events.BroadcastToSession(m.SessionID, MsgTournamentEnd, payload)
		if err := m.store.MarkSessionCompleted(ctx, m.SessionID, win.PlayerID); err != nil {
			log.Printf("match %s: failed to mark session completed: %v", m.ID, err)
		}
		log.Printf("session %s: tournament won by %s", m.SessionID, win.PlayerID)
	}
	// More than one player left: the winner may re-enter the queue on their
	// own; eligibility is gated by the queue itself.
}

func (m *Match) resultLocked(p, opp *MatchPlayer, place int, endedAt time.Time) *model.MatchResult {
	return &model.MatchResult{
		MatchID:        m.ID,
		SessionID:      m.SessionID,
		PlayerID:       p.PlayerID,
		OpponentID:     opp.PlayerID,
		Place:          place,
		HP:             p.HP,
		CorrectAnswers: p.CorrectAnswers,
		DamageDealt:    p.DamageDealt,
		DamageReceived: p.DamageReceived,
		Rounds:         m.round,
		EndedAt:        endedAt,
	}
}

// armTimerLocked replaces the pending deferred transition. The new epoch
// invalidates any earlier timer that slips past Stop.
func (m *Match) armTimerLocked(d time.Duration, fn func(epoch uint64)) {
	m.epoch++
	epoch := m.epoch
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(d, func() { fn(epoch) })
}

// sendBothLocked pushes the same event to both sides, best effort.
func (m *Match) sendBothLocked(msgType string, payload interface{}) {
	m.p1.Channel.Send(msgType, payload)
	m.p2.Channel.Send(msgType, payload)
}

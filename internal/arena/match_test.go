package arena

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbrawl/internal/model"
)

func TestRoundStartsWhenBothReady(t *testing.T) {
	store := newFakeStore()
	m, _, ch1, ch2 := startTestMatch(testGame(), store, &fakeBroadcaster{})

	require.Equal(t, model.MatchActive, m.Status())
	require.Equal(t, 1, m.Round())

	payload, ok := ch1.last(MsgRoundStart).(RoundStartPayload)
	require.True(t, ok)
	assert.Equal(t, 1, payload.Round)
	assert.Equal(t, 200, payload.Player1HP)
	assert.Equal(t, 200, payload.Player2HP)
	assert.Equal(t, 1, ch2.count(MsgRoundStart))
}

func TestReadyIgnoredWhileActive(t *testing.T) {
	store := newFakeStore()
	m, _, _, _ := startTestMatch(testGame(), store, &fakeBroadcaster{})

	m.SetReady(model.SideOne)
	m.SetReady(model.SideTwo)
	assert.Equal(t, 1, m.Round(), "readying mid-round must not start another round")
}

func TestMoveClampsToOwnHalf(t *testing.T) {
	store := newFakeStore()
	m, _, _, _ := startTestMatch(testGame(), store, &fakeBroadcaster{})

	m.Move(model.SideOne, model.Position{X: -50, Y: 700})
	assert.Equal(t, model.Position{X: 0, Y: 600}, m.p1.Position)

	m.Move(model.SideTwo, model.Position{X: 900, Y: -10})
	assert.Equal(t, model.Position{X: 800, Y: 0}, m.p2.Position)

	// Each side is fenced at the arena midline.
	m.Move(model.SideOne, model.Position{X: 500, Y: 300})
	assert.Equal(t, model.Position{X: 400, Y: 300}, m.p1.Position)
	m.Move(model.SideTwo, model.Position{X: 100, Y: 300})
	assert.Equal(t, model.Position{X: 400, Y: 300}, m.p2.Position)
}

func TestMoveRelayedToOpponentOnly(t *testing.T) {
	store := newFakeStore()
	m, _, ch1, ch2 := startTestMatch(testGame(), store, &fakeBroadcaster{})

	m.Move(model.SideOne, model.Position{X: 120, Y: 80})

	require.Equal(t, 1, ch2.count(MsgOpponentMove))
	assert.Equal(t, 0, ch1.count(MsgOpponentMove), "mover must not get an echo")

	payload := ch2.last(MsgOpponentMove).(OpponentMovePayload)
	assert.Equal(t, model.SideOne, payload.Side)
	assert.Equal(t, model.Position{X: 120, Y: 80}, payload.Position)
}

func TestMoveIgnoredBetweenRounds(t *testing.T) {
	store := newFakeStore()
	m, _, _, ch2 := startTestMatch(testGame(), store, &fakeBroadcaster{})

	m.endRound(currentEpoch(m))
	require.Equal(t, model.MatchWaiting, m.Status())

	before := m.p1.Position
	m.Move(model.SideOne, model.Position{X: 42, Y: 42})
	assert.Equal(t, before, m.p1.Position)
	assert.Equal(t, 0, ch2.count(MsgOpponentMove))
}

func TestCastSpellDamageTable(t *testing.T) {
	store := newFakeStore()
	m, _, ch1, ch2 := startTestMatch(testGame(), store, &fakeBroadcaster{})

	// Baseline kind: multiplier 1.0 on combat stat 25.
	spell, err := m.CastSpell(model.SideOne, "fireball", model.Position{X: 1})
	require.NoError(t, err)
	require.NotNil(t, spell)
	assert.Equal(t, 25, spell.Damage)
	assert.Equal(t, model.SideOne, spell.Owner)
	assert.Equal(t, "alice", spell.OwnerID)

	// Alternate kind: 1.5x floor-rounded. Stat 25 -> 37, never 38.
	spell, err = m.CastSpell(model.SideOne, "lightning", model.Position{X: 1})
	require.NoError(t, err)
	assert.Equal(t, 37, spell.Damage)

	// Stat 15 -> floor(22.5) = 22.
	spell, err = m.CastSpell(model.SideTwo, "lightning", model.Position{X: -1})
	require.NoError(t, err)
	assert.Equal(t, 22, spell.Damage)

	assert.Equal(t, 3, ch1.count(MsgSpellCast))
	assert.Equal(t, 3, ch2.count(MsgSpellCast))
}

func TestCastSpellOffsetAndSnapshot(t *testing.T) {
	store := newFakeStore()
	m, _, _, _ := startTestMatch(testGame(), store, &fakeBroadcaster{})

	m.Move(model.SideOne, model.Position{X: 100, Y: 300})
	m.Move(model.SideTwo, model.Position{X: 700, Y: 200})

	spell, err := m.CastSpell(model.SideOne, "fireball", model.Position{X: 1, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, model.Position{X: 140, Y: 300}, spell.Start, "spell spawns offset from the caster")
	assert.Equal(t, model.Position{X: 700, Y: 200}, spell.Target, "target is the opponent position at cast time")
}

func TestCastSpellUnknownKind(t *testing.T) {
	store := newFakeStore()
	m, _, _, _ := startTestMatch(testGame(), store, &fakeBroadcaster{})

	_, err := m.CastSpell(model.SideOne, "meteor", model.Position{X: 1})
	require.ErrorIs(t, err, ErrUnknownSpellKind)
}

func TestCastSpellIgnoredWhenNotActive(t *testing.T) {
	store := newFakeStore()
	m, _, ch1, _ := startTestMatch(testGame(), store, &fakeBroadcaster{})

	m.endRound(currentEpoch(m))
	casts := ch1.count(MsgSpellCast)

	spell, err := m.CastSpell(model.SideOne, "fireball", model.Position{X: 1})
	require.NoError(t, err)
	assert.Nil(t, spell)
	assert.Equal(t, casts, ch1.count(MsgSpellCast))
}

func TestReportHitAppliesDamage(t *testing.T) {
	store := newFakeStore()
	m, _, ch1, ch2 := startTestMatch(testGame(), store, &fakeBroadcaster{})

	spell, err := m.CastSpell(model.SideOne, "fireball", model.Position{X: 1})
	require.NoError(t, err)

	m.ReportHit(spell.ID, model.SideTwo)

	assert.Equal(t, 175, m.p2.HP)
	assert.Equal(t, 25, m.p1.DamageDealt)
	assert.Equal(t, 25, m.p2.DamageReceived)

	payload, ok := ch1.last(MsgSpellHit).(SpellHitPayload)
	require.True(t, ok)
	assert.Equal(t, 200, payload.Player1HP)
	assert.Equal(t, 175, payload.Player2HP)
	assert.Equal(t, 175, payload.RemainingHP)
	assert.Equal(t, 25, payload.Damage)
	assert.Equal(t, 1, ch2.count(MsgSpellHit))
}

func TestReportHitIdempotent(t *testing.T) {
	store := newFakeStore()
	m, _, ch1, _ := startTestMatch(testGame(), store, &fakeBroadcaster{})

	spell, err := m.CastSpell(model.SideOne, "fireball", model.Position{X: 1})
	require.NoError(t, err)

	m.ReportHit(spell.ID, model.SideTwo)
	m.ReportHit(spell.ID, model.SideTwo)

	assert.Equal(t, 175, m.p2.HP, "a second report for the same spell must not apply damage")
	assert.Equal(t, 1, ch1.count(MsgSpellHit))

	m.ReportHit("no-such-spell", model.SideTwo)
	assert.Equal(t, 175, m.p2.HP)
}

func TestHPClampedAtZero(t *testing.T) {
	store := newFakeStore()
	cfg := testGame()
	b := &fakeBroadcaster{}
	reg := NewRegistry()
	ch1, ch2 := &fakeChannel{}, &fakeChannel{}
	seedPlayer(store, "sess", "alice", 500)
	seedPlayer(store, "sess", "bob", 15)
	m := NewMatch(context.Background(), cfg, store, b, reg, "sess",
		entryFor(store, "sess", "alice", ch1),
		entryFor(store, "sess", "bob", ch2))
	m.SetReady(model.SideOne)
	m.SetReady(model.SideTwo)

	spell, err := m.CastSpell(model.SideOne, "fireball", model.Position{X: 1})
	require.NoError(t, err)
	m.ReportHit(spell.ID, model.SideTwo)

	assert.Equal(t, 0, m.p2.HP, "hp is clamped at zero, never negative")
	assert.Equal(t, model.MatchCompleted, m.Status())
}

func TestEliminationEndsMatchAndStaleTimerIsNoop(t *testing.T) {
	store := newFakeStore()
	m, reg, ch1, _ := startTestMatch(testGame(), store, &fakeBroadcaster{})

	roundEpoch := currentEpoch(m)

	// Burn player two down to zero.
	for m.p2.HP > 0 {
		spell, err := m.CastSpell(model.SideOne, "fireball", model.Position{X: 1})
		require.NoError(t, err)
		m.ReportHit(spell.ID, model.SideTwo)
	}

	require.Equal(t, model.MatchCompleted, m.Status())
	require.Equal(t, 1, ch1.count(MsgMatchEnd))
	assert.Nil(t, reg.Get(m.ID), "completed match must be deregistered")

	// The round deadline that was armed for this round fires late.
	ends := ch1.count(MsgRoundEnd)
	m.endRound(roundEpoch)
	assert.Equal(t, model.MatchCompleted, m.Status())
	assert.Equal(t, ends, ch1.count(MsgRoundEnd), "stale timer must not broadcast")
	assert.Equal(t, 1, ch1.count(MsgMatchEnd), "stale timer must not double-complete")
}

func TestMatchEndWritesTournamentRecords(t *testing.T) {
	store := newFakeStore()
	m, _, ch1, _ := startTestMatch(testGame(), store, &fakeBroadcaster{})

	for m.p2.HP > 0 {
		spell, err := m.CastSpell(model.SideOne, "fireball", model.Position{X: 1})
		require.NoError(t, err)
		m.ReportHit(spell.ID, model.SideTwo)
	}

	winner := store.get("sess", "alice")
	loser := store.get("sess", "bob")
	assert.Equal(t, 200, winner.HP)
	assert.False(t, winner.Eliminated)
	assert.Empty(t, winner.CurrentMatchID)
	assert.Equal(t, 200, winner.DamageDealt)

	assert.Equal(t, 0, loser.HP)
	assert.True(t, loser.Eliminated)
	assert.Empty(t, loser.CurrentMatchID)
	assert.Equal(t, 200, loser.DamageReceived)

	require.Len(t, store.results, 2)
	assert.Equal(t, 1, store.results[0].Place)
	assert.Equal(t, "alice", store.results[0].PlayerID)
	assert.Equal(t, 2, store.results[1].Place)
	assert.Equal(t, "bob", store.results[1].PlayerID)

	payload, ok := ch1.last(MsgMatchEnd).(MatchEndPayload)
	require.True(t, ok)
	assert.Equal(t, model.SideOne, payload.Winner)
	assert.Equal(t, 1, payload.Results[model.SideOne].Place)
	assert.Equal(t, 2, payload.Results[model.SideTwo].Place)
}

func TestTournamentEndsWhenOneRemains(t *testing.T) {
	store := newFakeStore()
	b := &fakeBroadcaster{}
	m, _, _, _ := startTestMatch(testGame(), store, b)

	// Only alice and bob are in the session, so eliminating bob leaves one.
	for m.p2.HP > 0 {
		spell, err := m.CastSpell(model.SideOne, "fireball", model.Position{X: 1})
		require.NoError(t, err)
		m.ReportHit(spell.ID, model.SideTwo)
	}

	require.Equal(t, 1, b.count(MsgTournamentEnd))
	assert.Equal(t, "alice", store.completed["sess"])
}

func TestTournamentContinuesWhileOthersRemain(t *testing.T) {
	store := newFakeStore()
	b := &fakeBroadcaster{}
	seedPlayer(store, "sess", "carol", 10)
	m, _, _, _ := startTestMatch(testGame(), store, b)

	for m.p2.HP > 0 {
		spell, err := m.CastSpell(model.SideOne, "fireball", model.Position{X: 1})
		require.NoError(t, err)
		m.ReportHit(spell.ID, model.SideTwo)
	}

	assert.Equal(t, 0, b.count(MsgTournamentEnd))
	_, ok := store.completed["sess"]
	assert.False(t, ok)
}

func TestDisconnectForfeitsToOpponent(t *testing.T) {
	store := newFakeStore()
	m, reg, _, ch2 := startTestMatch(testGame(), store, &fakeBroadcaster{})

	m.HandleDisconnect(model.SideOne)

	require.Equal(t, model.MatchCompleted, m.Status())
	assert.Nil(t, reg.ForPlayer("alice"))

	quitter := store.get("sess", "alice")
	assert.True(t, quitter.Eliminated)
	assert.Equal(t, 0, quitter.HP)

	payload, ok := ch2.last(MsgMatchEnd).(MatchEndPayload)
	require.True(t, ok)
	assert.Equal(t, model.SideTwo, payload.Winner)

	// Disconnect on a completed match is a no-op.
	m.HandleDisconnect(model.SideTwo)
	assert.Equal(t, 1, ch2.count(MsgMatchEnd))
}

func TestRoundDeadlineEntersWaitingAndSchedulesNextRound(t *testing.T) {
	store := newFakeStore()
	cfg := testGame()
	cfg.RoundDuration = 30 * time.Millisecond
	cfg.InterRoundDelay = 30 * time.Millisecond
	m, _, ch1, _ := startTestMatch(cfg, store, &fakeBroadcaster{})

	require.Eventually(t, func() bool {
		return ch1.count(MsgRoundEnd) >= 1
	}, time.Second, 5*time.Millisecond, "round deadline should fire")

	require.Eventually(t, func() bool {
		return m.Round() >= 2
	}, time.Second, 5*time.Millisecond, "next round should start after the inter-round delay")
}

func TestEndRoundEliminationSkipsNextRound(t *testing.T) {
	store := newFakeStore()
	m, _, ch1, _ := startTestMatch(testGame(), store, &fakeBroadcaster{})

	// Damage without elimination, then let the deadline decide.
	spell, err := m.CastSpell(model.SideTwo, "fireball", model.Position{X: -1})
	require.NoError(t, err)
	m.ReportHit(spell.ID, model.SideOne)
	require.Equal(t, 185, m.p1.HP)

	m.p2.HP = 0 // simulate the last hit of the round landing at the buzzer
	m.endRound(currentEpoch(m))

	require.Equal(t, model.MatchCompleted, m.Status())
	payload := ch1.last(MsgMatchEnd).(MatchEndPayload)
	assert.Equal(t, model.SideOne, payload.Winner)
	assert.Equal(t, 1, ch1.count(MsgRoundEnd))
}

func TestMatchEndCancelsPendingNextRound(t *testing.T) {
	store := newFakeStore()
	m, _, ch1, _ := startTestMatch(testGame(), store, &fakeBroadcaster{})

	// The deadline passes with both sides alive: the match sits in Waiting
	// with the next round armed.
	m.endRound(currentEpoch(m))
	require.Equal(t, model.MatchWaiting, m.Status())
	deferredEpoch := currentEpoch(m)

	m.HandleDisconnect(model.SideTwo)
	require.Equal(t, model.MatchCompleted, m.Status())

	// The armed inter-round timer fires after the forfeit.
	starts := ch1.count(MsgRoundStart)
	m.startDeferredRound(deferredEpoch)
	assert.Equal(t, 1, m.Round(), "no ghost round may start in a completed match")
	assert.Equal(t, starts, ch1.count(MsgRoundStart))
}

func TestDoubleZeroTieBreak(t *testing.T) {
	store := newFakeStore()
	m, _, ch1, _ := startTestMatch(testGame(), store, &fakeBroadcaster{})

	m.p1.HP = 0
	m.p2.HP = 0
	m.p2.DamageDealt = 50
	m.p1.DamageDealt = 30
	m.endRound(currentEpoch(m))

	payload := ch1.last(MsgMatchEnd).(MatchEndPayload)
	assert.Equal(t, model.SideTwo, payload.Winner, "heavier hitter wins a double zero")
}

func TestMatchSeedsFromTournamentRecord(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry()
	ch1, ch2 := &fakeChannel{}, &fakeChannel{}
	seedPlayer(store, "sess", "alice", 25)
	seedPlayer(store, "sess", "bob", 15)

	// The record moved on after the snapshot was taken at enqueue time.
	e1 := entryFor(store, "sess", "alice", ch1)
	hp := 120
	stat := 40
	require.NoError(t, store.UpdatePlayer(context.Background(), "sess", "alice", &model.PlayerPatch{HP: &hp, CombatStat: &stat}))

	m := NewMatch(context.Background(), testGame(), store, &fakeBroadcaster{}, reg, "sess",
		e1, entryFor(store, "sess", "bob", ch2))

	assert.Equal(t, 120, m.p1.HP)
	assert.Equal(t, 40, m.p1.CombatStat)

	rec := store.get("sess", "alice")
	assert.Equal(t, m.ID, rec.CurrentMatchID)
	assert.False(t, rec.InQueue)

	payload, ok := ch1.last(MsgMatchFound).(MatchFoundPayload)
	require.True(t, ok)
	assert.Equal(t, model.SideOne, payload.Side)
	assert.Equal(t, "bob", payload.Opponent.PlayerID)
}

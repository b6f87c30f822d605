package arena

import (
	"context"
	"sync"
	"time"

	"quizbrawl/internal/config"
	"quizbrawl/internal/model"
)

// fakeChannel records everything pushed to one player.
type fakeChannel struct {
	mu     sync.Mutex
	msgs   []sentMsg
	closed bool
}

type sentMsg struct {
	Type    string
	Payload interface{}
}

func (c *fakeChannel) Send(msgType string, payload interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.msgs = append(c.msgs, sentMsg{Type: msgType, Payload: payload})
	return true
}

func (c *fakeChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *fakeChannel) count(msgType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func (c *fakeChannel) last(msgType string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if c.msgs[i].Type == msgType {
			return c.msgs[i].Payload
		}
	}
	return nil
}

// fakeStore is an in-memory TournamentStore.
type fakeStore struct {
	mu        sync.Mutex
	players   map[string]*model.TournamentPlayer // sessionID+"/"+playerID
	results   []*model.MatchResult
	completed map[string]string // sessionID -> winnerID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:   make(map[string]*model.TournamentPlayer),
		completed: make(map[string]string),
	}
}

func (s *fakeStore) put(p *model.TournamentPlayer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.players[p.SessionID+"/"+p.PlayerID] = &cp
}

func (s *fakeStore) get(sessionID, playerID string) model.TournamentPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.players[sessionID+"/"+playerID]
}

func (s *fakeStore) GetPlayer(_ context.Context, sessionID, playerID string) (*model.TournamentPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[sessionID+"/"+playerID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) UpdatePlayer(_ context.Context, sessionID, playerID string, patch *model.PlayerPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[sessionID+"/"+playerID]; ok {
		patch.Apply(p)
	}
	return nil
}

func (s *fakeStore) PersistMatchResult(_ context.Context, _ string, winner, loser *model.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, winner, loser)
	return nil
}

func (s *fakeStore) MarkSessionCompleted(_ context.Context, sessionID, winnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[sessionID] = winnerID
	return nil
}

func (s *fakeStore) CountRemainingActive(_ context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.players {
		if p.SessionID == sessionID && !p.Eliminated {
			n++
		}
	}
	return n, nil
}

// fakeBroadcaster records session-wide events.
type fakeBroadcaster struct {
	mu   sync.Mutex
	msgs []sentMsg
}

func (b *fakeBroadcaster) BroadcastToSession(_ string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, sentMsg{Type: msgType, Payload: payload})
}

func (b *fakeBroadcaster) count(msgType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.msgs {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func testGame() config.Game {
	g := config.DefaultGame()
	// Keep the real timers out of the way unless a test arms them on purpose.
	g.RoundDuration = time.Hour
	g.InterRoundDelay = time.Hour
	return g
}

func seedPlayer(s *fakeStore, sessionID, playerID string, stat int) {
	s.put(&model.TournamentPlayer{
		SessionID:      sessionID,
		PlayerID:       playerID,
		DisplayName:    "player " + playerID,
		CharacterID:    "wizard",
		HP:             200,
		CombatStat:     stat,
		CorrectAnswers: stat / 5,
		JoinedAt:       time.Now(),
	})
}

func entryFor(s *fakeStore, sessionID, playerID string, ch PlayerChannel) *QueueEntry {
	rec := s.get(sessionID, playerID)
	return &QueueEntry{
		SessionID:      sessionID,
		PlayerID:       playerID,
		Channel:        ch,
		DisplayName:    rec.DisplayName,
		CharacterID:    rec.CharacterID,
		HP:             rec.HP,
		CombatStat:     rec.CombatStat,
		CorrectAnswers: rec.CorrectAnswers,
		EnqueuedAt:     time.Now(),
	}
}

// startTestMatch creates a two-player match and readies both sides into the
// first active round.
func startTestMatch(cfg config.Game, s *fakeStore, b *fakeBroadcaster) (*Match, *Registry, *fakeChannel, *fakeChannel) {
	reg := NewRegistry()
	ch1 := &fakeChannel{}
	ch2 := &fakeChannel{}
	seedPlayer(s, "sess", "alice", 25)
	seedPlayer(s, "sess", "bob", 15)
	m := NewMatch(context.Background(), cfg, s, b, reg, "sess",
		entryFor(s, "sess", "alice", ch1),
		entryFor(s, "sess", "bob", ch2))
	m.SetReady(model.SideOne)
	m.SetReady(model.SideTwo)
	return m, reg, ch1, ch2
}

func currentEpoch(m *Match) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

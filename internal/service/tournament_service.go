package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"quizbrawl/internal/cache"
	"quizbrawl/internal/config"
	"quizbrawl/internal/model"
	"quizbrawl/internal/repository"
)

// TournamentService owns tournament player records. Redis is the primary
// copy consulted by matchmaking and the match engine; MongoDB is written
// behind it best effort. It implements arena.TournamentStore.
type TournamentService struct {
	game         config.Game
	playerCache  cache.PlayerCache
	playerRepo   repository.PlayerRepo
	resultRepo   repository.ResultRepo
	sessionRepo  repository.SessionRepo
	sessionCache cache.SessionCache
	leaderboard  cache.LeaderboardCache
}

// NewTournamentService creates a new tournament service
func NewTournamentService(
	game config.Game,
	playerCache cache.PlayerCache,
	playerRepo repository.PlayerRepo,
	resultRepo repository.ResultRepo,
	sessionRepo repository.SessionRepo,
	sessionCache cache.SessionCache,
	leaderboard cache.LeaderboardCache,
) *TournamentService {
	return &TournamentService{
		game:         game,
		playerCache:  playerCache,
		playerRepo:   playerRepo,
		resultRepo:   resultRepo,
		sessionRepo:  sessionRepo,
		sessionCache: sessionCache,
		leaderboard:  leaderboard,
	}
}

// JoinSession registers a new participant with full starting HP. The combat
// stat starts at zero until the quiz phase reports results.
func (s *TournamentService) JoinSession(ctx context.Context, sessionID, displayName, characterID string) (*model.TournamentPlayer, error) {
	session, err := s.sessionCache.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		session, err = s.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
	}
	if session == nil {
		return nil, fmt.Errorf("session not found")
	}
	if session.Status == model.SessionCompleted {
		return nil, fmt.Errorf("session already completed")
	}

	player := &model.TournamentPlayer{
		SessionID:   sessionID,
		PlayerID:    "p_" + uuid.New().String()[:8],
		DisplayName: displayName,
		CharacterID: characterID,
		HP:          s.game.StartingHP,
		JoinedAt:    time.Now(),
	}
	if err := s.playerCache.SetPlayer(ctx, sessionID, player); err != nil {
		return nil, fmt.Errorf("failed to cache player: %w", err)
	}
	if err := s.playerRepo.Upsert(ctx, player); err != nil {
		log.Printf("tournament: failed to persist player %s: %v", player.PlayerID, err)
	}
	return player, nil
}

// RecordQuizResult converts quiz answers into the player's combat stat.
func (s *TournamentService) RecordQuizResult(ctx context.Context, sessionID, playerID string, correctAnswers int) (*model.TournamentPlayer, error) {
	if correctAnswers < 0 {
		return nil, fmt.Errorf("correctAnswers must be non-negative")
	}
	stat := correctAnswers * s.game.DamagePerCorrectAnswer
	patch := &model.PlayerPatch{
		CorrectAnswers: &correctAnswers,
		CombatStat:     &stat,
	}
	player, err := s.playerCache.PatchPlayer(ctx, sessionID, playerID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to record quiz result: %w", err)
	}
	if err := s.playerRepo.ApplyPatch(ctx, sessionID, playerID, patch); err != nil {
		log.Printf("tournament: failed to persist quiz result for %s: %v", playerID, err)
	}
	return player, nil
}

// Leaderboard returns the damage leaderboard with display names filled in.
func (s *TournamentService) Leaderboard(ctx context.Context, sessionID string, limit int) ([]cache.LeaderboardEntry, error) {
	entries, err := s.leaderboard.GetTop(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	players, err := s.playerCache.GetAllPlayers(ctx, sessionID)
	if err != nil {
		return entries, nil
	}
	for i := range entries {
		if p, ok := players[entries[i].PlayerID]; ok {
			entries[i].DisplayName = p.DisplayName
		}
	}
	return entries, nil
}

// MatchHistory returns every persisted match result of the session, newest
// first.
func (s *TournamentService) MatchHistory(ctx context.Context, sessionID string) ([]*model.MatchResult, error) {
	return s.resultRepo.ListBySession(ctx, sessionID)
}

// PlayerMatchHistory returns one player's match results, newest first.
func (s *TournamentService) PlayerMatchHistory(ctx context.Context, sessionID, playerID string) ([]*model.MatchResult, error) {
	return s.resultRepo.ListByPlayer(ctx, sessionID, playerID)
}

// GetPlayer implements arena.TournamentStore. Cache first, MongoDB as a
// backfill after a cache wipe.
func (s *TournamentService) GetPlayer(ctx context.Context, sessionID, playerID string) (*model.TournamentPlayer, error) {
	player, err := s.playerCache.GetPlayer(ctx, sessionID, playerID)
	if err == nil && player != nil {
		return player, nil
	}
	if err != nil {
		log.Printf("tournament: cache read failed for %s: %v", playerID, err)
	}
	player, err = s.playerRepo.Get(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	if player != nil {
		if cerr := s.playerCache.SetPlayer(ctx, sessionID, player); cerr != nil {
			log.Printf("tournament: cache backfill failed for %s: %v", playerID, cerr)
		}
	}
	return player, nil
}

// UpdatePlayer implements arena.TournamentStore.
func (s *TournamentService) UpdatePlayer(ctx context.Context, sessionID, playerID string, patch *model.PlayerPatch) error {
	player, err := s.playerCache.PatchPlayer(ctx, sessionID, playerID, patch)
	if err != nil {
		return err
	}
	if err := s.playerRepo.ApplyPatch(ctx, sessionID, playerID, patch); err != nil {
		log.Printf("tournament: failed to persist update for %s: %v", playerID, err)
	}
	if patch.DamageDealt != nil {
		if err := s.leaderboard.UpdateScore(ctx, sessionID, playerID, player.DamageDealt); err != nil {
			log.Printf("tournament: failed to update leaderboard for %s: %v", playerID, err)
		}
	}
	return nil
}

// PersistMatchResult implements arena.TournamentStore. Best effort.
func (s *TournamentService) PersistMatchResult(ctx context.Context, sessionID string, winner, loser *model.MatchResult) error {
	return s.resultRepo.InsertPair(ctx, winner, loser)
}

// MarkSessionCompleted implements arena.TournamentStore.
func (s *TournamentService) MarkSessionCompleted(ctx context.Context, sessionID, winnerID string) error {
	if err := s.sessionRepo.MarkCompleted(ctx, sessionID, winnerID); err != nil {
		return err
	}
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err == nil && session != nil {
		if cerr := s.sessionCache.Set(ctx, session); cerr != nil {
			log.Printf("tournament: failed to refresh session cache: %v", cerr)
		}
	}
	return nil
}

// CountRemainingActive implements arena.TournamentStore.
func (s *TournamentService) CountRemainingActive(ctx context.Context, sessionID string) (int, error) {
	n, err := s.playerCache.CountActive(ctx, sessionID)
	if err == nil {
		return n, nil
	}
	log.Printf("tournament: cache count failed, falling back to mongo: %v", err)
	players, err := s.playerRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	n = 0
	for _, p := range players {
		if !p.Eliminated {
			n++
		}
	}
	return n, nil
}

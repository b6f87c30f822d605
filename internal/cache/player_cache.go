package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizbrawl/internal/model"
)

// PlayerCache holds the hot tournament standing of every participant of a
// session. It is the primary read path for the matchmaking and match engine;
// MongoDB trails behind it as the durable copy.
type PlayerCache interface {
	SetPlayer(ctx context.Context, sessionID string, player *model.TournamentPlayer) error
	GetPlayer(ctx context.Context, sessionID, playerID string) (*model.TournamentPlayer, error)
	GetAllPlayers(ctx context.Context, sessionID string) (map[string]*model.TournamentPlayer, error)
	PatchPlayer(ctx context.Context, sessionID, playerID string, patch *model.PlayerPatch) (*model.TournamentPlayer, error)
	CountActive(ctx context.Context, sessionID string) (int, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type playerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPlayerCache creates a new player cache
func NewPlayerCache(client *redis.Client) PlayerCache {
	return &playerCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *playerCache) playersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:players", sessionID)
}

func (c *playerCache) SetPlayer(ctx context.Context, sessionID string, player *model.TournamentPlayer) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	key := c.playersKey(sessionID)
	if err := c.client.HSet(ctx, key, player.PlayerID, data).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *playerCache) GetPlayer(ctx context.Context, sessionID, playerID string) (*model.TournamentPlayer, error) {
	data, err := c.client.HGet(ctx, c.playersKey(sessionID), playerID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var player model.TournamentPlayer
	if err := json.Unmarshal([]byte(data), &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (c *playerCache) GetAllPlayers(ctx context.Context, sessionID string) (map[string]*model.TournamentPlayer, error) {
	data, err := c.client.HGetAll(ctx, c.playersKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	players := make(map[string]*model.TournamentPlayer)
	for id, jsonStr := range data {
		var p model.TournamentPlayer
		if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
			continue
		}
		players[id] = &p
	}
	return players, nil
}

// PatchPlayer applies a partial update and returns the updated record.
func (c *playerCache) PatchPlayer(ctx context.Context, sessionID, playerID string, patch *model.PlayerPatch) (*model.TournamentPlayer, error) {
	player, err := c.GetPlayer(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("player %s not found in session %s", playerID, sessionID)
	}
	patch.Apply(player)
	if err := c.SetPlayer(ctx, sessionID, player); err != nil {
		return nil, err
	}
	return player, nil
}

// CountActive returns the number of non-eliminated players in the session.
func (c *playerCache) CountActive(ctx context.Context, sessionID string) (int, error) {
	players, err := c.GetAllPlayers(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range players {
		if !p.Eliminated {
			n++
		}
	}
	return n, nil
}

func (c *playerCache) DeleteSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.playersKey(sessionID)).Err()
}

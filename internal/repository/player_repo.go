package repository

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizbrawl/internal/model"
)

// PlayerRepo is the durable copy of tournament player records. The match
// engine reads and writes through the Redis cache; this trails behind as
// best-effort persistence.
type PlayerRepo interface {
	Upsert(ctx context.Context, player *model.TournamentPlayer) error
	Get(ctx context.Context, sessionID, playerID string) (*model.TournamentPlayer, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.TournamentPlayer, error)
	ApplyPatch(ctx context.Context, sessionID, playerID string, patch *model.PlayerPatch) error
}

type playerRepo struct {
	collection *mongo.Collection
}

func NewPlayerRepo(db *mongo.Database) PlayerRepo {
	repo := &playerRepo{
		collection: db.Collection("players"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *playerRepo) ensureIndexes(ctx context.Context) {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sessionId", Value: 1},
			{Key: "playerId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("Warning: failed to create player index: %v", err)
	}
}

func (r *playerRepo) filter(sessionID, playerID string) bson.M {
	return bson.M{"sessionId": sessionID, "playerId": playerID}
}

func (r *playerRepo) Upsert(ctx context.Context, player *model.TournamentPlayer) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, r.filter(player.SessionID, player.PlayerID), player, opts)
	return err
}

func (r *playerRepo) Get(ctx context.Context, sessionID, playerID string) (*model.TournamentPlayer, error) {
	var player model.TournamentPlayer
	err := r.collection.FindOne(ctx, r.filter(sessionID, playerID)).Decode(&player)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &player, nil
}

func (r *playerRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.TournamentPlayer, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var players []*model.TournamentPlayer
	if err := cursor.All(ctx, &players); err != nil {
		return nil, err
	}
	return players, nil
}

// ApplyPatch maps the non-nil patch fields to a $set update.
func (r *playerRepo) ApplyPatch(ctx context.Context, sessionID, playerID string, patch *model.PlayerPatch) error {
	set := bson.M{}
	if patch.HP != nil {
		set["hp"] = *patch.HP
	}
	if patch.CombatStat != nil {
		set["combatStat"] = *patch.CombatStat
	}
	if patch.CorrectAnswers != nil {
		set["correctAnswers"] = *patch.CorrectAnswers
	}
	if patch.Eliminated != nil {
		set["eliminated"] = *patch.Eliminated
	}
	if patch.InQueue != nil {
		set["inQueue"] = *patch.InQueue
	}
	if patch.CurrentMatchID != nil {
		set["currentMatchId"] = *patch.CurrentMatchID
	}
	if patch.DamageDealt != nil {
		set["damageDealt"] = *patch.DamageDealt
	}
	if patch.DamageReceived != nil {
		set["damageReceived"] = *patch.DamageReceived
	}
	if len(set) == 0 {
		return nil
	}
	_, err := r.collection.UpdateOne(ctx, r.filter(sessionID, playerID), bson.M{"$set": set})
	return err
}

package repository

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizbrawl/internal/model"
)

// ResultRepo stores the per-player outcome record of every completed match.
type ResultRepo interface {
	InsertPair(ctx context.Context, winner, loser *model.MatchResult) error
	ListBySession(ctx context.Context, sessionID string) ([]*model.MatchResult, error)
	ListByPlayer(ctx context.Context, sessionID, playerID string) ([]*model.MatchResult, error)
}

type resultRepo struct {
	collection *mongo.Collection
}

func NewResultRepo(db *mongo.Database) ResultRepo {
	repo := &resultRepo{
		collection: db.Collection("match_results"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *resultRepo) ensureIndexes(ctx context.Context) {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sessionId", Value: 1},
			{Key: "endedAt", Value: -1},
		},
	})
	if err != nil {
		log.Printf("Warning: failed to create result index: %v", err)
	}
}

func (r *resultRepo) InsertPair(ctx context.Context, winner, loser *model.MatchResult) error {
	_, err := r.collection.InsertMany(ctx, []interface{}{winner, loser})
	return err
}

func (r *resultRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.MatchResult, error) {
	return r.list(ctx, bson.M{"sessionId": sessionID})
}

func (r *resultRepo) ListByPlayer(ctx context.Context, sessionID, playerID string) ([]*model.MatchResult, error) {
	return r.list(ctx, bson.M{"sessionId": sessionID, "playerId": playerID})
}

func (r *resultRepo) list(ctx context.Context, filter bson.M) ([]*model.MatchResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "endedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*model.MatchResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

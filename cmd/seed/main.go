package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizbrawl/internal/config"
	"quizbrawl/internal/model"
)

// Seeds a demo session with four players so the arena can be exercised
// without going through the REST join flow.
func main() {
	cfg := config.Load()
	game := config.DefaultGame()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB)

	// Host ID observed in logs
	hostID := "host_8263b93c"

	session := model.Session{
		ID:        uuid.New().String(),
		HostID:    hostID,
		Name:      "Friday Quiz Brawl",
		Status:    model.SessionWaiting,
		CreatedAt: time.Now(),
	}
	if _, err := db.Collection("sessions").InsertOne(ctx, session); err != nil {
		log.Fatalf("Failed to insert session: %v", err)
	}

	demo := []struct {
		name      string
		character string
		correct   int
	}{
		{"Ada", "wizard", 8},
		{"Brahe", "knight", 5},
		{"Curie", "wizard", 10},
		{"Dirac", "rogue", 3},
	}

	playerColl := db.Collection("players")
	for i, d := range demo {
		player := model.TournamentPlayer{
			SessionID:      session.ID,
			PlayerID:       fmt.Sprintf("p_seed%04d", i+1),
			DisplayName:    d.name,
			CharacterID:    d.character,
			HP:             game.StartingHP,
			CombatStat:     d.correct * game.DamagePerCorrectAnswer,
			CorrectAnswers: d.correct,
			JoinedAt:       time.Now(),
		}
		if _, err := playerColl.InsertOne(ctx, player); err != nil {
			log.Fatalf("Failed to insert player %s: %v", d.name, err)
		}
	}

	fmt.Printf("Successfully seeded session '%s' (%s) with %d players for host '%s'\n",
		session.Name, session.ID, len(demo), hostID)
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds process-level settings loaded from the environment.
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	HTTPPort  string
}

func Load() *Config {
	return &Config{
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "quizbrawl"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:  getEnv("PORT", "8080"),
	}
}

// SpellSpec is the per-kind damage multiplier and projectile speed.
type SpellSpec struct {
	Multiplier float64
	Speed      float64
}

// Game holds the combat tuning knobs. All of them are injectable so tests can
// shrink timers; DefaultGame matches the classroom deployment.
type Game struct {
	RoundDuration   time.Duration
	InterRoundDelay time.Duration
	ArenaWidth      float64
	ArenaHeight     float64
	StartingHP      int
	// DamagePerCorrectAnswer converts quiz results into a combat stat.
	DamagePerCorrectAnswer int
	// CastOffset is how far in front of the caster a spell spawns.
	CastOffset float64
	Spells     map[string]SpellSpec
}

func DefaultGame() Game {
	return Game{
		RoundDuration:          10 * time.Second,
		InterRoundDelay:        3 * time.Second,
		ArenaWidth:             800,
		ArenaHeight:            600,
		StartingHP:             200,
		DamagePerCorrectAnswer: 5,
		CastOffset:             40,
		Spells: map[string]SpellSpec{
			"fireball":  {Multiplier: 1.0, Speed: 400},
			"lightning": {Multiplier: 1.5, Speed: 600},
		},
	}
}

// LoadGame returns the default tuning with optional env overrides.
func LoadGame() Game {
	g := DefaultGame()
	if ms := getEnvInt("ROUND_DURATION_MS", 0); ms > 0 {
		g.RoundDuration = time.Duration(ms) * time.Millisecond
	}
	if ms := getEnvInt("INTER_ROUND_DELAY_MS", 0); ms > 0 {
		g.InterRoundDelay = time.Duration(ms) * time.Millisecond
	}
	if hp := getEnvInt("STARTING_HP", 0); hp > 0 {
		g.StartingHP = hp
	}
	return g
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/shoppurs/pkg/auth"
	"github.com/example/shoppurs/pkg/config"
	"github.com/example/shoppurs/pkg/database"
	"github.com/example/shoppurs/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	seed := flag.Bool("seed", false, "insert demo users, products and addresses")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the demo tokens printed after seeding")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}
	log.Info("Schema migrated", zap.String("driver", cfg.Database.Driver))

	if !*seed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	demo, err := seedDemo(ctx, db)
	if err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth)
	for _, u := range demo.Users {
		tok, err := tokens.Issue(auth.Principal{UserID: u.ID, Role: u.Role}, *tokenTTL)
		if err != nil {
			log.Fatal("Failed to issue demo token", zap.Error(err))
		}
		fmt.Printf("%-10s %-24s %s\n", u.Role, u.Email, tok)
	}
	log.Info("Demo data seeded", zap.Int("products", len(demo.Products)))
}

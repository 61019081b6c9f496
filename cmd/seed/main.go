// Command seed creates the verified demo accounts in the configured
// PostgreSQL database. It reads the same configuration as the server.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/dmitrijs2005/chitchat/internal/server/config"
	"github.com/dmitrijs2005/chitchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chitchat/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	if cfg.DatabaseDSN == "" {
		log.Fatal("seed needs a database: set CHITCHAT_DATABASE_DSN or pass -d")
	}

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	m := repomanager.NewPostgresRepositoryManager(db, nil)
	defer m.Close()

	if err := m.RunMigrations(ctx); err != nil {
		log.Printf("%v", err)
		return
	}

	if _, err := services.SeedUsers(ctx, m.Users(), services.DemoUsers, logger); err != nil {
		log.Printf("%v", err)
		return
	}
}

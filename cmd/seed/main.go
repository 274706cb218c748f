package main

import (
	"context"
	"fmt"
	"os"

	"jengamate/backend/internal/config"
	"jengamate/backend/internal/firebase"
	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "seed"}).Error(ctx, "config load failed", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{ServiceName: "seed", Level: logger.ParseLevel(cfg.LogLevel), Format: cfg.LogFormat})

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		logg.Error(ctx, "firebase init failed", err)
		os.Exit(1)
	}
	defer clients.Close()

	res, err := seed.New(firebase.NewDocuments(clients.Firestore), logg).Run(ctx)
	if err != nil {
		logg.Error(ctx, "database initialization failed", err)
		clients.Close()
		os.Exit(1)
	}
	for _, c := range []string{seed.CommissionTiersCollection, seed.CategoriesCollection, seed.SystemConfigCollection, seed.RolePermissionsCollection} {
		fmt.Printf("%-18s %d\n", c, res[c])
	}
}

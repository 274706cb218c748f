package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"jengamate/backend/internal/config"
	"jengamate/backend/internal/domain/claims"
	"jengamate/backend/internal/firebase"
	"jengamate/backend/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	email := flag.String("email", "", "stamp a single account found by email")
	uid := flag.String("uid", "", "stamp a single account by firebase uid")
	role := flag.String("role", claims.DefaultBulkRole, "role claim to set")
	flag.Parse()

	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fatal(ctx, logger.New(logger.Options{ServiceName: "set-claims"}), "config load failed", err)
	}
	logg := logger.New(logger.Options{ServiceName: "set-claims", Level: logger.ParseLevel(cfg.LogLevel), Format: cfg.LogFormat})

	app, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		fatal(ctx, logg, "firebase app init failed", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		fatal(ctx, logg, "firebase auth init failed", err)
	}
	svc := claims.NewService(claims.NewFirebaseProvider(authClient), logg, nil)

	switch {
	case *uid != "":
		if err := svc.ApplyUID(ctx, *uid, *role); err != nil {
			fatal(ctx, logg, "set claims failed", err)
		}
		fmt.Printf("ok: role=%s set for %s\n", *role, *uid)
	case *email != "":
		got, err := svc.ApplyByEmail(ctx, *email, *role)
		if err != nil {
			fatal(ctx, logg, "set claims failed", err)
		}
		fmt.Printf("ok: role=%s set for %s (%s)\n", *role, *email, got)
	default:
		res, err := svc.ApplyAll(ctx, *role)
		if err != nil {
			fatal(ctx, logg, "bulk set claims failed", err)
		}
		fmt.Printf("ok: role=%s set on %d users, %d failed\n", *role, res.Processed, res.Failed)
		if res.Failed > 0 {
			os.Exit(2)
		}
	}
}

func fatal(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}

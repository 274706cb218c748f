package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"jengamate/backend/internal/config"
	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/migration"
	"jengamate/backend/internal/supabase"

	"github.com/joho/godotenv"
)

func main() {
	mode := flag.String("mode", "sql", "sql writes an insert script, api creates users through the admin API")
	in := flag.String("in", "auth_export.json", "firebase auth export")
	out := flag.String("out", "user_migration.sql", "sql output file (sql mode)")
	flag.Parse()

	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "migrate-users"}).Error(ctx, "config load failed", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{ServiceName: "migrate-users", Level: logger.ParseLevel(cfg.LogLevel), Format: cfg.LogFormat})

	users, err := readExport(*in)
	if err != nil {
		logg.Error(ctx, "reading export failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"users": len(users), "file": *in}), "loaded firebase users")

	switch *mode {
	case "sql":
		if err := writeSQL(*out, users); err != nil {
			logg.Error(ctx, "writing sql failed", err)
			os.Exit(1)
		}
		fmt.Printf("Migration SQL generated: %s\n", *out)
		fmt.Println("Users will need to reset their passwords; Firebase password hashes cannot be migrated.")
	case "api":
		if !cfg.HasAuthAdmin() {
			logg.Warn(ctx, "SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for api mode")
			os.Exit(1)
		}
		admin := supabase.NewAuthAdmin(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, &http.Client{Timeout: 15 * time.Second})
		sum, err := migration.NewImporter(admin, logg).Import(ctx, users)
		if err != nil {
			logg.Error(ctx, "import aborted", err)
			os.Exit(1)
		}
		for _, u := range sum.Users {
			if u.ResetLink != "" {
				fmt.Printf("[RESET_LINK] %s: %s\n", u.Email, u.ResetLink)
			}
		}
		fmt.Printf("Done. Created: %d, Errors: %d, Skipped: %d\n", sum.Created, sum.Errors, sum.Skipped)
	default:
		logg.Warn(ctx, "unknown -mode, want sql or api")
		os.Exit(2)
	}
}

func readExport(path string) ([]migration.ExportedUser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return migration.ParseExport(f)
}

func writeSQL(path string, users []migration.ExportedUser) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := migration.WriteSQL(f, users, time.Now()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

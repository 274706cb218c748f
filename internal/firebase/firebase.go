package firebase

import (
	"context"
	"fmt"
	"os"

	"jengamate/backend/internal/config"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Clients bundles the Firebase clients shared by every handler in a process.
// Built once in main and passed by reference.
type Clients struct {
	App       *firebase.App
	Auth      *auth.Client
	Firestore *firestore.Client

	ProjectID string
}

func NewApp(ctx context.Context, cfg config.Config) (*firebase.App, error) {
	// Prefer FIREBASE_SERVICE_ACCOUNT_JSON (raw json content), then
	// GOOGLE_APPLICATION_CREDENTIALS (file path), then ADC.
	var opts []option.ClientOption
	if cfg.ServiceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	} else if cred := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); cred != "" {
		opts = append(opts, option.WithCredentialsFile(cred))
	}

	appCfg := &firebase.Config{}
	if cfg.ProjectID != "" {
		appCfg.ProjectID = cfg.ProjectID
	}
	return firebase.NewApp(ctx, appCfg, opts...)
}

func NewClients(ctx context.Context, cfg config.Config) (*Clients, error) {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: %w", err)
	}

	return &Clients{
		App:       app,
		Auth:      authClient,
		Firestore: fs,
		ProjectID: cfg.ProjectID,
	}, nil
}

func (c *Clients) Close() {
	if c == nil || c.Firestore == nil {
		return
	}
	_ = c.Firestore.Close()
}

// Package firebaseapp builds the Firebase Admin clients from configuration.
package firebaseapp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/drivemate/notify/internal/config"
)

// New initialises the Admin SDK. A credentials file is used when
// configured; otherwise Application Default Credentials apply.
func New(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	return app, nil
}

// Messaging returns the FCM client, or nil when delivery is disabled.
func Messaging(ctx context.Context, app *firebase.App, cfg *config.Config) (*messaging.Client, error) {
	if !cfg.FCMEnabled() {
		return nil, nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return client, nil
}

// Firestore returns a Firestore client for the configured project.
func Firestore(ctx context.Context, app *firebase.App) (*firestore.Client, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}
	return client, nil
}

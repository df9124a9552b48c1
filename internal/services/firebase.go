package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// InitFirebase builds the auth client that verifies back-office session
// cookies. Profile and admin routes stay locked until this succeeds; the
// public checkout and webhook endpoints don't depend on it.
func InitFirebase(credPath string) (*auth.Client, error) {
	app, err := firebase.NewApp(context.Background(), nil, option.WithCredentialsFile(credPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to build firebase auth client: %w", err)
	}
	return client, nil
}

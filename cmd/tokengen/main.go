// Package main mints access tokens for calling a locally running server.
// Tokens are signed with JWT_SECRET_KEY (or the development default) and are
// only meant for local development and testing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mvaleed/privatedetails/internal/auth"
	"github.com/mvaleed/privatedetails/internal/config"
	"github.com/mvaleed/privatedetails/internal/domain"
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	UserID    string            `json:"user_id"`
	ExpiresAt string            `json:"expires_at"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	cfg := config.Load()

	userIDFlag := flag.String("user-id", "", "User ID (UUID). Generated if empty.")
	email := flag.String("email", "", "Email claim (optional)")
	ttl := flag.Duration("ttl", cfg.AccessTokenTTL, "Token time-to-live")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if cfg.IsProduction() {
		fmt.Fprintln(os.Stderr, "refusing to mint tokens with ENVIRONMENT=prod")
		os.Exit(1)
	}

	userID := uuid.New()
	if *userIDFlag != "" {
		id, err := domain.ParseUserID(*userIDFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -user-id: %v\n", err)
			os.Exit(1)
		}
		userID = id
	}

	manager := auth.NewJWTManager(auth.JWTConfig{
		SecretKey:      cfg.JWTSecretKey,
		AccessTokenTTL: *ttl,
		Issuer:         cfg.JWTIssuer,
		Audience:       []string{cfg.JWTIssuer},
	})

	token, expiresAt, err := manager.GenerateAccessToken(auth.TokenPayload{UserID: userID, Email: *email})
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}

	if !*asJSON {
		fmt.Println(token)
		return
	}

	out := tokenOutput{
		Token:     token,
		Type:      "Bearer",
		UserID:    userID.String(),
		ExpiresAt: expiresAt.Format(time.RFC3339),
		Usage: map[string]string{
			"http": fmt.Sprintf("curl -H 'Authorization: Bearer %s' http://localhost:%d/api/v1/me/personal-details", token, cfg.HTTPPort),
		},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/tourindo/tourism_api/internal/config"
	"github.com/tourindo/tourism_api/internal/database"
	"github.com/tourindo/tourism_api/internal/models"
)

// Seeds the bootstrap super admin. Safe to run repeatedly: an existing
// account with the same email is left untouched.
func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	email := getEnv("SEED_SUPER_ADMIN_EMAIL", "super@tourindo.id")
	password := getEnv("SEED_SUPER_ADMIN_PASSWORD", "")
	if password == "" {
		log.Fatal().Msg("SEED_SUPER_ADMIN_PASSWORD must be set")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("password hashing failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO admin_identities (
			id, email, password_hash, full_name, role, is_approved,
			organization_name, organization_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, $8, $8)
		ON CONFLICT (email) DO NOTHING`,
		uuid.New().String(), email, string(hash), "Platform Super Admin",
		string(models.RoleSuperAdmin), "Tourindo", "platform", now,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding super admin failed")
	}

	if n, _ := res.RowsAffected(); n == 0 {
		log.Info().Str("email", email).Msg("Super admin already present, nothing to do")
		return
	}
	log.Info().Str("email", email).Msg("Super admin created")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

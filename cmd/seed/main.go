// seed creates development accounts for local testing. Run via go run ./cmd/seed.
// Idempotent: accounts that already exist are skipped. Signups go through the auth service
// without the whitelist gate so seeding works whatever ENABLE_SIGNUP_WHITELIST says.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"webstarter/backend/internal/config"
	"webstarter/backend/internal/db"
	identityrepo "webstarter/backend/internal/identity/repository"
	identityservice "webstarter/backend/internal/identity/service"
	"webstarter/backend/internal/security"
	sessionrepo "webstarter/backend/internal/session/repository"
	settingsdomain "webstarter/backend/internal/settings/domain"
	settingsrepo "webstarter/backend/internal/settings/repository"
	userrepo "webstarter/backend/internal/user/repository"
)

const devPassword = "password123"

type account struct {
	email, name string
	marketing   bool
}

var accounts = []account{
	{email: "dev@example.com", name: "Dev User", marketing: true},
	{email: "member@example.com", name: "Member User"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	// Seeding only needs a signing key to issue the throwaway session each signup creates.
	secret := cfg.AuthSecret
	if secret == "" {
		secret = "seed-only-secret-not-used-for-serving"
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()
	gormDB, err := db.OpenGorm(conn)
	if err != nil {
		log.Fatalf("gorm: %v", err)
	}

	tokens, err := security.NewTokenProvider([]byte(secret), "webstarter", time.Hour)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}
	sessions := sessionrepo.NewPostgresRepository(conn)
	auth := identityservice.NewAuthService(
		userrepo.NewPostgresRepository(conn),
		identityrepo.NewPostgresRepository(conn),
		sessions,
		nil,
		security.NewHasher(cfg.BcryptCost),
		tokens,
		nil,
		nil,
		nil,
	)
	settings := settingsrepo.NewGormRepository(gormDB)

	for _, a := range accounts {
		res, err := auth.SignUp(ctx, a.email, devPassword, a.name, identityservice.ClientMeta{IPAddress: "127.0.0.1", UserAgent: "seed"})
		if errors.Is(err, identityservice.ErrEmailAlreadyRegistered) {
			log.Printf("%s already exists. Skipping.", a.email)
			continue
		}
		if err != nil {
			log.Fatalf("sign up %s: %v", a.email, err)
		}
		if err := sessions.Revoke(ctx, res.Session.ID); err != nil {
			log.Fatalf("revoke seed session: %v", err)
		}
		st := settingsdomain.Defaults(res.User.ID)
		st.MarketingEmails = a.marketing
		st.UpdatedAt = time.Now().UTC()
		if err := settings.Upsert(ctx, st); err != nil {
			log.Fatalf("settings for %s: %v", a.email, err)
		}
		fmt.Printf("Login: %s / %s\n", a.email, devPassword)
	}
	log.Println("Seed completed successfully.")
}

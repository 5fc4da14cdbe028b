// File: cmd/e2e-setup/main.go
package main

import (
	"context"
	"flag"
	"log"

	"telegram-group-subscription/internal/config"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/infra/db/postgres"
	"telegram-group-subscription/internal/infra/redis"
)

// Sets up a clean, predictable database state for manual end-to-end testing:
// creates the schema if missing, wipes all data and seeds default settings.
func main() {
	ctx := context.Background()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	pool, err := postgres.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	log.Println("[1/4] Creating schema...")
	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}

	log.Println("[2/4] Wiping Redis...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	log.Println("[3/4] Wiping all existing database data...")
	_, err = pool.Exec(ctx, `
		TRUNCATE users, subscriptions, payments, manual_payments, system_settings
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	log.Println("[4/4] Seeding default settings...")
	settingsRepo := postgres.NewSettingsRepo(pool)
	if err := settingsRepo.Save(ctx, nil, model.DefaultSystemSettings()); err != nil {
		log.Fatalf("failed to seed settings: %v", err)
	}

	log.Println("--- E2E Environment Setup Complete ---")
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	telegram_id BIGINT NOT NULL UNIQUE,
	full_name   TEXT NOT NULL DEFAULT '',
	username    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subscriptions (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL REFERENCES users(id),
	start_date        TIMESTAMPTZ NOT NULL,
	end_date          TIMESTAMPTZ NOT NULL,
	status            TEXT NOT NULL,
	amount_paid       BIGINT NOT NULL DEFAULT 0,
	invite_link       TEXT,
	last_warning_sent TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_user_status ON subscriptions (user_id, status);
CREATE INDEX IF NOT EXISTS idx_subscriptions_status_end ON subscriptions (status, end_date);

CREATE TABLE IF NOT EXISTS payments (
	id              TEXT PRIMARY KEY,
	gateway_id      TEXT UNIQUE,
	user_id         TEXT NOT NULL REFERENCES users(id),
	subscription_id TEXT NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
	amount          BIGINT NOT NULL,
	currency        TEXT NOT NULL,
	status          TEXT NOT NULL,
	bot_message_id  INTEGER,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	paid_at         TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_payments_subscription ON payments (subscription_id);

CREATE TABLE IF NOT EXISTS manual_payments (
	id            TEXT PRIMARY KEY,
	payment_id    TEXT NOT NULL,
	proof_file_id TEXT NOT NULL,
	submitted_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	verified_at   TIMESTAMPTZ,
	verified_by   BIGINT
);
CREATE INDEX IF NOT EXISTS idx_manual_payments_payment ON manual_payments (payment_id);

CREATE TABLE IF NOT EXISTS system_settings (
	id                     SMALLINT PRIMARY KEY,
	manual_payment_enabled BOOLEAN NOT NULL DEFAULT FALSE
);
`

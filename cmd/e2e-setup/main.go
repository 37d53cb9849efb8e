package main

import (
	"context"
	"flag"
	"log"

	"cabin-rental-billing/internal/config"
	"cabin-rental-billing/internal/infra/db/postgres"
	"cabin-rental-billing/internal/infra/redis"
)

// This script sets up a clean, predictable database state for manual
// end-to-end testing: schema, empty tables, flushed cache.
func main() {
	ctx := context.Background()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	// --- Connect to Postgres ---
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	// --- Connect to Redis ---
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	log.Println("[1/3] Wiping Redis cache...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	log.Println("[2/3] Creating schema...")
	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}

	log.Println("[3/3] Wiping all existing data...")
	_, err = pool.Exec(ctx, `
		TRUNCATE listings, subscriptions, discount_codes, payment_events
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	log.Println("--- E2E Environment Setup Complete ---")
}

const schema = `
CREATE TABLE IF NOT EXISTS listings (
    id              TEXT PRIMARY KEY,
    owner_id        TEXT NOT NULL,
    title           TEXT NOT NULL,
    is_active       BOOLEAN NOT NULL DEFAULT FALSE,
    subscription_id TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subscriptions (
    id                    TEXT PRIMARY KEY,
    owner_id              TEXT NOT NULL,
    listing_id            TEXT REFERENCES listings(id),
    plan_type             TEXT NOT NULL,
    price_amount          BIGINT NOT NULL,
    status                TEXT NOT NULL,
    provider_agreement_id TEXT,
    current_period_start  TIMESTAMPTZ NOT NULL,
    current_period_end    TIMESTAMPTZ NOT NULL,
    discount_code         TEXT,
    created_at            TIMESTAMPTZ NOT NULL,
    updated_at            TIMESTAMPTZ NOT NULL
);

-- One live subscription per owner/listing pair. The creation path also checks
-- this in application code; the index is what makes the race lose cleanly.
CREATE UNIQUE INDEX IF NOT EXISTS ux_subscriptions_owner_listing_live
    ON subscriptions (owner_id, listing_id)
    WHERE status IN ('pending', 'active');

CREATE UNIQUE INDEX IF NOT EXISTS ux_subscriptions_agreement
    ON subscriptions (provider_agreement_id)
    WHERE provider_agreement_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS ix_subscriptions_lapsed
    ON subscriptions (current_period_end)
    WHERE status IN ('canceled', 'past_due');

CREATE TABLE IF NOT EXISTS discount_codes (
    code            TEXT PRIMARY KEY,
    duration_months INTEGER NOT NULL,
    valid_until     TIMESTAMPTZ NOT NULL,
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    max_uses        INTEGER
);

CREATE TABLE IF NOT EXISTS payment_events (
    id                TEXT PRIMARY KEY,
    provider_event_id TEXT NOT NULL UNIQUE,
    event_type        TEXT NOT NULL,
    payload           BYTEA,
    processed_at      TIMESTAMPTZ NOT NULL
);
`

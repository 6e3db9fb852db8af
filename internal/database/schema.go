package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stations (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		single_price DOUBLE PRECISION NOT NULL,
		return_price DOUBLE PRECISION NOT NULL,
		sales_count BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS cards (
		card_number TEXT PRIMARY KEY,
		credit DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		username TEXT PRIMARY KEY,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id BIGSERIAL PRIMARY KEY,
		station_id BIGINT NOT NULL REFERENCES stations(id) ON DELETE CASCADE,
		discount_percent DOUBLE PRECISION NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGSERIAL PRIMARY KEY,
		time_utc TIMESTAMPTZ NOT NULL,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		type TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		card_number TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_offers_station_dates
		ON offers (station_id, start_date, end_date)`,
}

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Seed populates first-run data when the stations table is empty:
// a fixed set of stations with base fares, a few test cards, the default
// admin credential and one introductory offer on Airport covering the
// current month. Runs in a single transaction.
func Seed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM stations`); err != nil {
		return fmt.Errorf("failed to count stations: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	stations := []struct {
		name        string
		single, ret float64
	}{
		{"Airport", 8.50, 15.00},
		{"North", 3.20, 5.80},
		{"East", 3.80, 6.70},
		{"West", 3.80, 6.70},
		{"Harbor", 5.20, 9.50},
	}
	for _, s := range stations {
		if _, err := tx.Exec(
			`INSERT INTO stations (name, single_price, return_price) VALUES ($1, $2, $3)`,
			s.name, s.single, s.ret,
		); err != nil {
			return fmt.Errorf("failed to seed station %s: %w", s.name, err)
		}
	}

	cards := []struct {
		number string
		credit float64
	}{
		{"4242424242424242", 30.00},
		{"4000000000009995", 5.00},
		{"5555555555554444", 50.00},
	}
	for _, c := range cards {
		if _, err := tx.Exec(
			`INSERT INTO cards (card_number, credit) VALUES ($1, $2)`,
			c.number, c.credit,
		); err != nil {
			return fmt.Errorf("failed to seed card: %w", err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO admins (username, password) VALUES ($1, $2)`,
		"admin", "admin123",
	); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	// Introductory offer on Airport spanning the current month.
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	if _, err := tx.Exec(
		`INSERT INTO offers (station_id, discount_percent, start_date, end_date)
		 SELECT id, 10.0, $1, $2 FROM stations WHERE name = 'Airport'`,
		monthStart, monthEnd,
	); err != nil {
		return fmt.Errorf("failed to seed offer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return nil
}

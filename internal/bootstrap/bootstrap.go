// Package bootstrap prepares a fresh database: it creates the schema
// when missing and, outside production, seeds demo accounts and a
// small product catalog so the API is usable immediately.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT,
	name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS products (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	price NUMERIC(12,2) NOT NULL,
	currency TEXT NOT NULL DEFAULT 'USD',
	image_url TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS price_history (
	id UUID PRIMARY KEY,
	product_id UUID NOT NULL REFERENCES products(id),
	old_price NUMERIC(12,2) NOT NULL,
	new_price NUMERIC(12,2) NOT NULL,
	change_percent NUMERIC(8,2),
	changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_price_history_product ON price_history(product_id, changed_at DESC);

CREATE TABLE IF NOT EXISTS price_alerts (
	id UUID PRIMARY KEY,
	product_id UUID NOT NULL REFERENCES products(id),
	user_id UUID NOT NULL REFERENCES users(id),
	target_price NUMERIC(12,2) NOT NULL,
	original_price NUMERIC(12,2) NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	notified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	notified_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_price_alerts_pending ON price_alerts(product_id) WHERE active AND NOT notified;
CREATE INDEX IF NOT EXISTS idx_price_alerts_user ON price_alerts(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS push_subscriptions (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id),
	endpoint TEXT NOT NULL UNIQUE,
	p256dh TEXT NOT NULL,
	auth TEXT NOT NULL,
	user_agent TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

type seedProduct struct {
	name        string
	description string
	category    string
	price       decimal.Decimal
}

var seedProducts = []seedProduct{
	{"UltraBook Pro 14", "14-inch ultralight laptop, 16GB RAM, 512GB SSD", "laptops", decimal.NewFromFloat(1299.99)},
	{"NoiseGone 700", "Over-ear wireless headphones with active noise cancelling", "audio", decimal.NewFromFloat(349.99)},
	{"PixelView 27", "27-inch 4K IPS monitor with USB-C delivery", "monitors", decimal.NewFromFloat(449.00)},
	{"SwiftCharge 65W", "Compact GaN USB-C wall charger", "accessories", decimal.NewFromFloat(39.99)},
	{"AeroPhone 12", "6.1-inch smartphone, 256GB", "phones", decimal.NewFromFloat(899.00)},
}

// SeedDemoData populates demo accounts and products when the
// corresponding tables are empty. Existing data is never touched, so
// the call is safe on every startup.
func SeedDemoData(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	if err := seedUsers(ctx, userRepo, logger); err != nil {
		return err
	}

	count, err := productRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting products: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, sp := range seedProducts {
		product := &model.Product{
			Name:        sp.name,
			Description: sp.description,
			Category:    sp.category,
			Price:       sp.price,
			Currency:    "USD",
		}
		if err := productRepo.Create(ctx, product); err != nil {
			return fmt.Errorf("seeding product %q: %w", sp.name, err)
		}

		// One historical entry per product so /history and /drops
		// return something meaningful out of the box. The seed price
		// sits 10% above today's, recorded as a drop to the current
		// value.
		launchPrice := sp.price.Mul(decimal.NewFromFloat(1.10)).Round(2)
		entry := &model.PriceHistoryEntry{
			ProductID:     product.ID,
			OldPrice:      launchPrice,
			NewPrice:      sp.price,
			ChangePercent: changePercent(launchPrice, sp.price),
		}
		if err := historyRepo.Append(ctx, entry); err != nil {
			return fmt.Errorf("seeding history for %q: %w", sp.name, err)
		}
	}

	logger.Info("Seeded demo catalog", slog.Int("products", len(seedProducts)))
	return nil
}

func seedUsers(ctx context.Context, userRepo *repository.UserRepository, logger *slog.Logger) error {
	demoUsers := []struct {
		email    string
		password string
		name     string
		role     model.UserRole
	}{
		{"admin@pricewatch.dev", "admin123", "Admin", model.RoleAdmin},
		{"demo@pricewatch.dev", "demo123", "Demo User", model.RoleUser},
	}

	for _, du := range demoUsers {
		_, err := userRepo.GetByEmail(ctx, du.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("checking user %s: %w", du.email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(du.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing seed password: %w", err)
		}
		hashStr := string(hash)

		user := &model.User{
			Email:        du.email,
			PasswordHash: &hashStr,
			Name:         du.name,
			Role:         du.role,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("seeding user %s: %w", du.email, err)
		}
		logger.Info("Seeded demo user", slog.String("email", du.email))
	}

	return nil
}

func changePercent(oldPrice, newPrice decimal.Decimal) decimal.NullDecimal {
	if !oldPrice.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{
		Decimal: newPrice.Sub(oldPrice).Div(oldPrice).Mul(decimal.NewFromInt(100)).Round(2),
		Valid:   true,
	}
}

// Command seed-db loads demo accounts and a starter catalog into the
// database. It is idempotent: rerunning upserts the same rows.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/snapit/storefront/internal/repository"
)

const (
	upsertUserSQL = `
		INSERT INTO users (id, name, email, password_hash, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			updated_at = now()`

	upsertCategorySQL = `
		INSERT INTO categories (id, name, description, image)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			updated_at = now()`

	upsertProductSQL = `
		INSERT INTO products (id, name, description, price, category_id, image, stock, unit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category_id = EXCLUDED.category_id,
			image = EXCLUDED.image,
			stock = EXCLUDED.stock,
			unit = EXCLUDED.unit,
			is_active = true,
			updated_at = now()`
)

type seedUser struct {
	id, name, email, password, role string
}

type seedCategory struct {
	id, name, description, image string
}

type seedProduct struct {
	id, name, description string
	price                 decimal.Decimal
	categoryID            string
	image                 string
	stock                 int
	unit                  string
}

func main() {
	var (
		databaseURL   string
		adminPassword string
		demoPassword  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&adminPassword, "admin-password", "", "password for the seeded admin account (or SNAPIT_SEED_ADMIN_PASSWORD env)")
	flag.StringVar(&demoPassword, "demo-password", "demo1234", "password for the seeded demo customer")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("SNAPIT_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or SNAPIT_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, adminPassword, demoPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, adminPassword, demoPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedUsers(ctx, pool, adminPassword, demoPassword); err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedCatalog(ctx, pool); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, adminPassword, demoPassword string) error {
	users := []seedUser{
		{"00000000-0000-0000-0000-000000000001", "Admin", "admin@snapit.dev", adminPassword, "admin"},
		{"00000000-0000-0000-0000-000000000002", "Demo Customer", "demo@snapit.dev", demoPassword, "user"},
	}

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return errors.Wrapf(err, "hash password for %s", u.email)
		}
		if _, err := pool.Exec(ctx, upsertUserSQL, u.id, u.name, u.email, string(hash), "", u.role); err != nil {
			return errors.Wrapf(err, "upsert user %s", u.email)
		}

		slog.Info("upserted user", slog.String("email", u.email), slog.String("role", u.role))
	}
	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	categories := []seedCategory{
		{"10000000-0000-0000-0000-000000000001", "Fruits & Vegetables", "Fresh produce", ""},
		{"10000000-0000-0000-0000-000000000002", "Dairy & Eggs", "Milk, cheese, and eggs", ""},
		{"10000000-0000-0000-0000-000000000003", "Beverages", "Juices and soft drinks", ""},
	}
	for _, c := range categories {
		if _, err := pool.Exec(ctx, upsertCategorySQL, c.id, c.name, c.description, c.image); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.name)
		}
	}

	slog.Info("upserted categories", slog.Int("count", len(categories)))

	products := []seedProduct{
		{"20000000-0000-0000-0000-000000000001", "Bananas", "Ripe Cavendish bananas", decimal.NewFromFloat(1.99), categories[0].id, "", 120, "kg"},
		{"20000000-0000-0000-0000-000000000002", "Tomatoes", "Vine-ripened tomatoes", decimal.NewFromFloat(3.49), categories[0].id, "", 80, "kg"},
		{"20000000-0000-0000-0000-000000000003", "Whole Milk", "Full-fat milk, 1L", decimal.NewFromFloat(1.29), categories[1].id, "", 60, "bottle"},
		{"20000000-0000-0000-0000-000000000004", "Free-Range Eggs", "Dozen free-range eggs", decimal.NewFromFloat(4.99), categories[1].id, "", 40, "pack"},
		{"20000000-0000-0000-0000-000000000005", "Orange Juice", "Freshly squeezed, 1L", decimal.NewFromFloat(3.99), categories[2].id, "", 30, "bottle"},
	}
	for _, p := range products {
		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.id, p.name, p.description, p.price, p.categoryID, p.image, p.stock, p.unit,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.name)
		}

		slog.Info("upserted product", slog.String("name", p.name), slog.Int("stock", p.stock))
	}
	return nil
}

// Command catalog-ingest imports a gzipped NDJSON product feed into the
// catalog. Supplier feeds repeat rows freely, so duplicate products are
// skipped with a bloom filter: a false positive drops a genuinely new row at
// the configured rate, which export re-runs make up for, while memory stays
// bounded on feeds with hundreds of millions of lines.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/snapit/storefront/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.0001
	numWorkers    = 8
	progressEvery = 100_000
)

const (
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

	insertCategorySQL = `
		INSERT INTO categories (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET updated_at = now()
		RETURNING id`

	selectCategoriesSQL = `SELECT id, name FROM categories`
)

// feedRow is one line of the supplier feed.
type feedRow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	Unit        string          `json:"unit"`
}

func main() {
	var (
		feedFile    string
		databaseURL string
	)

	flag.StringVar(&feedFile, "feed", "data/products.ndjson.gz", "gzipped NDJSON product feed")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, feedFile, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, feedFile, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	ing := &ingester{
		pool:       pool,
		seen:       bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		categories: make(map[string]string),
	}
	if err := ing.loadCategories(ctx); err != nil {
		return errors.Wrap(err, "load categories")
	}

	return ing.ingest(ctx, feedFile)
}

type ingester struct {
	pool *pgxpool.Pool
	// seen and categories are touched only by the producer goroutine.
	seen       *bloom.BloomFilter
	categories map[string]string

	imported atomic.Uint64
	skipped  atomic.Uint64
}

func (ing *ingester) loadCategories(ctx context.Context) error {
	rows, err := ing.pool.Query(ctx, selectCategoriesSQL)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		ing.categories[name] = id
	}
	return rows.Err()
}

// categoryID resolves a feed category name to an id, creating the category
// on first sight.
func (ing *ingester) categoryID(ctx context.Context, name string) (string, error) {
	if id, ok := ing.categories[name]; ok {
		return id, nil
	}

	var id string
	err := ing.pool.QueryRow(ctx, insertCategorySQL, uuid.NewString(), name).Scan(&id)
	if err != nil {
		return "", errors.Wrapf(err, "create category %q", name)
	}
	ing.categories[name] = id

	slog.Info("created category", slog.String("name", name))
	return id, nil
}

// ingest streams the feed and upserts rows through a worker pool. The
// producer owns parsing, dedupe, and category resolution; workers only write
// products.
func (ing *ingester) ingest(ctx context.Context, feedFile string) error {
	g, ctx := errgroup.WithContext(ctx)
	work := make(chan feedRow, numWorkers*4)

	for range numWorkers {
		g.Go(func() error {
			for row := range work {
				if _, err := ing.pool.Exec(ctx, upsertProductSQL,
					row.ID, row.Name, row.Description, row.Price,
					row.Category, row.Image, row.Stock, row.Unit,
				); err != nil {
					return errors.Wrapf(err, "upsert product %s", row.ID)
				}

				if n := ing.imported.Add(1); n%progressEvery == 0 {
					slog.Info("ingest progress", slog.Uint64("imported", n))
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(work)
		return ing.produce(ctx, feedFile, work)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("ingest finished",
		slog.Uint64("imported", ing.imported.Load()),
		slog.Uint64("skipped", ing.skipped.Load()),
	)
	return nil
}

func (ing *ingester) produce(ctx context.Context, feedFile string, work chan<- feedRow) error {
	f, err := os.Open(feedFile)
	if err != nil {
		return errors.Wrapf(err, "open %s", feedFile)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", feedFile)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		var row feedRow
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			slog.Warn("skipping malformed feed line", slog.String("error", err.Error()))
			ing.skipped.Add(1)
			continue
		}
		if row.ID == "" || row.Name == "" || row.Category == "" {
			ing.skipped.Add(1)
			continue
		}

		if ing.seen.TestOrAddString(row.ID) {
			ing.skipped.Add(1)
			continue
		}

		catID, err := ing.categoryID(ctx, row.Category)
		if err != nil {
			return err
		}
		row.Category = catID

		select {
		case work <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return errors.Wrapf(scanner.Err(), "scan %s", feedFile)
}

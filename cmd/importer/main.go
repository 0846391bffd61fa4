// Package main imports products from a CSV export. Rows are keyed by
// SKU and upserted, so re-running the same file is safe.
//
// Expected columns: Name, Internal Reference, Barcode, Cost,
// Sales Price, Product Category.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalog/product"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/pkg/logger"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: importer <path-to-products.csv>")
		os.Exit(1)
	}
	path := os.Args[1]

	log, err := logger.New(logger.Config{Level: getEnv("LOG_LEVEL", "info")})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	productService := product.NewService(catalog_repo.NewProductRepo(txManager), txManager)

	created, updated, skipped, err := importFile(ctx, productService, path)
	if err != nil {
		log.Fatalw("import failed", "error", err, "path", path)
	}

	log.Infow("import finished",
		"path", path,
		"created", created,
		"updated", updated,
		"skipped", skipped,
	)
}

func importFile(ctx context.Context, svc *product.Service, path string) (created, updated, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("read header: %w", err)
	}
	col := indexColumns(header)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return created, updated, skipped, fmt.Errorf("read row: %w", err)
		}

		p, err := rowToProduct(record, col)
		if err != nil {
			logger.Warn(ctx, "skipping row", "error", err)
			skipped++
			continue
		}

		wasCreated, err := svc.Upsert(ctx, p)
		if err != nil {
			return created, updated, skipped, fmt.Errorf("upsert %s: %w", p.SKU, err)
		}
		if wasCreated {
			created++
		} else {
			updated++
		}
	}

	return created, updated, skipped, nil
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	return col
}

func rowToProduct(record []string, col map[string]int) (*product.Product, error) {
	field := func(name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	sku := field("Internal Reference")
	name := field("Name")
	if sku == "" || name == "" {
		return nil, fmt.Errorf("row without sku/name")
	}

	p := product.New(sku, name)
	if barcode := field("Barcode"); barcode != "" {
		p.Barcode = &barcode
	}
	if category := field("Product Category"); category != "" {
		p.Category = &category
	}

	var err error
	if p.Cost, err = parsePrice(field("Cost")); err != nil {
		return nil, fmt.Errorf("sku %s: invalid cost: %w", sku, err)
	}
	if p.SalesPrice, err = parsePrice(field("Sales Price")); err != nil {
		return nil, fmt.Errorf("sku %s: invalid sales price: %w", sku, err)
	}

	return p, nil
}

func parsePrice(raw string) (types.Money, error) {
	if raw == "" {
		return types.ZeroQuantity(), nil
	}
	return types.NewQuantityFromString(raw)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

// Package main seeds a development database with demo catalog entries
// and opening stock.
package main

import (
	"context"
	"fmt"
	"os"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalog/location"
	"stockledger/internal/domain/catalog/product"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/ledger_repo"
	"stockledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{Level: "info", Development: true})
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
	locationService := location.NewService(catalog_repo.NewLocationRepo(txManager), txManager)
	ledgerService := ledger.NewService(ledger_repo.NewLedgerRepo(txManager), txManager)

	locations := []*location.Location{
		location.New("MAIN", "Main warehouse"),
		location.New("STAGING", "Staging area"),
	}
	for _, l := range locations {
		if err := locationService.Create(ctx, l); err != nil {
			if apperror.HasCode(err, apperror.CodeDuplicate) {
				existing, err := locationService.GetByCode(ctx, l.Code)
				if err != nil {
					log.Fatalw("failed to load location", "code", l.Code, "error", err)
				}
				*l = *existing
				continue
			}
			log.Fatalw("failed to create location", "code", l.Code, "error", err)
		}
	}

	products := []*product.Product{
		demoProduct("CHAIR-01", "Office chair", "Furniture", "75.00", "149.00"),
		demoProduct("DESK-01", "Standing desk", "Furniture", "220.00", "399.00"),
		demoProduct("LAMP-01", "Desk lamp", "Lighting", "12.50", "29.90"),
	}
	for _, p := range products {
		if _, err := productService.Upsert(ctx, p); err != nil {
			log.Fatalw("failed to upsert product", "sku", p.SKU, "error", err)
		}
	}

	main := locations[0]
	openingStock := map[string]string{
		"CHAIR-01": "40",
		"DESK-01":  "15",
		"LAMP-01":  "120",
	}
	for _, p := range products {
		qty := types.MustQuantity(openingStock[p.SKU])
		_, err := ledgerService.ApplyMove(ctx, ledger.MoveRequest{
			Kind:         ledger.KindInbound,
			ProductID:    p.ID,
			Qty:          qty,
			ToLocationID: &main.ID,
		})
		if err != nil {
			log.Fatalw("failed to seed opening stock", "sku", p.SKU, "error", err)
		}
	}

	log.Infow("seed complete",
		"locations", len(locations),
		"products", len(products),
	)
}

func demoProduct(sku, name, category, cost, price string) *product.Product {
	p := product.New(sku, name)
	p.Category = &category
	p.Cost = types.MustQuantity(cost)
	p.SalesPrice = types.MustQuantity(price)
	return p
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

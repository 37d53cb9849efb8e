package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"cabin-rental-billing/internal/config"
	"cabin-rental-billing/internal/domain/model"
	pg "cabin-rental-billing/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	codeRepo := pg.NewDiscountCodeRepo(pool)

	// Sample discount codes for testing the campaign flow
	maxUses := 100
	codes := []*model.DiscountCode{
		{Code: "SUMMER25", DurationMonths: 2, ValidUntil: time.Now().AddDate(0, 3, 0), IsActive: true, MaxUses: &maxUses},
		{Code: "LAUNCH", DurationMonths: 1, ValidUntil: time.Now().AddDate(1, 0, 0), IsActive: true},
	}
	for _, c := range codes {
		if err := codeRepo.Save(ctx, nil, c); err != nil {
			log.Fatalf("save discount code %q: %v", c.Code, err)
		}
		fmt.Printf("seeded discount code: %s (months=%d)\n", c.Code, c.DurationMonths)
	}

	// Demo listing owned by a fixed test owner
	_, err = pool.Exec(ctx, `
		INSERT INTO listings (id, owner_id, title)
		VALUES ('listing-demo-1', 'owner-demo-1', 'Fjellhytte ved Sjusjøen')
		ON CONFLICT (id) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("seed listing: %v", err)
	}
	fmt.Println("seeded demo listing: listing-demo-1 (owner-demo-1)")

	fmt.Println("Seeding complete.")
}

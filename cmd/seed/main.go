package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/ContaSync/CS-Backend/internal/auth"
	"github.com/ContaSync/CS-Backend/internal/config"
	"github.com/ContaSync/CS-Backend/internal/db"
	"github.com/ContaSync/CS-Backend/internal/ledger"
	"github.com/ContaSync/CS-Backend/internal/seeds"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	gdb, err := db.Open(cfg.DatabaseURL, cfg.Pool)
	if err != nil {
		log.Fatal(err)
	}

	if err := auth.Init(gdb); err != nil {
		log.Fatal(err)
	}
	if err := ledger.Init(gdb); err != nil {
		log.Fatal(err)
	}

	store := ledger.NewStore(gdb, cfg.Ledger)
	if err := seeds.SeedAll(store); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}

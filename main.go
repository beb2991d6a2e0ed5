package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ContaSync/CS-Backend/internal/auth"
	"github.com/ContaSync/CS-Backend/internal/config"
	"github.com/ContaSync/CS-Backend/internal/db"
	"github.com/ContaSync/CS-Backend/internal/events"
	"github.com/ContaSync/CS-Backend/internal/ledger"
	"github.com/ContaSync/CS-Backend/internal/middleware"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

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
	if cfg.AMQPURL != "" {
		publisher, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal("Failed to connect to AMQP: ", err)
		}
		defer publisher.Close()
		store.WithEvents(publisher)
	}

	fetcher := auth.NewSessionFetcher(gdb)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middleware.RateLimitMiddleware(cfg.RateRPS, cfg.RateBurst))
	// Shed load once every pool slot is busy and the backlog is full,
	// instead of letting requests queue on the database without bound.
	r.Use(chimiddleware.ThrottleBacklog(cfg.Pool.MaxOpenConns, cfg.Pool.MaxOpenConns*2, cfg.Ledger.AcquireTimeout()))
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes(auth.NewHandler(gdb), fetcher))
	r.Mount("/api", ledger.SetupRoutes(ledger.NewHandler(store), fetcher))

	log.Printf("Server listening on port :%s...", cfg.Port)
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}

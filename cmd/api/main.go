package main

import (
    "context"
    "log"
    "net/http"
    "os"
    "time"

    "github.com/joho/godotenv"

    "carriercost/internal/carriers"
    "carriercost/internal/config"
    "carriercost/internal/db"
    "carriercost/internal/rate"
    "carriercost/internal/server"
    "carriercost/internal/zone"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()
    cfg := config.Load()

    reg, err := carriers.LoadBuiltin()
    if err != nil {
        log.Fatalf("failed to load built-in rule cards: %v", err)
    }
    if cfg.CardDir != "" {
        if err := reg.LoadDir(cfg.CardDir); err != nil {
            log.Fatalf("failed to load rule cards from %s: %v", cfg.CardDir, err)
        }
    }

    // When a database is configured, reference tables (zone mappings and
    // rate brackets) override the cards' bundled copies.
    if cfg.DatabaseURL != "" {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        pool, err := db.NewPool(ctx, cfg.DatabaseURL)
        if err != nil {
            log.Fatalf("failed to connect db: %v", err)
        }
        defer pool.Close()
        if err := pool.Ping(ctx); err != nil {
            log.Fatalf("database ping failed: %v", err)
        }

        zoneStore := zone.NewStore(pool)
        rateStore := rate.NewStore(pool)
        for _, info := range reg.List() {
            rates, err := rateStore.Load(ctx, info.Carrier, info.Service)
            if err != nil {
                log.Printf("keeping bundled rate table for %s/%s: %v", info.Carrier, info.Service, err)
                continue
            }
            // Keep the card's last-resort default zone when swapping in
            // database reference rows.
            defaultZone := 0
            if e, ok := reg.Get(info.Carrier, info.Service); ok {
                if t, ok := e.Zones.(*zone.Table); ok {
                    defaultZone = t.Default()
                }
            }
            zones, err := zoneStore.Load(ctx, info.Carrier, info.Service, defaultZone)
            if err != nil {
                log.Printf("keeping bundled zone table for %s/%s: %v", info.Carrier, info.Service, err)
                continue
            }
            if err := reg.Override(info.Carrier, info.Service, rates, zones); err != nil {
                log.Fatalf("reference data for %s/%s is inconsistent: %v", info.Carrier, info.Service, err)
            }
            log.Printf("loaded reference tables for %s/%s from database", info.Carrier, info.Service)
        }
    }

    h := server.New(reg, cfg.Workers)
    srv := &http.Server{
        Addr:              ":" + cfg.Port,
        Handler:           h,
        ReadTimeout:       10 * time.Second,
        ReadHeaderTimeout: 10 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    log.Printf("api listening on :%s (%d rule cards)", cfg.Port, len(reg.List()))
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Println("server error:", err)
        os.Exit(1)
    }
}

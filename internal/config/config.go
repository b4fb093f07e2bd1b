package config

import (
    "os"
    "strconv"
)

type Config struct {
    Port        string
    DatabaseURL string
    // CardDir is an optional directory of extra rule cards loaded on top
    // of the built-in ones.
    CardDir string
    // Workers caps batch evaluation parallelism; 0 means GOMAXPROCS.
    Workers int
}

func Load() Config {
    port := os.Getenv("PORT")
    if port == "" {
        port = "8080"
    }
    workers := 0
    if w := os.Getenv("WORKERS"); w != "" {
        if n, err := strconv.Atoi(w); err == nil {
            workers = n
        }
    }
    return Config{
        Port:        port,
        DatabaseURL: os.Getenv("DATABASE_URL"),
        CardDir:     os.Getenv("CARD_DIR"),
        Workers:     workers,
    }
}

package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"strings"
	"time"

	"route-optimizer-service/internal/adapters/cache"
	"route-optimizer-service/internal/config"
	"route-optimizer-service/internal/platform/db"

	"github.com/joho/godotenv"
)

// dbtool creates the road distance cache schema ahead of a deployment.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dialect := flag.String("dialect", "postgres", "database flavour: postgres or sqlite")
	dsn := flag.String("dsn", "", "postgres URL or sqlite path (defaults to DATABASE_URL / DB_PATH)")
	flag.Parse()

	var (
		conn *sql.DB
		err  error
	)
	switch cache.Dialect(strings.ToLower(*dialect)) {
	case cache.DialectPostgres:
		url := *dsn
		if url == "" {
			url = config.Get("DATABASE_URL", "")
		}
		if strings.TrimSpace(url) == "" {
			log.Fatal("DATABASE_URL is required")
		}
		conn, err = db.Open(url)
	case cache.DialectSqlite:
		path := *dsn
		if path == "" {
			path = config.Get("DB_PATH", "data/cache.db")
		}
		conn, err = db.OpenSqlite(path)
	default:
		log.Fatalf("unknown dialect %q", *dialect)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("Initializing distance cache schema...")
	if err := cache.InitSchema(ctx, conn, cache.Dialect(strings.ToLower(*dialect))); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")
}

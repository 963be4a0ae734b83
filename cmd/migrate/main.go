// Command migrate manages the auditline database schema: it applies and
// rolls back the call, notification, profile and directory migrations, loads
// the seed roles, and reports what has already run.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"auditline.org/internal/migrate"
)

func usage() {
	fmt.Fprintln(flag.CommandLine.Output(), `usage: migrate [flags] <command>

commands:
  up      apply pending migrations in filename order
  down    roll back the most recent migration
  seed    load seed data (each seed file runs once)
  status  list applied migrations and seeds

flags:`)
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("AUDITLINE_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "migrations", "Path to SQL migrations")
		seedsPath      = flag.String("seeds", "seeds", "Path to SQL seeds")
		timeout        = flag.Duration("timeout", 30*time.Second, "Overall execution deadline")
	)
	flag.Usage = usage
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or AUDITLINE_PG_DSN")
	}
	if len(flag.Args()) != 1 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, *migrationsPath, *seedsPath)

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		var history []migrate.Applied
		history, err = mgr.Status(ctx)
		if err == nil {
			if len(history) == 0 {
				fmt.Println("nothing applied yet")
			}
			for _, a := range history {
				fmt.Printf("%-9s  %-40s  %s\n", a.Kind, a.Name, a.AppliedAt.Format(time.RFC3339))
			}
		}
	default:
		log.Fatalf("unknown command %q", cmd)
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

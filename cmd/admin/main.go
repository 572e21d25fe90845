// Command admin bootstraps a superuser account. Intended for first-time
// setup and operations tooling, not for end users.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/krailo/recipe-api/internal/config"
	"github.com/krailo/recipe-api/internal/database"
	"github.com/krailo/recipe-api/internal/logging"
	"github.com/krailo/recipe-api/internal/user"
	"github.com/krailo/recipe-api/internal/validation"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("admin error: %v", err)
	}
}

func run() error {
	var (
		email    string
		pw       string
		initOnly bool
	)
	flag.StringVar(&email, "email", "", "superuser email")
	flag.StringVar(&pw, "password", "", "superuser password (or set ADMIN_PASSWORD)")
	flag.BoolVar(&initOnly, "init-schema", false, "create database tables and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if err := database.InitSchema(ctx, db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if initOnly {
		logger.Info("schema initialized")
		return nil
	}

	if pw == "" {
		pw = os.Getenv("ADMIN_PASSWORD")
	}
	if email == "" || pw == "" {
		flag.Usage()
		return errors.New("both -email and a password are required")
	}

	users := user.NewService(user.NewRepository(db), logger)

	created, err := users.CreateSuperuser(ctx, email, pw)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
			}
			return errors.New("validation failed")
		}
		if errors.Is(err, user.ErrDuplicateEmail) {
			return fmt.Errorf("a user with email %q already exists", email)
		}
		return fmt.Errorf("failed to create superuser: %w", err)
	}

	logger.Info("superuser created", "user_id", created.ID, "email", created.Email)
	return nil
}

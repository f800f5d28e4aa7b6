// cmd/seedmanager creates or refreshes a manager account holding the admin role.
// Usage: go run ./cmd/seedmanager -email ops@swiftaza.app -password secret
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"swiftaza/internal/config"
	"swiftaza/internal/infra"
	"swiftaza/internal/repository"
	"swiftaza/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	email := flag.String("email", "manager@swiftaza.app", "manager email")
	name := flag.String("name", "Swiftaza Manager", "manager full name")
	password := flag.String("password", "", "manager password (required)")
	flag.Parse()
	if *password == "" {
		log.Fatal().Msg("-password is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect error")
	}

	users := repository.NewUserRepository(db)
	roles := repository.NewRoleRepository(db)
	coord := service.NewCoordinator(users, roles, repository.NewWalletRepository(db),
		repository.NewProfileRepository(rdb), repository.NewArchiveRepository(rdb), service.NewAuthorizer(roles))

	res, err := service.BootstrapManager(context.Background(), users, service.NewProvisioner(roles), coord,
		service.ManagerSeed{Email: *email, FullName: *name, Password: *password})
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	log.Info().
		Str("id", res.User.ID.String()).
		Str("email", res.User.Email).
		Bool("created", res.Created).
		Bool("cache_synced", res.Mirror.Synced).
		Msg("manager seeded")
}

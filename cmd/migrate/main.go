// migrate aplica o revierte el esquema de la bitácora de operaciones.
//
// Uso: go run ./cmd/migrate [up|down]
// Por defecto aplica todas las migraciones pendientes; down revierte la última.
package main

import (
	"fmt"
	"os"

	"github.com/jhoicas/nfcom-bff/internal/infrastructure/postgres"
	"github.com/jhoicas/nfcom-bff/pkg/config"
	"github.com/jhoicas/nfcom-bff/pkg/logger"
)

func main() {
	direction := postgres.MigrateUp
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}
	if direction != postgres.MigrateUp && direction != postgres.MigrateDown {
		fmt.Fprintf(os.Stderr, "dirección inválida %q: use up o down\n", direction)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "migrate"})

	if err := postgres.RunMigrations(cfg.DB.ConnectionString(), direction, log); err != nil {
		log.Fatal().Err(err).Str("direction", direction).Msg("migraciones fallidas")
	}
}

package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/jhoicas/nfcom-bff/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Direcciones de migración.
const (
	MigrateUp   = "up"
	MigrateDown = "down"
)

// RunMigrations aplica (up) o revierte un paso (down) de las migraciones embebidas
// de la bitácora. dsn es el connection string postgres:// de la configuración.
func RunMigrations(dsn, direction string, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("abrir migraciones embebidas: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("crear migrate: %w", err)
	}
	defer m.Close()

	switch direction {
	case MigrateUp:
		err = m.Up()
	case MigrateDown:
		err = m.Steps(-1)
	default:
		return fmt.Errorf("dirección de migración desconocida: %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("aplicar migraciones (%s): %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("leer versión de migraciones: %w", verr)
	}
	log.Info().Str("direction", direction).Uint("version", version).Bool("dirty", dirty).Msg("migraciones aplicadas")
	return nil
}

// migrateURL el driver pgx/v5 de golang-migrate se registra con el esquema pgx5://.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

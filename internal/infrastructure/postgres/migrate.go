package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // driver "pgx" para database/sql
	"github.com/jhoicas/clinica-bodegas-api/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate aplica las migraciones embebidas contra dsn. Sin cambios pendientes no hace nada.
func Migrate(dsn string, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("abrir conexión de migración: %w", err)
	}
	defer db.Close()

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("leer migraciones embebidas: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{SchemaName: "public"})
	if err != nil {
		return fmt.Errorf("driver de migración: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("crear instancia de migración: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("sin migraciones pendientes")
			return nil
		}
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			return fmt.Errorf("migración fallida: versión %d sucia", dirty.Version)
		}
		return fmt.Errorf("migración fallida: %w", err)
	}
	version, _, _ := m.Version()
	log.Info().Uint("version", version).Msg("migraciones aplicadas")
	return nil
}

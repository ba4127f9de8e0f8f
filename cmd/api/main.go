package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/inventory"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
	"github.com/jhoicas/clinica-bodegas-api/internal/infrastructure/memory"
	"github.com/jhoicas/clinica-bodegas-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/clinica-bodegas-api/internal/interfaces/http"
	"github.com/jhoicas/clinica-bodegas-api/pkg/config"
	"github.com/jhoicas/clinica-bodegas-api/pkg/logger"
)

// storage agrupa los puertos que necesitan los casos de uso, sea cual sea el backend.
type storage struct {
	tx         inventory.TxRunner
	movements  repository.MovementRepository
	transfers  repository.TransferRepository
	warehouses repository.WarehouseRepository
	users      repository.UserRepository
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st := openStorage(ctx, cfg, log)
	defer st.close()

	ledger := inventory.NewLedgerUseCase(st.tx, st.movements, st.warehouses, st.users)
	allocation := inventory.NewAllocationUseCase(st.tx, ledger)
	transfers := inventory.NewTransferUseCase(st.tx, st.transfers, ledger, allocation)
	reconciliation := inventory.NewReconciliationUseCase(st.tx, ledger, log)

	timeout := time.Duration(cfg.HTTP.RequestTimeoutSeconds) * time.Second
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: timeout + time.Second*5,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	if cfg.HTTP.SwaggerFile != "" {
		if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.HTTP.SwaggerFile,
				Path:     "docs",
				Title:    "Bodegas Clínica API",
			}))
		} else {
			log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger no disponible")
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	if !cfg.JWT.Enabled() {
		log.Warn().Msg("JWT_SECRET vacío: rutas /api sin autenticación")
	}
	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:         ledger,
		Allocation:     allocation,
		Transfers:      transfers,
		Reconciliation: reconciliation,
		Log:            log,
		JWTSecret:      cfg.JWT.Secret,
		RequestTimeout: timeout,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.Storage == config.StorageMemory {
		s := memory.NewStore()
		seedMemory(s)
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return storage{
			tx:         s,
			movements:  s.Movements(),
			transfers:  s.Transfers(),
			warehouses: s.Warehouses(),
			users:      s.Users(),
			close:      func() {},
		}
	}

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	return storage{
		tx:         postgres.NewTxRunner(pool),
		movements:  postgres.NewMovementRepository(pool),
		transfers:  postgres.NewTransferRepository(pool),
		warehouses: postgres.NewWarehouseRepository(pool),
		users:      postgres.NewUserRepository(pool),
		close:      pool.Close,
	}
}

// seedMemory deja una bodega central, una ambulancia y sus responsables para pruebas manuales.
func seedMemory(s *memory.Store) {
	central, ambulancia := "bodega-central", "ambulancia-1"
	s.AddWarehouse(entity.Warehouse{ID: central, Name: "Bodega central"})
	s.AddWarehouse(entity.Warehouse{ID: ambulancia, Name: "Ambulancia 1"})
	s.AddUser(entity.User{ID: "admin", Name: "Administrador", Role: entity.RoleAdmin, Status: entity.UserStatusActive})
	s.AddUser(entity.User{ID: "bodeguero", Name: "Bodeguero", Role: entity.RoleBodeguero, WarehouseID: &central, Status: entity.UserStatusActive})
	s.AddUser(entity.User{ID: "paramedico", Name: "Paramédico", Role: entity.RoleParamedico, WarehouseID: &ambulancia, Status: entity.UserStatusActive})
}

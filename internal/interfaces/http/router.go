package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/inventory"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger         *inventory.LedgerUseCase
	Allocation     *inventory.AllocationUseCase
	Transfers      *inventory.TransferUseCase
	Reconciliation *inventory.ReconciliationUseCase
	Log            *logger.Logger
	JWTSecret      string        // vacío = rutas sin autenticación
	RequestTimeout time.Duration // 0 = sin límite por petición
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	authEnabled := deps.JWTSecret != ""

	api := app.Group("/api")
	if authEnabled {
		api.Use(AuthMiddleware(deps.JWTSecret))
	}

	// roles envuelve el handler con RBAC (si hay auth) y con el timeout por petición.
	roles := func(h fiber.Handler, allowed ...string) []fiber.Handler {
		if deps.RequestTimeout > 0 {
			h = timeout.NewWithContext(h, deps.RequestTimeout)
		}
		if !authEnabled {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{RequireRole(allowed...), h}
	}
	all := []string{entity.RoleAdmin, entity.RoleBodeguero, entity.RoleParamedico}
	warehouseStaff := []string{entity.RoleAdmin, entity.RoleBodeguero}

	movementHandler := NewMovementHandler(deps.Ledger, deps.Allocation, log)
	movements := api.Group("/movements")
	movements.Post("/entries", roles(movementHandler.RegisterEntry, warehouseStaff...)...)
	movements.Get("/:id", roles(movementHandler.GetMovement, all...)...)

	stock := api.Group("/stock")
	stock.Get("/", roles(movementHandler.GetStock, all...)...)
	stock.Post("/consume", roles(movementHandler.ConsumeStock, all...)...)

	transferHandler := NewTransferHandler(deps.Transfers, deps.Reconciliation, log)
	transfers := api.Group("/transfers")
	transfers.Post("/", roles(transferHandler.Dispatch, warehouseStaff...)...)
	transfers.Get("/", roles(transferHandler.List, all...)...)
	transfers.Get("/:id", roles(transferHandler.Get, all...)...)
	transfers.Post("/:id/cancel", roles(transferHandler.Cancel, warehouseStaff...)...)
	transfers.Post("/:id/receive", roles(transferHandler.ReceiveBatch, all...)...)

	lines := api.Group("/transfer-lines")
	lines.Post("/:id/receive", roles(transferHandler.ReceiveLine, all...)...)
	lines.Post("/:id/reject", roles(transferHandler.RejectLine, all...)...)
}

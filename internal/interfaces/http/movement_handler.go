package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/dto"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/inventory"
	"github.com/jhoicas/clinica-bodegas-api/pkg/logger"
)

// MovementHandler entradas de stock y consulta del kardex.
type MovementHandler struct {
	ledger     *inventory.LedgerUseCase
	allocation *inventory.AllocationUseCase
	log        *logger.Logger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(ledger *inventory.LedgerUseCase, allocation *inventory.AllocationUseCase, log *logger.Logger) *MovementHandler {
	return &MovementHandler{ledger: ledger, allocation: allocation, log: log}
}

// RegisterEntry godoc
// @Summary      Registrar entrada de stock
// @Description  Compra o carga inicial: una cabecera ENTRY con sus líneas, todo o nada.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RegisterEntryRequest  true  "bodega, empleado y líneas"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/movements/entries [post]
func (h *MovementHandler) RegisterEntry(c *fiber.Ctx) error {
	var in dto.RegisterEntryRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	in.UserID = actorID(c, in.UserID)
	out, err := h.ledger.RegisterEntry(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetMovement godoc
// @Summary      Obtener movimiento
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [get]
func (h *MovementHandler) GetMovement(c *fiber.Ctx) error {
	out, err := h.ledger.GetMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetStock godoc
// @Summary      Stock disponible
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query     string  true  "Producto"
// @Param        warehouse_id  query     string  true  "Bodega"
// @Success      200           {object}  dto.StockResponse
// @Failure      400           {object}  dto.ErrorResponse
// @Router       /api/stock [get]
func (h *MovementHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.ledger.GetAvailableStock(c.UserContext(), c.Query("product_id"), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ConsumeStock godoc
// @Summary      Consumir stock (FIFO)
// @Description  Descuenta la cantidad desde las entradas más antiguas. Si no alcanza no descuenta nada.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ConsumeStockRequest  true  "producto, bodega y cantidad"
// @Success      201   {object}  dto.ConsumeStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/consume [post]
func (h *MovementHandler) ConsumeStock(c *fiber.Ctx) error {
	var in dto.ConsumeStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	in.UserID = actorID(c, in.UserID)
	out, err := h.allocation.ConsumeStock(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

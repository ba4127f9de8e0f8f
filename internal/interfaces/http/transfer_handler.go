package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/dto"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/inventory"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
	"github.com/jhoicas/clinica-bodegas-api/pkg/logger"
)

// TransferHandler despacho, consulta, cancelación y recepción de traslados.
type TransferHandler struct {
	transfers      *inventory.TransferUseCase
	reconciliation *inventory.ReconciliationUseCase
	log            *logger.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(transfers *inventory.TransferUseCase, reconciliation *inventory.ReconciliationUseCase, log *logger.Logger) *TransferHandler {
	return &TransferHandler{transfers: transfers, reconciliation: reconciliation, log: log}
}

// Dispatch godoc
// @Summary      Despachar traslado
// @Description  Crea el traslado y la salida FIFO de la bodega origen en una sola transacción.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.DispatchTransferRequest  true  "origen, destino y líneas"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Dispatch(c *fiber.Ctx) error {
	var in dto.DispatchTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	in.OriginUserID = actorID(c, in.OriginUserID)
	out, err := h.transfers.Dispatch(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        origin_warehouse_id       query     string  false  "Bodega origen"
// @Param        destination_warehouse_id  query     string  false  "Bodega destino"
// @Param        status                    query     int     false  "0 pendiente, 1 completado, 2 cancelado"
// @Param        limit                     query     int     false  "Máximo 100"
// @Param        offset                    query     int     false  "Desplazamiento"
// @Success      200                       {object}  dto.TransferListResponse
// @Failure      400                       {object}  dto.ErrorResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	filter := repository.TransferFilter{
		OriginWarehouseID:      c.Query("origin_warehouse_id"),
		DestinationWarehouseID: c.Query("destination_warehouse_id"),
		Limit:                  c.QueryInt("limit", 0),
		Offset:                 c.QueryInt("offset", 0),
	}
	if s := c.Query("status"); s != "" {
		st, err := strconv.Atoi(s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: inventory.CodeValidation, Message: "status inválido"})
		}
		filter.Status = &st
	}
	out, err := h.transfers.ListTransfers(c.UserContext(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	out, err := h.transfers.GetTransfer(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar traslado
// @Description  Solo traslados pendientes. No devuelve stock a la bodega origen.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "ID del traslado"
// @Param        body  body      dto.CancelTransferRequest  true  "motivo"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	in.UserID = actorID(c, in.UserID)
	out, err := h.reconciliation.CancelTransfer(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ReceiveBatch godoc
// @Summary      Recibir traslado por lote
// @Description  Procesa cada línea por separado: las fallas individuales se informan en failures y no bloquean al resto.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                           true  "ID del traslado"
// @Param        body  body      dto.ReceiveTransferBatchRequest  true  "líneas y cantidades"
// @Success      200   {object}  dto.ReceiveTransferBatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) ReceiveBatch(c *fiber.Ctx) error {
	var in dto.ReceiveTransferBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	in.TransferID = c.Params("id")
	in.ReceivingUserID = actorID(c, in.ReceivingUserID)
	out, err := h.reconciliation.CompleteTransfer(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ReceiveLine godoc
// @Summary      Recibir línea de traslado
// @Description  Recepción total o parcial. Genera una entrada en la bodega destino.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                          true  "ID de la línea"
// @Param        body  body      dto.ReceiveTransferLineRequest  true  "cantidad recibida"
// @Success      200   {object}  dto.ReceiveTransferLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/transfer-lines/{id}/receive [post]
func (h *TransferHandler) ReceiveLine(c *fiber.Ctx) error {
	var in dto.ReceiveTransferLineRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	in.TransferLineID = c.Params("id")
	in.ReceivingUserID = actorID(c, in.ReceivingUserID)
	out, err := h.reconciliation.CompleteLine(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// RejectLine godoc
// @Summary      Rechazar línea de traslado
// @Description  Resuelve la línea sin recepción. Sin motivo se usa "not received".
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                         true  "ID de la línea"
// @Param        body  body      dto.RejectTransferLineRequest  false "motivo"
// @Success      200   {object}  dto.RejectTransferLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transfer-lines/{id}/reject [post]
func (h *TransferHandler) RejectLine(c *fiber.Ctx) error {
	var in dto.RejectTransferLineRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	in.TransferLineID = c.Params("id")
	in.ReceivingUserID = actorID(c, in.ReceivingUserID)
	out, err := h.reconciliation.RejectLine(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

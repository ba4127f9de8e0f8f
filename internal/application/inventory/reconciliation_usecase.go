package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/clinica-bodegas-api/internal/application/dto"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
	"github.com/jhoicas/clinica-bodegas-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// ReconciliationUseCase conciliación de traslados: recepción total o parcial de líneas, rechazo,
// recepción por lote y cancelación. Cada operación corre en una sola transacción y relee el estado
// actual bloqueando traslado y línea (en ese orden) antes de escribir.
type ReconciliationUseCase struct {
	txRunner TxRunner
	ledger   *LedgerUseCase
	log      *logger.Logger
}

// NewReconciliationUseCase construye el caso de uso.
func NewReconciliationUseCase(txRunner TxRunner, ledger *LedgerUseCase, log *logger.Logger) *ReconciliationUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconciliationUseCase{txRunner: txRunner, ledger: ledger, log: log}
}

// receiptEvent agrupa las entradas generadas en una misma recepción: una cabecera ENTRY por evento.
type receiptEvent struct {
	actorID string
	now     time.Time
	header  *entity.MovementHeader
}

// lineReceipt resultado interno de recibir una línea.
type lineReceipt struct {
	line      *entity.TransferLine
	entryLine *entity.MovementLine
	receipt   entity.Receipt
}

// CompleteLine recibe quantityReceived unidades de una línea de traslado (ReceiveTransferLine).
// Crea la entrada en la bodega destino, la agrega al linaje de la línea, actualiza lo recibido y
// recalcula el estado del traslado. Todo o nada.
func (uc *ReconciliationUseCase) CompleteLine(ctx context.Context, in dto.ReceiveTransferLineRequest) (*dto.ReceiveTransferLineResponse, error) {
	if strings.TrimSpace(in.TransferLineID) == "" || strings.TrimSpace(in.ReceivingUserID) == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := entity.CheckQuantity(in.QuantityReceived); err != nil {
		return nil, err
	}

	var out *dto.ReceiveTransferLineResponse
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		transferRepo repository.TransferRepository,
		warehouseRepo repository.WarehouseRepository,
		userRepo repository.UserRepository,
	) error {
		transfer, line, err := uc.lockLine(ctx, transferRepo, in.TransferLineID)
		if err != nil {
			return err
		}
		if err := validateReferences(ctx, warehouseRepo, userRepo, transfer.DestinationWarehouseID, in.ReceivingUserID); err != nil {
			return err
		}

		ev := &receiptEvent{actorID: in.ReceivingUserID, now: time.Now()}
		res, err := uc.receiveInTx(ctx, movRepo, transferRepo, transfer, line, in.QuantityReceived, ev)
		if err != nil {
			return err
		}
		if err := uc.finishInTx(ctx, transferRepo, transfer, ev, true); err != nil {
			return err
		}

		out = &dto.ReceiveTransferLineResponse{
			Success:          true,
			Message:          receiptMessage(res.receipt),
			NewMovementID:    ev.header.ID,
			NewEntryLineID:   res.entryLine.ID,
			ReceivedQuantity: res.receipt.ReceivedTotal,
			Resolved:         res.receipt.Resolved,
			OverReceived:     res.receipt.OverReceived,
			TransferStatus:   transfer.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.OverReceived {
		uc.log.ForLine(in.TransferLineID).Warn().
			Str("received", out.ReceivedQuantity.String()).
			Msg("recepción mayor a lo esperado")
	}
	return out, nil
}

// RejectLine rechaza una línea abierta: queda resuelta con motivo y no genera entrada en el kardex.
func (uc *ReconciliationUseCase) RejectLine(ctx context.Context, in dto.RejectTransferLineRequest) (*dto.RejectTransferLineResponse, error) {
	if strings.TrimSpace(in.TransferLineID) == "" || strings.TrimSpace(in.ReceivingUserID) == "" {
		return nil, domain.ErrInvalidInput
	}

	var out *dto.RejectTransferLineResponse
	err := uc.txRunner.Run(ctx, func(
		_ repository.MovementRepository,
		transferRepo repository.TransferRepository,
		warehouseRepo repository.WarehouseRepository,
		userRepo repository.UserRepository,
	) error {
		transfer, line, err := uc.lockLine(ctx, transferRepo, in.TransferLineID)
		if err != nil {
			return err
		}
		if err := validateReferences(ctx, warehouseRepo, userRepo, transfer.DestinationWarehouseID, in.ReceivingUserID); err != nil {
			return err
		}
		now := time.Now()
		if err := line.Reject(in.Reason, in.ReceivingUserID, now); err != nil {
			return err
		}
		if err := transferRepo.UpdateLine(ctx, line); err != nil {
			return err
		}
		ev := &receiptEvent{actorID: in.ReceivingUserID, now: now}
		if err := uc.finishInTx(ctx, transferRepo, transfer, ev, false); err != nil {
			return err
		}
		out = &dto.RejectTransferLineResponse{
			Success:        true,
			Message:        "línea rechazada: " + *line.CancelReason,
			TransferStatus: transfer.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteTransfer recibe varias líneas de un traslado en un solo evento (ReceiveTransferBatch).
// Una línea inexistente, ajena al traslado o ya resuelta se registra como falla y se omite sin
// afectar a las demás. El estado del traslado se recalcula una sola vez al final.
// Un error de persistencia sí aborta el lote completo.
func (uc *ReconciliationUseCase) CompleteTransfer(ctx context.Context, in dto.ReceiveTransferBatchRequest) (*dto.ReceiveTransferBatchResponse, error) {
	if strings.TrimSpace(in.TransferID) == "" || strings.TrimSpace(in.ReceivingUserID) == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}

	var out *dto.ReceiveTransferBatchResponse
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		transferRepo repository.TransferRepository,
		warehouseRepo repository.WarehouseRepository,
		userRepo repository.UserRepository,
	) error {
		transfer, err := transferRepo.GetForUpdate(ctx, in.TransferID)
		if err != nil {
			return err
		}
		if transfer == nil {
			return domain.ErrNotFound
		}
		if !transfer.IsPending() {
			return domain.ErrInvalidStateTransition
		}
		if err := validateReferences(ctx, warehouseRepo, userRepo, transfer.DestinationWarehouseID, in.ReceivingUserID); err != nil {
			return err
		}

		ev := &receiptEvent{actorID: in.ReceivingUserID, now: time.Now()}
		out = &dto.ReceiveTransferBatchResponse{EntryLineIDsByProduct: map[string][]string{}}
		received := 0
		for _, req := range in.Lines {
			line, err := uc.batchLine(ctx, transferRepo, transfer.ID, req)
			if err != nil {
				if !isLineFailure(err) {
					return err
				}
				uc.log.ForTransfer(transfer.ID).ForLine(req.TransferLineID).Warn().Err(err).
					Msg("línea omitida en recepción por lote")
				out.Failures = append(out.Failures, dto.BatchLineFailure{
					TransferLineID: req.TransferLineID,
					Code:           ErrorCode(err),
					Message:        err.Error(),
				})
				continue
			}
			res, err := uc.receiveInTx(ctx, movRepo, transferRepo, transfer, line, req.QuantityReceived, ev)
			if err != nil {
				return err
			}
			received++
			pid := res.line.ProductID
			out.EntryLineIDsByProduct[pid] = append(out.EntryLineIDsByProduct[pid], res.entryLine.ID)
			if res.receipt.OverReceived {
				out.OverReceivedLineIDs = append(out.OverReceivedLineIDs, line.ID)
			}
		}

		if err := uc.finishInTx(ctx, transferRepo, transfer, ev, received > 0); err != nil {
			return err
		}
		if ev.header != nil {
			out.NewMovementID = ev.header.ID
		}
		out.Success = len(out.Failures) == 0
		out.Message = fmt.Sprintf("%d de %d líneas recibidas", received, len(in.Lines))
		out.TransferStatus = transfer.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelTransfer cancela un traslado pendiente. No devuelve stock a la bodega origen.
func (uc *ReconciliationUseCase) CancelTransfer(ctx context.Context, transferID string, in dto.CancelTransferRequest) (*dto.TransferResponse, error) {
	if strings.TrimSpace(transferID) == "" || strings.TrimSpace(in.Reason) == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *dto.TransferResponse
	err := uc.txRunner.Run(ctx, func(
		_ repository.MovementRepository,
		transferRepo repository.TransferRepository,
		warehouseRepo repository.WarehouseRepository,
		userRepo repository.UserRepository,
	) error {
		transfer, err := transferRepo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if transfer == nil {
			return domain.ErrNotFound
		}
		if in.UserID != "" {
			if err := validateReferences(ctx, warehouseRepo, userRepo, transfer.OriginWarehouseID, in.UserID); err != nil {
				return err
			}
		}
		if err := transfer.Cancel(in.Reason, in.UserID, time.Now()); err != nil {
			return err
		}
		if err := transferRepo.Update(ctx, transfer); err != nil {
			return err
		}
		lines, err := transferRepo.ListLines(ctx, transfer.ID)
		if err != nil {
			return err
		}
		out = toTransferResponse(transfer, lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lockLine bloquea el traslado dueño de la línea y después la línea, siempre en ese orden.
// Una línea ya resuelta falla con ErrAlreadyResolved aunque su traslado ya no esté pendiente.
func (uc *ReconciliationUseCase) lockLine(ctx context.Context, transferRepo repository.TransferRepository, lineID string) (*entity.Transfer, *entity.TransferLine, error) {
	owner, err := transferRepo.GetLine(ctx, lineID)
	if err != nil {
		return nil, nil, err
	}
	if owner == nil {
		return nil, nil, domain.ErrNotFound
	}
	transfer, err := transferRepo.GetForUpdate(ctx, owner.TransferID)
	if err != nil {
		return nil, nil, err
	}
	if transfer == nil {
		return nil, nil, domain.ErrNotFound
	}
	line, err := transferRepo.GetLineForUpdate(ctx, lineID)
	if err != nil {
		return nil, nil, err
	}
	if line == nil {
		return nil, nil, domain.ErrNotFound
	}
	if line.Resolved {
		return nil, nil, domain.ErrAlreadyResolved
	}
	if !transfer.IsPending() {
		return nil, nil, domain.ErrInvalidStateTransition
	}
	return transfer, line, nil
}

// batchLine bloquea la línea del lote y verifica, sin escribir nada, que pertenezca al traslado
// y admita la recepción.
func (uc *ReconciliationUseCase) batchLine(ctx context.Context, transferRepo repository.TransferRepository, transferID string, req dto.BatchLineRequest) (*entity.TransferLine, error) {
	if strings.TrimSpace(req.TransferLineID) == "" {
		return nil, domain.ErrInvalidInput
	}
	line, err := transferRepo.GetLineForUpdate(ctx, req.TransferLineID)
	if err != nil {
		return nil, err
	}
	if line == nil || line.TransferID != transferID {
		return nil, fmt.Errorf("línea %s: %w", req.TransferLineID, domain.ErrNotFound)
	}
	if err := line.CheckReceivable(req.QuantityReceived); err != nil {
		return nil, fmt.Errorf("línea %s: %w", req.TransferLineID, err)
	}
	return line, nil
}

// receiveInTx valida y aplica una recepción sobre una línea ya bloqueada. Las precondiciones se
// verifican antes de cualquier escritura.
func (uc *ReconciliationUseCase) receiveInTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	transferRepo repository.TransferRepository,
	transfer *entity.Transfer,
	line *entity.TransferLine,
	qty decimal.Decimal,
	ev *receiptEvent,
) (*lineReceipt, error) {
	if err := line.CheckReceivable(qty); err != nil {
		return nil, err
	}
	price, err := uc.carriedPrice(ctx, movRepo, line)
	if err != nil {
		return nil, err
	}
	if ev.header == nil {
		ev.header, err = uc.ledger.CreateMovementInTx(ctx, movRepo, NewMovementInput{
			Type:        entity.MovementTypeEntry,
			WarehouseID: transfer.DestinationWarehouseID,
			UserID:      ev.actorID,
			IsTransfer:  true,
		}, ev.now)
		if err != nil {
			return nil, err
		}
	}
	entryLine, err := uc.ledger.AppendLineInTx(ctx, movRepo, NewLineInput{
		MovementID: ev.header.ID,
		ProductID:  line.ProductID,
		Quantity:   qty,
		SupplierID: line.SupplierID,
		UnitPrice:  price,
	}, ev.now)
	if err != nil {
		return nil, err
	}
	receipt, err := line.Receive(qty, entryLine.ID, ev.now)
	if err != nil {
		return nil, err
	}
	if err := transferRepo.AppendEntryLineage(ctx, line.ID, entryLine.ID); err != nil {
		return nil, err
	}
	if err := transferRepo.UpdateLine(ctx, line); err != nil {
		return nil, err
	}
	return &lineReceipt{line: line, entryLine: entryLine, receipt: receipt}, nil
}

// carriedPrice precio unitario de la línea de salida origen. Si no hay linaje o la línea no
// existe, se continúa sin precio.
func (uc *ReconciliationUseCase) carriedPrice(ctx context.Context, movRepo repository.MovementRepository, line *entity.TransferLine) (*decimal.Decimal, error) {
	if line.SourceLineID == nil || *line.SourceLineID == "" {
		return nil, nil
	}
	src, err := movRepo.GetLine(ctx, *line.SourceLineID)
	if err != nil {
		return nil, err
	}
	if src == nil || src.UnitPrice == nil || src.UnitPrice.IsNegative() {
		uc.log.ForLine(line.ID).Debug().Msg("sin precio en el linaje de origen")
		return nil, nil
	}
	price := *src.UnitPrice
	return &price, nil
}

// finishInTx marca el inicio de la recepción (si corresponde), recalcula el estado y persiste el traslado.
func (uc *ReconciliationUseCase) finishInTx(ctx context.Context, transferRepo repository.TransferRepository, transfer *entity.Transfer, ev *receiptEvent, received bool) error {
	if received {
		transfer.MarkReceiptStarted(ev.actorID, ev.now)
	}
	lines, err := transferRepo.ListLines(ctx, transfer.ID)
	if err != nil {
		return err
	}
	transfer.RecomputeStatus(lines, ev.now)
	return transferRepo.Update(ctx, transfer)
}

// isLineFailure indica si el error de una línea del lote se puede omitir sin abortar el lote.
func isLineFailure(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidStateTransition) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidInput)
}

func receiptMessage(r entity.Receipt) string {
	switch {
	case r.OverReceived:
		return "línea resuelta: se recibió más de lo esperado"
	case r.Resolved:
		return "línea recibida completamente"
	default:
		return "línea recibida parcialmente"
	}
}

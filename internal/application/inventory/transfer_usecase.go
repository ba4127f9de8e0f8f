package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/dto"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
)

// TransferUseCase despacho y consulta de traslados entre bodegas.
type TransferUseCase struct {
	txRunner     TxRunner
	transferRepo repository.TransferRepository
	ledger       *LedgerUseCase
	allocation   *AllocationUseCase
}

// NewTransferUseCase construye el caso de uso. transferRepo es de solo lectura (fuera de transacción).
func NewTransferUseCase(
	txRunner TxRunner,
	transferRepo repository.TransferRepository,
	ledger *LedgerUseCase,
	allocation *AllocationUseCase,
) *TransferUseCase {
	return &TransferUseCase{
		txRunner:     txRunner,
		transferRepo: transferRepo,
		ledger:       ledger,
		allocation:   allocation,
	}
}

// Dispatch crea el traslado con sus líneas y, en la misma transacción, la salida de la bodega origen
// consumiendo stock FIFO. Si alguna línea no tiene stock suficiente no se crea nada.
func (uc *TransferUseCase) Dispatch(ctx context.Context, in dto.DispatchTransferRequest) (*dto.TransferResponse, error) {
	if in.OriginWarehouseID == "" || in.DestinationWarehouseID == "" || in.OriginUserID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.OriginWarehouseID == in.DestinationWarehouseID {
		return nil, domain.ErrInvalidInput
	}
	for _, l := range in.Lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return nil, domain.ErrInvalidInput
		}
		if err := entity.CheckQuantity(l.Quantity); err != nil {
			return nil, err
		}
	}
	if err := uc.ledger.ValidateReferences(ctx, in.OriginWarehouseID, in.OriginUserID); err != nil {
		return nil, err
	}
	if err := uc.ledger.ValidateReferences(ctx, in.DestinationWarehouseID, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	var out *dto.TransferResponse
	err := uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, transferRepo repository.TransferRepository, _ repository.WarehouseRepository, _ repository.UserRepository) error {
		exit, err := uc.ledger.CreateMovementInTx(ctx, movRepo, NewMovementInput{
			Type:        entity.MovementTypeExit,
			WarehouseID: in.OriginWarehouseID,
			UserID:      in.OriginUserID,
			IsTransfer:  true,
		}, now)
		if err != nil {
			return err
		}
		transfer := &entity.Transfer{
			ID:                     uuid.New().String(),
			OriginWarehouseID:      in.OriginWarehouseID,
			DestinationWarehouseID: in.DestinationWarehouseID,
			OriginUserID:           in.OriginUserID,
			ShippedAt:              now,
			Status:                 entity.TransferStatusPending,
		}
		if err := transferRepo.Create(ctx, transfer); err != nil {
			return err
		}

		lines := make([]*entity.TransferLine, 0, len(in.Lines))
		for _, l := range in.Lines {
			consumed, err := uc.allocation.ConsumeInTx(ctx, movRepo, exit, l.ProductID, l.Quantity, now)
			if err != nil {
				return err
			}
			source := consumed[0].ExitLine.ID
			supplier := l.SupplierID
			if supplier == nil {
				supplier = consumed[0].SupplierID
			}
			line := &entity.TransferLine{
				ID:               uuid.New().String(),
				TransferID:       transfer.ID,
				ProductID:        l.ProductID,
				SupplierID:       supplier,
				ExpectedQuantity: l.Quantity,
				SourceLineID:     &source,
			}
			if err := transferRepo.CreateLine(ctx, line); err != nil {
				return err
			}
			lines = append(lines, line)
		}
		out = toTransferResponse(transfer, lines)
		out.ExitMovementID = exit.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetTransfer obtiene un traslado con sus líneas y linaje de entradas.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id string) (*dto.TransferResponse, error) {
	transfer, err := uc.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, domain.ErrNotFound
	}
	lines, err := uc.transferRepo.ListLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTransferResponse(transfer, lines), nil
}

// ListTransfers lista traslados (sin líneas) por bodega y estado.
func (uc *TransferUseCase) ListTransfers(ctx context.Context, filter repository.TransferFilter) (*dto.TransferListResponse, error) {
	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset

	list, err := uc.transferRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := uc.transferRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		items = append(items, *toTransferResponse(t, nil))
	}
	return &dto.TransferListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

func toTransferResponse(t *entity.Transfer, lines []*entity.TransferLine) *dto.TransferResponse {
	out := &dto.TransferResponse{
		ID:                     t.ID,
		OriginWarehouseID:      t.OriginWarehouseID,
		DestinationWarehouseID: t.DestinationWarehouseID,
		OriginUserID:           t.OriginUserID,
		DestinationUserID:      t.DestinationUserID,
		ShippedAt:              t.ShippedAt,
		ReceivedAt:             t.ReceivedAt,
		CompletedAt:            t.CompletedAt,
		CancelledAt:            t.CancelledAt,
		CancelReason:           t.CancelReason,
		Status:                 t.Status,
		Lines:                  make([]dto.TransferLineResponse, 0, len(lines)),
	}
	for _, l := range lines {
		entries := l.EntryLineIDs
		if entries == nil {
			entries = []string{}
		}
		out.Lines = append(out.Lines, dto.TransferLineResponse{
			ID:               l.ID,
			ProductID:        l.ProductID,
			SupplierID:       l.SupplierID,
			ExpectedQuantity: l.ExpectedQuantity,
			ReceivedQuantity: l.ReceivedQuantity,
			Resolved:         l.Resolved,
			ResolvedAt:       l.ResolvedAt,
			CancelReason:     l.CancelReason,
			RejectedBy:       l.RejectedBy,
			SourceLineID:     l.SourceLineID,
			EntryLineIDs:     entries,
		})
	}
	return out
}

package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/clinica-bodegas-api/internal/application/dto"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// AllocationUseCase descuenta stock en orden FIFO (dispensación a pacientes, despacho de traslados).
type AllocationUseCase struct {
	txRunner TxRunner
	ledger   *LedgerUseCase
}

// NewAllocationUseCase construye el caso de uso.
func NewAllocationUseCase(txRunner TxRunner, ledger *LedgerUseCase) *AllocationUseCase {
	return &AllocationUseCase{txRunner: txRunner, ledger: ledger}
}

// ConsumedLine porción tomada de una línea de entrada y la línea de salida que la registra.
type ConsumedLine struct {
	inventory.Allocation
	ExitLine *entity.MovementLine
}

// ConsumeInTx bloquea las líneas de entrada activas del producto, planifica FIFO y registra una línea
// de salida por cada línea origen en el movimiento exitHeader. Debe correr dentro de la transacción
// del llamador: ante ErrInsufficientStock el llamador hace rollback de todo.
func (uc *AllocationUseCase) ConsumeInTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	exitHeader *entity.MovementHeader,
	productID string,
	quantity decimal.Decimal,
	now time.Time,
) ([]ConsumedLine, error) {
	lines, err := movRepo.ListActiveEntryLinesForUpdate(ctx, productID, exitHeader.WarehouseID)
	if err != nil {
		return nil, err
	}
	candidates := make([]inventory.Candidate, 0, len(lines))
	movedAt := make(map[string]time.Time)
	for _, l := range lines {
		at, ok := movedAt[l.MovementID]
		if !ok {
			h, err := movRepo.GetHeader(ctx, l.MovementID)
			if err != nil {
				return nil, err
			}
			if h == nil {
				return nil, domain.ErrNotFound
			}
			at = h.MovedAt
			movedAt[l.MovementID] = at
		}
		candidates = append(candidates, inventory.Candidate{Line: l, MovedAt: at})
	}

	allocs, err := inventory.PlanFIFO(candidates, quantity)
	if err != nil {
		return nil, err
	}

	out := make([]ConsumedLine, 0, len(allocs))
	for _, a := range allocs {
		parentID := a.SourceLineID
		exitLine, err := uc.ledger.AppendLineInTx(ctx, movRepo, NewLineInput{
			MovementID:   exitHeader.ID,
			ProductID:    productID,
			Quantity:     a.Quantity,
			SupplierID:   a.SupplierID,
			UnitPrice:    a.UnitPrice,
			ParentLineID: &parentID,
		}, now)
		if err != nil {
			return nil, err
		}
		out = append(out, ConsumedLine{Allocation: a, ExitLine: exitLine})
	}
	return out, nil
}

// ConsumeStock descuenta quantity unidades del producto en la bodega (todo o nada).
// Crea un movimiento de salida con una línea por cada línea de entrada consumida.
func (uc *AllocationUseCase) ConsumeStock(ctx context.Context, in dto.ConsumeStockRequest) (*dto.ConsumeStockResponse, error) {
	if strings.TrimSpace(in.ProductID) == "" || strings.TrimSpace(in.WarehouseID) == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := entity.CheckQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if err := uc.ledger.ValidateReferences(ctx, in.WarehouseID, in.UserID); err != nil {
		return nil, err
	}

	now := time.Now()
	var out *dto.ConsumeStockResponse
	err := uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, _ repository.TransferRepository, _ repository.WarehouseRepository, _ repository.UserRepository) error {
		header, err := uc.ledger.CreateMovementInTx(ctx, movRepo, NewMovementInput{
			Type:        entity.MovementTypeExit,
			WarehouseID: in.WarehouseID,
			UserID:      in.UserID,
		}, now)
		if err != nil {
			return err
		}
		consumed, err := uc.ConsumeInTx(ctx, movRepo, header, in.ProductID, in.Quantity, now)
		if err != nil {
			return err
		}
		out = toConsumeResponse(header, consumed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toConsumeResponse(header *entity.MovementHeader, consumed []ConsumedLine) *dto.ConsumeStockResponse {
	allocs := make([]inventory.Allocation, 0, len(consumed))
	out := &dto.ConsumeStockResponse{
		Success:           true,
		MovementID:        header.ID,
		ConsumedFromLines: make([]dto.ConsumedFromLine, 0, len(consumed)),
	}
	for _, c := range consumed {
		allocs = append(allocs, c.Allocation)
		out.ConsumedFromLines = append(out.ConsumedFromLines, dto.ConsumedFromLine{
			SourceLineID:  c.SourceLineID,
			ExitLineID:    c.ExitLine.ID,
			QuantityTaken: c.Quantity,
		})
	}
	out.AverageUnitPrice = inventory.AverageUnitPrice(allocs)
	return out
}

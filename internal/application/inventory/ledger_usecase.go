package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/dto"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// LedgerUseCase kardex de movimientos: cabeceras de entrada/salida y sus líneas.
type LedgerUseCase struct {
	txRunner      TxRunner
	movRepo       repository.MovementRepository
	warehouseRepo repository.WarehouseRepository
	userRepo      repository.UserRepository
}

// NewLedgerUseCase construye el caso de uso. movRepo es de solo lectura (fuera de transacción).
func NewLedgerUseCase(
	txRunner TxRunner,
	movRepo repository.MovementRepository,
	warehouseRepo repository.WarehouseRepository,
	userRepo repository.UserRepository,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:      txRunner,
		movRepo:       movRepo,
		warehouseRepo: warehouseRepo,
		userRepo:      userRepo,
	}
}

// NewMovementInput datos de una cabecera de movimiento.
type NewMovementInput struct {
	Type        string
	WarehouseID string
	UserID      string // vacío = movimiento sin actor (sistema)
	IsTransfer  bool
}

// NewLineInput datos de una línea de movimiento.
type NewLineInput struct {
	MovementID   string
	ProductID    string
	Quantity     decimal.Decimal
	SupplierID   *string
	UnitPrice    *decimal.Decimal
	ParentLineID *string
}

// ValidateReferences verifica que la bodega exista y que el actor, si viene, exista y esté activo.
// Usa los repositorios de lectura: dentro de una transacción usar validateReferences con los de la tx.
func (uc *LedgerUseCase) ValidateReferences(ctx context.Context, warehouseID, userID string) error {
	return validateReferences(ctx, uc.warehouseRepo, uc.userRepo, warehouseID, userID)
}

func validateReferences(
	ctx context.Context,
	warehouseRepo repository.WarehouseRepository,
	userRepo repository.UserRepository,
	warehouseID, userID string,
) error {
	if warehouseID == "" {
		return domain.ErrInvalidInput
	}
	wh, err := warehouseRepo.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if wh == nil {
		return fmt.Errorf("bodega %s: %w", warehouseID, domain.ErrNotFound)
	}
	if userID == "" {
		return nil
	}
	user, err := userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("usuario %s: %w", userID, domain.ErrNotFound)
	}
	if !user.IsActive() {
		return fmt.Errorf("usuario %s inactivo: %w", userID, domain.ErrInvalidInput)
	}
	return nil
}

// CreateMovementInTx crea una cabecera con ID nuevo usando movRepo (misma transacción del llamador).
// Las referencias se validan con ValidateReferences antes de abrir la transacción.
func (uc *LedgerUseCase) CreateMovementInTx(ctx context.Context, movRepo repository.MovementRepository, in NewMovementInput, now time.Time) (*entity.MovementHeader, error) {
	if in.Type != entity.MovementTypeEntry && in.Type != entity.MovementTypeExit {
		return nil, domain.ErrInvalidInput
	}
	header := &entity.MovementHeader{
		ID:          uuid.New().String(),
		Type:        in.Type,
		WarehouseID: in.WarehouseID,
		UserID:      in.UserID,
		IsTransfer:  in.IsTransfer,
		Status:      entity.MovementStatusActive,
		MovedAt:     now,
		CreatedAt:   now,
	}
	if err := movRepo.CreateHeader(ctx, header); err != nil {
		return nil, err
	}
	return header, nil
}

// AppendLineInTx agrega una línea al movimiento. Si trae ParentLineID, descuenta la cantidad de la
// línea padre (bloqueándola) y, si todas las líneas del movimiento padre quedaron agotadas, lo marca EXHAUSTED.
func (uc *LedgerUseCase) AppendLineInTx(ctx context.Context, movRepo repository.MovementRepository, in NewLineInput, now time.Time) (*entity.MovementLine, error) {
	if err := entity.CheckQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if err := entity.CheckUnitPrice(in.UnitPrice); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, domain.ErrInvalidInput
	}
	header, err := movRepo.GetHeader(ctx, in.MovementID)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, fmt.Errorf("movimiento %s: %w", in.MovementID, domain.ErrNotFound)
	}

	if in.ParentLineID != nil {
		if err := uc.consumeParent(ctx, movRepo, *in.ParentLineID, in.ProductID, in.Quantity); err != nil {
			return nil, err
		}
	}

	line := &entity.MovementLine{
		ID:           uuid.New().String(),
		MovementID:   header.ID,
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		SupplierID:   in.SupplierID,
		ParentLineID: in.ParentLineID,
		Status:       entity.MovementStatusActive,
		CreatedAt:    now,
	}
	if err := movRepo.CreateLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

func (uc *LedgerUseCase) consumeParent(ctx context.Context, movRepo repository.MovementRepository, parentID, productID string, qty decimal.Decimal) error {
	parent, err := movRepo.GetLineForUpdate(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("línea padre %s: %w", parentID, domain.ErrNotFound)
	}
	if parent.ProductID != productID {
		return fmt.Errorf("línea padre %s es de otro producto: %w", parentID, domain.ErrInvalidInput)
	}
	if err := parent.Consume(qty); err != nil {
		return err
	}
	if err := movRepo.UpdateConsumption(ctx, parent); err != nil {
		return err
	}
	if !parent.IsExhausted() {
		return nil
	}
	siblings, err := movRepo.ListLinesByMovement(ctx, parent.MovementID)
	if err != nil {
		return err
	}
	for _, s := range siblings {
		if !s.IsExhausted() {
			return nil
		}
	}
	return movRepo.UpdateHeaderStatus(ctx, parent.MovementID, entity.MovementStatusExhausted)
}

// RegisterEntry registra una entrada de stock (compra o carga inicial) con todas sus líneas en una transacción.
func (uc *LedgerUseCase) RegisterEntry(ctx context.Context, in dto.RegisterEntryRequest) (*dto.MovementResponse, error) {
	if len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, l := range in.Lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return nil, domain.ErrInvalidInput
		}
		if err := entity.CheckQuantity(l.Quantity); err != nil {
			return nil, err
		}
		if err := entity.CheckUnitPrice(l.UnitPrice); err != nil {
			return nil, err
		}
	}
	if err := uc.ValidateReferences(ctx, in.WarehouseID, in.UserID); err != nil {
		return nil, err
	}

	now := time.Now()
	var out *dto.MovementResponse
	err := uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, _ repository.TransferRepository, _ repository.WarehouseRepository, _ repository.UserRepository) error {
		header, err := uc.CreateMovementInTx(ctx, movRepo, NewMovementInput{
			Type:        entity.MovementTypeEntry,
			WarehouseID: in.WarehouseID,
			UserID:      in.UserID,
		}, now)
		if err != nil {
			return err
		}
		lines := make([]*entity.MovementLine, 0, len(in.Lines))
		for _, l := range in.Lines {
			line, err := uc.AppendLineInTx(ctx, movRepo, NewLineInput{
				MovementID: header.ID,
				ProductID:  l.ProductID,
				Quantity:   l.Quantity,
				SupplierID: l.SupplierID,
				UnitPrice:  l.UnitPrice,
			}, now)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}
		out = toMovementResponse(header, lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetMovement obtiene un movimiento con sus líneas.
func (uc *LedgerUseCase) GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error) {
	header, err := uc.movRepo.GetHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, domain.ErrNotFound
	}
	lines, err := uc.movRepo.ListLinesByMovement(ctx, id)
	if err != nil {
		return nil, err
	}
	return toMovementResponse(header, lines), nil
}

// GetAvailableStock suma lo disponible en las líneas de entrada activas del producto en la bodega.
func (uc *LedgerUseCase) GetAvailableStock(ctx context.Context, productID, warehouseID string) (*dto.StockResponse, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	lines, err := uc.movRepo.ListActiveEntryLines(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	available := decimal.Zero
	for _, l := range lines {
		available = available.Add(l.Available())
	}
	return &dto.StockResponse{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Available:   available,
		EntryLines:  len(lines),
	}, nil
}

func toMovementResponse(h *entity.MovementHeader, lines []*entity.MovementLine) *dto.MovementResponse {
	out := &dto.MovementResponse{
		ID:          h.ID,
		Type:        h.Type,
		WarehouseID: h.WarehouseID,
		UserID:      h.UserID,
		IsTransfer:  h.IsTransfer,
		Status:      h.Status,
		MovedAt:     h.MovedAt,
		Lines:       make([]dto.MovementLineResponse, 0, len(lines)),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, dto.MovementLineResponse{
			ID:               l.ID,
			MovementID:       l.MovementID,
			ProductID:        l.ProductID,
			Quantity:         l.Quantity,
			QuantityConsumed: l.QuantityConsumed,
			UnitPrice:        l.UnitPrice,
			SupplierID:       l.SupplierID,
			ParentLineID:     l.ParentLineID,
			Status:           l.Status,
		})
	}
	return out
}

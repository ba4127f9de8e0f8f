package repository

import (
	"context"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del kardex (cabeceras y líneas de movimiento).
type MovementRepository interface {
	CreateHeader(ctx context.Context, header *entity.MovementHeader) error
	GetHeader(ctx context.Context, id string) (*entity.MovementHeader, error)
	UpdateHeaderStatus(ctx context.Context, id, status string) error

	// CreateLine persiste la línea y asigna Seq.
	CreateLine(ctx context.Context, line *entity.MovementLine) error
	GetLine(ctx context.Context, id string) (*entity.MovementLine, error)
	// GetLineForUpdate obtiene la línea y la bloquea hasta el fin de la transacción.
	GetLineForUpdate(ctx context.Context, id string) (*entity.MovementLine, error)
	// UpdateConsumption persiste quantity_consumed y status de la línea.
	UpdateConsumption(ctx context.Context, line *entity.MovementLine) error
	ListLinesByMovement(ctx context.Context, movementID string) ([]*entity.MovementLine, error)

	// ListActiveEntryLinesForUpdate devuelve las líneas de entrada ACTIVE del producto en la bodega,
	// de la más antigua a la más nueva (fecha del movimiento, luego Seq), bloqueadas para update.
	ListActiveEntryLinesForUpdate(ctx context.Context, productID, warehouseID string) ([]*entity.MovementLine, error)
	// ListActiveEntryLines igual que la anterior, sin bloqueo (solo lectura).
	ListActiveEntryLines(ctx context.Context, productID, warehouseID string) ([]*entity.MovementLine, error)
}

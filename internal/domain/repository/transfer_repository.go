package repository

import (
	"context"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
)

// TransferFilter filtros para listar traslados.
type TransferFilter struct {
	OriginWarehouseID      string
	DestinationWarehouseID string
	Status                 *int
	Limit                  int
	Offset                 int
}

// TransferRepository define el puerto de persistencia para traslados y sus líneas.
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	// GetForUpdate obtiene el traslado bloqueando la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error)
	Update(ctx context.Context, transfer *entity.Transfer) error
	List(ctx context.Context, filter TransferFilter) ([]*entity.Transfer, error)
	// Count cuenta los traslados que cumplen el filtro, sin Limit ni Offset.
	Count(ctx context.Context, filter TransferFilter) (int, error)

	CreateLine(ctx context.Context, line *entity.TransferLine) error
	// GetLine y ListLines cargan también el linaje de entradas (EntryLineIDs) en orden.
	GetLine(ctx context.Context, id string) (*entity.TransferLine, error)
	GetLineForUpdate(ctx context.Context, id string) (*entity.TransferLine, error)
	ListLines(ctx context.Context, transferID string) ([]*entity.TransferLine, error)
	// UpdateLine persiste cantidad recibida, resolución y motivo. No toca el linaje.
	UpdateLine(ctx context.Context, line *entity.TransferLine) error
	// AppendEntryLineage agrega movementLineID al final del linaje de entradas de la línea.
	AppendEntryLineage(ctx context.Context, transferLineID, movementLineID string) error
}

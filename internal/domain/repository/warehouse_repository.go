package repository

import (
	"context"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
)

// WarehouseRepository define el puerto de lectura de bodegas.
type WarehouseRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
}

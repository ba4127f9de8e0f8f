package inventory

import (
	"context"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback de todo lo escrito; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		transferRepo repository.TransferRepository,
		warehouseRepo repository.WarehouseRepository,
		userRepo repository.UserRepository,
	) error) error
}

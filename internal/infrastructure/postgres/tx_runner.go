package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/inventory"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los fallos de begin/commit se reportan como domain.ErrPersistence (reintentables).
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	transferRepo repository.TransferRepository,
	warehouseRepo repository.WarehouseRepository,
	userRepo repository.UserRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewMovementRepository(tx), NewTransferRepository(tx), NewWarehouseRepository(tx), NewUserRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w: %v", domain.ErrPersistence, err)
	}
	return nil
}

package postgres

import (
	"context"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// Create persiste una nueva bodega.
func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO warehouses (id, name, address, created_at) VALUES ($1, $2, $3, $4)`,
		w.ID, w.Name, w.Address, w.CreatedAt,
	)
	if err != nil {
		return writeErr("insert warehouse", err)
	}
	return nil
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	if !validID(id) {
		return nil, nil
	}
	var w entity.Warehouse
	err := r.q.QueryRow(ctx,
		`SELECT id, name, address, created_at FROM warehouses WHERE id = $1`, id,
	).Scan(&w.ID, &w.Name, &w.Address, &w.CreatedAt)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, readErr("get warehouse", err)
	}
	return &w, nil
}

package memory

import (
	"context"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
)

var (
	_ repository.WarehouseRepository = (*WarehouseRepo)(nil)
	_ repository.UserRepository      = (*UserRepo)(nil)
)

// WarehouseRepo bodegas en memoria.
type WarehouseRepo struct{ s *Store }

// GetByID obtiene una bodega; nil si no existe.
func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.refMu.RLock()
	defer r.s.refMu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

// UserRepo empleados en memoria.
type UserRepo struct{ s *Store }

// GetByID obtiene un empleado; nil si no existe.
func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.refMu.RLock()
	defer r.s.refMu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

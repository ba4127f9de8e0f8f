package postgres

import (
	"context"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para empleados.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo empleado.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO users (id, name, role, warehouse_id, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Role, u.WarehouseID, u.Status, u.CreatedAt,
	)
	if err != nil {
		return writeErr("insert user", err)
	}
	return nil
}

// GetByID obtiene un empleado por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, nil
	}
	var u entity.User
	err := r.q.QueryRow(ctx,
		`SELECT id, name, role, warehouse_id, status, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Role, &u.WarehouseID, &u.Status, &u.CreatedAt)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, readErr("get user", err)
	}
	return &u, nil
}

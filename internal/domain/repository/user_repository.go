package repository

import (
	"context"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
)

// UserRepository define el puerto de lectura de empleados.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

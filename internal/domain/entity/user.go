package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleBodeguero  = "bodeguero"
	RoleParamedico = "paramedico"
)

// Estados de User.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User empleado que actúa sobre el inventario (despacha, recibe o dispensa).
type User struct {
	ID          string
	Name        string
	Role        string
	WarehouseID *string // bodega asignada, si tiene
	Status      string
	CreatedAt   time.Time
}

// IsActive indica si el empleado puede registrar movimientos.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

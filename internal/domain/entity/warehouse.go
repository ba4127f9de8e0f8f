package entity

import "time"

// Warehouse representa una bodega (central, sede o ambulancia) que maneja inventario propio.
type Warehouse struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
}

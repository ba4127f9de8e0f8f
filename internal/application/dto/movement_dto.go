package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryLineRequest línea de una entrada de stock (compra o carga inicial).
type EntryLineRequest struct {
	ProductID  string           `json:"product_id"`
	Quantity   decimal.Decimal  `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	SupplierID *string          `json:"supplier_id,omitempty"`
}

// RegisterEntryRequest body para POST /api/movements/entries.
type RegisterEntryRequest struct {
	WarehouseID string             `json:"warehouse_id"`
	UserID      string             `json:"user_id"`
	Lines       []EntryLineRequest `json:"lines"`
}

// MovementLineResponse línea de movimiento en respuestas.
type MovementLineResponse struct {
	ID               string           `json:"id"`
	MovementID       string           `json:"movement_id"`
	ProductID        string           `json:"product_id"`
	Quantity         decimal.Decimal  `json:"quantity"`
	QuantityConsumed *decimal.Decimal `json:"quantity_consumed,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	SupplierID       *string          `json:"supplier_id,omitempty"`
	ParentLineID     *string          `json:"parent_line_id,omitempty"`
	Status           string           `json:"status"`
}

// MovementResponse cabecera de movimiento con sus líneas.
type MovementResponse struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	WarehouseID string                 `json:"warehouse_id"`
	UserID      string                 `json:"user_id,omitempty"`
	IsTransfer  bool                   `json:"is_transfer"`
	Status      string                 `json:"status"`
	MovedAt     time.Time              `json:"moved_at"`
	Lines       []MovementLineResponse `json:"lines"`
}

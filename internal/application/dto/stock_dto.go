package dto

import "github.com/shopspring/decimal"

// ConsumeStockRequest body para POST /api/stock/consume (dispensación en consulta).
type ConsumeStockRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UserID      string          `json:"user_id,omitempty"`
}

// ConsumedFromLine porción tomada de una línea de entrada.
type ConsumedFromLine struct {
	SourceLineID  string          `json:"source_line_id"`
	ExitLineID    string          `json:"exit_line_id"`
	QuantityTaken decimal.Decimal `json:"quantity_taken"`
}

// ConsumeStockResponse resultado de un consumo FIFO.
type ConsumeStockResponse struct {
	Success           bool               `json:"success"`
	MovementID        string             `json:"movement_id"`
	ConsumedFromLines []ConsumedFromLine `json:"consumed_from_lines"`
	AverageUnitPrice  *decimal.Decimal   `json:"average_unit_price,omitempty"`
}

// StockResponse stock disponible de un producto en una bodega.
type StockResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Available   decimal.Decimal `json:"available"`
	EntryLines  int             `json:"entry_lines"`
}

package entity

import (
	"time"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Tipos de movimiento del kardex.
const (
	MovementTypeEntry = "ENTRY" // entrada a bodega
	MovementTypeExit  = "EXIT"  // salida de bodega
)

// Estados de cabecera y de línea de movimiento.
const (
	MovementStatusActive    = "ACTIVE"
	MovementStatusExhausted = "EXHAUSTED"
)

// QuantityScale decimales que persiste el kardex para cantidades y precios (NUMERIC(18,4)).
const QuantityScale = 4

// CheckQuantity exige una cantidad mayor que cero y sin más de QuantityScale decimales.
func CheckQuantity(qty decimal.Decimal) error {
	if !qty.GreaterThan(decimal.Zero) || !qty.Equal(qty.Truncate(QuantityScale)) {
		return domain.ErrInvalidQuantity
	}
	return nil
}

// CheckUnitPrice acepta un precio ausente o no negativo con a lo sumo QuantityScale decimales.
func CheckUnitPrice(price *decimal.Decimal) error {
	if price == nil {
		return nil
	}
	if price.IsNegative() || !price.Equal(price.Truncate(QuantityScale)) {
		return domain.ErrInvalidInput
	}
	return nil
}

// MovementHeader cabecera de un movimiento de inventario (entrada o salida) en una bodega.
// Se crea una vez; solo cambia Status cuando todas sus líneas se agotan.
type MovementHeader struct {
	ID          string
	Type        string
	WarehouseID string
	UserID      string
	IsTransfer  bool
	Status      string
	MovedAt     time.Time
	CreatedAt   time.Time
}

// MovementLine línea de un movimiento. ParentLineID enlaza una línea de salida con la línea
// de entrada de la que se tomó el stock.
type MovementLine struct {
	ID               string
	MovementID       string
	Seq              int64 // orden de inserción; desempate FIFO, nunca identificador
	ProductID        string
	Quantity         decimal.Decimal
	QuantityConsumed *decimal.Decimal
	UnitPrice        *decimal.Decimal
	SupplierID       *string
	ParentLineID     *string
	Status           string
	CreatedAt        time.Time
}

// Consumed devuelve la cantidad consumida (cero si nunca se consumió).
func (l *MovementLine) Consumed() decimal.Decimal {
	if l.QuantityConsumed == nil {
		return decimal.Zero
	}
	return *l.QuantityConsumed
}

// Available cantidad aún disponible en la línea.
func (l *MovementLine) Available() decimal.Decimal {
	return l.Quantity.Sub(l.Consumed())
}

// IsExhausted indica si la línea ya no tiene stock disponible.
func (l *MovementLine) IsExhausted() bool {
	return l.Status == MovementStatusExhausted
}

// Consume descuenta qty de la línea y recalcula su estado.
// Falla con ErrInsufficientStock si qty supera lo disponible: consumido <= cantidad siempre.
func (l *MovementLine) Consume(qty decimal.Decimal) error {
	if err := CheckQuantity(qty); err != nil {
		return err
	}
	if l.IsExhausted() || qty.GreaterThan(l.Available()) {
		return domain.ErrInsufficientStock
	}
	consumed := l.Consumed().Add(qty)
	l.QuantityConsumed = &consumed
	if consumed.Equal(l.Quantity) {
		l.Status = MovementStatusExhausted
	}
	return nil
}

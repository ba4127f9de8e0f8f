package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Candidate línea de entrada disponible junto con la fecha de su movimiento.
type Candidate struct {
	Line    *entity.MovementLine
	MovedAt time.Time
}

// Allocation porción tomada de una línea de entrada.
type Allocation struct {
	SourceLineID string
	Quantity     decimal.Decimal
	UnitPrice    *decimal.Decimal
	SupplierID   *string
}

// SortFIFO ordena los candidatos del stock más antiguo al más nuevo.
// Con la misma fecha desempata por Seq (orden de inserción) para que el resultado sea determinista.
func SortFIFO(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.MovedAt.Equal(b.MovedAt) {
			return a.MovedAt.Before(b.MovedAt)
		}
		return a.Line.Seq < b.Line.Seq
	})
}

// PlanFIFO decide de qué líneas de entrada se toman qty unidades, de la más antigua a la más nueva.
// No modifica las líneas: el consumo lo aplica el kardex al registrar cada línea de salida con su
// ParentLineID. Si el stock no alcanza devuelve ErrInsufficientStock y ningún plan.
func PlanFIFO(candidates []Candidate, qty decimal.Decimal) ([]Allocation, error) {
	if !qty.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	SortFIFO(candidates)

	remaining := qty
	allocs := make([]Allocation, 0, 1)
	for _, c := range candidates {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		line := c.Line
		if line.IsExhausted() {
			continue
		}
		available := line.Available()
		if !available.GreaterThan(decimal.Zero) {
			continue
		}
		take := decimal.Min(available, remaining)
		allocs = append(allocs, Allocation{
			SourceLineID: line.ID,
			Quantity:     take,
			UnitPrice:    line.UnitPrice,
			SupplierID:   line.SupplierID,
		})
		remaining = remaining.Sub(take)
	}
	if remaining.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInsufficientStock
	}
	return allocs, nil
}

// Total suma de las cantidades asignadas.
func Total(allocs []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Quantity)
	}
	return total
}

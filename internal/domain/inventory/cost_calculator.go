package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa el costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((CantAcumulada * CostoAcumulado) + (CantNueva * CostoNuevo)) / (CantAcumulada + CantNueva)
func CostCalculator(cantAcumulada, costoAcumulado, cantNueva, costoNuevo decimal.Decimal) decimal.Decimal {
	sum := cantAcumulada.Add(cantNueva)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := cantAcumulada.Mul(costoAcumulado).Add(cantNueva.Mul(costoNuevo))
	return num.Div(sum)
}

// AverageUnitPrice costo promedio ponderado de una asignación FIFO.
// Las porciones sin precio conocido no participan; devuelve nil si ninguna tiene precio.
func AverageUnitPrice(allocs []Allocation) *decimal.Decimal {
	var qty, avg decimal.Decimal
	priced := false
	for _, a := range allocs {
		if a.UnitPrice == nil {
			continue
		}
		avg = CostCalculator(qty, avg, a.Quantity, *a.UnitPrice)
		qty = qty.Add(a.Quantity)
		priced = true
	}
	if !priced {
		return nil
	}
	avg = avg.Round(4)
	return &avg
}

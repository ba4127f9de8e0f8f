package inventory_test

import (
	"context"
	"testing"

	"github.com/jhoicas/clinica-bodegas-api/internal/application/dto"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Consumir 8 con entradas de 5 y 10: se agota la primera y se toman 3 de la segunda.
func TestConsumeStock_FIFOEntreLineas(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	first := h.entry(t, whOrigen, productoA, "5", decPtr("100"))
	second := h.entry(t, whOrigen, productoA, "10", decPtr("200"))

	res, err := h.allocation.ConsumeStock(ctx, dto.ConsumeStockRequest{
		ProductID: productoA, WarehouseID: whOrigen, Quantity: dec("8"), UserID: userOrigen,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.ConsumedFromLines, 2)
	assert.Equal(t, first.Lines[0].ID, res.ConsumedFromLines[0].SourceLineID)
	assert.True(t, res.ConsumedFromLines[0].QuantityTaken.Equal(dec("5")))
	assert.Equal(t, second.Lines[0].ID, res.ConsumedFromLines[1].SourceLineID)
	assert.True(t, res.ConsumedFromLines[1].QuantityTaken.Equal(dec("3")))
	require.NotNil(t, res.AverageUnitPrice)
	assert.True(t, res.AverageUnitPrice.Equal(dec("137.5")), "(5*100 + 3*200) / 8")

	mov, err := h.ledger.GetMovement(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusExhausted, mov.Status, "la cabecera se agota con su última línea")
	assert.Equal(t, entity.MovementStatusExhausted, mov.Lines[0].Status)

	mov, err = h.ledger.GetMovement(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusActive, mov.Status)
	require.NotNil(t, mov.Lines[0].QuantityConsumed)
	assert.True(t, mov.Lines[0].QuantityConsumed.Equal(dec("3")))

	exit, err := h.ledger.GetMovement(ctx, res.MovementID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeExit, exit.Type)
	require.Len(t, exit.Lines, 2)
	for i, l := range exit.Lines {
		require.NotNil(t, l.ParentLineID)
		assert.Equal(t, res.ConsumedFromLines[i].SourceLineID, *l.ParentLineID)
	}
	assert.True(t, h.stock(t, whOrigen, productoA).Equal(dec("7")))
}

func TestConsumeStock_InsuficienteNoTocaNada(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.entry(t, whOrigen, productoA, "5", nil)
	h.entry(t, whOrigen, productoA, "10", nil)

	_, err := h.allocation.ConsumeStock(ctx, dto.ConsumeStockRequest{
		ProductID: productoA, WarehouseID: whOrigen, Quantity: dec("16"),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, h.stock(t, whOrigen, productoA).Equal(dec("15")))

	_, err = h.allocation.ConsumeStock(ctx, dto.ConsumeStockRequest{
		ProductID: productoA, WarehouseID: whDestino, Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "otra bodega sin entradas")
}

func TestConsumeStock_Validaciones(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.entry(t, whOrigen, productoA, "5", nil)

	cases := []struct {
		name string
		req  dto.ConsumeStockRequest
		want error
	}{
		{"cantidad cero", dto.ConsumeStockRequest{ProductID: productoA, WarehouseID: whOrigen, Quantity: dec("0")}, domain.ErrInvalidQuantity},
		{"más de 4 decimales", dto.ConsumeStockRequest{ProductID: productoA, WarehouseID: whOrigen, Quantity: dec("1.00005")}, domain.ErrInvalidQuantity},
		{"sin producto", dto.ConsumeStockRequest{WarehouseID: whOrigen, Quantity: dec("1")}, domain.ErrInvalidInput},
		{"bodega inexistente", dto.ConsumeStockRequest{ProductID: productoA, WarehouseID: "w-x", Quantity: dec("1")}, domain.ErrNotFound},
		{"usuario inactivo", dto.ConsumeStockRequest{ProductID: productoA, WarehouseID: whOrigen, Quantity: dec("1"), UserID: userBaja}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.allocation.ConsumeStock(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.True(t, h.stock(t, whOrigen, productoA).Equal(dec("5")))
}

// Una línea de 1.0001 consumida con 1.0001 queda agotada; no hay redondeo silencioso en el medio.
func TestConsumeStock_EscalaDeCuatroDecimales(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	mov := h.entry(t, whOrigen, productoA, "1.0001", nil)

	_, err := h.allocation.ConsumeStock(ctx, dto.ConsumeStockRequest{ProductID: productoA, WarehouseID: whOrigen, Quantity: dec("1.00005")})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = h.allocation.ConsumeStock(ctx, dto.ConsumeStockRequest{ProductID: productoA, WarehouseID: whOrigen, Quantity: dec("1.0001")})
	require.NoError(t, err)
	got, err := h.ledger.GetMovement(ctx, mov.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusExhausted, got.Lines[0].Status)
	assert.Equal(t, entity.MovementStatusExhausted, got.Status)

	_, err = h.ledger.RegisterEntry(ctx, dto.RegisterEntryRequest{
		WarehouseID: whOrigen,
		Lines:       []dto.EntryLineRequest{{ProductID: productoA, Quantity: dec("0.00004")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = h.ledger.RegisterEntry(ctx, dto.RegisterEntryRequest{
		WarehouseID: whOrigen,
		Lines:       []dto.EntryLineRequest{{ProductID: productoA, Quantity: dec("1"), UnitPrice: decPtr("10.12345")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, h.stock(t, whOrigen, productoA).IsZero())
}

// Lo que sale del origen más lo que queda es lo que entró.
func TestConsumeStock_ConservaCantidades(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.entry(t, whOrigen, productoA, "3", nil)
	h.entry(t, whOrigen, productoA, "4", nil)
	h.entry(t, whOrigen, productoA, "2.5", nil)

	taken := dec("0")
	for _, q := range []string{"1", "2.5", "3", "1"} {
		res, err := h.allocation.ConsumeStock(ctx, dto.ConsumeStockRequest{ProductID: productoA, WarehouseID: whOrigen, Quantity: dec(q)})
		require.NoError(t, err)
		for _, c := range res.ConsumedFromLines {
			taken = taken.Add(c.QuantityTaken)
		}
	}
	assert.True(t, taken.Equal(dec("7.5")))
	assert.True(t, h.stock(t, whOrigen, productoA).Equal(dec("2")))
}

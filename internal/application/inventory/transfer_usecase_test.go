package inventory_test

import (
	"context"
	"testing"

	"github.com/jhoicas/clinica-bodegas-api/internal/application/dto"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_CreaSalidaYLineas(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	supplier := "prov-1"
	_, err := h.ledger.RegisterEntry(ctx, dto.RegisterEntryRequest{
		WarehouseID: whOrigen,
		UserID:      userOrigen,
		Lines:       []dto.EntryLineRequest{{ProductID: productoA, Quantity: dec("10"), UnitPrice: decPtr("3"), SupplierID: &supplier}},
	})
	require.NoError(t, err)

	tr := h.dispatch(t, line(productoA, "6"))
	assert.Equal(t, entity.TransferStatusPending, tr.Status)
	require.Len(t, tr.Lines, 1)
	l := tr.Lines[0]
	assert.True(t, l.ExpectedQuantity.Equal(dec("6")))
	require.NotNil(t, l.SupplierID)
	assert.Equal(t, supplier, *l.SupplierID, "el proveedor se toma de la entrada consumida")
	require.NotNil(t, l.SourceLineID)
	assert.NotNil(t, l.EntryLineIDs)

	exit, err := h.ledger.GetMovement(ctx, tr.ExitMovementID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeExit, exit.Type)
	assert.True(t, exit.IsTransfer)
	assert.Equal(t, *l.SourceLineID, exit.Lines[0].ID)
	assert.True(t, h.stock(t, whOrigen, productoA).Equal(dec("4")))
}

func TestDispatch_SinStockNoCreaNada(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.entry(t, whOrigen, productoA, "10", nil)

	_, err := h.transfers.Dispatch(ctx, dto.DispatchTransferRequest{
		OriginWarehouseID:      whOrigen,
		DestinationWarehouseID: whDestino,
		OriginUserID:           userOrigen,
		Lines:                  []dto.DispatchLineRequest{line(productoA, "4"), line(productoB, "1")},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, h.stock(t, whOrigen, productoA).Equal(dec("10")), "la primera línea también se revierte")

	list, err := h.transfers.ListTransfers(ctx, repository.TransferFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestDispatch_Validaciones(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	base := dto.DispatchTransferRequest{
		OriginWarehouseID: whOrigen, DestinationWarehouseID: whDestino, OriginUserID: userOrigen,
		Lines: []dto.DispatchLineRequest{line(productoA, "1")},
	}

	same := base
	same.DestinationWarehouseID = whOrigen
	_, err := h.transfers.Dispatch(ctx, same)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	noLines := base
	noLines.Lines = nil
	_, err = h.transfers.Dispatch(ctx, noLines)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	zero := base
	zero.Lines = []dto.DispatchLineRequest{line(productoA, "0")}
	_, err = h.transfers.Dispatch(ctx, zero)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	unknownDest := base
	unknownDest.DestinationWarehouseID = "w-x"
	_, err = h.transfers.Dispatch(ctx, unknownDest)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetAndListTransfers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.entry(t, whOrigen, productoA, "10", nil)
	a := h.dispatch(t, line(productoA, "2"))
	h.dispatch(t, line(productoA, "3"))

	_, err := h.reconciliation.CancelTransfer(ctx, a.ID, dto.CancelTransferRequest{Reason: "error de digitación"})
	require.NoError(t, err)

	_, err = h.transfers.GetTransfer(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pending := entity.TransferStatusPending
	list, err := h.transfers.ListTransfers(ctx, repository.TransferFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.NotEqual(t, a.ID, list.Items[0].ID)
	assert.Equal(t, 20, list.Page.Limit, "paginación por defecto")
	assert.Equal(t, 1, list.Page.Total)

	list, err = h.transfers.ListTransfers(ctx, repository.TransferFilter{OriginWarehouseID: whOrigen})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	list, err = h.transfers.ListTransfers(ctx, repository.TransferFilter{OriginWarehouseID: whOrigen, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 2, list.Page.Total, "el total ignora la página")
}

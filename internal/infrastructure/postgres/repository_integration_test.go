//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/dto"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/inventory"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
	"github.com/jhoicas/clinica-bodegas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/clinica-bodegas-api/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres levanta un PostgreSQL desechable, aplica las migraciones y devuelve el pool.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("clinica"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(dsn, nil))
	require.NoError(t, postgres.Migrate(dsn, nil), "la segunda vez no hay cambios")

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

type fixture struct {
	origin, destination, dispatcher, receiver string
	ledger                                    *inventory.LedgerUseCase
	transfers                                 *inventory.TransferUseCase
	reconciliation                            *inventory.ReconciliationUseCase
}

func newFixture(t *testing.T, pool *pgxpool.Pool) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		origin:      uuid.NewString(),
		destination: uuid.NewString(),
		dispatcher:  uuid.NewString(),
		receiver:    uuid.NewString(),
	}
	warehouses := postgres.NewWarehouseRepository(pool)
	users := postgres.NewUserRepository(pool)
	now := time.Now()
	require.NoError(t, warehouses.Create(ctx, &entity.Warehouse{ID: f.origin, Name: "Central", CreatedAt: now}))
	require.NoError(t, warehouses.Create(ctx, &entity.Warehouse{ID: f.destination, Name: "Ambulancia 3", CreatedAt: now}))
	require.NoError(t, users.Create(ctx, &entity.User{ID: f.dispatcher, Name: "Bodega", Role: entity.RoleBodeguero, Status: entity.UserStatusActive, CreatedAt: now}))
	require.NoError(t, users.Create(ctx, &entity.User{ID: f.receiver, Name: "Paramédico", Role: entity.RoleParamedico, Status: entity.UserStatusActive, CreatedAt: now}))

	runner := postgres.NewTxRunner(pool)
	f.ledger = inventory.NewLedgerUseCase(runner, postgres.NewMovementRepository(pool), warehouses, users)
	allocation := inventory.NewAllocationUseCase(runner, f.ledger)
	f.transfers = inventory.NewTransferUseCase(runner, postgres.NewTransferRepository(pool), f.ledger, allocation)
	f.reconciliation = inventory.NewReconciliationUseCase(runner, f.ledger, nil)
	return f
}

func TestIntegration_DespachoYRecepcionParcial(t *testing.T) {
	pool := setupPostgres(t)
	f := newFixture(t, pool)
	ctx := context.Background()

	price := decimal.RequireFromString("2.75")
	_, err := f.ledger.RegisterEntry(ctx, dto.RegisterEntryRequest{
		WarehouseID: f.origin,
		UserID:      f.dispatcher,
		Lines:       []dto.EntryLineRequest{{ProductID: "gasas", Quantity: decimal.NewFromInt(10), UnitPrice: &price}},
	})
	require.NoError(t, err)

	tr, err := f.transfers.Dispatch(ctx, dto.DispatchTransferRequest{
		OriginWarehouseID:      f.origin,
		DestinationWarehouseID: f.destination,
		OriginUserID:           f.dispatcher,
		Lines:                  []dto.DispatchLineRequest{{ProductID: "gasas", Quantity: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	lineID := tr.Lines[0].ID

	first, err := f.reconciliation.CompleteLine(ctx, dto.ReceiveTransferLineRequest{
		TransferLineID: lineID, QuantityReceived: decimal.NewFromInt(4), ReceivingUserID: f.receiver,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, first.TransferStatus)

	second, err := f.reconciliation.CompleteLine(ctx, dto.ReceiveTransferLineRequest{
		TransferLineID: lineID, QuantityReceived: decimal.NewFromInt(6), ReceivingUserID: f.receiver,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, second.TransferStatus)

	got, err := f.transfers.GetTransfer(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.NewEntryLineID, second.NewEntryLineID}, got.Lines[0].EntryLineIDs)

	stock, err := f.ledger.GetAvailableStock(ctx, "gasas", f.destination)
	require.NoError(t, err)
	assert.True(t, stock.Available.Equal(decimal.NewFromInt(10)))

	mov, err := f.ledger.GetMovement(ctx, second.NewMovementID)
	require.NoError(t, err)
	require.NotNil(t, mov.Lines[0].UnitPrice)
	assert.True(t, mov.Lines[0].UnitPrice.Equal(price))
}

// Dos consumos concurrentes no pueden sobregirar la misma línea.
func TestIntegration_ConsumosConcurrentes(t *testing.T) {
	pool := setupPostgres(t)
	f := newFixture(t, pool)
	ctx := context.Background()
	runner := postgres.NewTxRunner(pool)
	allocation := inventory.NewAllocationUseCase(runner, f.ledger)

	_, err := f.ledger.RegisterEntry(ctx, dto.RegisterEntryRequest{
		WarehouseID: f.origin,
		Lines:       []dto.EntryLineRequest{{ProductID: "suero", Quantity: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := allocation.ConsumeStock(ctx, dto.ConsumeStockRequest{
				ProductID: "suero", WarehouseID: f.origin, Quantity: decimal.NewFromInt(3),
			})
			errs <- err
		}()
	}
	var failed int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed, "solo uno de los dos consumos cabe en el stock")

	stock, err := f.ledger.GetAvailableStock(ctx, "suero", f.origin)
	require.NoError(t, err)
	assert.True(t, stock.Available.Equal(decimal.NewFromInt(2)))
}

// Tantas recepciones de la misma línea como conexiones tiene el pool: una gana, el resto ve la línea
// resuelta. Ninguna espera una segunda conexión mientras retiene la suya.
func TestIntegration_RecepcionesConcurrentesDeLaMismaLinea(t *testing.T) {
	pool := setupPostgres(t)
	f := newFixture(t, pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := f.ledger.RegisterEntry(ctx, dto.RegisterEntryRequest{
		WarehouseID: f.origin,
		UserID:      f.dispatcher,
		Lines:       []dto.EntryLineRequest{{ProductID: "gasas", Quantity: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	tr, err := f.transfers.Dispatch(ctx, dto.DispatchTransferRequest{
		OriginWarehouseID:      f.origin,
		DestinationWarehouseID: f.destination,
		OriginUserID:           f.dispatcher,
		Lines:                  []dto.DispatchLineRequest{{ProductID: "gasas", Quantity: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)

	const workers = 4 // = MaxConns del pool de prueba
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := f.reconciliation.CompleteLine(ctx, dto.ReceiveTransferLineRequest{
				TransferLineID: tr.Lines[0].ID, QuantityReceived: decimal.NewFromInt(10), ReceivingUserID: f.receiver,
			})
			errs <- err
		}()
	}
	var ok int
	for i := 0; i < workers; i++ {
		err := <-errs
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	}
	assert.Equal(t, 1, ok, "solo una recepción aplica")

	got, err := f.transfers.GetTransfer(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, got.Status)
	assert.Len(t, got.Lines[0].EntryLineIDs, 1)
	stock, err := f.ledger.GetAvailableStock(ctx, "gasas", f.destination)
	require.NoError(t, err)
	assert.True(t, stock.Available.Equal(decimal.NewFromInt(10)))
}

func TestIntegration_RechazoYListado(t *testing.T) {
	pool := setupPostgres(t)
	f := newFixture(t, pool)
	ctx := context.Background()

	_, err := f.ledger.RegisterEntry(ctx, dto.RegisterEntryRequest{
		WarehouseID: f.origin,
		UserID:      f.dispatcher,
		Lines:       []dto.EntryLineRequest{{ProductID: "suero", Quantity: decimal.NewFromInt(6)}},
	})
	require.NoError(t, err)
	var trIDs, ids []string
	for i := 0; i < 2; i++ {
		tr, err := f.transfers.Dispatch(ctx, dto.DispatchTransferRequest{
			OriginWarehouseID:      f.origin,
			DestinationWarehouseID: f.destination,
			OriginUserID:           f.dispatcher,
			Lines:                  []dto.DispatchLineRequest{{ProductID: "suero", Quantity: decimal.NewFromInt(3)}},
		})
		require.NoError(t, err)
		trIDs = append(trIDs, tr.ID)
		ids = append(ids, tr.Lines[0].ID)
	}

	_, err = f.reconciliation.RejectLine(ctx, dto.RejectTransferLineRequest{TransferLineID: ids[0], ReceivingUserID: f.receiver})
	require.NoError(t, err)
	got, err := f.transfers.GetTransfer(ctx, trIDs[0])
	require.NoError(t, err)
	require.NotNil(t, got.Lines[0].RejectedBy)
	assert.Equal(t, f.receiver, *got.Lines[0].RejectedBy)

	list, err := f.transfers.ListTransfers(ctx, repository.TransferFilter{OriginWarehouseID: f.origin, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 2, list.Page.Total)
}

func TestIntegration_IDMalFormadoEsNoEncontrado(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewTransferRepository(pool)
	got, err := repo.GetByID(context.Background(), "no-es-uuid")
	require.NoError(t, err)
	assert.Nil(t, got)
}

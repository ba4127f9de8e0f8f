package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/clinica-bodegas-api/internal/application/dto"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/inventory"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
	"github.com/jhoicas/clinica-bodegas-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	whOrigen   = "w-origen"
	whDestino  = "w-destino"
	userOrigen = "u-origen"
	userDest   = "u-destino"
	userBaja   = "u-inactivo"
	productoA  = "p-gasas"
	productoB  = "p-suero"
)

// harness casos de uso montados sobre el almacenamiento en memoria.
type harness struct {
	store          *memory.Store
	ledger         *inventory.LedgerUseCase
	allocation     *inventory.AllocationUseCase
	transfers      *inventory.TransferUseCase
	reconciliation *inventory.ReconciliationUseCase
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithRunner(t, nil)
}

// newHarnessWithRunner permite envolver el TxRunner (inyección de fallas).
func newHarnessWithRunner(t *testing.T, wrap func(inventory.TxRunner) inventory.TxRunner) *harness {
	t.Helper()
	s := memory.NewStore()
	for _, id := range []string{whOrigen, whDestino} {
		s.AddWarehouse(entity.Warehouse{ID: id, Name: id})
	}
	s.AddUser(entity.User{ID: userOrigen, Role: entity.RoleBodeguero, Status: entity.UserStatusActive})
	s.AddUser(entity.User{ID: userDest, Role: entity.RoleParamedico, Status: entity.UserStatusActive})
	s.AddUser(entity.User{ID: userBaja, Role: entity.RoleBodeguero, Status: entity.UserStatusInactive})

	var runner inventory.TxRunner = s
	if wrap != nil {
		runner = wrap(s)
	}
	ledger := inventory.NewLedgerUseCase(runner, s.Movements(), s.Warehouses(), s.Users())
	allocation := inventory.NewAllocationUseCase(runner, ledger)
	return &harness{
		store:          s,
		ledger:         ledger,
		allocation:     allocation,
		transfers:      inventory.NewTransferUseCase(runner, s.Transfers(), ledger, allocation),
		reconciliation: inventory.NewReconciliationUseCase(runner, ledger, nil),
	}
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

// entry registra una entrada de stock en la bodega.
func (h *harness) entry(t *testing.T, warehouseID, productID, qty string, price *decimal.Decimal) *dto.MovementResponse {
	t.Helper()
	mov, err := h.ledger.RegisterEntry(context.Background(), dto.RegisterEntryRequest{
		WarehouseID: warehouseID,
		UserID:      userOrigen,
		Lines:       []dto.EntryLineRequest{{ProductID: productID, Quantity: dec(qty), UnitPrice: price}},
	})
	require.NoError(t, err)
	return mov
}

// dispatch despacha un traslado de origen a destino con las líneas dadas (producto → cantidad).
func (h *harness) dispatch(t *testing.T, lines ...dto.DispatchLineRequest) *dto.TransferResponse {
	t.Helper()
	tr, err := h.transfers.Dispatch(context.Background(), dto.DispatchTransferRequest{
		OriginWarehouseID:      whOrigen,
		DestinationWarehouseID: whDestino,
		OriginUserID:           userOrigen,
		Lines:                  lines,
	})
	require.NoError(t, err)
	return tr
}

func (h *harness) stock(t *testing.T, warehouseID, productID string) decimal.Decimal {
	t.Helper()
	s, err := h.ledger.GetAvailableStock(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	return s.Available
}

func (h *harness) transfer(t *testing.T, id string) *dto.TransferResponse {
	t.Helper()
	tr, err := h.transfers.GetTransfer(context.Background(), id)
	require.NoError(t, err)
	return tr
}

func line(productID, qty string) dto.DispatchLineRequest {
	return dto.DispatchLineRequest{ProductID: productID, Quantity: dec(qty)}
}

// ──────────────────────────────────────────────────────────────────────────────
// Inyección de fallas
// ──────────────────────────────────────────────────────────────────────────────

var errDisco = errors.New("disco lleno")

// failingRunner entrega un TransferRepository cuyo UpdateLine falla.
type failingRunner struct{ inner inventory.TxRunner }

func (r failingRunner) Run(ctx context.Context, fn func(
	repository.MovementRepository,
	repository.TransferRepository,
	repository.WarehouseRepository,
	repository.UserRepository,
) error) error {
	return r.inner.Run(ctx, func(
		movRepo repository.MovementRepository,
		transferRepo repository.TransferRepository,
		warehouseRepo repository.WarehouseRepository,
		userRepo repository.UserRepository,
	) error {
		return fn(movRepo, failingTransferRepo{TransferRepository: transferRepo}, warehouseRepo, userRepo)
	})
}

type failingTransferRepo struct{ repository.TransferRepository }

// unusedWarehouses y unusedUsers fallan el test si se consultan fuera de la transacción.
type unusedWarehouses struct{ t *testing.T }

func (r unusedWarehouses) GetByID(context.Context, string) (*entity.Warehouse, error) {
	r.t.Error("bodega consultada fuera de la transacción")
	return nil, errDisco
}

type unusedUsers struct{ t *testing.T }

func (r unusedUsers) GetByID(context.Context, string) (*entity.User, error) {
	r.t.Error("empleado consultado fuera de la transacción")
	return nil, errDisco
}

func (failingTransferRepo) UpdateLine(context.Context, *entity.TransferLine) error { return errDisco }

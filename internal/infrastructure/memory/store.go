// Package memory implementa los puertos de persistencia en memoria. Las transacciones se serializan
// con un mutex y se revierten restaurando una copia del estado, lo que lo hace apto para tests y para
// levantar la API sin PostgreSQL (STORAGE=memory).
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/clinica-bodegas-api/internal/application/inventory"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	seq           int64
	headers       map[string]entity.MovementHeader
	lines         map[string]entity.MovementLine
	transfers     map[string]entity.Transfer
	transferLines map[string]entity.TransferLine
	lineage       map[string][]string // transfer_line_id → movement_line_ids en orden
	linesOf       map[string][]string // transfer_id → transfer_line_ids en orden de creación
}

func newState() state {
	return state{
		headers:       map[string]entity.MovementHeader{},
		lines:         map[string]entity.MovementLine{},
		transfers:     map[string]entity.Transfer{},
		transferLines: map[string]entity.TransferLine{},
		lineage:       map[string][]string{},
		linesOf:       map[string][]string{},
	}
}

func (s state) clone() state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.headers {
		c.headers[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = copyMovementLine(v)
	}
	for k, v := range s.transfers {
		c.transfers[k] = copyTransfer(v)
	}
	for k, v := range s.transferLines {
		c.transferLines[k] = copyTransferLine(v)
	}
	for k, v := range s.lineage {
		c.lineage[k] = append([]string(nil), v...)
	}
	for k, v := range s.linesOf {
		c.linesOf[k] = append([]string(nil), v...)
	}
	return c
}

// Store almacenamiento en memoria. El cero no es usable: crear con NewStore.
type Store struct {
	mu    sync.Mutex // una transacción a la vez
	state state

	refMu      sync.RWMutex
	warehouses map[string]entity.Warehouse
	users      map[string]entity.User
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		state:      newState(),
		warehouses: map[string]entity.Warehouse{},
		users:      map[string]entity.User{},
	}
}

// AddWarehouse registra una bodega (datos de referencia).
func (s *Store) AddWarehouse(w entity.Warehouse) {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	s.warehouses[w.ID] = w
}

// AddUser registra un empleado (datos de referencia).
func (s *Store) AddUser(u entity.User) {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	if u.WarehouseID != nil {
		wh := *u.WarehouseID
		u.WarehouseID = &wh
	}
	s.users[u.ID] = u
}

// Run ejecuta fn con repositorios atados a una transacción. Si fn devuelve error (o hace panic)
// el estado vuelve a como estaba antes de la llamada.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	transferRepo repository.TransferRepository,
	warehouseRepo repository.WarehouseRepository,
	userRepo repository.UserRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	committed := false
	defer func() {
		if !committed {
			s.state = snapshot
		}
	}()

	if err := fn(&MovementRepo{s: s, inTx: true}, &TransferRepo{s: s, inTx: true}, s.Warehouses(), s.Users()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Movements repositorio de movimientos fuera de transacción (lecturas).
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Transfers repositorio de traslados fuera de transacción (lecturas).
func (s *Store) Transfers() *TransferRepo { return &TransferRepo{s: s} }

// Warehouses repositorio de bodegas.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{s: s} }

// Users repositorio de empleados.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// lock toma el mutex de transacción cuando el repositorio no corre dentro de Run.
func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyMovementLine(l entity.MovementLine) entity.MovementLine {
	l.QuantityConsumed = copyDecimal(l.QuantityConsumed)
	l.UnitPrice = copyDecimal(l.UnitPrice)
	l.SupplierID = copyString(l.SupplierID)
	l.ParentLineID = copyString(l.ParentLineID)
	return l
}

func copyTransfer(t entity.Transfer) entity.Transfer {
	t.DestinationUserID = copyString(t.DestinationUserID)
	t.CancelReason = copyString(t.CancelReason)
	t.CancelledBy = copyString(t.CancelledBy)
	if t.ReceivedAt != nil {
		v := *t.ReceivedAt
		t.ReceivedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		t.CompletedAt = &v
	}
	if t.CancelledAt != nil {
		v := *t.CancelledAt
		t.CancelledAt = &v
	}
	return t
}

func copyTransferLine(l entity.TransferLine) entity.TransferLine {
	l.SupplierID = copyString(l.SupplierID)
	l.ReceivedQuantity = copyDecimal(l.ReceivedQuantity)
	l.CancelReason = copyString(l.CancelReason)
	l.RejectedBy = copyString(l.RejectedBy)
	l.SourceLineID = copyString(l.SourceLineID)
	if l.ResolvedAt != nil {
		v := *l.ResolvedAt
		l.ResolvedAt = &v
	}
	l.EntryLineIDs = append([]string(nil), l.EntryLineIDs...)
	return l
}

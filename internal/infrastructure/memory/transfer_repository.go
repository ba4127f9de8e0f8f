package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados en memoria.
type TransferRepo struct {
	s    *Store
	inTx bool
}

// Create persiste un traslado nuevo.
func (r *TransferRepo) Create(_ context.Context, transfer *entity.Transfer) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.state.transfers[transfer.ID]; ok {
		return fmt.Errorf("create transfer: id duplicado %s", transfer.ID)
	}
	r.s.state.transfers[transfer.ID] = copyTransfer(*transfer)
	return nil
}

// GetByID obtiene un traslado; nil si no existe.
func (r *TransferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	defer r.s.lock(r.inTx)()
	t, ok := r.s.state.transfers[id]
	if !ok {
		return nil, nil
	}
	c := copyTransfer(t)
	return &c, nil
}

// GetForUpdate equivale a GetByID dentro de la transacción exclusiva.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.GetByID(ctx, id)
}

// Update persiste el estado del traslado.
func (r *TransferRepo) Update(_ context.Context, transfer *entity.Transfer) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.state.transfers[transfer.ID]; !ok {
		return fmt.Errorf("update transfer: %s no existe", transfer.ID)
	}
	r.s.state.transfers[transfer.ID] = copyTransfer(*transfer)
	return nil
}

// List lista traslados por fecha de envío descendente.
func (r *TransferRepo) List(_ context.Context, filter repository.TransferFilter) ([]*entity.Transfer, error) {
	defer r.s.lock(r.inTx)()
	var list []*entity.Transfer
	for _, t := range r.s.state.transfers {
		if !matches(t, filter) {
			continue
		}
		c := copyTransfer(t)
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ShippedAt.Equal(list[j].ShippedAt) {
			return list[i].ShippedAt.After(list[j].ShippedAt)
		}
		return list[i].ID < list[j].ID
	})
	if filter.Offset >= len(list) {
		return []*entity.Transfer{}, nil
	}
	list = list[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(list) {
		list = list[:filter.Limit]
	}
	return list, nil
}

// Count cuenta los traslados del filtro.
func (r *TransferRepo) Count(_ context.Context, filter repository.TransferFilter) (int, error) {
	defer r.s.lock(r.inTx)()
	n := 0
	for _, t := range r.s.state.transfers {
		if matches(t, filter) {
			n++
		}
	}
	return n, nil
}

func matches(t entity.Transfer, f repository.TransferFilter) bool {
	return (f.OriginWarehouseID == "" || t.OriginWarehouseID == f.OriginWarehouseID) &&
		(f.DestinationWarehouseID == "" || t.DestinationWarehouseID == f.DestinationWarehouseID) &&
		(f.Status == nil || t.Status == *f.Status)
}

// CreateLine persiste una línea de traslado.
func (r *TransferRepo) CreateLine(_ context.Context, line *entity.TransferLine) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.state.transfers[line.TransferID]; !ok {
		return fmt.Errorf("create transfer line: traslado %s no existe", line.TransferID)
	}
	if _, ok := r.s.state.transferLines[line.ID]; ok {
		return fmt.Errorf("create transfer line: id duplicado %s", line.ID)
	}
	c := copyTransferLine(*line)
	c.EntryLineIDs = nil
	r.s.state.transferLines[line.ID] = c
	r.s.state.lineage[line.ID] = append([]string(nil), line.EntryLineIDs...)
	r.s.state.linesOf[line.TransferID] = append(r.s.state.linesOf[line.TransferID], line.ID)
	return nil
}

// GetLine obtiene una línea con su linaje; nil si no existe.
func (r *TransferRepo) GetLine(_ context.Context, id string) (*entity.TransferLine, error) {
	defer r.s.lock(r.inTx)()
	return r.getLine(id), nil
}

// GetLineForUpdate equivale a GetLine dentro de la transacción exclusiva.
func (r *TransferRepo) GetLineForUpdate(ctx context.Context, id string) (*entity.TransferLine, error) {
	return r.GetLine(ctx, id)
}

func (r *TransferRepo) getLine(id string) *entity.TransferLine {
	l, ok := r.s.state.transferLines[id]
	if !ok {
		return nil
	}
	c := copyTransferLine(l)
	c.EntryLineIDs = append([]string(nil), r.s.state.lineage[id]...)
	return &c
}

// ListLines lista las líneas de un traslado en orden de creación, con su linaje.
func (r *TransferRepo) ListLines(_ context.Context, transferID string) ([]*entity.TransferLine, error) {
	defer r.s.lock(r.inTx)()
	ids := r.s.state.linesOf[transferID]
	list := make([]*entity.TransferLine, 0, len(ids))
	for _, id := range ids {
		list = append(list, r.getLine(id))
	}
	return list, nil
}

// UpdateLine persiste lo recibido, la resolución, el motivo y quién rechazó. El linaje no se toca.
func (r *TransferRepo) UpdateLine(_ context.Context, line *entity.TransferLine) error {
	defer r.s.lock(r.inTx)()
	cur, ok := r.s.state.transferLines[line.ID]
	if !ok {
		return fmt.Errorf("update transfer line: %s no existe", line.ID)
	}
	upd := copyTransferLine(*line)
	cur.ReceivedQuantity = upd.ReceivedQuantity
	cur.Resolved = upd.Resolved
	cur.ResolvedAt = upd.ResolvedAt
	cur.CancelReason = upd.CancelReason
	cur.RejectedBy = upd.RejectedBy
	r.s.state.transferLines[line.ID] = cur
	return nil
}

// AppendEntryLineage agrega una línea de entrada al final del linaje.
func (r *TransferRepo) AppendEntryLineage(_ context.Context, transferLineID, movementLineID string) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.state.transferLines[transferLineID]; !ok {
		return fmt.Errorf("append lineage: línea %s no existe", transferLineID)
	}
	if _, ok := r.s.state.lines[movementLineID]; !ok {
		return fmt.Errorf("append lineage: línea de movimiento %s no existe", movementLineID)
	}
	r.s.state.lineage[transferLineID] = append(r.s.state.lineage[transferLineID], movementLineID)
	return nil
}

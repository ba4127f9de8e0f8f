package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo kardex en memoria. Devuelve siempre copias: modificar lo leído no altera el estado.
type MovementRepo struct {
	s    *Store
	inTx bool
}

// CreateHeader persiste una cabecera nueva.
func (r *MovementRepo) CreateHeader(_ context.Context, header *entity.MovementHeader) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.state.headers[header.ID]; ok {
		return fmt.Errorf("create movement: id duplicado %s", header.ID)
	}
	r.s.state.headers[header.ID] = *header
	return nil
}

// GetHeader obtiene una cabecera por ID; nil si no existe.
func (r *MovementRepo) GetHeader(_ context.Context, id string) (*entity.MovementHeader, error) {
	defer r.s.lock(r.inTx)()
	h, ok := r.s.state.headers[id]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

// UpdateHeaderStatus cambia el estado de la cabecera.
func (r *MovementRepo) UpdateHeaderStatus(_ context.Context, id, status string) error {
	defer r.s.lock(r.inTx)()
	h, ok := r.s.state.headers[id]
	if !ok {
		return fmt.Errorf("update movement status: %s no existe", id)
	}
	h.Status = status
	r.s.state.headers[id] = h
	return nil
}

// CreateLine persiste una línea y le asigna Seq.
func (r *MovementRepo) CreateLine(_ context.Context, line *entity.MovementLine) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.state.headers[line.MovementID]; !ok {
		return fmt.Errorf("create movement line: movimiento %s no existe", line.MovementID)
	}
	if _, ok := r.s.state.lines[line.ID]; ok {
		return fmt.Errorf("create movement line: id duplicado %s", line.ID)
	}
	r.s.state.seq++
	line.Seq = r.s.state.seq
	r.s.state.lines[line.ID] = copyMovementLine(*line)
	return nil
}

// GetLine obtiene una línea por ID; nil si no existe.
func (r *MovementRepo) GetLine(_ context.Context, id string) (*entity.MovementLine, error) {
	defer r.s.lock(r.inTx)()
	return r.getLine(id), nil
}

// GetLineForUpdate equivale a GetLine: la transacción ya tiene acceso exclusivo.
func (r *MovementRepo) GetLineForUpdate(ctx context.Context, id string) (*entity.MovementLine, error) {
	return r.GetLine(ctx, id)
}

func (r *MovementRepo) getLine(id string) *entity.MovementLine {
	l, ok := r.s.state.lines[id]
	if !ok {
		return nil
	}
	c := copyMovementLine(l)
	return &c
}

// UpdateConsumption persiste quantity_consumed y status.
func (r *MovementRepo) UpdateConsumption(_ context.Context, line *entity.MovementLine) error {
	defer r.s.lock(r.inTx)()
	cur, ok := r.s.state.lines[line.ID]
	if !ok {
		return fmt.Errorf("update consumption: línea %s no existe", line.ID)
	}
	cur.QuantityConsumed = copyDecimal(line.QuantityConsumed)
	cur.Status = line.Status
	r.s.state.lines[line.ID] = cur
	return nil
}

// ListLinesByMovement lista las líneas de un movimiento en orden de inserción.
func (r *MovementRepo) ListLinesByMovement(_ context.Context, movementID string) ([]*entity.MovementLine, error) {
	defer r.s.lock(r.inTx)()
	var list []*entity.MovementLine
	for _, l := range r.s.state.lines {
		if l.MovementID == movementID {
			c := copyMovementLine(l)
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Seq < list[j].Seq })
	return list, nil
}

// ListActiveEntryLinesForUpdate líneas de entrada activas del producto en la bodega, FIFO.
func (r *MovementRepo) ListActiveEntryLinesForUpdate(ctx context.Context, productID, warehouseID string) ([]*entity.MovementLine, error) {
	return r.ListActiveEntryLines(ctx, productID, warehouseID)
}

// ListActiveEntryLines líneas de entrada activas del producto en la bodega, de la más antigua a la más nueva.
func (r *MovementRepo) ListActiveEntryLines(_ context.Context, productID, warehouseID string) ([]*entity.MovementLine, error) {
	defer r.s.lock(r.inTx)()
	type row struct {
		line    *entity.MovementLine
		movedAt int64
	}
	var rows []row
	for _, l := range r.s.state.lines {
		if l.ProductID != productID || l.Status != entity.MovementStatusActive {
			continue
		}
		h := r.s.state.headers[l.MovementID]
		if h.Type != entity.MovementTypeEntry || h.WarehouseID != warehouseID {
			continue
		}
		c := copyMovementLine(l)
		rows = append(rows, row{line: &c, movedAt: h.MovedAt.UnixNano()})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].movedAt != rows[j].movedAt {
			return rows[i].movedAt < rows[j].movedAt
		}
		return rows[i].line.Seq < rows[j].line.Seq
	})
	list := make([]*entity.MovementLine, 0, len(rows))
	for _, rw := range rows {
		list = append(list, rw.line)
	}
	return list, nil
}

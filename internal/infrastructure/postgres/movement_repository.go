package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación de MovementRepository sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador del kardex. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementLineColumns = `
	l.id, l.movement_id, l.seq, l.product_id, l.quantity, l.quantity_consumed, l.unit_price,
	l.supplier_id, l.parent_line_id, l.status, l.created_at`

// CreateHeader persiste una cabecera de movimiento.
func (r *MovementRepo) CreateHeader(ctx context.Context, h *entity.MovementHeader) error {
	query := `
		INSERT INTO movements (id, type, warehouse_id, user_id, is_transfer, status, moved_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		h.ID, h.Type, h.WarehouseID, nullable(h.UserID), h.IsTransfer, h.Status, h.MovedAt, h.CreatedAt,
	)
	if err != nil {
		return writeErr("insert movement", err)
	}
	return nil
}

// GetHeader obtiene una cabecera por ID.
func (r *MovementRepo) GetHeader(ctx context.Context, id string) (*entity.MovementHeader, error) {
	if !validID(id) {
		return nil, nil
	}
	query := `
		SELECT id, type, warehouse_id, user_id, is_transfer, status, moved_at, created_at
		FROM movements WHERE id = $1`
	var h entity.MovementHeader
	var userID *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&h.ID, &h.Type, &h.WarehouseID, &userID, &h.IsTransfer, &h.Status, &h.MovedAt, &h.CreatedAt,
	)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, readErr("get movement", err)
	}
	if userID != nil {
		h.UserID = *userID
	}
	return &h, nil
}

// UpdateHeaderStatus cambia el estado de la cabecera (ACTIVE / EXHAUSTED).
func (r *MovementRepo) UpdateHeaderStatus(ctx context.Context, id, status string) error {
	_, err := r.q.Exec(ctx, `UPDATE movements SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return writeErr("update movement status", err)
	}
	return nil
}

// CreateLine persiste una línea; seq lo asigna la BD.
func (r *MovementRepo) CreateLine(ctx context.Context, l *entity.MovementLine) error {
	query := `
		INSERT INTO movement_lines (id, movement_id, product_id, quantity, quantity_consumed, unit_price,
			supplier_id, parent_line_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		l.ID, l.MovementID, l.ProductID, l.Quantity, l.QuantityConsumed, l.UnitPrice,
		l.SupplierID, l.ParentLineID, l.Status, l.CreatedAt,
	).Scan(&l.Seq)
	if err != nil {
		return writeErr("insert movement line", err)
	}
	return nil
}

// GetLine obtiene una línea por ID.
func (r *MovementRepo) GetLine(ctx context.Context, id string) (*entity.MovementLine, error) {
	return r.getLine(ctx, `SELECT`+movementLineColumns+` FROM movement_lines l WHERE l.id = $1`, id)
}

// GetLineForUpdate obtiene la línea y bloquea la fila (SELECT FOR UPDATE).
func (r *MovementRepo) GetLineForUpdate(ctx context.Context, id string) (*entity.MovementLine, error) {
	return r.getLine(ctx, `SELECT`+movementLineColumns+` FROM movement_lines l WHERE l.id = $1 FOR UPDATE`, id)
}

func (r *MovementRepo) getLine(ctx context.Context, query, id string) (*entity.MovementLine, error) {
	if !validID(id) {
		return nil, nil
	}
	l, err := scanMovementLine(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, readErr("get movement line", err)
	}
	return l, nil
}

// UpdateConsumption persiste quantity_consumed y status de la línea.
func (r *MovementRepo) UpdateConsumption(ctx context.Context, l *entity.MovementLine) error {
	_, err := r.q.Exec(ctx,
		`UPDATE movement_lines SET quantity_consumed = $2, status = $3 WHERE id = $1`,
		l.ID, l.QuantityConsumed, l.Status,
	)
	if err != nil {
		return writeErr("update consumption", err)
	}
	return nil
}

// ListLinesByMovement lista las líneas de un movimiento en orden de inserción.
func (r *MovementRepo) ListLinesByMovement(ctx context.Context, movementID string) ([]*entity.MovementLine, error) {
	query := `SELECT` + movementLineColumns + ` FROM movement_lines l WHERE l.movement_id = $1 ORDER BY l.seq`
	return r.listLines(ctx, query, movementID)
}

// ListActiveEntryLinesForUpdate líneas de entrada activas (FIFO), bloqueadas. Dos consumos
// concurrentes del mismo producto y bodega se serializan aquí.
func (r *MovementRepo) ListActiveEntryLinesForUpdate(ctx context.Context, productID, warehouseID string) ([]*entity.MovementLine, error) {
	return r.listLines(ctx, activeEntryLinesQuery+` FOR UPDATE OF l`, productID, warehouseID)
}

// ListActiveEntryLines líneas de entrada activas (FIFO), sin bloqueo.
func (r *MovementRepo) ListActiveEntryLines(ctx context.Context, productID, warehouseID string) ([]*entity.MovementLine, error) {
	return r.listLines(ctx, activeEntryLinesQuery, productID, warehouseID)
}

const activeEntryLinesQuery = `
	SELECT` + movementLineColumns + `
	FROM movement_lines l
	JOIN movements m ON m.id = l.movement_id
	WHERE l.product_id = $1 AND m.warehouse_id = $2
	  AND m.type = 'ENTRY' AND l.status = 'ACTIVE'
	ORDER BY m.moved_at, l.seq`

func (r *MovementRepo) listLines(ctx context.Context, query string, args ...any) ([]*entity.MovementLine, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, readErr("list movement lines", err)
	}
	defer rows.Close()
	var list []*entity.MovementLine
	for rows.Next() {
		l, err := scanMovementLine(rows)
		if err != nil {
			return nil, readErr("scan movement line", err)
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr("list movement lines", err)
	}
	return list, nil
}

func scanMovementLine(row pgx.Row) (*entity.MovementLine, error) {
	var l entity.MovementLine
	err := row.Scan(
		&l.ID, &l.MovementID, &l.Seq, &l.ProductID, &l.Quantity, &l.QuantityConsumed, &l.UnitPrice,
		&l.SupplierID, &l.ParentLineID, &l.Status, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

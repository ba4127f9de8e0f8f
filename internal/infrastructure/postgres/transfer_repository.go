package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/entity"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación de TransferRepository sobre PostgreSQL (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador de traslados. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `
	id, origin_warehouse_id, destination_warehouse_id, origin_user_id, destination_user_id,
	shipped_at, received_at, completed_at, cancelled_at, cancel_reason, cancelled_by, status`

const transferLineColumns = `
	id, transfer_id, product_id, supplier_id, expected_quantity, received_quantity,
	resolved, resolved_at, cancel_reason, rejected_by, source_line_id`

// Create persiste un traslado.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	query := `INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.OriginWarehouseID, t.DestinationWarehouseID, t.OriginUserID, t.DestinationUserID,
		t.ShippedAt, t.ReceivedAt, t.CompletedAt, t.CancelledAt, t.CancelReason, t.CancelledBy, t.Status,
	)
	if err != nil {
		return writeErr("insert transfer", err)
	}
	return nil
}

// GetByID obtiene un traslado por ID.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id)
}

// GetForUpdate obtiene el traslado bloqueando la fila (SELECT FOR UPDATE).
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransferRepo) get(ctx context.Context, query, id string) (*entity.Transfer, error) {
	if !validID(id) {
		return nil, nil
	}
	t, err := scanTransfer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, readErr("get transfer", err)
	}
	return t, nil
}

// Update persiste estado, fechas, receptor y datos de cancelación.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	query := `
		UPDATE transfers SET destination_user_id = $2, received_at = $3, completed_at = $4,
			cancelled_at = $5, cancel_reason = $6, cancelled_by = $7, status = $8
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		t.ID, t.DestinationUserID, t.ReceivedAt, t.CompletedAt, t.CancelledAt, t.CancelReason, t.CancelledBy, t.Status,
	)
	if err != nil {
		return writeErr("update transfer", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update transfer %s: sin filas afectadas", t.ID)
	}
	return nil
}

// transferWhere arma el WHERE del filtro y sus argumentos posicionales.
func transferWhere(f repository.TransferFilter) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.OriginWarehouseID != "" {
		add("origin_warehouse_id = $%d", f.OriginWarehouseID)
	}
	if f.DestinationWarehouseID != "" {
		add("destination_warehouse_id = $%d", f.DestinationWarehouseID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if len(where) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(where, " AND "), args
}

// Count cuenta los traslados del filtro.
func (r *TransferRepo) Count(ctx context.Context, f repository.TransferFilter) (int, error) {
	where, args := transferWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM transfers`+where, args...).Scan(&n); err != nil {
		return 0, readErr("count transfers", err)
	}
	return n, nil
}

// List lista traslados por fecha de envío descendente con filtros opcionales.
func (r *TransferRepo) List(ctx context.Context, f repository.TransferFilter) ([]*entity.Transfer, error) {
	where, args := transferWhere(f)
	query := `SELECT ` + transferColumns + ` FROM transfers` + where
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY shipped_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, readErr("list transfers", err)
	}
	defer rows.Close()
	list := make([]*entity.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, readErr("scan transfer", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr("list transfers", err)
	}
	return list, nil
}

// CreateLine persiste una línea al final del traslado. El linaje se agrega con AppendEntryLineage.
func (r *TransferRepo) CreateLine(ctx context.Context, l *entity.TransferLine) error {
	query := `
		INSERT INTO transfer_lines (id, transfer_id, position, product_id, supplier_id, expected_quantity,
			received_quantity, resolved, resolved_at, cancel_reason, rejected_by, source_line_id)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM transfer_lines WHERE transfer_id = $2),
			$3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.TransferID, l.ProductID, l.SupplierID, l.ExpectedQuantity,
		l.ReceivedQuantity, l.Resolved, l.ResolvedAt, l.CancelReason, l.RejectedBy, l.SourceLineID,
	)
	if err != nil {
		return writeErr("insert transfer line", err)
	}
	for _, entryID := range l.EntryLineIDs {
		if err := r.AppendEntryLineage(ctx, l.ID, entryID); err != nil {
			return err
		}
	}
	return nil
}

// GetLine obtiene una línea con su linaje.
func (r *TransferRepo) GetLine(ctx context.Context, id string) (*entity.TransferLine, error) {
	return r.getLine(ctx, `SELECT `+transferLineColumns+` FROM transfer_lines WHERE id = $1`, id)
}

// GetLineForUpdate obtiene la línea bloqueando la fila (SELECT FOR UPDATE).
func (r *TransferRepo) GetLineForUpdate(ctx context.Context, id string) (*entity.TransferLine, error) {
	return r.getLine(ctx, `SELECT `+transferLineColumns+` FROM transfer_lines WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransferRepo) getLine(ctx context.Context, query, id string) (*entity.TransferLine, error) {
	if !validID(id) {
		return nil, nil
	}
	l, err := scanTransferLine(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, readErr("get transfer line", err)
	}
	lineage, err := r.lineage(ctx, `WHERE transfer_line_id = $1`, l.ID)
	if err != nil {
		return nil, err
	}
	l.EntryLineIDs = lineage[l.ID]
	return l, nil
}

// ListLines lista las líneas del traslado en orden de creación, con su linaje.
func (r *TransferRepo) ListLines(ctx context.Context, transferID string) ([]*entity.TransferLine, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+transferLineColumns+` FROM transfer_lines WHERE transfer_id = $1 ORDER BY position`, transferID)
	if err != nil {
		return nil, readErr("list transfer lines", err)
	}
	list := make([]*entity.TransferLine, 0)
	for rows.Next() {
		l, err := scanTransferLine(rows)
		if err != nil {
			rows.Close()
			return nil, readErr("scan transfer line", err)
		}
		list = append(list, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, readErr("list transfer lines", err)
	}

	lineage, err := r.lineage(ctx,
		`WHERE transfer_line_id IN (SELECT id FROM transfer_lines WHERE transfer_id = $1)`, transferID)
	if err != nil {
		return nil, err
	}
	for _, l := range list {
		l.EntryLineIDs = lineage[l.ID]
	}
	return list, nil
}

// lineage carga transfer_line_id → movement_line_ids ordenados por posición.
func (r *TransferRepo) lineage(ctx context.Context, where string, arg any) (map[string][]string, error) {
	rows, err := r.q.Query(ctx,
		`SELECT transfer_line_id, movement_line_id FROM transfer_line_entries `+where+` ORDER BY transfer_line_id, position`, arg)
	if err != nil {
		return nil, readErr("list lineage", err)
	}
	defer rows.Close()
	out := make(map[string][]string)
	for rows.Next() {
		var lineID, entryID string
		if err := rows.Scan(&lineID, &entryID); err != nil {
			return nil, readErr("scan lineage", err)
		}
		out[lineID] = append(out[lineID], entryID)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr("list lineage", err)
	}
	return out, nil
}

// UpdateLine persiste lo recibido, la resolución, el motivo y quién rechazó. No toca el linaje.
func (r *TransferRepo) UpdateLine(ctx context.Context, l *entity.TransferLine) error {
	query := `
		UPDATE transfer_lines SET received_quantity = $2, resolved = $3, resolved_at = $4,
			cancel_reason = $5, rejected_by = $6
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, l.ID, l.ReceivedQuantity, l.Resolved, l.ResolvedAt, l.CancelReason, l.RejectedBy)
	if err != nil {
		return writeErr("update transfer line", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update transfer line %s: sin filas afectadas", l.ID)
	}
	return nil
}

// AppendEntryLineage agrega la línea de entrada al final del linaje de la línea de traslado.
func (r *TransferRepo) AppendEntryLineage(ctx context.Context, transferLineID, movementLineID string) error {
	query := `
		INSERT INTO transfer_line_entries (transfer_line_id, position, movement_line_id)
		VALUES ($1,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM transfer_line_entries WHERE transfer_line_id = $1),
			$2)`
	if _, err := r.q.Exec(ctx, query, transferLineID, movementLineID); err != nil {
		return writeErr("append lineage", err)
	}
	return nil
}

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var t entity.Transfer
	err := row.Scan(
		&t.ID, &t.OriginWarehouseID, &t.DestinationWarehouseID, &t.OriginUserID, &t.DestinationUserID,
		&t.ShippedAt, &t.ReceivedAt, &t.CompletedAt, &t.CancelledAt, &t.CancelReason, &t.CancelledBy, &t.Status,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTransferLine(row pgx.Row) (*entity.TransferLine, error) {
	var l entity.TransferLine
	err := row.Scan(
		&l.ID, &l.TransferID, &l.ProductID, &l.SupplierID, &l.ExpectedQuantity, &l.ReceivedQuantity,
		&l.Resolved, &l.ResolvedAt, &l.CancelReason, &l.RejectedBy, &l.SourceLineID,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

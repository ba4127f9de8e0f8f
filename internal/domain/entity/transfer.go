package entity

import (
	"strings"
	"time"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Estados del traslado (mismos valores numéricos que persiste la BD).
const (
	TransferStatusPending   = 0
	TransferStatusCompleted = 1
	TransferStatusCancelled = 2
)

// DefaultRejectReason motivo por defecto al rechazar una línea.
const DefaultRejectReason = "not received"

// Transfer traslado de una bodega origen a una bodega destino.
// Transiciones válidas: PENDING → COMPLETED o PENDING → CANCELLED; nunca se revierte.
type Transfer struct {
	ID                     string
	OriginWarehouseID      string
	DestinationWarehouseID string
	OriginUserID           string
	DestinationUserID      *string
	ShippedAt              time.Time
	ReceivedAt             *time.Time // primer evento de recepción
	CompletedAt            *time.Time
	CancelledAt            *time.Time
	CancelReason           *string
	CancelledBy            *string
	Status                 int
}

// IsPending indica si el traslado admite recepciones o cancelación.
func (t *Transfer) IsPending() bool {
	return t.Status == TransferStatusPending
}

// MarkReceiptStarted registra el inicio de la recepción solo la primera vez; las siguientes llamadas no hacen nada.
// Devuelve true si modificó el traslado.
func (t *Transfer) MarkReceiptStarted(actorID string, now time.Time) bool {
	if t.ReceivedAt != nil {
		return false
	}
	at := now
	t.ReceivedAt = &at
	if actorID != "" {
		actor := actorID
		t.DestinationUserID = &actor
	}
	return true
}

// RecomputeStatus pasa el traslado a COMPLETED si todas sus líneas están resueltas. Nunca cancela.
// Un traslado sin líneas permanece PENDING. Devuelve true si cambió el estado.
func (t *Transfer) RecomputeStatus(lines []*TransferLine, now time.Time) bool {
	if !t.IsPending() || len(lines) == 0 {
		return false
	}
	for _, l := range lines {
		if !l.Resolved {
			return false
		}
	}
	at := now
	t.Status = TransferStatusCompleted
	t.CompletedAt = &at
	return true
}

// Cancel cancela el traslado; solo es válido mientras está PENDING.
func (t *Transfer) Cancel(reason, actorID string, now time.Time) error {
	if !t.IsPending() {
		return domain.ErrInvalidStateTransition
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.ErrInvalidInput
	}
	at := now
	t.Status = TransferStatusCancelled
	t.CancelledAt = &at
	t.CancelReason = &reason
	if actorID != "" {
		actor := actorID
		t.CancelledBy = &actor
	}
	return nil
}

// TransferLine línea de un traslado: producto y cantidad esperada.
// Resolved es verdadero si y solo si ReceivedQuantity >= ExpectedQuantity o la línea fue rechazada (CancelReason).
type TransferLine struct {
	ID               string
	TransferID       string
	ProductID        string
	SupplierID       *string
	ExpectedQuantity decimal.Decimal
	ReceivedQuantity *decimal.Decimal // nunca decrece
	Resolved         bool
	ResolvedAt       *time.Time
	CancelReason     *string
	RejectedBy       *string // empleado que rechazó la línea
	SourceLineID     *string  // línea de salida (EXIT) desde la que se despachó
	EntryLineIDs     []string // líneas de entrada generadas, en orden de recepción
}

// Received cantidad recibida hasta el momento.
func (l *TransferLine) Received() decimal.Decimal {
	if l.ReceivedQuantity == nil {
		return decimal.Zero
	}
	return *l.ReceivedQuantity
}

// Receipt resultado de aplicar una recepción sobre la línea.
type Receipt struct {
	ReceivedTotal decimal.Decimal
	Resolved      bool
	OverReceived  bool // se recibió más de lo esperado; informativo, no es error
}

// CheckReceivable valida las precondiciones de una recepción sin modificar la línea.
func (l *TransferLine) CheckReceivable(qty decimal.Decimal) error {
	if err := CheckQuantity(qty); err != nil {
		return err
	}
	if l.Resolved {
		return domain.ErrAlreadyResolved
	}
	return nil
}

// Receive suma qty a lo recibido y resuelve la línea si se alcanzó lo esperado.
// entryLineID se agrega al final del linaje de entradas.
func (l *TransferLine) Receive(qty decimal.Decimal, entryLineID string, now time.Time) (Receipt, error) {
	if err := l.CheckReceivable(qty); err != nil {
		return Receipt{}, err
	}
	total := l.Received().Add(qty)
	l.ReceivedQuantity = &total
	l.EntryLineIDs = append(l.EntryLineIDs, entryLineID)
	r := Receipt{
		ReceivedTotal: total,
		Resolved:      total.GreaterThanOrEqual(l.ExpectedQuantity),
		OverReceived:  total.GreaterThan(l.ExpectedQuantity),
	}
	if r.Resolved {
		at := now
		l.Resolved = true
		l.ResolvedAt = &at
	}
	return r, nil
}

// Reject resuelve la línea sin recepción. Es irreversible y no genera entrada en el kardex.
func (l *TransferLine) Reject(reason, actor string, now time.Time) error {
	if l.Resolved {
		return domain.ErrAlreadyResolved
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectReason
	}
	at := now
	l.Resolved = true
	l.ResolvedAt = &at
	l.CancelReason = &reason
	if actor != "" {
		l.RejectedBy = &actor
	}
	return nil
}

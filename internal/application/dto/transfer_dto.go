package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DispatchLineRequest producto y cantidad a despachar.
type DispatchLineRequest struct {
	ProductID  string          `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	SupplierID *string         `json:"supplier_id,omitempty"`
}

// DispatchTransferRequest body para POST /api/transfers.
type DispatchTransferRequest struct {
	OriginWarehouseID      string                `json:"origin_warehouse_id"`
	DestinationWarehouseID string                `json:"destination_warehouse_id"`
	OriginUserID           string                `json:"origin_user_id"`
	Lines                  []DispatchLineRequest `json:"lines"`
}

// ReceiveTransferLineRequest body para POST /api/transfer-lines/:id/receive.
type ReceiveTransferLineRequest struct {
	TransferLineID   string          `json:"transfer_line_id"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	ReceivingUserID  string          `json:"receiving_user_id"`
}

// ReceiveTransferLineResponse resultado de una recepción (total o parcial).
type ReceiveTransferLineResponse struct {
	Success          bool            `json:"success"`
	Message          string          `json:"message"`
	NewMovementID    string          `json:"new_movement_id"`
	NewEntryLineID   string          `json:"new_entry_line_id"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
	Resolved         bool            `json:"resolved"`
	OverReceived     bool            `json:"over_received"`
	TransferStatus   int             `json:"transfer_status"`
}

// RejectTransferLineRequest body para POST /api/transfer-lines/:id/reject.
type RejectTransferLineRequest struct {
	TransferLineID  string `json:"transfer_line_id"`
	ReceivingUserID string `json:"receiving_user_id"`
	Reason          string `json:"reason,omitempty"`
}

// RejectTransferLineResponse resultado de un rechazo.
type RejectTransferLineResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	TransferStatus int    `json:"transfer_status"`
}

// BatchLineRequest una línea dentro de una recepción por lote.
type BatchLineRequest struct {
	TransferLineID   string          `json:"transfer_line_id"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
}

// ReceiveTransferBatchRequest body para POST /api/transfers/:id/receive.
type ReceiveTransferBatchRequest struct {
	TransferID      string             `json:"transfer_id"`
	ReceivingUserID string             `json:"receiving_user_id"`
	Lines           []BatchLineRequest `json:"lines"`
}

// BatchLineFailure línea del lote que no se pudo procesar.
type BatchLineFailure struct {
	TransferLineID string `json:"transfer_line_id"`
	Code           string `json:"code"`
	Message        string `json:"message"`
}

// ReceiveTransferBatchResponse resultado del lote: las fallas individuales no bloquean a las demás líneas.
type ReceiveTransferBatchResponse struct {
	Success               bool                `json:"success"`
	Message               string              `json:"message"`
	NewMovementID         string              `json:"new_movement_id,omitempty"`
	EntryLineIDsByProduct map[string][]string `json:"entry_line_ids_by_product"`
	OverReceivedLineIDs   []string            `json:"over_received_line_ids,omitempty"`
	Failures              []BatchLineFailure  `json:"failures,omitempty"`
	TransferStatus        int                 `json:"transfer_status"`
}

// CancelTransferRequest body para POST /api/transfers/:id/cancel.
type CancelTransferRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// TransferLineResponse línea de traslado en respuestas.
type TransferLineResponse struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"product_id"`
	SupplierID       *string          `json:"supplier_id,omitempty"`
	ExpectedQuantity decimal.Decimal  `json:"expected_quantity"`
	ReceivedQuantity *decimal.Decimal `json:"received_quantity,omitempty"`
	Resolved         bool             `json:"resolved"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty"`
	CancelReason     *string          `json:"cancel_reason,omitempty"`
	RejectedBy       *string          `json:"rejected_by,omitempty"`
	SourceLineID     *string          `json:"source_line_id,omitempty"`
	EntryLineIDs     []string         `json:"entry_line_ids"`
}

// TransferResponse traslado con sus líneas.
type TransferResponse struct {
	ID                     string                 `json:"id"`
	OriginWarehouseID      string                 `json:"origin_warehouse_id"`
	DestinationWarehouseID string                 `json:"destination_warehouse_id"`
	OriginUserID           string                 `json:"origin_user_id"`
	DestinationUserID      *string                `json:"destination_user_id,omitempty"`
	ShippedAt              time.Time              `json:"shipped_at"`
	ReceivedAt             *time.Time             `json:"received_at,omitempty"`
	CompletedAt            *time.Time             `json:"completed_at,omitempty"`
	CancelledAt            *time.Time             `json:"cancelled_at,omitempty"`
	CancelReason           *string                `json:"cancel_reason,omitempty"`
	Status                 int                    `json:"status"`
	ExitMovementID         string                 `json:"exit_movement_id,omitempty"`
	Lines                  []TransferLineResponse `json:"lines"`
}

// TransferListResponse listado paginado de traslados (sin líneas).
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

package inventory

import (
	"errors"

	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
)

// Códigos de error expuestos a los clientes.
const (
	CodeValidation        = "VALIDATION"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyResolved   = "ALREADY_RESOLVED"
	CodeInvalidState      = "INVALID_STATE"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodePersistence       = "PERSISTENCE"
	CodeInternal          = "INTERNAL"
)

// ErrorCode traduce un error de dominio a su código público.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidQuantity):
		return CodeInvalidQuantity
	case errors.Is(err, domain.ErrInvalidInput):
		return CodeValidation
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrAlreadyResolved):
		return CodeAlreadyResolved
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return CodeInvalidState
	case errors.Is(err, domain.ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, domain.ErrPersistence):
		return CodePersistence
	default:
		return CodeInternal
	}
}

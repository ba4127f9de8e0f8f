package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrInvalidQuantity        = errors.New("la cantidad debe ser mayor que cero")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrPersistence            = errors.New("fallo de persistencia")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
)

// ErrAlreadyResolved es una transición inválida sobre una línea de traslado ya resuelta.
// errors.Is(ErrAlreadyResolved, ErrInvalidStateTransition) es verdadero.
var ErrAlreadyResolved = &stateError{msg: "la línea del traslado ya está resuelta"}

type stateError struct{ msg string }

func (e *stateError) Error() string { return e.msg }

func (e *stateError) Unwrap() error { return ErrInvalidStateTransition }

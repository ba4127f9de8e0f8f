package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation verifica si un error es una violación de llave foránea (23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// isInvalidText verifica si un parámetro no tiene el formato de la columna (22P02), p. ej. un UUID mal formado.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

// isRejectedValue verifica si la BD rechazó el valor: CHECK (23514) o número fuera de rango (22003).
func isRejectedValue(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23514" || pgErr.Code == "22003")
}

// notFound indica que la fila no existe.
func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// validID indica si id puede existir como llave UUID. Se verifica antes de consultar: un 22P02
// dentro de una transacción la deja abortada.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// writeErr traduce errores de escritura: duplicado, referencia rota o valor rechazado son entrada
// inválida, el resto persistencia.
func writeErr(op string, err error) error {
	switch {
	case isUniqueViolation(err), isForeignKeyViolation(err), isInvalidText(err), isRejectedValue(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidInput, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrPersistence, err)
	}
}

// readErr envuelve un error de lectura como fallo de persistencia.
func readErr(op string, err error) error {
	if isInvalidText(err) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrPersistence, err)
}

// nullable convierte "" en NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrNegativeQuantity    = errors.New("la cantidad resultante sería negativa")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia en el almacenamiento")
	ErrStorage             = errors.New("error de almacenamiento")
)

// Errores de validación de un traslado. Se comparan con errors.Is y además
// coinciden con ErrInvalidInput.
var (
	ErrSameStore       = &ValidationError{Field: "target_store_id", Reason: "no se puede trasladar a la misma tienda"}
	ErrInvalidQuantity = &ValidationError{Field: "quantity", Reason: "la cantidad debe ser un entero positivo"}
)

// ValidationError entrada mal formada; se reporta antes de tocar el almacenamiento.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NotFoundError nombra la entidad referenciada que no existe (product, source store, ...).
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s no encontrado: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError la celda origen no alcanza para la cantidad pedida.
type InsufficientStockError struct {
	ProductID string
	StoreID   string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en tienda %s: disponible %d, solicitado %d", e.StoreID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// NegativeQuantityError aserción de consistencia del ledger: un upsert dejaría la celda en negativo.
// El motor valida suficiencia antes, así que no debería dispararse en la práctica.
type NegativeQuantityError struct {
	ProductID string
	StoreID   string
	Quantity  int
	Delta     int
}

func (e *NegativeQuantityError) Error() string {
	return fmt.Sprintf("celda %s/%s: %d%+d < 0", e.ProductID, e.StoreID, e.Quantity, e.Delta)
}

func (e *NegativeQuantityError) Is(target error) bool { return target == ErrNegativeQuantity }

// StorageError falla del almacenamiento durable no clasificada (conectividad, constraints ajenos).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

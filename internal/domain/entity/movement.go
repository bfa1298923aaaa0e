package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeIN       = "IN"       // entrada a una tienda
	MovementTypeOUT      = "OUT"      // salida de una tienda
	MovementTypeTRANSFER = "TRANSFER" // traslado entre tiendas
)

// Movement registro inmutable del ledger. Se crea una sola vez por operación aceptada.
// SourceStoreID vacío en IN, TargetStoreID vacío en OUT.
type Movement struct {
	ID            string
	ProductID     string
	SourceStoreID string
	TargetStoreID string
	Quantity      int // siempre > 0
	Type          string
	Timestamp     time.Time // instante de commit, lo asigna el log de movimientos
}

// ValidMovementType indica si t es uno de los tipos soportados.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeIN, MovementTypeOUT, MovementTypeTRANSFER:
		return true
	}
	return false
}

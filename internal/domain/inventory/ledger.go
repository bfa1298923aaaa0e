// Package inventory contiene las reglas puras del ledger de inventario (servicio de dominio):
// aritmética de celdas, umbral de alerta y orden global de bloqueo.
package inventory

import (
	"sort"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// DefaultTargetMinStock umbral con el que se crea la celda destino de un traslado
// cuando la tienda nunca tuvo el producto: sin alerta hasta que se configure su mínimo.
const DefaultTargetMinStock = 0

// ApplyDelta suma delta a la cantidad actual de la celda.
// Devuelve NegativeQuantityError si el resultado queda por debajo de cero.
func ApplyDelta(productID, storeID string, current, delta int) (int, error) {
	next := current + delta
	if next < 0 {
		return current, &domain.NegativeQuantityError{
			ProductID: productID,
			StoreID:   storeID,
			Quantity:  current,
			Delta:     delta,
		}
	}
	return next, nil
}

// IsLowStock política de alerta: estrictamente menor que el umbral, nunca menor o igual.
func IsLowStock(quantity, minStock int) bool {
	return quantity < minStock
}

// LockOrder devuelve las tiendas en el orden global de bloqueo para un mismo producto
// (product_id, store_id ascendente), sin duplicados ni vacíos. Dos traslados en sentidos
// opuestos entre las mismas tiendas bloquean en el mismo orden y no se interbloquean.
func LockOrder(storeIDs ...string) []string {
	seen := make(map[string]struct{}, len(storeIDs))
	out := make([]string, 0, len(storeIDs))
	for _, id := range storeIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

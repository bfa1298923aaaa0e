package entity

import "time"

// Store representa una tienda física donde se almacena inventario.
type Store struct {
	ID        string
	Name      string // único
	Address   string
	City      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

package entity

import "time"

// Roles válidos para User.
const (
	RoleOperador = "operador"
	RoleVendedor = "vendedor"
	RoleGerente  = "gerente"
)

// User operador de caja o vendedor.
type User struct {
	ID           int64
	Login        string
	PasswordHash string // bcrypt
	Name         string
	Role         string
	Active       bool
	CreatedAt    time.Time
}

package entity

// Customer cliente identificado en la venta (CPF/CNPJ).
type Customer struct {
	ID       int64
	Document string
	Name     string
	Address  string
}

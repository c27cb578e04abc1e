package entity

// Register caja/impresora fiscal donde corre la sesión.
type Register struct {
	Number int
	Serial string
}

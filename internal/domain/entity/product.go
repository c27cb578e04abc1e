package entity

import "github.com/shopspring/decimal"

// Product producto del catálogo. Stock está expresado en el embalaje nativo y solo
// se modifica con deltas relativos (nunca se sobrescribe).
type Product struct {
	ID        int64
	Name      string
	Stock     decimal.Decimal
	Packaging PackagingUnit // embalaje nativo
}

// PackagingUnit embalaje (UN, CX12...) con su factor respecto a la unidad base.
type PackagingUnit struct {
	ID     int64
	Name   string
	Factor decimal.Decimal
}

package closing

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/pkg/ecf"
)

// Textos fijos del mensaje del subtotal.
const (
	textNoCustomer  = "CONSUMIDOR NAO INFORMOU O CPF/CNPJ"
	textCupomMania  = "CUPOM MANIA - CONCORRA A PREMIOS"
	textCupomManiaS = "ENVIE SMS P/ 6789: "
)

// Layout características de impresión del equipo.
type Layout struct {
	Columns     int    // ancho de la bobina
	LineBreak   string // separador de línea del equipo
	FoldAccents bool   // el equipo no imprime acentos
}

// MessageInput datos que componen el mensaje promocional del cupón.
type MessageInput struct {
	Authenticated    string // MD5 del ejecutable (out.autenticado)
	OperatorLogin    string
	SellerLogin      string // vacío si no hay vendedor
	Customer         *entity.Customer
	CustomerDeclared bool
	MinasLegal       bool
	CupomMania       bool
	CompanyCNPJ      string
	CompanyIE        string
	SaleDate         time.Time
	Net              decimal.Decimal
	COO              int
	Register         int
}

// BuildSubtotalMessage arma el bloque de texto enviado con ECF_SubtotalizaCupom.
func BuildSubtotalMessage(in MessageInput, l Layout) string {
	var sb strings.Builder
	sb.WriteString(ecf.PadRight("MD5: "+in.Authenticated, l.Columns))

	operator := "OPERADOR: " + in.OperatorLogin
	if in.SellerLogin != "" {
		operator += " - VENDEDOR: " + in.SellerLogin
	}
	sb.WriteString(ecf.PadRight(operator, l.Columns))

	switch {
	case in.Customer == nil:
		sb.WriteString(ecf.PadRight(textNoCustomer, l.Columns))
	case !in.CustomerDeclared:
		sb.WriteString("CNPJ/CPF: " + in.Customer.Document + l.LineBreak)
		if in.Customer.Name != "" {
			sb.WriteString("NOME:     " + in.Customer.Name + l.LineBreak)
		}
		if in.Customer.Address != "" {
			sb.WriteString("ENDEREÇO: " + in.Customer.Address + l.LineBreak)
		}
	}

	// los dos programas son excluyentes; Minas Legal tiene prioridad
	if in.MinasLegal {
		sb.WriteString("MINAS LEGAL: ")
		sb.WriteString(in.CompanyCNPJ + " ")
		sb.WriteString(ecf.FormatDate(in.SaleDate) + " ")
		sb.WriteString(ecf.FormatCents(in.Net))
	} else if in.CupomMania {
		sb.WriteString(ecf.PadRight(textCupomMania, l.Columns))
		sb.WriteString(textCupomManiaS)
		sb.WriteString(ecf.ZeroPad(in.CompanyIE, 8))
		sb.WriteString(ecf.FormatDate(in.SaleDate))
		sb.WriteString(ecf.ZeroPad(strconv.Itoa(in.COO), 6))
		sb.WriteString(ecf.ZeroPad(strconv.Itoa(in.Register), 3))
	}

	msg := sb.String()
	if l.FoldAccents {
		msg = ecf.FoldAccents(msg)
	}
	return msg
}

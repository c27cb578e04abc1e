package closing_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
)

var layout = closing.Layout{Columns: 48, LineBreak: "\n"}

func baseInput() closing.MessageInput {
	return closing.MessageInput{
		Authenticated: "0123456789abcdef0123456789abcdef",
		OperatorLogin: "maria",
		SaleDate:      time.Date(2024, time.March, 7, 10, 0, 0, 0, time.UTC),
		Net:           d("90"),
		COO:           123,
		Register:      1,
		CompanyCNPJ:   "12345678000199",
		CompanyIE:     "12.345",
	}
}

// chunk devuelve la línea i (ancho fijo) del mensaje.
func chunk(msg string, i int) string {
	r := []rune(msg)
	return string(r[i*layout.Columns : (i+1)*layout.Columns])
}

func TestBuildSubtotalMessage_ConsumidorNoIdentificado(t *testing.T) {
	msg := closing.BuildSubtotalMessage(baseInput(), layout)

	assert.Equal(t, 3*layout.Columns, len([]rune(msg)), "tres líneas completas de ancho fijo")
	assert.Equal(t, "MD5: 0123456789abcdef0123456789abcdef", strings.TrimRight(chunk(msg, 0), " "))
	assert.Equal(t, "OPERADOR: maria", strings.TrimRight(chunk(msg, 1), " "))
	assert.Equal(t, "CONSUMIDOR NAO INFORMOU O CPF/CNPJ", strings.TrimRight(chunk(msg, 2), " "))
}

func TestBuildSubtotalMessage_OperadorYVendedor(t *testing.T) {
	in := baseInput()
	in.SellerLogin = "joao"
	msg := closing.BuildSubtotalMessage(in, layout)
	assert.Equal(t, "OPERADOR: maria - VENDEDOR: joao", strings.TrimRight(chunk(msg, 1), " "))
}

func TestBuildSubtotalMessage_ClienteNoDeclarado(t *testing.T) {
	in := baseInput()
	in.Customer = &entity.Customer{Document: "12345678909", Name: "Ana", Address: "Rua A, 10"}

	msg := closing.BuildSubtotalMessage(in, layout)

	tail := string([]rune(msg)[2*layout.Columns:])
	assert.Equal(t, "CNPJ/CPF: 12345678909\nNOME:     Ana\nENDEREÇO: Rua A, 10\n", tail)
}

func TestBuildSubtotalMessage_ClienteSinNombreNiDireccion(t *testing.T) {
	in := baseInput()
	in.Customer = &entity.Customer{Document: "12345678909"}

	msg := closing.BuildSubtotalMessage(in, layout)

	tail := string([]rune(msg)[2*layout.Columns:])
	assert.Equal(t, "CNPJ/CPF: 12345678909\n", tail)
}

func TestBuildSubtotalMessage_ClienteDeclarado(t *testing.T) {
	in := baseInput()
	in.Customer = &entity.Customer{Document: "12345678909", Name: "Ana"}
	in.CustomerDeclared = true

	msg := closing.BuildSubtotalMessage(in, layout)

	assert.Equal(t, 2*layout.Columns, len([]rune(msg)), "no se agrega bloque de cliente")
	assert.NotContains(t, msg, "CNPJ/CPF")
}

func TestBuildSubtotalMessage_MinasLegal(t *testing.T) {
	in := baseInput()
	in.MinasLegal = true
	in.CupomMania = true // nunca se evalúa si Minas Legal está activo

	msg := closing.BuildSubtotalMessage(in, layout)

	assert.True(t, strings.HasSuffix(msg, "MINAS LEGAL: 12345678000199 07032024 9000"))
	assert.NotContains(t, msg, "CUPOM MANIA")
}

func TestBuildSubtotalMessage_CupomMania(t *testing.T) {
	in := baseInput()
	in.CupomMania = true

	msg := closing.BuildSubtotalMessage(in, layout)

	assert.Equal(t, "CUPOM MANIA - CONCORRA A PREMIOS", strings.TrimRight(chunk(msg, 3), " "))
	assert.True(t, strings.HasSuffix(msg, "ENVIE SMS P/ 6789: 0001234507032024000123001"))
}

func TestBuildSubtotalMessage_SinAcentos(t *testing.T) {
	in := baseInput()
	in.Customer = &entity.Customer{Document: "1", Address: "São João"}

	msg := closing.BuildSubtotalMessage(in, closing.Layout{Columns: 48, LineBreak: "\r\n", FoldAccents: true})

	assert.Contains(t, msg, "ENDERECO: Sao Joao\r\n")
	assert.NotContains(t, msg, "Ç")
}

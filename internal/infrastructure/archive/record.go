// Package archive guarda los documentos de la venta cerrada en disco: el RV en
// PDF, su registro XML canónico con el digest SHA-256 y los comprobantes TEF.
package archive

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
)

// NsRecord namespace del registro de venta.
const NsRecord = "urn:pdv:registro-venda:1"

// Record registro XML canónico de una venta cerrada.
type Record struct {
	XML    []byte // forma canónica (C14N 1.0)
	Digest string // SHA-256 en hex de XML
}

// BuildRecord arma el registro XML de la venta y lo canoniza. Dos cierres con los
// mismos datos producen exactamente los mismos bytes y el mismo digest.
func BuildRecord(doc sale.ClosedSale) (*Record, error) {
	if doc.Sale == nil {
		return nil, fmt.Errorf("archive: registro sin venta")
	}
	s := doc.Sale

	xdoc := etree.NewDocument()
	root := xdoc.CreateElement("RegistroVenda")
	root.CreateAttr("xmlns", NsRecord)
	root.CreateAttr("fechamento", doc.ClosingID)

	cx := root.CreateElement("Caixa")
	cx.CreateAttr("numero", strconv.Itoa(doc.Register.Number))
	cx.CreateAttr("ecf", doc.Register.Serial)
	cx.CreateAttr("operador", doc.Operator.Login)

	v := root.CreateElement("Venda")
	v.CreateAttr("id", strconv.FormatInt(s.ID, 10))
	v.CreateAttr("coo", strconv.Itoa(s.COO))
	v.CreateAttr("data", doc.ClosedAt.UTC().Format("2006-01-02T15:04:05Z"))
	v.CreateElement("Bruto").SetText(s.Gross.StringFixed(2))
	v.CreateElement("Ajuste").SetText(s.Adjustment.StringFixed(2))
	v.CreateElement("Liquido").SetText(s.Net.StringFixed(2))
	if s.Customer != nil {
		c := v.CreateElement("Cliente")
		c.CreateAttr("documento", s.Customer.Document)
		c.SetText(s.Customer.Name)
	}
	if s.Seller != nil {
		v.CreateElement("Vendedor").SetText(s.Seller.Login)
	}

	items := v.CreateElement("Itens")
	for _, it := range s.Items {
		e := items.CreateElement("Item")
		e.CreateAttr("id", strconv.FormatInt(it.ID, 10))
		e.CreateAttr("produto", strconv.FormatInt(it.Product.ID, 10))
		e.CreateAttr("embalagem", it.Packaging.Name)
		e.CreateAttr("cancelado", strconv.FormatBool(it.Cancelled))
		e.CreateElement("Quantidade").SetText(it.Quantity.String())
		e.CreateElement("Bruto").SetText(it.GrossUnit.StringFixed(2))
		e.CreateElement("Rateio").SetText(it.Adjustment.String())
		e.CreateElement("Liquido").SetText(it.NetUnit.String())
		e.CreateElement("Total").SetText(it.Total.String())
	}

	pg := root.CreateElement("Pagamentos")
	for _, t := range doc.Tenders {
		e := pg.CreateElement("Pagamento")
		e.CreateAttr("codigo", t.Code)
		e.SetText(t.Amount.StringFixed(2))
	}
	pg.CreateElement("Troco").SetText(doc.Change.StringFixed(2))
	root.CreateElement("GT").SetText(doc.GrandTotal)

	var raw bytes.Buffer
	if _, err := xdoc.WriteTo(&raw); err != nil {
		return nil, fmt.Errorf("archive: serializar registro: %w", err)
	}
	canonical, err := canonicalize(raw.Bytes())
	if err != nil {
		return nil, fmt.Errorf("archive: canonizar registro: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return &Record{XML: canonical, Digest: hex.EncodeToString(sum[:])}, nil
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

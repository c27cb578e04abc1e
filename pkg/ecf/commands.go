// Package ecf reúne el catálogo de comandos de la impresora fiscal (ECF) y las
// reglas de formato que el equipo exige para valores y texto libre.
package ecf

// =============================================================================
// Comandos del driver ECF usados en el cierre del cupón fiscal.
// Los nombres siguen la nomenclatura del driver (ECF_<Accion>).
// =============================================================================

// Command identifica una orden enviada al ECF.
type Command string

const (
	CmdSubtotalizaCupom Command = "ECF_SubtotalizaCupom" // args: acréscimo/desconto, mensaje
	CmdEfetuaPagamento  Command = "ECF_EfetuaPagamento"  // args: código de pago, valor
	CmdFechaCupom       Command = "ECF_FechaCupom"       // sin args
	CmdGrandeTotal      Command = "ECF_GrandeTotal"      // payload: GT acumulado
)

// Marcadores de estado de la respuesta del driver.
const (
	StatusOK    = "OK"
	StatusError = "ERRO"
)

// Response respuesta de una orden: marcador de estado y payload/mensaje.
type Response struct {
	Status  string
	Payload string
}

// OK indica si el equipo aceptó la orden. Cualquier marcador distinto de OK es falla.
func (r Response) OK() bool { return r.Status == StatusOK }

// Ok construye una respuesta exitosa.
func Ok(payload string) Response { return Response{Status: StatusOK, Payload: payload} }

// Erro construye una respuesta de error con el mensaje del equipo.
func Erro(message string) Response { return Response{Status: StatusError, Payload: message} }

// Claves del archivo auxiliar PAF consultadas o escritas durante el cierre.
const (
	KeyAuthenticated = "out.autenticado" // MD5 del ejecutable autenticado
	KeyGrandTotal    = "ecf.gt"
	KeyMinasLegal    = "paf.minas_legal"
	KeyCupomMania    = "paf.cupom_mania"
	KeyCompanyCNPJ   = "cli.cnpj"
	KeyCompanyIE     = "cli.ie"
)

// FlagOn es el valor que activa una bandera del archivo auxiliar.
const FlagOn = "SIM"

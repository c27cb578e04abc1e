package ecf

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/pkg/ecf"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

var _ sale.FiscalDevice = (*MonitorClient)(nil)

const (
	etx        = 0x03
	cmdTrailer = "\r\n.\r\n"
)

// MonitorClient habla con el monitor del driver del ECF por TCP: una orden de texto
// por conexión ("ECF.FechaCupom"), respuesta "OK: ..." o "ERRO: ..." terminada en ETX.
// Todo el texto viaja en ISO-8859-1.
type MonitorClient struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
	mu      sync.Mutex // el monitor atiende una orden a la vez
	log     *logger.Logger
}

// NewMonitorClient crea el cliente. timeout acota cada intercambio cuando el contexto no trae deadline.
func NewMonitorClient(addr string, timeout time.Duration, log *logger.Logger) *MonitorClient {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MonitorClient{addr: addr, timeout: timeout, log: log}
}

// Send envía la orden y espera la respuesta del monitor.
func (c *MonitorClient) Send(ctx context.Context, cmd ecf.Command, args ...string) (ecf.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return ecf.Response{}, fmt.Errorf("conectar monitor ECF %s: %w", c.addr, err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return ecf.Response{}, fmt.Errorf("deadline monitor ECF: %w", err)
	}

	payload, err := ecf.EncodeLatin1(formatMonitorCommand(cmd, args) + cmdTrailer)
	if err != nil {
		return ecf.Response{}, fmt.Errorf("codificar orden %s: %w", cmd, err)
	}
	if _, err := conn.Write(payload); err != nil {
		return ecf.Response{}, fmt.Errorf("enviar orden %s: %w", cmd, err)
	}

	raw, err := bufio.NewReader(conn).ReadBytes(etx)
	if err != nil {
		return ecf.Response{}, fmt.Errorf("leer respuesta %s: %w", cmd, err)
	}
	text, err := ecf.DecodeLatin1(raw[:len(raw)-1])
	if err != nil {
		return ecf.Response{}, fmt.Errorf("decodificar respuesta %s: %w", cmd, err)
	}
	resp := parseMonitorResponse(text)
	c.log.Debug().Str("cmd", string(cmd)).Str("status", resp.Status).Msg("monitor ECF")
	return resp, nil
}

// formatMonitorCommand ECF_FechaCupom(a, b) → ECF.FechaCupom("a","b").
func formatMonitorCommand(cmd ecf.Command, args []string) string {
	name := strings.Replace(string(cmd), "_", ".", 1)
	if len(args) == 0 {
		return name
	}
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = `"` + strings.ReplaceAll(a, `"`, `""`) + `"`
	}
	return name + "(" + strings.Join(quoted, ",") + ")"
}

// parseMonitorResponse cualquier respuesta sin prefijo OK es una falla con el texto completo.
func parseMonitorResponse(text string) ecf.Response {
	text = strings.TrimSpace(text)
	for _, status := range []string{ecf.StatusOK, ecf.StatusError} {
		if rest, ok := strings.CutPrefix(text, status+":"); ok {
			return ecf.Response{Status: status, Payload: strings.TrimSpace(rest)}
		}
	}
	if text == ecf.StatusOK {
		return ecf.Ok("")
	}
	return ecf.Erro(text)
}

package ecf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgecf "github.com/jhoicas/pdv-cierre/pkg/ecf"
)

// ──────────────────────────────────────────────────────────────────────────────
// Simulator
// ──────────────────────────────────────────────────────────────────────────────

func TestSimulator_CuponCompleto(t *testing.T) {
	var roll bytes.Buffer
	sim := NewSimulator(nil, WithRoll(&roll), WithGrandTotal(decimal.NewFromInt(1000)))
	sim.Open(decimal.NewFromInt(100))
	ctx := context.Background()

	for _, step := range []struct {
		cmd  pkgecf.Command
		args []string
	}{
		{pkgecf.CmdSubtotalizaCupom, []string{"-10.0", "OPERADOR: joão"}},
		{pkgecf.CmdEfetuaPagamento, []string{"01", "50.0"}},
		{pkgecf.CmdEfetuaPagamento, []string{"03", "40.0"}},
		{pkgecf.CmdFechaCupom, nil},
	} {
		resp, err := sim.Send(ctx, step.cmd, step.args...)
		require.NoError(t, err)
		require.Truef(t, resp.OK(), "%s: %s", step.cmd, resp.Payload)
	}

	resp, err := sim.Send(ctx, pkgecf.CmdGrandeTotal)
	require.NoError(t, err)
	assert.Equal(t, "1090.00", resp.Payload)

	assert.Contains(t, roll.String(), "COO: 000001")
	assert.True(t, bytes.Contains(roll.Bytes(), []byte("jo\xe3o")), "la bobina va en ISO-8859-1")
}

func TestSimulator_PagoInsuficiente(t *testing.T) {
	sim := NewSimulator(nil)
	sim.Open(decimal.NewFromInt(100))
	ctx := context.Background()

	_, _ = sim.Send(ctx, pkgecf.CmdSubtotalizaCupom, "0.0", "")
	_, _ = sim.Send(ctx, pkgecf.CmdEfetuaPagamento, "01", "50.0")
	resp, err := sim.Send(ctx, pkgecf.CmdFechaCupom)

	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "pagamento insuficiente", resp.Payload)
}

func TestSimulator_PagoSinSubtotal(t *testing.T) {
	sim := NewSimulator(nil)
	resp, err := sim.Send(context.Background(), pkgecf.CmdEfetuaPagamento, "01", "10.0")
	require.NoError(t, err)
	assert.False(t, resp.OK())
}

func TestSimulator_RespuestasProgramadas(t *testing.T) {
	sim := NewSimulator(nil)
	boom := errors.New("cabo desconectado")
	sim.Fail(pkgecf.CmdSubtotalizaCupom, "sem papel")
	sim.Disconnect(pkgecf.CmdSubtotalizaCupom, boom)
	ctx := context.Background()

	resp, err := sim.Send(ctx, pkgecf.CmdSubtotalizaCupom, "0.0", "")
	require.NoError(t, err)
	assert.Equal(t, pkgecf.Erro("sem papel"), resp)

	_, err = sim.Send(ctx, pkgecf.CmdSubtotalizaCupom, "0.0", "")
	assert.ErrorIs(t, err, boom)

	resp, err = sim.Send(ctx, pkgecf.CmdSubtotalizaCupom, "0.0", "")
	require.NoError(t, err)
	assert.True(t, resp.OK(), "agotado el guion vuelve al comportamiento normal")
	assert.Len(t, sim.Calls(), 3)
}

func TestSimulator_LatenciaRespetaContexto(t *testing.T) {
	sim := NewSimulator(nil, WithLatency(time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sim.Send(ctx, pkgecf.CmdGrandeTotal)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ──────────────────────────────────────────────────────────────────────────────
// MonitorClient
// ──────────────────────────────────────────────────────────────────────────────

func TestFormatMonitorCommand(t *testing.T) {
	assert.Equal(t, "ECF.FechaCupom", formatMonitorCommand(pkgecf.CmdFechaCupom, nil))
	assert.Equal(t, `ECF.EfetuaPagamento("01","50.0")`,
		formatMonitorCommand(pkgecf.CmdEfetuaPagamento, []string{"01", "50.0"}))
	assert.Equal(t, `ECF.SubtotalizaCupom("-1.0","A ""B""")`,
		formatMonitorCommand(pkgecf.CmdSubtotalizaCupom, []string{"-1.0", `A "B"`}))
}

func TestParseMonitorResponse(t *testing.T) {
	assert.Equal(t, pkgecf.Ok("000123"), parseMonitorResponse("OK: 000123\r\n"))
	assert.Equal(t, pkgecf.Ok(""), parseMonitorResponse("OK"))
	assert.Equal(t, pkgecf.Erro("Sem papel"), parseMonitorResponse("ERRO: Sem papel"))
	assert.False(t, parseMonitorResponse("Exception: timeout").OK())
}

// fakeMonitor acepta una conexión, lee la orden y responde en ISO-8859-1 + ETX.
func fakeMonitor(t *testing.T, reply string) (addr string, got chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got = make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		var sb strings.Builder
		for !strings.HasSuffix(sb.String(), cmdTrailer) {
			b, err := r.ReadByte()
			if err != nil {
				return
			}
			sb.WriteByte(b)
		}
		decoded, _ := pkgecf.DecodeLatin1([]byte(sb.String()))
		got <- strings.TrimSuffix(decoded, cmdTrailer)
		out, _ := pkgecf.EncodeLatin1(reply)
		_, _ = conn.Write(append(out, etx))
	}()
	return ln.Addr().String(), got
}

func TestMonitorClient_IdaYVuelta(t *testing.T) {
	addr, got := fakeMonitor(t, "ERRO: Impressora sem papel, troque a bobina")
	client := NewMonitorClient(addr, time.Second, nil)

	resp, err := client.Send(context.Background(), pkgecf.CmdSubtotalizaCupom, "-10.0", "ENDEREÇO: Rua A")

	require.NoError(t, err)
	assert.Equal(t, `ECF.SubtotalizaCupom("-10.0","ENDEREÇO: Rua A")`, <-got)
	assert.False(t, resp.OK())
	assert.Equal(t, "Impressora sem papel, troque a bobina", resp.Payload)
}

func TestMonitorClient_SinMonitor(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewMonitorClient(addr, 200*time.Millisecond, nil).Send(context.Background(), pkgecf.CmdFechaCupom)
	assert.Error(t, err, "sin monitor es un error de transporte")
}

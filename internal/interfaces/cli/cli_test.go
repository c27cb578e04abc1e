package cli_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pdv-cierre/internal/interfaces/cli"
)

// ─────────────────────────────────────────────────────────────────────────────
// TerminalConfirmer
// ─────────────────────────────────────────────────────────────────────────────

func TestTerminalConfirmer_Respuestas(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"S\n", true},
		{"sim\n", true},
		{"  SIM  \n", true},
		{"n\n", false},
		{"NÃO\n", false},
		{"nao", false},
	}
	for _, tc := range cases {
		t.Run(strings.TrimSpace(tc.in), func(t *testing.T) {
			var out bytes.Buffer
			c := cli.NewTerminalConfirmer(strings.NewReader(tc.in), &out)
			got, err := c.Confirm(context.Background(), "Tentar novamente?")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Contains(t, out.String(), "Tentar novamente? [S/N]: ")
		})
	}
}

func TestTerminalConfirmer_RepiteHastaRespuestaValida(t *testing.T) {
	var out bytes.Buffer
	c := cli.NewTerminalConfirmer(strings.NewReader("talvez\n\nsim\n"), &out)

	got, err := c.Confirm(context.Background(), "Tentar?")
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, 3, strings.Count(out.String(), "Tentar? [S/N]: "), "se pregunta de nuevo ante respuestas inválidas")
}

func TestTerminalConfirmer_FinDeEntrada(t *testing.T) {
	c := cli.NewTerminalConfirmer(strings.NewReader(""), &bytes.Buffer{})
	_, err := c.Confirm(context.Background(), "Tentar?")
	assert.ErrorIs(t, err, cli.ErrNoAnswer)
}

func TestTerminalConfirmer_ContextoCancelado(t *testing.T) {
	c := cli.NewTerminalConfirmer(blockingReader{}, &bytes.Buffer{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Confirm(ctx, "Tentar?")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) { select {} }

// ─────────────────────────────────────────────────────────────────────────────
// WaitIndicator y Screen
// ─────────────────────────────────────────────────────────────────────────────

func TestWaitIndicator_HideIdempotente(t *testing.T) {
	var out bytes.Buffer
	w := cli.NewWaitIndicator(&out)

	w.Hide()
	assert.Empty(t, out.String(), "Hide sin Show no escribe")

	w.Show("Aguarde")
	w.Hide()
	w.Hide()
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
	assert.Contains(t, out.String(), "Aguarde")
}

func TestScreen_Reset(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, cli.NewScreen(&out, 7).Reset(context.Background()))
	assert.Contains(t, out.String(), "CAIXA 007 LIVRE")
}

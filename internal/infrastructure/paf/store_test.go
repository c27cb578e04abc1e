package paf_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pdv-cierre/internal/domain"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/paf"
	"github.com/jhoicas/pdv-cierre/pkg/ecf"
)

func TestStore_SellarYReabrir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aux", "auxiliar.paf")
	ctx := context.Background()

	s, err := paf.Open(path, "frase-secreta")
	require.NoError(t, err)
	assert.Empty(t, s.Get(ecf.KeyGrandTotal), "archivo inexistente arranca vacío")

	require.NoError(t, s.Set(ecf.KeyGrandTotal, "1090.00"))
	require.NoError(t, s.Set(ecf.KeyMinasLegal, ecf.FlagOn))
	require.NoError(t, s.Set("cli.endereco", "Rua A\\10\nCentro"))
	require.NoError(t, s.Seal(ctx))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "1090.00", "el contenido va cifrado")

	again, err := paf.Open(path, "frase-secreta")
	require.NoError(t, err)
	assert.Equal(t, "1090.00", again.Get(ecf.KeyGrandTotal))
	assert.Equal(t, "SIM", again.Get(ecf.KeyMinasLegal))
	assert.Equal(t, "Rua A\\10\nCentro", again.Get("cli.endereco"))
	assert.Equal(t, []string{"cli.endereco", ecf.KeyGrandTotal, ecf.KeyMinasLegal}, again.Keys())
}

func TestStore_FraseIncorrecta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auxiliar.paf")
	s, err := paf.Open(path, "correcta")
	require.NoError(t, err)
	require.NoError(t, s.Set(ecf.KeyGrandTotal, "1"))
	require.NoError(t, s.Seal(context.Background()))

	_, err = paf.Open(path, "incorrecta")
	assert.ErrorIs(t, err, paf.ErrWrongPassphrase)
}

func TestStore_ArchivoAlterado(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auxiliar.paf")
	s, err := paf.Open(path, "frase")
	require.NoError(t, err)
	require.NoError(t, s.Set(ecf.KeyGrandTotal, "1"))
	require.NoError(t, s.Seal(context.Background()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = paf.Open(path, "frase")
	assert.ErrorIs(t, err, paf.ErrWrongPassphrase)
}

func TestStore_Validaciones(t *testing.T) {
	_, err := paf.Open(filepath.Join(t.TempDir(), "x"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	s, err := paf.Open(filepath.Join(t.TempDir(), "x"), "frase")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Set("a=b", "1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.Set("", "1"), domain.ErrInvalidInput)
}

func TestStore_SealConContextoCancelado(t *testing.T) {
	s, err := paf.Open(filepath.Join(t.TempDir(), "x"), "frase")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Seal(ctx), context.Canceled)
}

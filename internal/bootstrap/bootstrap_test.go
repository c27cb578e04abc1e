package bootstrap_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pdv-cierre/internal/application/dto"
	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/bootstrap"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/pkg/config"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

func devConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		App: config.AppConfig{Env: "development", Name: "pdv-test", DemoLogin: "caixa", DemoPassword: "caixa123"},
		JWT: config.JWTConfig{Secret: "segredo", Expiration: 60, Issuer: "pdv-test"},
		ECF: config.ECFConfig{
			Mode:        "dev",
			Columns:     48,
			LineBreak:   "\n",
			Register:    7,
			CardTenders: []string{"03"},
		},
		TEF:     config.TEFConfig{LockMode: "local"},
		PAF:     config.PAFConfig{Path: filepath.Join(dir, "auxiliar.paf")},
		Archive: config.ArchiveConfig{Dir: filepath.Join(dir, "rv"), SlipsDir: filepath.Join(dir, "tef")},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func TestBuild_ModoDevCierraLaVentaDemo(t *testing.T) {
	ctx := context.Background()
	stack, cleanup, err := bootstrap.Build(ctx, devConfig(t), logger.Nop(), bootstrap.Options{})
	defer cleanup()
	require.NoError(t, err)
	require.NotNil(t, stack.Metrics, "métricas habilitadas")
	require.NotZero(t, stack.DemoSaleID, "venta demo sembrada")

	login, err := stack.Auth.Login(ctx, dto.LoginRequest{Login: "caixa", Password: "caixa123"})
	require.NoError(t, err, "el operador demo debe poder entrar")

	res, err := stack.Sales.Close(ctx, stack.DemoSaleID, login.User.ID, sale.CloseSaleInput{
		Payments: []entity.Payment{{TenderCode: "01", Amount: decimal.NewFromInt(100)}},
	})
	require.NoError(t, err)
	assert.True(t, res.Net.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "100.00", stack.Audit.Get("ecf.gt"), "GT guardado en el archivo auxiliar")
}

func TestBuild_SinClaveFueraDeDevelopmentFalla(t *testing.T) {
	cfg := devConfig(t)
	cfg.App.Env = "production"
	_, cleanup, err := bootstrap.Build(context.Background(), cfg, logger.Nop(), bootstrap.Options{})
	defer cleanup()
	assert.Error(t, err)
}

func TestBuild_ModoDeBloqueoDesconocido(t *testing.T) {
	cfg := devConfig(t)
	cfg.TEF.LockMode = "zookeeper"
	_, cleanup, err := bootstrap.Build(context.Background(), cfg, logger.Nop(), bootstrap.Options{})
	defer cleanup()
	assert.Error(t, err)
}

func TestOpenAudit_ClaveDeDesarrollo(t *testing.T) {
	cfg := devConfig(t)
	audit, err := bootstrap.OpenAudit(cfg, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, audit.Set("paf.minas_legal", "SIM"))
	require.NoError(t, audit.Seal(context.Background()))

	again, err := bootstrap.OpenAudit(cfg, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "SIM", again.Get("paf.minas_legal"), "misma clave de desarrollo al reabrir")
}

package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pdv-cierre/internal/application/auth"
	"github.com/jhoicas/pdv-cierre/internal/application/dto"
	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	infraecf "github.com/jhoicas/pdv-cierre/internal/infrastructure/ecf"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/memory"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/metrics"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/paf"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/tef"
	apphttp "github.com/jhoicas/pdv-cierre/internal/interfaces/http"
	"github.com/jhoicas/pdv-cierre/pkg/ecf"
)

// ──────────────────────────────────────────────────────────────────────────────
// App completa sobre el almacén en memoria y el ECF simulado
// ──────────────────────────────────────────────────────────────────────────────

type testAPI struct {
	app    *fiber.App
	device *infraecf.Simulator
	sale   *entity.Sale
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	st := memory.NewStore()
	v, err := st.SeedDemo(t.Context(), "maria", "segredo")
	require.NoError(t, err)

	audit, err := paf.Open(filepath.Join(t.TempDir(), "auxiliar.paf"), "chave")
	require.NoError(t, err)
	dev := infraecf.NewSimulator(nil)
	dev.Open(v.Gross)
	m := metrics.NewClosing(false)

	closer := sale.NewCloseSaleUseCase(sale.Deps{
		Device:  dev,
		Lock:    tef.NewLocalLock(),
		Audit:   audit,
		Batch:   st,
		Metrics: m,
		Layout:  closing.Layout{Columns: 48, LineBreak: "\n"},
	})
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(st.Users(), auth.JWTConfig{
			Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
		}),
		Sales:     sale.NewService(st.Sales(), st.Users(), closer, entity.Register{Number: 1}),
		JWTSecret: testJWTSecret,
		Metrics:   m.Handler(),
		AppName:   "pdv-test",
	})
	return &testAPI{app: app, device: dev, sale: v}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (a *testAPI) login(t *testing.T) string {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: "maria", Password: "segredo"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func closeBody(retries int) dto.CloseSaleRequest {
	return dto.CloseSaleRequest{
		Payments: []dto.PaymentRequest{
			{TenderCode: "01", Amount: decimal.NewFromInt(50)},
			{TenderCode: "03", Amount: decimal.NewFromInt(40)},
		},
		Adjustment:    decimal.NewFromInt(-10),
		RetryAttempts: retries,
	}
}

func closePath(v *entity.Sale) string {
	return "/api/sales/" + decimal.NewFromInt(v.ID).String() + "/close"
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesInvalidas(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Login: "maria", Password: "errada"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCloseSale_OKYLuegoConflicto(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t)

	resp := api.do(t, http.MethodPost, closePath(api.sale), token, closeBody(0))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.CloseSaleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Net.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, "90.00", out.GrandTotal)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, "done", out.States[len(out.States)-1])
	assert.Empty(t, out.Warning)

	again := api.do(t, http.MethodPost, closePath(api.sale), token, closeBody(0))
	defer again.Body.Close()
	assert.Equal(t, http.StatusConflict, again.StatusCode, "una venta cerrada no se vuelve a cerrar")
}

func TestCloseSale_SinTokenRetorna401(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, closePath(api.sale), "", closeBody(0))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCloseSale_PagoInsuficienteRetorna400(t *testing.T) {
	api := newTestAPI(t)
	body := closeBody(0)
	body.Payments = body.Payments[:1]

	resp := api.do(t, http.MethodPost, closePath(api.sale), api.login(t), body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, api.device.Calls(), "no se habla con el ECF si la entrada es inválida")
}

func TestCloseSale_ECFRechazaSinReintentosRetorna502(t *testing.T) {
	api := newTestAPI(t)
	api.device.Fail(ecf.CmdSubtotalizaCupom, "erro de comunicacao")

	resp := api.do(t, http.MethodPost, closePath(api.sale), api.login(t), closeBody(0))
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "CLOSING_FAILED", out.Code)
	assert.Equal(t, "subtotal", out.Step, "se informa el paso del ECF que falló")
}

func TestCloseSale_ReintentoPorPolitica(t *testing.T) {
	api := newTestAPI(t)
	api.device.Fail(ecf.CmdFechaCupom, "sem papel")

	resp := api.do(t, http.MethodPost, closePath(api.sale), api.login(t), closeBody(1))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.CloseSaleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 2, out.Attempts)
}

func TestCloseSale_FallaGTDevuelveAdvertencia(t *testing.T) {
	api := newTestAPI(t)
	api.device.Fail(ecf.CmdGrandeTotal, "memoria fiscal ocupada")

	resp := api.do(t, http.MethodPost, closePath(api.sale), api.login(t), closeBody(0))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "la venta quedó cerrada y guardada")

	var out dto.CloseSaleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.Warning)
	assert.Empty(t, out.GrandTotal)
}

func TestGetSale(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/api/sales/"+decimal.NewFromInt(api.sale.ID).String(), api.login(t), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.SaleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.Items, 2)
	assert.False(t, out.Closed)

	missing := api.do(t, http.MethodGet, "/api/sales/9999", api.login(t), nil)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHealthYMetrics(t *testing.T) {
	api := newTestAPI(t)

	health := api.do(t, http.MethodGet, "/health", "", nil)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	m := api.do(t, http.MethodGet, "/metrics", "", nil)
	defer m.Body.Close()
	assert.Equal(t, http.StatusOK, m.StatusCode)
}

package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/pdv-cierre/internal/application/auth"
	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	Sales     *sale.Service
	JWTSecret string
	Metrics   nethttp.Handler // nil = sin /metrics
	AppName   string
	Logger    *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	// Auth (login público; alta de operadores solo gerente)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/register",
		AuthMiddleware(deps.JWTSecret),
		RequireRole(entity.RoleGerente),
		authHandler.Register,
	)

	// Ventas (protegido)
	sales := api.Group("/sales", AuthMiddleware(deps.JWTSecret))
	saleHandler := NewSaleHandler(deps.Sales, deps.Logger)
	sales.Get("/:id", saleHandler.GetByID)
	sales.Post("/:id/close", RequireRole(entity.RoleOperador, entity.RoleGerente), saleHandler.Close)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/pdv-cierre/internal/bootstrap"
	httpRouter "github.com/jhoicas/pdv-cierre/internal/interfaces/http"
	"github.com/jhoicas/pdv-cierre/pkg/config"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Int("caixa", cfg.ECF.Register).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	stack, cleanup, err := bootstrap.Build(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		cleanup()
		log.Fatal().Err(err).Msg("armar la caja")
	}
	defer cleanup()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Minute * 2, // el cierre espera al ECF y puede reintentar
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerPath); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerPath,
			Path:     "docs",
			Title:    "PDV Cierre API",
		}))
	} else {
		log.Warn().Str("file", cfg.HTTP.SwaggerPath).Msg("swagger no disponible")
	}

	deps := httpRouter.RouterDeps{
		AuthUC:    stack.Auth,
		Sales:     stack.Sales,
		JWTSecret: cfg.JWT.Secret,
		AppName:   cfg.App.Name,
		Logger:    log,
	}
	if stack.Metrics != nil {
		deps.Metrics = stack.Metrics.Handler()
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

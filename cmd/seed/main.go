// seed carga en PostgreSQL un operador, un pequeño catálogo y una venta abierta
// para probar el cierre contra la base real.
//
// Uso: go run ./cmd/seed [-login caixa] [-password caixa123]
package main

import (
	"context"
	"flag"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/postgres"
	"github.com/jhoicas/pdv-cierre/pkg/config"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	login := flag.String("login", cfg.App.DemoLogin, "login del operador")
	password := flag.String("password", cfg.App.DemoPassword, "contraseña del operador")
	flag.Parse()

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	if !cfg.DB.Enabled() {
		log.Fatal().Msg("DATABASE_URL o DB_HOST es requerido")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash de contraseña")
	}

	var v entity.Sale
	err = postgres.NewTxRunner(pool).Run(ctx, func(q postgres.Querier) error {
		users := postgres.NewUserRepository(q)
		operator, err := users.GetByLogin(ctx, *login)
		if err != nil {
			return err
		}
		if operator == nil {
			operator = &entity.User{Login: *login, PasswordHash: string(hash), Name: "Operador", Role: entity.RoleOperador, Active: true}
			if err := users.Create(ctx, operator); err != nil {
				return err
			}
		}

		catalog := postgres.NewCatalogRepository(q)
		un := entity.PackagingUnit{Name: "UN", Factor: decimal.NewFromInt(1)}
		cx := entity.PackagingUnit{Name: "CX12", Factor: decimal.NewFromInt(12)}
		for _, p := range []*entity.PackagingUnit{&un, &cx} {
			if err := catalog.CreatePackaging(ctx, p); err != nil {
				return err
			}
		}
		cafe := entity.Product{Name: "CAFE 500G", Stock: decimal.NewFromInt(50), Packaging: un}
		agua := entity.Product{Name: "AGUA MINERAL 500ML", Stock: decimal.NewFromInt(240), Packaging: un}
		for _, p := range []*entity.Product{&cafe, &agua} {
			if err := catalog.CreateProduct(ctx, p); err != nil {
				return err
			}
		}

		v = entity.Sale{
			Date:     time.Now(),
			COO:      1,
			Gross:    decimal.NewFromInt(100),
			Operator: *operator,
			Items: []entity.SaleLineItem{
				{Quantity: decimal.NewFromInt(2), GrossUnit: decimal.NewFromInt(20), Packaging: un, Product: cafe},
				{Quantity: decimal.NewFromInt(1), GrossUnit: decimal.NewFromInt(60), Packaging: cx, Product: agua},
			},
		}
		return postgres.NewSaleRepository(q).Create(ctx, &v)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("carga inicial")
	}

	log.Info().
		Str("login", *login).
		Int64("sale_id", v.ID).
		Str("gross", v.Gross.StringFixed(2)).
		Msg("venta abierta lista para cerrar")
}

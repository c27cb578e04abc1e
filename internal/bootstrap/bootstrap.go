// Package bootstrap arma la caja a partir de la configuración: almacén, ECF,
// bloqueo del TEF, archivo auxiliar, documentos y métricas. Lo comparten la API
// y la CLI de la caja.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jhoicas/pdv-cierre/internal/application/auth"
	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/internal/domain/repository"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/archive"
	infraecf "github.com/jhoicas/pdv-cierre/internal/infrastructure/ecf"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/memory"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/metrics"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/paf"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/pdf"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/postgres"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/tef"
	"github.com/jhoicas/pdv-cierre/pkg/config"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

// devPassphrase clave del archivo auxiliar en development cuando no se configura otra.
const devPassphrase = "pdv-dev"

// Options colaboradores de la interfaz que arranca la caja. Todos opcionales.
type Options struct {
	Confirmer sale.Confirmer
	Wait      sale.WaitIndicator
	Screen    sale.SaleScreen
	Roll      io.Writer // bobina del ECF simulado
}

// Stack caja lista para cerrar ventas.
type Stack struct {
	Sales      *sale.Service
	Auth       *auth.AuthUseCase
	Audit      *paf.Store
	Metrics    *metrics.Closing // nil si METRICS_ENABLED=false
	Closer     *sale.CloseSaleUseCase
	DemoSaleID int64 // venta sembrada en el almacén en memoria; 0 con PostgreSQL
}

type stores struct {
	sales  repository.SaleRepository
	users  repository.UserRepository
	batch  sale.BatchExecutor
	demoID int64
}

// Build construye la caja. cleanup libera conexiones y debe llamarse aunque Build falle a medias.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (st *Stack, cleanup func(), err error) {
	var closers []func()
	cleanup = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	data, err := buildStores(ctx, cfg, log, &closers)
	if err != nil {
		return nil, cleanup, err
	}

	device, err := buildDevice(cfg, log, opts.Roll)
	if err != nil {
		return nil, cleanup, err
	}

	lock, err := buildLock(ctx, cfg, log, &closers)
	if err != nil {
		return nil, cleanup, err
	}

	audit, err := OpenAudit(cfg, log)
	if err != nil {
		return nil, cleanup, err
	}

	renderer := pdf.NewMarotoGenerator(nil)
	deps := sale.Deps{
		Device:    device,
		Lock:      lock,
		Sales:     data.sales,
		Confirmer: opts.Confirmer,
		Audit:     audit,
		Batch:     data.batch,
		Archiver:  archive.NewFileArchiver(cfg.Archive.Dir, renderer, log),
		Slips:     archive.NewSlipPrinter(cfg.Archive.SlipsDir, renderer, cfg.ECF.CardTenders, log),
		Screen:    opts.Screen,
		Wait:      opts.Wait,
		Layout: closing.Layout{
			Columns:     cfg.ECF.Columns,
			LineBreak:   cfg.ECF.LineBreak,
			FoldAccents: cfg.ECF.FoldAccents,
		},
		MaxRetries: cfg.Closing.MaxRetries,
		Logger:     log,
	}
	if deps.Confirmer == nil {
		// sin operador presente no se reintenta, salvo que el cierre traiga su propio confirmador
		deps.Confirmer = sale.ConfirmerFunc(func(context.Context, string) (bool, error) { return false, nil })
	}

	var m *metrics.Closing
	if cfg.Metrics.Enabled {
		m = metrics.NewClosing(true)
		deps.Metrics = m
	}

	closer := sale.NewCloseSaleUseCase(deps)
	register := entity.Register{Number: cfg.ECF.Register, Serial: cfg.ECF.Serial}
	authUC := auth.NewAuthUseCase(data.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	return &Stack{
		Sales:      sale.NewService(data.sales, data.users, closer, register),
		Auth:       authUC,
		Audit:      audit,
		Metrics:    m,
		Closer:     closer,
		DemoSaleID: data.demoID,
	}, cleanup, nil
}

// OpenAudit abre el archivo auxiliar. Sin PAF_AUX_PASSPHRASE solo se admite en development.
func OpenAudit(cfg *config.Config, log *logger.Logger) (*paf.Store, error) {
	passphrase := cfg.PAF.Passphrase
	if passphrase == "" {
		if cfg.App.Env != "development" {
			return nil, errors.New("PAF_AUX_PASSPHRASE es requerido fuera de development")
		}
		passphrase = devPassphrase
		log.Warn().Msg("archivo auxiliar con clave de desarrollo")
	}
	audit, err := paf.Open(cfg.PAF.Path, passphrase)
	if err != nil {
		return nil, fmt.Errorf("abrir archivo auxiliar: %w", err)
	}
	return audit, nil
}

func buildStores(ctx context.Context, cfg *config.Config, log *logger.Logger, closers *[]func()) (*stores, error) {
	if !cfg.DB.Enabled() {
		mem := memory.NewStore()
		v, err := mem.SeedDemo(ctx, cfg.App.DemoLogin, cfg.App.DemoPassword)
		if err != nil {
			return nil, fmt.Errorf("datos demo: %w", err)
		}
		log.Info().
			Str("login", cfg.App.DemoLogin).
			Int64("sale_id", v.ID).
			Msg("sin base de datos: almacén en memoria con datos demo")
		return &stores{sales: mem.Sales(), users: mem.Users(), batch: mem, demoID: v.ID}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	*closers = append(*closers, pool.Close)
	return &stores{
		sales: postgres.NewSaleRepository(pool),
		users: postgres.NewUserRepository(pool),
		batch: postgres.NewBatchExecutor(postgres.NewTxRunner(pool)),
	}, nil
}

func buildDevice(cfg *config.Config, log *logger.Logger, roll io.Writer) (sale.FiscalDevice, error) {
	switch cfg.ECF.Mode {
	case "dev":
		var opts []infraecf.SimulatorOption
		if roll != nil {
			opts = append(opts, infraecf.WithRoll(roll))
		}
		log.Info().Msg("ECF simulado")
		return infraecf.NewSimulator(log, opts...), nil
	case "device":
		log.Info().Str("addr", cfg.ECF.DeviceAddr).Msg("ECF vía monitor del driver")
		return infraecf.NewMonitorClient(cfg.ECF.DeviceAddr, cfg.ECF.Timeout, log), nil
	}
	return nil, fmt.Errorf("ECF_MODE desconocido: %q", cfg.ECF.Mode)
}

func buildLock(ctx context.Context, cfg *config.Config, log *logger.Logger, closers *[]func()) (sale.TerminalLock, error) {
	switch cfg.TEF.LockMode {
	case "", "local":
		return tef.NewLocalLock(), nil
	case "redis":
		l := tef.NewRedisLock(tef.RedisLockConfig{
			Addr:     cfg.TEF.RedisAddr,
			Password: cfg.TEF.RedisPassword,
			DB:       cfg.TEF.RedisDB,
			Key:      cfg.TEF.LockKey,
			TTL:      cfg.TEF.LockTTL,
			Poll:     cfg.TEF.PollInterval,
		})
		*closers = append(*closers, func() {
			if err := l.Close(); err != nil {
				log.Warn().Err(err).Msg("cerrar cliente Redis")
			}
		})
		if err := l.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping Redis %s: %w", cfg.TEF.RedisAddr, err)
		}
		log.Info().Str("key", cfg.TEF.LockKey).Msg("bloqueo del TEF compartido en Redis")
		return l, nil
	}
	return nil, fmt.Errorf("TEF_LOCK_MODE desconocido: %q", cfg.TEF.LockMode)
}

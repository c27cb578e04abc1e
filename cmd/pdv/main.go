// pdv cierra ventas desde la terminal de la caja y administra el archivo auxiliar.
//
// Uso:
//
//	pdv close -sale 4 -pay 01=50 -pay 03=40 -adj -10
//	pdv paf-get [clave]
//	pdv paf-set clave valor
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/bootstrap"
	"github.com/jhoicas/pdv-cierre/internal/domain"
	"github.com/jhoicas/pdv-cierre/internal/interfaces/cli"
	"github.com/jhoicas/pdv-cierre/pkg/config"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

func usage() {
	fmt.Fprintf(os.Stderr, "uso: %s <close|paf-get|paf-set> [flags]\n", os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "close":
		err = runClose(ctx, cfg, log, os.Args[2:])
	case "paf-get":
		err = runPAFGet(cfg, log, os.Args[2:])
	case "paf-set":
		err = runPAFSet(ctx, cfg, log, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func runClose(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string) error {
	var (
		pays  cli.PaymentsFlag
		adj   cli.DecimalFlag
		gross cli.DecimalFlag
	)
	fs := flag.NewFlagSet("close", flag.ExitOnError)
	saleID := fs.Int64("sale", 0, "ID de la venta abierta (por defecto la venta demo)")
	login := fs.String("login", cfg.App.DemoLogin, "login del operador")
	password := fs.String("password", cfg.App.DemoPassword, "contraseña del operador")
	fs.Var(&pays, "pay", "pago código=valor (repetible)")
	fs.Var(&adj, "adj", "acréscimo (+) o desconto (-) sobre el bruto")
	fs.Var(&gross, "gross", "bruto; por defecto el registrado en la venta")
	_ = fs.Parse(args)

	stack, cleanup, err := bootstrap.Build(ctx, cfg, log, bootstrap.Options{
		Confirmer: cli.NewTerminalConfirmer(os.Stdin, os.Stdout),
		Wait:      cli.NewWaitIndicator(os.Stderr),
		Screen:    cli.NewScreen(os.Stdout, cfg.ECF.Register),
		Roll:      os.Stdout,
	})
	defer cleanup()
	if err != nil {
		return err
	}

	operator, err := stack.Auth.Authenticate(ctx, *login, *password)
	if err != nil {
		return fmt.Errorf("operador %s: %w", *login, err)
	}
	id := *saleID
	if id == 0 {
		id = stack.DemoSaleID
	}
	if id == 0 {
		return fmt.Errorf("%w: -sale es requerido", domain.ErrInvalidInput)
	}

	res, err := stack.Sales.Close(ctx, id, operator.ID, sale.CloseSaleInput{
		Payments:   pays,
		Gross:      gross.Decimal,
		Adjustment: adj.Decimal,
	})
	if res != nil {
		printResult(res)
	}
	if res != nil && errors.Is(err, domain.ErrGrandTotalSync) {
		log.Warn().Err(err).Msg("venta cerrada sin GT sincronizado")
		return nil
	}
	return err
}

func printResult(res *sale.CloseSaleResult) {
	fmt.Printf("VENDA %d FECHADA  LIQUIDO %s  GT %s  TENTATIVAS %d\n",
		res.SaleID, res.Net.StringFixed(2), res.GrandTotal, res.Attempts)
	for _, t := range res.Tenders {
		fmt.Printf("  %s  %s\n", t.Code, t.Amount.StringFixed(2))
	}
}

func runPAFGet(cfg *config.Config, log *logger.Logger, args []string) error {
	audit, err := bootstrap.OpenAudit(cfg, log)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		fmt.Println(audit.Get(args[0]))
		return nil
	}
	for _, k := range audit.Keys() {
		fmt.Printf("%s=%s\n", k, audit.Get(k))
	}
	return nil
}

func runPAFSet(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: paf-set clave valor", domain.ErrInvalidInput)
	}
	audit, err := bootstrap.OpenAudit(cfg, log)
	if err != nil {
		return err
	}
	if err := audit.Set(args[0], args[1]); err != nil {
		return err
	}
	return audit.Seal(ctx)
}

// exitCode distingue errores de uso, rechazos del cierre y fallas posteriores al cupón.
func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return 2
	case errors.Is(err, domain.ErrClosingFailed):
		return 3
	case errors.Is(err, domain.ErrPersistence):
		return 4
	}
	return 1
}

// migrate aplica las migraciones embebidas del PDV con goose.
//
// Uso: go run ./cmd/migrate [up|down|status|version]
package main

import (
	"flag"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/jhoicas/pdv-cierre/internal/infrastructure/postgres/migrations"
	"github.com/jhoicas/pdv-cierre/pkg/config"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "uso: %s [up|down|status|version]\n", os.Args[0])
	}
	flag.Parse()
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	if !cfg.DB.Enabled() {
		log.Fatal().Msg("DATABASE_URL o DB_HOST es requerido")
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.DB.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("abrir base de datos")
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal().Err(err).Msg("dialecto goose")
	}

	switch command {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	case "version":
		err = goose.Version(db, ".")
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("migración")
		os.Exit(1)
	}
	log.Info().Str("command", command).Msg("migración finalizada")
}

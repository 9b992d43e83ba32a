package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/retailpos-backend/pkg/config"
	"github.com/angelmondragon/retailpos-backend/pkg/db"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
	"github.com/angelmondragon/retailpos-backend/pkg/migrate"
)

const usage = `usage: migrate <command> [args]

commands:
  up                 apply every pending migration
  down               roll back the latest migration
  status             print applied and pending migrations
  version <version>  move the schema up or down to <version>
  models             build the schema from the GORM models (sqlite/dev)
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"command": flag.Arg(0),
	})

	if err := run(ctx, cfg, logg, flag.Arg(0), flag.Args()[1:]); err != nil {
		logg.Error(ctx, "migrate failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migrate finished")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, command string, args []string) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	if command == "models" {
		return migrate.AutoMigrateModels(dbClient)
	}

	sqlDB, err := dbClient.SQL()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	switch command {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, command)
	case "version":
		if len(args) != 1 {
			return fmt.Errorf("version needs exactly one target version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, args[0])
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

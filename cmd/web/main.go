package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/flow-atlas/pkg/config"
	"github.com/de-tools/flow-atlas/pkg/logging"
	"github.com/de-tools/flow-atlas/pkg/server"
	"github.com/de-tools/flow-atlas/pkg/store/sqlite"
	trafficstore "github.com/de-tools/flow-atlas/pkg/store/sqlite/traffic"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:          "web",
		Short:        "Start the web server for Flow Atlas",
		SilenceUsage: true,
		RunE:         runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a YAML config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(logger.WithContext(cmd.Context()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.NewDB(sqlite.Settings{DbPath: cfg.Database.Path})
	if err != nil {
		return fmt.Errorf("failed to create SQLite instance: %w", err)
	}
	defer db.Close()

	trafficStore, err := trafficstore.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create traffic store: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("db", cfg.Database.Path).Msg("traffic store ready")

	api := server.NewWebAPI(server.Config{
		Addr: cfg.Server.Addr,
		Dependencies: server.Dependencies{
			Traffic: trafficStore,
			Logger:  logger,
		},
	})
	return api.Start(ctx)
}

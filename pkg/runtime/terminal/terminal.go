package terminal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/flow-atlas/pkg/config"
	"github.com/de-tools/flow-atlas/pkg/logging"
	"github.com/de-tools/flow-atlas/pkg/runtime/app"
	"github.com/de-tools/flow-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/flow-atlas/pkg/runtime/terminal/export"
)

// CLI represents the command-line interface
type CLI struct {
	output    io.Writer
	logOutput io.Writer
	reporter  *export.Reporter
	rootCmd   *cobra.Command

	configPath string
	envFile    string
	config     *config.Config
	closeLog   func() error
}

// Options contain configuration for the CLI
type Options struct {
	// Output receives reports and tables
	Output io.Writer
	// LogOutput receives structured logs
	LogOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	cli := &CLI{
		output:    opts.Output,
		logOutput: opts.LogOutput,
		reporter:  export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

// ExecuteContext runs the command line and releases the log file whether or not the command failed
func (cli *CLI) ExecuteContext(ctx context.Context) (err error) {
	defer func() {
		if cli.closeLog == nil {
			return
		}
		if closeErr := cli.closeLog(); err == nil {
			err = closeErr
		}
		cli.closeLog = nil
	}()
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "flowatlas",
		Short:             "Library visitor traffic reporter",
		SilenceUsage:      true,
		PersistentPreRunE: cli.bootstrap,
	}

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&cli.envFile, "env-file", ".env", "Dotenv file loaded before the config")

	cmd.AddCommand(commands.NewRunCmd(cli.open))
	cmd.AddCommand(commands.NewOnceCmd(cli.open, cli.reporter))
	cmd.AddCommand(commands.NewTotalCmd(cli.open, cli.reporter))
	cmd.AddCommand(commands.NewRecordCmd(cli.open, cli.output))
	cmd.AddCommand(commands.NewServeCmd(cli.open))

	return cmd
}

// bootstrap loads the environment, the config and the logger before any subcommand runs
func (cli *CLI) bootstrap(cmd *cobra.Command, _ []string) error {
	if cli.envFile != "" {
		if err := godotenv.Load(cli.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	cfg, err := config.Load(cli.configPath)
	if err != nil {
		return err
	}
	cli.config = cfg

	logger, closeLog, err := logging.New(cfg.Log, cli.logOutput)
	if err != nil {
		return err
	}
	cli.closeLog = closeLog

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.WithContext(ctx))
	return nil
}

func (cli *CLI) open(ctx context.Context) (*app.App, error) {
	a, err := app.New(cli.config, cli.output)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to start")
		return nil, err
	}
	return a, nil
}

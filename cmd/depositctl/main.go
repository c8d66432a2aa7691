package main

import (
	"context"
	"fmt"
	"os"

	"github.com/finpool/deposit-contract/internal/config"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const configFlag = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "depositctl"
	app.Usage = "Manage Deposit contract and its notification journal"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   configFlag + ", c",
			Usage:  "path to the YAML configuration file",
			Value:  "config.yml",
			EnvVar: "DEPOSIT_CONFIG",
		},
	}
	app.Commands = []cli.Command{
		deployCommand(),
		settingsCommand(),
		ownerCommand(),
		balanceCommand(),
		depositGasCommand(),
		withdrawGasCommand(),
		depositTokenCommand(),
		withdrawTokenCommand(),
		journalCommand(),
	}
	return app
}

// env groups everything needed by a command.
type env struct {
	ctx context.Context
	cfg *config.Config
	log *zap.Logger
	bc  *remoteBlockchain
}

func (e *env) close() {
	if e.bc != nil {
		e.bc.close()
	}
	_ = e.log.Sync()
}

// withEnv loads configuration, sets up logger and RPC connection and passes
// them to the action.
func withEnv(action func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load(c.GlobalString(configFlag))
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		log, err := newLogger(cfg.Logger.Level)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		e := &env{ctx: context.Background(), cfg: cfg, log: log}
		defer e.close()

		e.bc, err = newRemoteBlockchain(e.ctx, log, cfg)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		err = action(c, e)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		return nil
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logger level: %w", err)
	}

	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(lvl)
	c.Encoding = "console"
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return c.Build()
}

// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/pacoca/pacoca/builtin/farm/pool"
	"github.com/pacoca/pacoca/genesis"
	"github.com/pacoca/pacoca/pacoca"
)

const (
	mainDBName     = "main.db"
	logDBName      = "logs.db"
	deploymentName = "deployment.yaml"

	// environment variables read by init, matching the deploy scripts
	envController = "CONTROLLER"
	envRewards    = "REWARDS"
)

// loadEnv reads a .env file in the working directory when there is one.
func loadEnv(*cli.Context) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return errors.Wrap(err, "load .env")
	}
	return nil
}

func initLogger(ctx *cli.Context) {
	newLogger(os.Stderr, ctx.Int(verbosityFlag.Name), ctx.Bool(jsonLogsFlag.Name), isTerminal(os.Stderr))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newLogger(w io.Writer, verbosity int, jsonLogs, useColor bool) {
	lvl := log.FromLegacyLevel(verbosity)
	var handler slog.Handler
	if jsonLogs {
		handler = log.JSONHandlerWithLevel(w, lvl)
	} else {
		handler = log.NewTerminalHandlerWithLevel(w, lvl, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".pacoca")
	}
	return ""
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", errors.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

// loadGenesisConfig reads the genesis flag, falling back to the dev config. Controller and
// rewards addresses missing from the file are taken from the environment.
func loadGenesisConfig(ctx *cli.Context) (*genesis.Config, error) {
	var (
		cfg *genesis.Config
		err error
	)
	if path := ctx.String(genesisFlag.Name); path != "" {
		if cfg, err = genesis.LoadConfig(path); err != nil {
			return nil, err
		}
	} else {
		cfg = genesis.DevConfig()
	}
	if cfg.Gov == nil {
		if cfg.Gov, err = envAddress(envController); err != nil {
			return nil, err
		}
	}
	if cfg.Rewards == nil {
		if cfg.Rewards, err = envAddress(envRewards); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func envAddress(name string) (*pacoca.Address, error) {
	v := os.Getenv(name)
	if v == "" {
		return nil, nil
	}
	addr, err := pacoca.ParseAddress(v)
	if err != nil {
		return nil, errors.WithMessage(err, name)
	}
	return &addr, nil
}

func requireArgs(ctx *cli.Context, min, max int) error {
	if n := len(ctx.Args()); n < min || n > max {
		return errors.Errorf("%s: expected arguments %s", ctx.Command.Name, ctx.Command.ArgsUsage)
	}
	return nil
}

func parseAddress(name, s string) (pacoca.Address, error) {
	addr, err := pacoca.ParseAddress(s)
	if err != nil {
		return pacoca.Address{}, errors.WithMessage(err, name)
	}
	return addr, nil
}

func parsePid(s string) (pool.ID, error) {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errors.WithMessage(err, "pid")
	}
	return pool.ID(n), nil
}

func parseAmount(s string) (*uint256.Int, error) {
	return genesis.ParseAmount(s)
}

// resolveToken accepts a token symbol of the deployment or an address.
func resolveToken(d *genesis.Deployment, s string) (pacoca.Address, error) {
	if addr, ok := d.Tokens[s]; ok {
		return addr, nil
	}
	addr, err := pacoca.ParseAddress(s)
	if err != nil {
		return pacoca.Address{}, errors.Errorf("token %q: neither a deployed symbol nor an address", s)
	}
	return addr, nil
}

func printStartupMessage(d *genesis.Deployment, dataDir, apiURL string) {
	fmt.Printf(`Starting Pacoca
    Farm         [ %v ]
    Token        [ %v ]
    Pools        [ %d ]
    Data dir     [ %v ]
    API portal   [ %v ]
`,
		d.Farm, d.Token, len(d.Pools), dataDir, apiURL)
}

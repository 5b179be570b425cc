// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// pacoca runs the staking farm: it deploys a genesis, serves the API and
// sends calls to the contracts.
package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/pacoca/pacoca/log"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")

	commonFlags = []cli.Flag{dataDirFlag, verbosityFlag, jsonLogsFlag}
	callFlags   = append([]cli.Flag{fromFlag}, commonFlags...)
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "Pacoca",
		Usage:   "Yield farm with auto-compounding strategies",
		Before:  loadEnv,
		Commands: []cli.Command{
			{
				Name:   "init",
				Usage:  "deploy the genesis into the data dir",
				Flags:  append([]cli.Flag{genesisFlag}, commonFlags...),
				Action: initAction,
			},
			{
				Name:  "serve",
				Usage: "serve the API and mine blocks",
				Flags: append([]cli.Flag{
					apiAddrFlag,
					apiCorsFlag,
					apiLogsLimitFlag,
					apiBacktraceLimitFlag,
					enableAPILogsFlag,
					apiSlowQueriesThresholdFlag,
					apiLog5xxErrorsFlag,
					pprofFlag,
					enableMetricsFlag,
					blockIntervalFlag,
				}, commonFlags...),
				Action: serveAction,
			},
			{
				Name:      "mine",
				Usage:     "mine empty blocks",
				ArgsUsage: "<count>",
				Flags:     commonFlags,
				Action:    mineAction,
			},
			{
				Name:      "add-pool",
				Usage:     "register a pool",
				ArgsUsage: "<asset> <weight> <strategy>",
				Flags:     callFlags,
				Action:    addPoolAction,
			},
			{
				Name:      "set-pool",
				Usage:     "change the weight of a pool",
				ArgsUsage: "<pid> <weight>",
				Flags:     callFlags,
				Action:    setPoolAction,
			},
			{
				Name:      "approve",
				Usage:     "allow spender to transfer tokens of the caller",
				ArgsUsage: "<token> <spender> <amount>",
				Flags:     callFlags,
				Action:    approveAction,
			},
			{
				Name:      "mint",
				Usage:     "mint tokens, the caller must own the token",
				ArgsUsage: "<token> <to> <amount>",
				Flags:     callFlags,
				Action:    mintAction,
			},
			{
				Name:      "deposit",
				Usage:     "stake into a pool, a zero amount harvests",
				ArgsUsage: "<pid> <amount>",
				Flags:     callFlags,
				Action:    depositAction,
			},
			{
				Name:      "withdraw",
				Usage:     "unstake shares from a pool, a zero amount harvests",
				ArgsUsage: "<pid> <shares>",
				Flags:     callFlags,
				Action:    withdrawAction,
			},
			{
				Name:      "emergency-withdraw",
				Usage:     "unstake everything from a pool and forfeit the pending reward",
				ArgsUsage: "<pid>",
				Flags:     callFlags,
				Action:    emergencyWithdrawAction,
			},
			{
				Name:      "pending",
				Usage:     "show a position and its pending reward",
				ArgsUsage: "<pid> [user]",
				Flags:     callFlags,
				Action:    pendingAction,
			},
			{
				Name:      "earn",
				Usage:     "harvest and reinvest the venue reward of a compounding pool",
				ArgsUsage: "<pid>",
				Flags:     callFlags,
				Action:    earnAction,
			},
			{
				Name:   "claim-dev",
				Usage:  "claim the released dev funds",
				Flags:  callFlags,
				Action: claimDevAction,
			},
			{
				Name:      "send-partner",
				Usage:     "send partner farming funds",
				ArgsUsage: "<to> <amount>",
				Flags:     callFlags,
				Action:    sendPartnerAction,
			},
			{
				Name:      "release",
				Usage:     "withdraw tokens from a timelock once it expired",
				ArgsUsage: "<timelock-index> <amount>",
				Flags:     callFlags,
				Action:    releaseAction,
			},
			{
				Name:      "route",
				Usage:     "print the addresses and swap paths of a compounding strategy",
				ArgsUsage: "<platform> <want> [token0 token1]",
				Flags:     append([]cli.Flag{cakeStakingFlag}, commonFlags...),
				Action:    routeAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

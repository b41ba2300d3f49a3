// Copyright 2025 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// abidecode decodes calldata, event logs and storage variables of EVM
// contracts using precomputed allocation tables.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sunyihoo/evm-codec/internal/debug"
	"github.com/sunyihoo/evm-codec/internal/flags"
	"github.com/urfave/cli/v2"
)

var (
	bundleFlag = &cli.StringFlag{
		Name:     "bundle",
		Usage:    "JSON file holding the contexts and allocation tables",
		Category: flags.DecodeCategory,
	}
	contextFlag = &cli.IntFlag{
		Name:     "context",
		Usage:    "Identifier of the executing context (unknown if unset)",
		Category: flags.DecodeCategory,
	}
	dataFlag = &cli.StringFlag{
		Name:     "data",
		Usage:    "Hex encoded calldata or log data",
		Category: flags.DecodeCategory,
	}
	topicsFlag = &cli.StringSliceFlag{
		Name:     "topics",
		Usage:    "Comma separated log topics, selector first",
		Category: flags.DecodeCategory,
	}
	typeFlag = &cli.StringFlag{
		Name:     "type",
		Usage:    `JSON definition of the variable, e.g. {"type":"uint256[]","location":"storage"}`,
		Category: flags.DecodeCategory,
	}
	pointerFlag = &cli.StringFlag{
		Name:     "pointer",
		Usage:    `JSON pointer to the variable, e.g. {"location":"storage","slot":"0x00..03"}`,
		Category: flags.DecodeCategory,
	}
	dumpFlag = &cli.BoolFlag{
		Name:     "dump",
		Usage:    "Dump the decoded Go values instead of printing JSON",
		Category: flags.DecodeCategory,
	}
	rpcFlag = &cli.StringFlag{
		Name:     "rpc",
		Usage:    "Node endpoint to fetch storage, transactions and receipts from",
		Category: flags.RPCCategory,
	}
	rpcTimeoutFlag = &cli.DurationFlag{
		Name:     "rpc.timeout",
		Usage:    "Time allowed for a command including all node requests",
		Value:    30 * time.Second,
		Category: flags.RPCCategory,
	}
	rpcRateFlag = &cli.Float64Flag{
		Name:     "rpc.rate",
		Usage:    "Maximum storage requests per second sent to the node (0 = unlimited)",
		Category: flags.RPCCategory,
	}
	blockFlag = &cli.StringFlag{
		Name:     "block",
		Usage:    "Block to read storage at (number or \"latest\")",
		Category: flags.RPCCategory,
	}
	cacheSizeFlag = &cli.IntFlag{
		Name:     "cache.size",
		Usage:    "Bytes of memory used to cache storage slots",
		Value:    32 * 1024 * 1024,
		Category: flags.CacheCategory,
	}
	cacheDirFlag = &cli.StringFlag{
		Name:     "cache.dir",
		Usage:    "Directory of the persistent storage slot cache (requires --block)",
		Category: flags.CacheCategory,
	}
)

// configFlags are the flags that map onto the configuration file.
var configFlags = []cli.Flag{
	configFileFlag,
	bundleFlag,
	rpcFlag,
	rpcTimeoutFlag,
	rpcRateFlag,
	blockFlag,
	cacheSizeFlag,
	cacheDirFlag,
}

var app = flags.NewApp("EVM calldata, event and storage decoder")

func init() {
	app.Commands = []*cli.Command{
		calldataCommand,
		eventCommand,
		variableCommand,
		txCommand,
		dumpConfigCommand,
	}
	app.Flags = debug.Flags
	app.Before = func(ctx *cli.Context) error {
		return debug.Setup(ctx)
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

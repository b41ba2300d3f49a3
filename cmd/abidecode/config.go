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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"
	"unicode"

	"github.com/naoina/toml"
	"github.com/sunyihoo/evm-codec/internal/flags"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.MiscCategory,
	}
	dumpConfigCommand = &cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Export configuration values in a TOML format",
		ArgsUsage:   "<dumpfile (optional)>",
		Flags:       configFlags,
		Description: `Export configuration values in TOML format (to stdout by default).`,
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type rpcConfig struct {
	Endpoint string        // node to fetch storage, transactions and receipts from
	Timeout  time.Duration // per command
	Block    string        // block to read storage at, "latest" if empty
	Rate     float64       // storage requests per second, unlimited if zero
}

type cacheConfig struct {
	Size int    // bytes of in-memory slot cache
	Dir  string // persistent slot store, disabled if empty
}

type abidecodeConfig struct {
	Allocations string // JSON bundle of contexts and allocation tables
	RPC         rpcConfig
	Cache       cacheConfig
}

var defaultConfig = abidecodeConfig{
	RPC:   rpcConfig{Timeout: 30 * time.Second},
	Cache: cacheConfig{Size: 32 * 1024 * 1024},
}

func loadConfig(file string, cfg *abidecodeConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the configuration file, if any, and applies the flags on
// top of it.
func makeConfig(ctx *cli.Context) (abidecodeConfig, error) {
	cfg := defaultConfig
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(bundleFlag.Name) {
		cfg.Allocations = ctx.String(bundleFlag.Name)
	}
	if ctx.IsSet(rpcFlag.Name) {
		cfg.RPC.Endpoint = ctx.String(rpcFlag.Name)
	}
	if ctx.IsSet(rpcTimeoutFlag.Name) {
		cfg.RPC.Timeout = ctx.Duration(rpcTimeoutFlag.Name)
	}
	if ctx.IsSet(rpcRateFlag.Name) {
		cfg.RPC.Rate = ctx.Float64(rpcRateFlag.Name)
	}
	if ctx.IsSet(blockFlag.Name) {
		cfg.RPC.Block = ctx.String(blockFlag.Name)
	}
	if ctx.IsSet(cacheSizeFlag.Name) {
		cfg.Cache.Size = ctx.Int(cacheSizeFlag.Name)
	}
	if ctx.IsSet(cacheDirFlag.Name) {
		cfg.Cache.Dir = ctx.String(cacheDirFlag.Name)
	}
	cfg.Allocations = flags.ExpandPath(cfg.Allocations)
	cfg.Cache.Dir = flags.ExpandPath(cfg.Cache.Dir)
	return cfg, nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	_, err = dump.Write(out)
	return err
}

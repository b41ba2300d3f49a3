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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	codec "github.com/sunyihoo/evm-codec"
	"github.com/sunyihoo/evm-codec/allocate"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/fetch"
	"github.com/sunyihoo/evm-codec/internal/flags"
	"github.com/urfave/cli/v2"
)

var errNoEndpoint = errors.New("no node endpoint configured, use --rpc or [RPC] Endpoint")

// bundle is the JSON document holding everything the decoder is given.
type bundle struct {
	Contexts    []*evm.Context   `json:"contexts"`
	Allocations *allocate.Tables `json:"allocations"`
}

func loadBundle(path string) (evm.Contexts, *allocate.Tables, error) {
	contexts := make(evm.Contexts)
	if path == "" {
		log.Warn("No allocation bundle given, nothing can be recognized")
		return contexts, new(allocate.Tables), nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var b bundle
	if err := json.Unmarshal(blob, &b); err != nil {
		return nil, nil, fmt.Errorf("invalid bundle %s: %v", path, err)
	}
	for _, c := range b.Contexts {
		if _, dup := contexts[c.ID]; dup {
			return nil, nil, fmt.Errorf("invalid bundle %s: duplicate context %d", path, c.ID)
		}
		contexts[c.ID] = c
	}
	if b.Allocations == nil {
		b.Allocations = new(allocate.Tables)
	}
	log.Debug("Loaded allocation bundle", "path", path, "contexts", len(contexts), "contracts", len(b.Allocations.Calldata), "events", len(b.Allocations.Event))
	return contexts, b.Allocations, nil
}

// environment is the shared setup of all decoding commands.
type environment struct {
	cfg      abidecodeConfig
	contexts evm.Contexts
	tables   *allocate.Tables
	client   *ethclient.Client // nil without endpoint
	closers  []func() error
}

func newEnvironment(ctx context.Context, c *cli.Context) (*environment, error) {
	cfg, err := makeConfig(c)
	if err != nil {
		return nil, err
	}
	contexts, tables, err := loadBundle(cfg.Allocations)
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, contexts: contexts, tables: tables}
	if cfg.RPC.Endpoint != "" {
		client, err := ethclient.DialContext(ctx, cfg.RPC.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %v", cfg.RPC.Endpoint, err)
		}
		env.client = client
		env.closers = append(env.closers, func() error { client.Close(); return nil })
	}
	return env, nil
}

// context returns the context selected by --context, or nil.
func (env *environment) context(ctx *cli.Context) (*evm.Context, error) {
	if !ctx.IsSet(contextFlag.Name) {
		return nil, nil
	}
	id := evm.ContextID(ctx.Int(contextFlag.Name))
	c := env.contexts[id]
	if c == nil {
		return nil, fmt.Errorf("context %d is not in the bundle", id)
	}
	return c, nil
}

func (env *environment) info(c *evm.Context, state *evm.State) *codec.Info {
	return &codec.Info{
		State:       state,
		Context:     c,
		Contexts:    env.contexts,
		Allocations: env.tables,
		Logger:      log.Root(),
	}
}

// fetcher returns the driver answering storage requests at block. Without a
// node, storage not present in the state reads as zero.
func (env *environment) fetcher(block *big.Int) (fetch.Fetcher, error) {
	if env.client == nil {
		return fetch.Static{}, nil
	}
	return env.cacheLayers(fetch.NewRPC(env.client, block).Throttle(env.cfg.RPC.Rate), block)
}

// cacheLayers wraps f with the configured caches. Only reads at a pinned
// block are persisted, the head moves between runs.
func (env *environment) cacheLayers(f fetch.Fetcher, block *big.Int) (fetch.Fetcher, error) {
	if dir := env.cfg.Cache.Dir; dir != "" {
		if block == nil {
			log.Warn("Persistent slot cache needs --block, skipping it", "dir", dir)
		} else {
			store, err := fetch.OpenStore(dir, block.Bytes(), f)
			if err != nil {
				return nil, err
			}
			env.closers = append(env.closers, store.Close)
			f = store
		}
	}
	if env.cfg.Cache.Size > 0 {
		f = fetch.NewCached(f, env.cfg.Cache.Size)
	}
	return f, nil
}

// configuredBlock parses the block storage is read at.
func (env *environment) configuredBlock() (*big.Int, error) {
	block, err := flags.ParseBlock(env.cfg.RPC.Block)
	if err != nil {
		return nil, fmt.Errorf("invalid block %q: %v", env.cfg.RPC.Block, err)
	}
	return block, nil
}

func (env *environment) close() {
	for i := len(env.closers) - 1; i >= 0; i-- {
		if err := env.closers[i](); err != nil {
			log.Warn("Failed to release resource", "err", err)
		}
	}
}

// output prints v as indented JSON, or as a Go value dump with --dump.
func output(ctx *cli.Context, v interface{}) error {
	if ctx.Bool(dumpFlag.Name) {
		spew.Fdump(ctx.App.Writer, v)
		return nil
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.App.Writer, string(out))
	return err
}

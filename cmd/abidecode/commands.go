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
	"runtime"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	codec "github.com/sunyihoo/evm-codec"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/fetch"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/types"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var (
	calldataCommand = &cli.Command{
		Action:    decodeCalldata,
		Name:      "calldata",
		Usage:     "Decode the input of a call",
		ArgsUsage: "[<hex data>]",
		Flags:     append([]cli.Flag{contextFlag, dataFlag, dumpFlag}, configFlags...),
		Description: `
Decodes call input against the calldata allocations of the context given with
--context. Unknown selectors decode as a fallback call.`,
	}
	eventCommand = &cli.Command{
		Action: decodeEvent,
		Name:   "event",
		Usage:  "Decode an event log",
		Flags:  append([]cli.Flag{contextFlag, topicsFlag, dataFlag, dumpFlag}, configFlags...),
		Description: `
Decodes a log against all event allocations matching its first topic and topic
count. Every decoding that reproduces the log data is printed.`,
	}
	variableCommand = &cli.Command{
		Action: decodeVariable,
		Name:   "variable",
		Usage:  "Decode a single variable, typically from contract storage",
		Flags:  append([]cli.Flag{contextFlag, typeFlag, pointerFlag, dataFlag, dumpFlag}, configFlags...),
		Description: `
Decodes the variable described by --type at --pointer. Storage is read from the
address of the context, fetching missing slots from the node.`,
	}
	txCommand = &cli.Command{
		Action:    decodeTx,
		Name:      "tx",
		Usage:     "Decode the call and all logs of a mined transaction",
		ArgsUsage: "<tx hash>",
		Flags:     append([]cli.Flag{dumpFlag}, configFlags...),
	}
)

func commandContext(ctx *cli.Context, env *environment) (context.Context, context.CancelFunc) {
	if env.cfg.RPC.Timeout > 0 {
		return context.WithTimeout(ctx.Context, env.cfg.RPC.Timeout)
	}
	return context.WithCancel(ctx.Context)
}

// inputData returns --data, or the first argument.
func inputData(ctx *cli.Context) []byte {
	if ctx.IsSet(dataFlag.Name) {
		return common.FromHex(ctx.String(dataFlag.Name))
	}
	return common.FromHex(ctx.Args().First())
}

func decodeCalldata(ctx *cli.Context) error {
	env, err := newEnvironment(ctx.Context, ctx)
	if err != nil {
		return err
	}
	defer env.close()

	c, err := env.context(ctx)
	if err != nil {
		return err
	}
	block, err := env.configuredBlock()
	if err != nil {
		return err
	}
	fetcher, err := env.fetcher(block)
	if err != nil {
		return err
	}
	cctx, cancel := commandContext(ctx, env)
	defer cancel()

	dec, err := fetch.Resolve(cctx, codec.DecodeCalldata(env.info(c, &evm.State{Calldata: inputData(ctx)})), fetcher)
	if err != nil {
		return err
	}
	return output(ctx, dec)
}

func decodeEvent(ctx *cli.Context) error {
	env, err := newEnvironment(ctx.Context, ctx)
	if err != nil {
		return err
	}
	defer env.close()

	c, err := env.context(ctx)
	if err != nil {
		return err
	}
	state := &evm.State{EventData: common.FromHex(ctx.String(dataFlag.Name))}
	for _, topic := range ctx.StringSlice(topicsFlag.Name) {
		b := common.FromHex(topic)
		if len(b) != common.HashLength {
			return fmt.Errorf("invalid topic %q, need %d bytes", topic, common.HashLength)
		}
		state.EventTopics = append(state.EventTopics, common.BytesToHash(b))
	}
	block, err := env.configuredBlock()
	if err != nil {
		return err
	}
	fetcher, err := env.fetcher(block)
	if err != nil {
		return err
	}
	cctx, cancel := commandContext(ctx, env)
	defer cancel()

	decs, err := fetch.Resolve(cctx, codec.DecodeEvent(env.info(c, state)), fetcher)
	if err != nil {
		return err
	}
	if len(decs) == 0 {
		log.Info("No decoding matches the log", "topics", len(state.EventTopics), "data", len(state.EventData))
	}
	return output(ctx, decs)
}

func decodeVariable(ctx *cli.Context) error {
	if !ctx.IsSet(typeFlag.Name) || !ctx.IsSet(pointerFlag.Name) {
		return errors.New("both --type and --pointer are required")
	}
	var def types.Definition
	if err := json.Unmarshal([]byte(ctx.String(typeFlag.Name)), &def); err != nil {
		return fmt.Errorf("invalid --%s: %v", typeFlag.Name, err)
	}
	var p pointer.JSON
	if err := json.Unmarshal([]byte(ctx.String(pointerFlag.Name)), &p); err != nil {
		return fmt.Errorf("invalid --%s: %v", pointerFlag.Name, err)
	}
	env, err := newEnvironment(ctx.Context, ctx)
	if err != nil {
		return err
	}
	defer env.close()

	c, err := env.context(ctx)
	if err != nil {
		return err
	}
	block, err := env.configuredBlock()
	if err != nil {
		return err
	}
	fetcher, err := env.fetcher(block)
	if err != nil {
		return err
	}
	cctx, cancel := commandContext(ctx, env)
	defer cancel()

	// --data feeds the buffer the pointer addresses, if it is one.
	state := new(evm.State)
	switch data := common.FromHex(ctx.String(dataFlag.Name)); p.Location() {
	case pointer.Memory:
		state.Memory = data
	case pointer.Calldata:
		state.Calldata = data
	case pointer.EventData:
		state.EventData = data
	}
	v, err := fetch.Resolve(cctx, codec.DecodeDefinition(def, p.DataPointer, env.info(c, state)), fetcher)
	if err != nil {
		return err
	}
	return output(ctx, v)
}

// txDecoding is the output of the tx command.
type txDecoding struct {
	Call *codec.Decoding     `json:"call"`
	Logs [][]*codec.Decoding `json:"logs"`
}

func decodeTx(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need exactly one transaction hash")
	}
	hash := common.HexToHash(ctx.Args().First())

	env, err := newEnvironment(ctx.Context, ctx)
	if err != nil {
		return err
	}
	defer env.close()
	if env.client == nil {
		return errNoEndpoint
	}
	cctx, cancel := commandContext(ctx, env)
	defer cancel()

	tx, _, err := env.client.TransactionByHash(cctx, hash)
	if err != nil {
		return fmt.Errorf("failed to retrieve transaction %x: %v", hash, err)
	}
	receipt, err := env.client.TransactionReceipt(cctx, hash)
	if err != nil {
		return fmt.Errorf("failed to retrieve receipt of %x: %v", hash, err)
	}
	// Storage is read as of the parent block.
	var block *big.Int
	if receipt.BlockNumber != nil && receipt.BlockNumber.Sign() > 0 {
		block = new(big.Int).Sub(receipt.BlockNumber, common.Big1)
	}
	fetcher, err := env.fetcher(block)
	if err != nil {
		return err
	}
	var callee *evm.Context
	if to := tx.To(); to != nil {
		callee = env.contexts.ByAddress(*to)
	} else {
		callee = env.contexts.ConstructorAt(receipt.ContractAddress)
	}
	result := txDecoding{Logs: make([][]*codec.Decoding, len(receipt.Logs))}
	result.Call, err = fetch.Resolve(cctx, codec.DecodeCalldata(env.info(callee, &evm.State{Calldata: tx.Data()})), fetcher)
	if err != nil {
		return fmt.Errorf("failed to decode call: %v", err)
	}
	// Logs are independent, decode them in parallel.
	g, gctx := errgroup.WithContext(cctx)
	g.SetLimit(runtime.NumCPU())
	for i, l := range receipt.Logs {
		g.Go(func() error {
			state := &evm.State{EventTopics: l.Topics, EventData: l.Data}
			decs, err := fetch.Resolve(gctx, codec.DecodeEvent(env.info(env.contexts.ByAddress(l.Address), state)), fetcher)
			if err != nil {
				return fmt.Errorf("log %d: %v", l.Index, err)
			}
			result.Logs[i] = decs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return output(ctx, result)
}

// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package codec decodes calldata, event logs and single variables of EVM
// executions into typed values.
//
// All entry points return a step.Step. Whenever a storage slot is needed that
// the supplied state does not hold, the step suspends with a request for it;
// drive it with step.Run or one of the fetch drivers.
// codec 将 EVM 执行中的 calldata、事件日志和单个变量解码为带类型的值。
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/evm-codec/allocate"
	"github.com/sunyihoo/evm-codec/decode"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/read"
	"github.com/sunyihoo/evm-codec/step"
	"github.com/sunyihoo/evm-codec/types"
	"github.com/sunyihoo/evm-codec/values"
)

// Info is everything a decode runs against. None of it is modified.
type Info struct {
	State       *evm.State
	Context     *evm.Context // executing context, nil if unknown
	Contexts    evm.Contexts // all known contexts, used for event candidates
	Allocations *allocate.Tables
	Resolver    types.Resolver // nil means types.DefaultResolver
	Logger      log.Logger     // nil disables logging
}

func (info *Info) resolver() types.Resolver {
	if info.Resolver == nil {
		return types.DefaultResolver
	}
	return info.Resolver
}

func (info *Info) logger() log.Logger {
	if info.Logger == nil {
		return log.NewLogger(log.DiscardHandler())
	}
	return info.Logger
}

// decoder returns a decoder with a fresh reader, so the storage cache is
// scoped to one top-level call.
func (info *Info) decoder(ctx *evm.Context) *decode.Decoder {
	return decode.New(read.NewReader(info.State), ctx, info.logger())
}

// Kind tags a decoding result.
type Kind int

const (
	KindUnknown     Kind = iota // no execution context
	KindFallback                // selector not recognized
	KindConstructor             // contract creation
	KindFunction
	KindEvent
)

var kindNames = [...]string{"unknown", "fallback", "constructor", "function", "event"}

func (k Kind) String() string {
	if int(k) < len(kindNames) && k >= 0 {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Argument is one decoded argument. Anonymous parameters have no name.
type Argument struct {
	Name  string       `json:"name,omitempty"`
	Value values.Value `json:"value"`
}

// Decoding is the result of decoding a call or an event.
type Decoding struct {
	Kind      Kind              `json:"kind"`
	Class     *evm.ContractType `json:"class,omitempty"`
	Name      string            `json:"name,omitempty"`
	Arguments []Argument        `json:"arguments,omitempty"`
}

func (d *Decoding) String() string {
	out, err := json.Marshal(d)
	if err != nil {
		return fmt.Sprintf("%v(%v)", d.Kind, err)
	}
	return string(out)
}

// DecodeVariable decodes the value of type t at p. Storage is read from the
// contract of the executing context.
// DecodeVariable 解码位于 p 的 t 类型值。
func DecodeVariable(t *types.Type, p pointer.DataPointer, info *Info) step.Step[values.Value] {
	return info.decoder(info.Context).Decode(t, p, decode.Options{})
}

// DecodeDefinition resolves def with the executing context's compiler and
// decodes the value at p.
func DecodeDefinition(def types.Definition, p pointer.DataPointer, info *Info) step.Step[values.Value] {
	t, err := info.resolver().TypeOf(def, compilerOf(info.Context))
	if err != nil {
		return step.Fail[values.Value](err)
	}
	return DecodeVariable(t, p, info)
}

func compilerOf(ctx *evm.Context) evm.Compiler {
	if ctx == nil {
		return evm.Compiler{}
	}
	return ctx.Compiler
}

// decodeArguments decodes the arguments of an allocation in declaration
// order, resolving each definition with the context's compiler.
func decodeArguments(d *decode.Decoder, resolver types.Resolver, alloc *allocate.Allocation, opts decode.Options) step.Step[[]Argument] {
	compiler := compilerOf(d.Context())
	return step.Sequence(len(alloc.Arguments), func(i int) step.Step[Argument] {
		arg := alloc.Arguments[i]
		t, err := resolver.TypeOf(arg.Definition, compiler)
		if err != nil {
			return step.Fail[Argument](fmt.Errorf("argument %d (%s): %w", i, arg.Definition.Name, err))
		}
		return step.Then(d.Decode(t, arg.Pointer, opts), func(v values.Value) step.Step[Argument] {
			return step.Done(Argument{Name: arg.Definition.Name, Value: v})
		})
	})
}

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

package codec

import (
	"github.com/sunyihoo/evm-codec/allocate"
	"github.com/sunyihoo/evm-codec/decode"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/read"
	"github.com/sunyihoo/evm-codec/step"
)

// DecodeCalldata decodes the call input of the executing context.
//
// Without a context the result is KindUnknown. A selector or constructor
// missing from the allocation tables yields KindFallback without arguments;
// that is a result, not an error. Failures decoding an argument fail the whole call.
// DecodeCalldata 解码当前执行上下文的调用输入。未知选择器返回 KindFallback 而非错误。
func DecodeCalldata(info *Info) step.Step[*Decoding] {
	ctx := info.Context
	if ctx == nil {
		return step.Done(&Decoding{Kind: KindUnknown})
	}
	var (
		logger = info.logger().New("context", ctx.ID, "class", ctx.Type.Name)
		class  = ctx.Type
		alloc  *allocate.Allocation
		kind   = KindFunction
	)
	if ctx.IsConstructor {
		kind = KindConstructor
		alloc = info.Allocations.Constructor(ctx.ID)
		if alloc == nil {
			logger.Debug("No constructor allocation")
			return step.Done(&Decoding{Kind: KindFallback, Class: &class})
		}
	} else {
		// Calldata is resident, so the selector read never suspends.
		raw, err := read.NewReader(info.State).Resident(pointer.CalldataPointer{Start: 0, Length: evm.SelectorSize})
		if err != nil {
			return step.Fail[*Decoding](err)
		}
		sel := allocate.ToSelector(raw)
		alloc = info.Allocations.Function(ctx.ID, sel)
		if alloc == nil {
			logger.Debug("Unknown function selector", "selector", sel)
			return step.Done(&Decoding{Kind: KindFallback, Class: &class})
		}
	}
	logger.Trace("Decoding calldata", "kind", kind, "name", alloc.Name, "args", len(alloc.Arguments))

	d := info.decoder(ctx)
	args := decodeArguments(d, info.resolver(), alloc, decode.Options{Offset: alloc.Offset})
	return step.Map(args, func(args []Argument) (*Decoding, error) {
		return &Decoding{Kind: kind, Class: &class, Name: alloc.Name, Arguments: args}, nil
	})
}

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

// Package decode turns pointers into typed values.
//
// Decoding is expressed as a step.Step so that reads of storage slots missing
// from the machine state suspend the whole decode instead of failing. All
// other locations are resident and decode without suspending.
// 解码以 step.Step 表达，缺失的存储槽会挂起整个解码过程而不是失败。
package decode

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/read"
	"github.com/sunyihoo/evm-codec/step"
	"github.com/sunyihoo/evm-codec/types"
	"github.com/sunyihoo/evm-codec/values"
)

var (
	ErrPadding     = errors.New("bad padding")
	ErrBadBool     = errors.New("improperly encoded boolean value")
	ErrBadOffset   = errors.New("offset out of range")
	ErrBadLength   = errors.New("length out of range")
	ErrUnsupported = errors.New("unsupported type")
)

const (
	// MaxStorageBytes bounds the length of bytes and strings read from storage.
	MaxStorageBytes = 1 << 20
	// MaxStorageElements bounds the length of dynamic arrays read from storage.
	MaxStorageElements = 1 << 16
)

// Error is a decoding failure. It records the type that failed and the path
// from the decoded root to the failing component.
// Error 记录解码失败的类型以及从根到失败组件的路径。
type Error struct {
	Err  error
	Type *types.Type
	ctx  []string
}

func (err *Error) Error() string {
	ctx := ""
	if len(err.ctx) > 0 {
		ctx = ", decoding into "
		for i := len(err.ctx) - 1; i >= 0; i-- {
			ctx += err.ctx[i]
		}
	}
	return fmt.Sprintf("decode: %v for %v%s", err.Err, err.Type, ctx)
}

func (err *Error) Unwrap() error { return err.Err }

// Path returns the component path of the failure, e.g. ".items[2]".
func (err *Error) Path() string {
	path := ""
	for i := len(err.ctx) - 1; i >= 0; i-- {
		path += err.ctx[i]
	}
	return path
}

func wrapError(err error, t *types.Type) error {
	var decErr *Error
	if errors.As(err, &decErr) {
		return err
	}
	return &Error{Err: err, Type: t}
}

func addErrorContext(err error, ctx string) error {
	var decErr *Error
	if errors.As(err, &decErr) {
		decErr.ctx = append(decErr.ctx, ctx)
	}
	return err
}

func indexContext(i int) string { return fmt.Sprintf("[%d]", i) }

func memberContext(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return "." + names[i]
	}
	return fmt.Sprintf(".%d", i)
}

// Options tune a single decode.
type Options struct {
	// Offset is the start of the block that dynamic offsets of calldata
	// arguments are relative to. Event data always uses 0.
	Offset uint64
	// Strict turns every tolerated encoding anomaly into a failure.
	Strict bool
}

// Decoder decodes values for one execution context. Decoders derived with
// WithContext share the reader and thereby its storage cache.
type Decoder struct {
	reader  *read.Reader
	context *evm.Context
	log     log.Logger
}

// New returns a decoder reading through r. A nil logger disables tracing.
func New(r *read.Reader, ctx *evm.Context, logger log.Logger) *Decoder {
	if logger == nil {
		logger = log.NewLogger(log.DiscardHandler())
	}
	return &Decoder{reader: r, context: ctx, log: logger}
}

// WithContext returns a decoder for another context on the same reader.
func (d *Decoder) WithContext(ctx *evm.Context) *Decoder {
	return &Decoder{reader: d.reader, context: ctx, log: d.log}
}

// Context returns the execution context of the decoder.
func (d *Decoder) Context() *evm.Context {
	return d.context
}

func (d *Decoder) address() common.Address {
	if d.context == nil {
		return common.Address{}
	}
	return d.context.Address
}

// Decode decodes the value of type t found at p.
func (d *Decoder) Decode(t *types.Type, p pointer.DataPointer, opts Options) step.Step[values.Value] {
	d.log.Trace("Decoding variable", "type", t, "pointer", p, "offset", opts.Offset, "strict", opts.Strict)
	if t == nil {
		return step.Fail[values.Value](&Error{Err: fmt.Errorf("%w: nil type", ErrUnsupported)})
	}
	var s step.Step[values.Value]
	switch p := p.(type) {
	case pointer.StackPointer, pointer.StackLiteralPointer:
		s = d.decodeStack(t, p, opts.Strict)
	case pointer.MemoryPointer:
		s = settle(d.decodeMemory(t, p, opts.Strict))
	case pointer.StoragePointer:
		s = d.decodeStorage(t, p)
	case pointer.CalldataPointer, pointer.EventDataPointer:
		s = settle(d.decodeABI(t, p, opts.Offset, opts.Strict))
	case pointer.EventTopicPointer:
		s = settle(d.decodeTopic(t, p, opts.Strict))
	default:
		s = step.Fail[values.Value](fmt.Errorf("%w: %v", read.ErrBadPointer, p))
	}
	return step.Catch(s, func(err error) step.Step[values.Value] {
		return step.Fail[values.Value](wrapError(err, t))
	})
}

func settle(v values.Value, err error) step.Step[values.Value] {
	if err != nil {
		return step.Fail[values.Value](err)
	}
	return step.Done(v)
}

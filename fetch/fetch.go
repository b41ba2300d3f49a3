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

// Package fetch answers the requests suspended decodes emit.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sunyihoo/evm-codec/step"
)

// ErrUnsupportedRequest is returned by fetchers for request kinds they do not
// serve.
var ErrUnsupportedRequest = errors.New("fetch: unsupported request")

// Fetcher retrieves the data named by a request.
type Fetcher interface {
	Fetch(ctx context.Context, req *step.Request) ([]byte, error)
}

// Func adapts a function to the Fetcher interface.
type Func func(ctx context.Context, req *step.Request) ([]byte, error)

// Fetch implements Fetcher.
func (f Func) Fetch(ctx context.Context, req *step.Request) ([]byte, error) {
	return f(ctx, req)
}

// Resolve drives s to completion, answering every request through f. It
// stops early if ctx is cancelled; the abandoned step is simply dropped.
// Resolve 驱动 s 直至完成，通过 f 回答每一个请求。
func Resolve[T any](ctx context.Context, s step.Step[T], f Fetcher) (T, error) {
	return step.Run(s, func(req *step.Request) (*step.Response, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := f.Fetch(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fetch %v: %w", req, err)
		}
		return &step.Response{Data: data}, nil
	})
}

// Static serves storage from memory. Slots it does not hold read as zero,
// like unset storage does.
type Static map[common.Address]map[common.Hash]common.Hash

// Fetch implements Fetcher.
func (s Static) Fetch(ctx context.Context, req *step.Request) ([]byte, error) {
	if req.Kind != step.StorageRequest {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedRequest, req.Kind)
	}
	word := s[req.Address][req.Slot]
	return word[:], nil
}

// Set stores a slot value.
func (s Static) Set(addr common.Address, slot, value common.Hash) {
	if s[addr] == nil {
		s[addr] = make(map[common.Hash]common.Hash)
	}
	s[addr][slot] = value
}

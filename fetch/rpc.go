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

package fetch

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/evm-codec/step"
	"golang.org/x/time/rate"
)

// RPC reads storage from a node at a fixed block.
type RPC struct {
	client  ethereum.ChainStateReader
	block   *big.Int      // nil for the latest block
	limiter *rate.Limiter // nil if requests are not throttled
}

// NewRPC returns a fetcher on client, typically an *ethclient.Client.
func NewRPC(client ethereum.ChainStateReader, block *big.Int) *RPC {
	return &RPC{client: client, block: block}
}

// Throttle limits the fetcher to perSecond requests per second. A
// non-positive rate disables the limit.
func (r *RPC) Throttle(perSecond float64) *RPC {
	if perSecond <= 0 {
		r.limiter = nil
		return r
	}
	r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	return r
}

// Fetch implements Fetcher.
func (r *RPC) Fetch(ctx context.Context, req *step.Request) ([]byte, error) {
	if req.Kind != step.StorageRequest {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedRequest, req.Kind)
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	log.Trace("Fetching storage slot", "address", req.Address, "slot", req.Slot, "block", r.block)
	rpcRequestMeter.Mark(1)
	return r.client.StorageAt(ctx, req.Address, req.Slot, r.block)
}

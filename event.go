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
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/evm-codec/allocate"
	"github.com/sunyihoo/evm-codec/decode"
	"github.com/sunyihoo/evm-codec/encode"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/read"
	"github.com/sunyihoo/evm-codec/step"
	"github.com/sunyihoo/evm-codec/values"
)

// candidate is one possible origin of a log.
type candidate struct {
	context *evm.Context
	alloc   *allocate.Allocation
}

// DecodeEvent decodes the current log.
//
// The first topic and the topic count select the candidate allocations: the
// one of the executing contract, followed by those of all libraries. Each
// candidate is decoded strictly in its own context and accepted only if its
// non-indexed values encode to exactly the log data. Candidates that fail to
// decode or to verify are dropped, so the result may be empty or hold more
// than one decoding. A log without topics decodes to nothing.
// DecodeEvent 解码当前日志。每个候选分配都在自己的上下文中严格解码，
// 只有非索引参数重新编码后与日志数据完全一致时才被接受。
func DecodeEvent(info *Info) step.Step[[]*Decoding] {
	logger := info.logger()
	r := read.NewReader(info.State)
	topic0, err := r.Resident(pointer.EventTopicPointer{Topic: 0})
	if err != nil {
		logger.Trace("Log without selector topic", "err", err)
		return step.Done([]*Decoding{})
	}
	cands := eventCandidates(info, common.BytesToHash(topic0), len(r.State().EventTopics), logger)

	// All candidates share the reader and thereby the storage cache.
	d := decode.New(r, info.Context, logger)
	decoded := step.Sequence(len(cands), func(i int) step.Step[*Decoding] {
		return decodeCandidate(info, d.WithContext(cands[i].context), cands[i].alloc, r.State().EventData, logger)
	})
	return step.Map(decoded, func(decs []*Decoding) ([]*Decoding, error) {
		accepted := make([]*Decoding, 0, len(decs))
		for _, dec := range decs {
			if dec != nil {
				accepted = append(accepted, dec)
			}
		}
		return accepted, nil
	})
}

// eventCandidates lists the allocations for a log with the given first topic
// and topic count, the executing contract's first and libraries by
// ascending identifier. Every context is tried once.
func eventCandidates(info *Info, topic0 common.Hash, topics int, logger log.Logger) []candidate {
	entry := info.Allocations.Events(topic0, topics)
	if entry == nil {
		return nil
	}
	var (
		cands = make([]candidate, 0, 1+len(entry.Library))
		seen  = mapset.NewThreadUnsafeSet[evm.ContextID]()
	)
	if ctx := info.Context; ctx != nil {
		if alloc := entry.Contract[ctx.ID]; alloc != nil {
			cands = append(cands, candidate{context: ctx, alloc: alloc})
			seen.Add(ctx.ID)
		}
	}
	ids := make([]evm.ContextID, 0, len(entry.Library))
	for id := range entry.Library {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if !seen.Add(id) {
			continue
		}
		ctx := info.Contexts[id]
		if ctx == nil {
			logger.Debug("Skipping event candidate of unknown library", "context", id)
			continue
		}
		cands = append(cands, candidate{context: ctx, alloc: entry.Library[id]})
	}
	return cands
}

// decodeCandidate decodes the log as alloc in ctx. It yields nil if the
// candidate fails to decode or does not reproduce the log data.
func decodeCandidate(info *Info, d *decode.Decoder, alloc *allocate.Allocation, data []byte, logger log.Logger) step.Step[*Decoding] {
	ctx := d.Context()
	logger = logger.New("event", alloc.Name, "context", ctx.ID)

	args := decodeArguments(d, info.resolver(), alloc, decode.Options{Strict: true})
	verified := step.Map(args, func(args []Argument) (*Decoding, error) {
		var nonIndexed []values.Value
		for i, arg := range args {
			if !alloc.Arguments[i].Indexed() {
				nonIndexed = append(nonIndexed, arg.Value)
			}
		}
		encoded, err := encode.Tuple(nonIndexed, info.Allocations.ABITable())
		if err != nil {
			return nil, err
		}
		if !evm.EqualData(encoded, data) {
			logger.Debug("Rejecting event candidate, re-encoding differs", "data", len(data), "encoded", len(encoded))
			return nil, nil
		}
		class := ctx.Type
		return &Decoding{Kind: KindEvent, Class: &class, Name: alloc.Name, Arguments: args}, nil
	})
	return step.Catch(verified, func(err error) step.Step[*Decoding] {
		logger.Debug("Rejecting event candidate", "err", err)
		return step.Done[*Decoding](nil)
	})
}

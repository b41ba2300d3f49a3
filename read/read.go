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

// Package read resolves data pointers against the machine state.
//
// Every location except storage is fully resident. Storage slots missing from
// the state suspend the read with a request for the slot.
// 除存储外，所有位置的数据都已在本地；缺失的存储槽会挂起读取并发出请求。
package read

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/step"
)

var (
	// ErrOutOfBounds is returned for reads past the end of a bounded buffer.
	ErrOutOfBounds = errors.New("read: out of bounds")
	// ErrBadResponse is returned when a response has the wrong shape.
	ErrBadResponse = errors.New("read: malformed response")
	// ErrBadPointer is returned for pointers that address nothing.
	ErrBadPointer = errors.New("read: invalid pointer")
)

// Reader reads pointers against one machine state. Storage slots obtained
// through responses are cached for the lifetime of the reader, which is one
// top-level decode.
// Reader 针对一个机器状态读取指针，响应得到的存储槽在单次顶层解码中被缓存。
type Reader struct {
	state *evm.State
	cache map[common.Address]map[common.Hash]common.Hash
}

// NewReader returns a reader on state. The state is never modified.
func NewReader(state *evm.State) *Reader {
	if state == nil {
		state = new(evm.State)
	}
	return &Reader{state: state}
}

// State returns the state the reader resolves against.
func (r *Reader) State() *evm.State {
	return r.state
}

// Read resolves p. The address names the contract whose storage is read and
// only matters for storage pointers.
func (r *Reader) Read(p pointer.DataPointer, address common.Address) step.Step[[]byte] {
	switch p := p.(type) {
	case pointer.StackPointer:
		b, err := r.readStack(p)
		return done(b, err)
	case pointer.StackLiteralPointer:
		return step.Done(common.CopyBytes(p.Literal))
	case pointer.MemoryPointer:
		b, err := readBounded(r.state.Memory, p.Start, p.Length, "memory")
		return done(b, err)
	case pointer.CalldataPointer:
		return step.Done(readPadded(r.state.Calldata, p.Start, p.Length))
	case pointer.EventDataPointer:
		b, err := readBounded(r.state.EventData, p.Start, p.Length, "event data")
		return done(b, err)
	case pointer.EventTopicPointer:
		b, err := r.readTopic(p.Topic)
		return done(b, err)
	case pointer.StoragePointer:
		return r.readStorage(p, address)
	case nil:
		return step.Fail[[]byte](fmt.Errorf("%w: nil", ErrBadPointer))
	}
	return step.Fail[[]byte](fmt.Errorf("%w: %v", ErrBadPointer, p))
}

// Resident reads a pointer into a location that never suspends.
func (r *Reader) Resident(p pointer.DataPointer) ([]byte, error) {
	if p != nil && p.Location() == pointer.Storage {
		return nil, fmt.Errorf("%w: storage is not resident", ErrBadPointer)
	}
	return step.Sync(r.Read(p, common.Address{}))
}

func done(b []byte, err error) step.Step[[]byte] {
	if err != nil {
		return step.Fail[[]byte](err)
	}
	return step.Done(b)
}

func (r *Reader) readStack(p pointer.StackPointer) ([]byte, error) {
	if p.From < 0 || p.To < p.From || p.To >= len(r.state.Stack) {
		return nil, fmt.Errorf("%w: stack slots %d..%d of %d", ErrOutOfBounds, p.From, p.To, len(r.state.Stack))
	}
	out := make([]byte, 0, (p.To-p.From+1)*evm.WordSize)
	for i := p.From; i <= p.To; i++ {
		word := r.state.Stack[i].Bytes32()
		out = append(out, word[:]...)
	}
	return out, nil
}

func (r *Reader) readTopic(index int) ([]byte, error) {
	if index < 0 || index >= len(r.state.EventTopics) {
		return nil, fmt.Errorf("%w: topic %d of %d", ErrOutOfBounds, index, len(r.state.EventTopics))
	}
	return common.CopyBytes(r.state.EventTopics[index][:]), nil
}

// readBounded returns a copy of data[start:start+length], failing if the
// range exceeds the buffer.
func readBounded(data []byte, start, length uint64, what string) ([]byte, error) {
	end := start + length
	if end < start || end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %s range %d+%d exceeds %d bytes", ErrOutOfBounds, what, start, length, len(data))
	}
	return common.CopyBytes(data[start:end]), nil
}

// readPadded returns data[start:start+length], padding with zeroes past the
// end of the buffer. Call input is allowed to be short.
func readPadded(data []byte, start, length uint64) []byte {
	size := uint64(len(data))
	if start > size {
		start = size
	}
	end := start + length
	if end > size || end < start {
		end = size
	}
	return common.RightPadBytes(common.CopyBytes(data[start:end]), int(length))
}

func (r *Reader) readStorage(p pointer.StoragePointer, address common.Address) step.Step[[]byte] {
	if p.Offset < 0 || p.Length < 0 || p.Offset+p.Length > evm.WordSize {
		return step.Fail[[]byte](fmt.Errorf("%w: storage range %d+%d", ErrBadPointer, p.Offset, p.Length))
	}
	slot := ResolveSlot(p.Slot)
	extract := func(word common.Hash) []byte {
		return common.CopyBytes(word[p.Offset : p.Offset+p.Length])
	}
	if word, ok := r.lookup(address, slot); ok {
		return step.Done(extract(word))
	}
	req := &step.Request{Kind: step.StorageRequest, Address: address, Slot: slot}
	return step.Suspend(req, func(resp *step.Response) step.Step[[]byte] {
		if len(resp.Data) > evm.WordSize {
			return step.Fail[[]byte](fmt.Errorf("%w: %d bytes for slot %x", ErrBadResponse, len(resp.Data), slot))
		}
		word := common.BytesToHash(resp.Data)
		r.store(address, slot, word)
		return step.Done(extract(word))
	})
}

func (r *Reader) lookup(address common.Address, slot common.Hash) (common.Hash, bool) {
	if word, ok := r.cache[address][slot]; ok {
		return word, true
	}
	word, ok := r.state.Storage[slot]
	return word, ok
}

func (r *Reader) store(address common.Address, slot common.Hash, word common.Hash) {
	if r.cache == nil {
		r.cache = make(map[common.Address]map[common.Hash]common.Hash)
	}
	if r.cache[address] == nil {
		r.cache[address] = make(map[common.Hash]common.Hash)
	}
	r.cache[address][slot] = word
}

// ResolveSlot applies the path of s to its index and returns the final slot
// key, following the Solidity storage layout rules.
// ResolveSlot 将路径应用到槽索引上，按照 Solidity 存储布局规则得到最终的槽键。
func ResolveSlot(s pointer.Slot) common.Hash {
	slot := s.Index
	for _, e := range s.Path {
		switch e.Kind {
		case pointer.PathKey:
			slot = crypto.Keccak256Hash(e.Key, slot[:])
		case pointer.PathHash:
			slot = crypto.Keccak256Hash(slot[:])
		case pointer.PathOffset:
			// Slot arithmetic wraps around modulo 2^256.
			sum := new(uint256.Int).SetBytes32(slot[:])
			sum.Add(sum, uint256.NewInt(e.Offset))
			slot = sum.Bytes32()
		}
	}
	return slot
}

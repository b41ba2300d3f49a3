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

// Package allocate defines the precomputed allocation tables the entry points
// look functions and events up in. The tables are built elsewhere and only
// read here.
// allocate 定义入口函数查找函数和事件所用的预计算分配表，这些表由外部构建，此处只读。
package allocate

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/types"
)

// Selector is a 4 byte function selector.
type Selector [evm.SelectorSize]byte

// ToSelector returns the selector at the start of b. Short input is padded
// with zeroes.
func ToSelector(b []byte) Selector {
	var s Selector
	copy(s[:], b)
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (s Selector) MarshalText() ([]byte, error) {
	return hexutil.Bytes(s[:]).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Selector) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Selector", input, s[:])
}

func (s Selector) String() string {
	return hexutil.Encode(s[:])
}

// ArgumentAllocation places one argument: its definition, which carries the
// name and is resolved into a type with the context's compiler, and the
// pointer to its head.
type ArgumentAllocation struct {
	Definition types.Definition
	Pointer    pointer.DataPointer
}

type jsonArgument struct {
	Definition types.Definition `json:"definition"`
	Pointer    pointer.JSON     `json:"pointer"`
}

// MarshalJSON implements json.Marshaler.
func (a ArgumentAllocation) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonArgument{Definition: a.Definition, Pointer: pointer.JSON{DataPointer: a.Pointer}})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *ArgumentAllocation) UnmarshalJSON(input []byte) error {
	var dec jsonArgument
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.Pointer.DataPointer == nil {
		return fmt.Errorf("allocate: argument %q without pointer", dec.Definition.Name)
	}
	a.Definition, a.Pointer = dec.Definition, dec.Pointer.DataPointer
	return nil
}

// Indexed reports whether the argument is read from an event topic.
func (a ArgumentAllocation) Indexed() bool {
	return a.Pointer != nil && a.Pointer.Location() == pointer.EventTopic
}

// Allocation lays out the arguments of a function, constructor or event.
type Allocation struct {
	Name      string               `json:"name,omitempty"` // empty for constructors
	Arguments []ArgumentAllocation `json:"arguments"`

	// Offset is the start of the argument block in calldata, which dynamic
	// offsets are relative to. It is 4 for functions and the length of the
	// creation code for constructors. Events ignore it.
	Offset uint64 `json:"offset,omitempty"`
}

// CalldataAllocations are the calldata layouts of one contract.
type CalldataAllocations struct {
	Constructor *Allocation              `json:"constructor,omitempty"`
	Functions   map[Selector]*Allocation `json:"functions,omitempty"`
}

// EventCandidates are the event layouts matching one (topic 0, topic count)
// key, split by whether the defining context is a library.
type EventCandidates struct {
	Contract map[evm.ContextID]*Allocation `json:"contract,omitempty"`
	Library  map[evm.ContextID]*Allocation `json:"library,omitempty"`
}

// Tables is the full set of allocation tables for a decode.
type Tables struct {
	Calldata map[evm.ContextID]*CalldataAllocations   `json:"calldata,omitempty"`
	Event    map[common.Hash]map[int]*EventCandidates `json:"event,omitempty"`
	ABI      types.Table                              `json:"-"`
}

// Function returns the allocation of the function selected by sel in the
// contract id, or nil.
func (t *Tables) Function(id evm.ContextID, sel Selector) *Allocation {
	if t == nil {
		return nil
	}
	if c := t.Calldata[id]; c != nil {
		return c.Functions[sel]
	}
	return nil
}

// Constructor returns the constructor allocation of the contract id, or nil.
func (t *Tables) Constructor(id evm.ContextID) *Allocation {
	if t == nil {
		return nil
	}
	if c := t.Calldata[id]; c != nil {
		return c.Constructor
	}
	return nil
}

// Events returns the candidates for a log with the given first topic and
// topic count, or nil.
func (t *Tables) Events(topic0 common.Hash, topics int) *EventCandidates {
	if t == nil {
		return nil
	}
	return t.Event[topic0][topics]
}

// ABITable returns the layout table used to re-encode values. It may be nil,
// in which case layouts are computed on demand.
func (t *Tables) ABITable() types.Table {
	if t == nil {
		return nil
	}
	return t.ABI
}

// AddFunction registers a function allocation.
func (t *Tables) AddFunction(id evm.ContextID, sel Selector, a *Allocation) {
	c := t.calldata(id)
	if c.Functions == nil {
		c.Functions = make(map[Selector]*Allocation)
	}
	c.Functions[sel] = a
}

// SetConstructor registers a constructor allocation.
func (t *Tables) SetConstructor(id evm.ContextID, a *Allocation) {
	t.calldata(id).Constructor = a
}

// AddEvent registers an event allocation defined by the context id. The
// topic count is the selector topic plus one per indexed argument.
func (t *Tables) AddEvent(id evm.ContextID, library bool, topic0 common.Hash, a *Allocation) {
	topics := 1
	for _, arg := range a.Arguments {
		if arg.Indexed() {
			topics++
		}
	}
	if t.Event == nil {
		t.Event = make(map[common.Hash]map[int]*EventCandidates)
	}
	if t.Event[topic0] == nil {
		t.Event[topic0] = make(map[int]*EventCandidates)
	}
	cands := t.Event[topic0][topics]
	if cands == nil {
		cands = new(EventCandidates)
		t.Event[topic0][topics] = cands
	}
	if library {
		if cands.Library == nil {
			cands.Library = make(map[evm.ContextID]*Allocation)
		}
		cands.Library[id] = a
	} else {
		if cands.Contract == nil {
			cands.Contract = make(map[evm.ContextID]*Allocation)
		}
		cands.Contract[id] = a
	}
}

func (t *Tables) calldata(id evm.ContextID) *CalldataAllocations {
	if t.Calldata == nil {
		t.Calldata = make(map[evm.ContextID]*CalldataAllocations)
	}
	c := t.Calldata[id]
	if c == nil {
		c = new(CalldataAllocations)
		t.Calldata[id] = c
	}
	return c
}

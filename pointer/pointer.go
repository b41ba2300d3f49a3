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

// Package pointer describes where the bytes of a variable live.
package pointer

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Location enumerates the address spaces a pointer can refer to.
type Location byte

const (
	Stack Location = iota
	StackLiteral
	Memory
	Storage
	Calldata
	EventTopic
	EventData
)

var locationNames = [...]string{
	Stack:        "stack",
	StackLiteral: "stackliteral",
	Memory:       "memory",
	Storage:      "storage",
	Calldata:     "calldata",
	EventTopic:   "eventtopic",
	EventData:    "eventdata",
}

func (l Location) String() string {
	if int(l) < len(locationNames) {
		return locationNames[l]
	}
	return fmt.Sprintf("location(%d)", byte(l))
}

// ParseLocation is the inverse of Location.String.
func ParseLocation(s string) (Location, error) {
	for i, name := range locationNames {
		if name == s {
			return Location(i), nil
		}
	}
	return 0, fmt.Errorf("pointer: unknown location %q", s)
}

// DataPointer is implemented by exactly the pointer types of this package.
// Exactly one variant is active per value and every variant addresses a
// contiguous byte range or a single slot.
type DataPointer interface {
	Location() Location
	String() string

	dataPointer()
}

// StackPointer covers the stack slots From..To inclusive, counted from the
// bottom of the stack.
type StackPointer struct {
	From, To int
}

// StackLiteralPointer carries its bytes inline.
type StackLiteralPointer struct {
	Literal []byte
}

// MemoryPointer addresses memory[Start:Start+Length].
type MemoryPointer struct {
	Start, Length uint64
}

// StoragePointer addresses Length bytes of the slot word, starting Offset
// bytes from its most significant end.
type StoragePointer struct {
	Slot   Slot
	Offset int
	Length int
}

// CalldataPointer addresses calldata[Start:Start+Length].
type CalldataPointer struct {
	Start, Length uint64
}

// EventTopicPointer addresses one topic of the current log.
type EventTopicPointer struct {
	Topic int
}

// EventDataPointer addresses data[Start:Start+Length] of the current log.
type EventDataPointer struct {
	Start, Length uint64
}

func (StackPointer) Location() Location        { return Stack }
func (StackLiteralPointer) Location() Location { return StackLiteral }
func (MemoryPointer) Location() Location       { return Memory }
func (StoragePointer) Location() Location      { return Storage }
func (CalldataPointer) Location() Location     { return Calldata }
func (EventTopicPointer) Location() Location   { return EventTopic }
func (EventDataPointer) Location() Location    { return EventData }

func (StackPointer) dataPointer()        {}
func (StackLiteralPointer) dataPointer() {}
func (MemoryPointer) dataPointer()       {}
func (StoragePointer) dataPointer()      {}
func (CalldataPointer) dataPointer()     {}
func (EventTopicPointer) dataPointer()   {}
func (EventDataPointer) dataPointer()    {}

func (p StackPointer) String() string { return fmt.Sprintf("stack[%d:%d]", p.From, p.To) }
func (p StackLiteralPointer) String() string {
	return fmt.Sprintf("stackliteral(%#x)", p.Literal)
}
func (p MemoryPointer) String() string { return fmt.Sprintf("memory[%d+%d]", p.Start, p.Length) }
func (p StoragePointer) String() string {
	return fmt.Sprintf("storage[%v][%d+%d]", p.Slot, p.Offset, p.Length)
}
func (p CalldataPointer) String() string {
	return fmt.Sprintf("calldata[%d+%d]", p.Start, p.Length)
}
func (p EventTopicPointer) String() string { return fmt.Sprintf("eventtopic[%d]", p.Topic) }
func (p EventDataPointer) String() string {
	return fmt.Sprintf("eventdata[%d+%d]", p.Start, p.Length)
}

// Region returns the byte range of the buffer-backed variants. The boolean is
// false for stack, literal, storage and topic pointers.
func Region(p DataPointer) (start, length uint64, ok bool) {
	switch p := p.(type) {
	case MemoryPointer:
		return p.Start, p.Length, true
	case CalldataPointer:
		return p.Start, p.Length, true
	case EventDataPointer:
		return p.Start, p.Length, true
	}
	return 0, 0, false
}

// WithRegion returns a pointer of the same buffer-backed location covering
// the given range. It panics on other locations.
func WithRegion(loc Location, start, length uint64) DataPointer {
	switch loc {
	case Memory:
		return MemoryPointer{Start: start, Length: length}
	case Calldata:
		return CalldataPointer{Start: start, Length: length}
	case EventData:
		return EventDataPointer{Start: start, Length: length}
	}
	panic(fmt.Sprintf("pointer: %v is not a byte region", loc))
}

// PathKind enumerates the transformations a storage path applies to a slot.
type PathKind byte

const (
	// PathKey hashes a mapping key with the slot: keccak256(key . slot).
	PathKey PathKind = iota
	// PathHash hashes the slot itself, locating dynamic array data.
	PathHash
	// PathOffset adds a constant to the slot.
	PathOffset
)

// PathElem is one step of a storage path.
type PathElem struct {
	Kind   PathKind
	Key    []byte // PathKey only, already encoded as the compiler hashes it
	Offset uint64 // PathOffset only
}

// Slot is a storage slot given as a base index plus a path of transformations
// for mappings and nested structures.
type Slot struct {
	Index common.Hash
	Path  []PathElem
}

// NewSlot returns the plain slot with the given index.
func NewSlot(index uint64) Slot {
	return Slot{Index: uint256.NewInt(index).Bytes32()}
}

// Key returns the slot of the mapping entry for key.
func (s Slot) Key(key []byte) Slot {
	return s.extend(PathElem{Kind: PathKey, Key: common.CopyBytes(key)})
}

// Hashed returns keccak256(s), where dynamic arrays keep their elements.
func (s Slot) Hashed() Slot {
	return s.extend(PathElem{Kind: PathHash})
}

// Add returns the slot n positions after s. Consecutive offsets are merged.
func (s Slot) Add(n uint64) Slot {
	if n == 0 {
		return s
	}
	if l := len(s.Path); l > 0 && s.Path[l-1].Kind == PathOffset {
		path := slices.Clone(s.Path)
		path[l-1].Offset += n
		return Slot{Index: s.Index, Path: path}
	}
	return s.extend(PathElem{Kind: PathOffset, Offset: n})
}

func (s Slot) extend(e PathElem) Slot {
	path := make([]PathElem, len(s.Path), len(s.Path)+1)
	copy(path, s.Path)
	return Slot{Index: s.Index, Path: append(path, e)}
}

func (s Slot) String() string {
	out := s.Index.Hex()
	for _, e := range s.Path {
		switch e.Kind {
		case PathKey:
			out = fmt.Sprintf("keccak(%#x . %s)", e.Key, out)
		case PathHash:
			out = fmt.Sprintf("keccak(%s)", out)
		case PathOffset:
			out = fmt.Sprintf("%s+%d", out, e.Offset)
		}
	}
	return out
}

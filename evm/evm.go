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

// Package evm holds the machine state and execution context a decode runs
// against.
package evm

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/mod/semver"
)

const (
	WordSize     = 32 // size of an ABI head word and of a stack/storage word
	SelectorSize = 4  // size of a function selector
	AddressSize  = 20
)

// State is a snapshot of everything the decoder may read without asking.
// The decoder never mutates it.
// State 是解码器无需请求即可读取的所有数据的快照，解码器不会修改它。
type State struct {
	Stack       []uint256.Int               // bottom first
	Memory      []byte
	Storage     map[common.Hash]common.Hash // known slots, keyed by resolved slot
	Calldata    []byte
	EventTopics []common.Hash
	EventData   []byte
}

// ContextID identifies a contract or library context.
type ContextID int

// ContractKind is the source-level kind of a contract type.
type ContractKind byte

const (
	KindContract ContractKind = iota
	KindLibrary
	KindInterface
)

func (k ContractKind) String() string {
	switch k {
	case KindLibrary:
		return "library"
	case KindInterface:
		return "interface"
	default:
		return "contract"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ContractKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ContractKind) UnmarshalText(input []byte) error {
	switch string(input) {
	case "contract":
		*k = KindContract
	case "library":
		*k = KindLibrary
	case "interface":
		*k = KindInterface
	default:
		return fmt.Errorf("evm: unknown contract kind %q", input)
	}
	return nil
}

// ContractType is the class information of a context.
type ContractType struct {
	ID   ContextID    `json:"id"`
	Name string       `json:"name"`
	Kind ContractKind `json:"kind"`
}

func (t ContractType) String() string {
	return fmt.Sprintf("%v %s", t.Kind, t.Name)
}

// Compiler tags the compiler a context was built with.
type Compiler struct {
	Name    string `json:"name"`    // "solc" or "vyper"
	Version string `json:"version"` // e.g. "0.8.24+commit.e11b9ed9"
}

// Before reports whether the compiler is solc and older than version. An
// unparsable version compares as recent.
func (c Compiler) Before(version string) bool {
	if c.Name != "" && c.Name != "solc" {
		return false
	}
	// Build metadata such as "+commit.e11b9ed9.Linux.g++" is not always
	// valid semver and never affects ordering.
	v, _, _ := strings.Cut(c.Version, "+")
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(v, "v"+strings.TrimPrefix(version, "v")) < 0
}

func (c Compiler) String() string {
	if c.Name == "" {
		return c.Version
	}
	return c.Name + "-" + c.Version
}

// Context identifies the contract whose code is executing.
type Context struct {
	ID            ContextID      `json:"id"`
	Address       common.Address `json:"address"` // deployed address, zero if unknown
	Type          ContractType   `json:"type"`
	Compiler      Compiler       `json:"compiler"`
	IsConstructor bool           `json:"isConstructor,omitempty"`
}

// Contexts maps identifiers to their contexts.
type Contexts map[ContextID]*Context

// ByAddress returns the non-constructor context deployed at addr.
func (cs Contexts) ByAddress(addr common.Address) *Context {
	return cs.find(addr, false)
}

// ConstructorAt returns the constructor context deploying to addr.
func (cs Contexts) ConstructorAt(addr common.Address) *Context {
	return cs.find(addr, true)
}

// find returns the matching context with the lowest identifier, so that the
// result does not depend on map iteration order.
func (cs Contexts) find(addr common.Address, constructor bool) *Context {
	var found *Context
	for _, c := range cs {
		if c.Address == addr && c.IsConstructor == constructor {
			if found == nil || c.ID < found.ID {
				found = c
			}
		}
	}
	return found
}

// EqualData compares two encodings byte by byte.
func EqualData(a, b []byte) bool {
	return bytes.Equal(a, b)
}

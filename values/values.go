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

// Package values holds decoded values. Every value keeps its type so that it
// can be encoded again deterministically.
package values

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sunyihoo/evm-codec/types"
)

// Value is a decoded value. It is implemented by the value types of this
// package only.
type Value interface {
	Type() *types.Type
	String() string

	value()
}

// UintValue is a decoded uint<N>.
type UintValue struct {
	Typ *types.Type
	V   *big.Int
}

// IntValue is a decoded int<N>.
type IntValue struct {
	Typ *types.Type
	V   *big.Int
}

// BoolValue is a decoded bool.
type BoolValue struct {
	Typ *types.Type
	V   bool
}

// AddressValue is a decoded address.
type AddressValue struct {
	Typ *types.Type
	V   common.Address
}

// FixedBytesValue is a decoded bytes<N>.
type FixedBytesValue struct {
	Typ *types.Type
	V   []byte
}

// BytesValue is a decoded dynamic bytes value.
type BytesValue struct {
	Typ *types.Type
	V   []byte
}

// StringValue is a decoded string. The raw bytes are kept as-is since they
// are not guaranteed to be valid UTF-8.
type StringValue struct {
	Typ *types.Type
	Raw []byte
}

// ArrayValue is a decoded fixed or dynamic array.
type ArrayValue struct {
	Typ   *types.Type
	Elems []Value
}

// Member is one member of a tuple, Name is empty for positional members.
type Member struct {
	Name  string
	Value Value
}

// TupleValue is a decoded tuple or struct.
type TupleValue struct {
	Typ     *types.Type
	Members []Member
}

// FunctionValue is a decoded external function pointer.
type FunctionValue struct {
	Typ      *types.Type
	Address  common.Address
	Selector [4]byte
}

// HashedValue is an indexed event parameter of reference type. Only the
// keccak256 hash of its encoding is available, so it cannot be decoded or
// encoded again.
type HashedValue struct {
	Typ  *types.Type
	Hash common.Hash
}

func (v *UintValue) Type() *types.Type       { return v.Typ }
func (v *IntValue) Type() *types.Type        { return v.Typ }
func (v *BoolValue) Type() *types.Type       { return v.Typ }
func (v *AddressValue) Type() *types.Type    { return v.Typ }
func (v *FixedBytesValue) Type() *types.Type { return v.Typ }
func (v *BytesValue) Type() *types.Type      { return v.Typ }
func (v *StringValue) Type() *types.Type     { return v.Typ }
func (v *ArrayValue) Type() *types.Type      { return v.Typ }
func (v *TupleValue) Type() *types.Type      { return v.Typ }
func (v *FunctionValue) Type() *types.Type   { return v.Typ }
func (v *HashedValue) Type() *types.Type     { return v.Typ }

func (*UintValue) value()       {}
func (*IntValue) value()        {}
func (*BoolValue) value()       {}
func (*AddressValue) value()    {}
func (*FixedBytesValue) value() {}
func (*BytesValue) value()      {}
func (*StringValue) value()     {}
func (*ArrayValue) value()      {}
func (*TupleValue) value()      {}
func (*FunctionValue) value()   {}
func (*HashedValue) value()     {}

func (v *UintValue) String() string       { return v.V.String() }
func (v *IntValue) String() string        { return v.V.String() }
func (v *BoolValue) String() string       { return fmt.Sprint(v.V) }
func (v *AddressValue) String() string    { return v.V.Hex() }
func (v *FixedBytesValue) String() string { return hexutil.Encode(v.V) }
func (v *BytesValue) String() string      { return hexutil.Encode(v.V) }
func (v *FunctionValue) String() string   { return fmt.Sprintf("%s.%x", v.Address.Hex(), v.Selector) }
func (v *HashedValue) String() string     { return "indexed " + v.Hash.Hex() }

// Text returns the string contents, replacing invalid UTF-8 sequences.
func (v *StringValue) Text() string {
	return strings.ToValidUTF8(string(v.Raw), "�")
}

// Valid reports whether the raw bytes are valid UTF-8.
func (v *StringValue) Valid() bool {
	return utf8.Valid(v.Raw)
}

func (v *StringValue) String() string { return fmt.Sprintf("%q", v.Text()) }

func (v *ArrayValue) String() string {
	parts := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (v *TupleValue) String() string {
	parts := make([]string, len(v.Members))
	for i, m := range v.Members {
		if m.Name != "" {
			parts[i] = m.Name + ": " + m.Value.String()
		} else {
			parts[i] = m.Value.String()
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Values returns the member values in order.
func (v *TupleValue) Values() []Value {
	out := make([]Value, len(v.Members))
	for i, m := range v.Members {
		out[i] = m.Value
	}
	return out
}

type jsonMember struct {
	Name  string `json:"name,omitempty"`
	Value Value  `json:"value"`
}

func (v *UintValue) MarshalJSON() ([]byte, error)       { return json.Marshal(v.V.String()) }
func (v *IntValue) MarshalJSON() ([]byte, error)        { return json.Marshal(v.V.String()) }
func (v *BoolValue) MarshalJSON() ([]byte, error)       { return json.Marshal(v.V) }
func (v *AddressValue) MarshalJSON() ([]byte, error)    { return json.Marshal(v.V) }
func (v *FixedBytesValue) MarshalJSON() ([]byte, error) { return json.Marshal(hexutil.Bytes(v.V)) }
func (v *BytesValue) MarshalJSON() ([]byte, error)      { return json.Marshal(hexutil.Bytes(v.V)) }
func (v *StringValue) MarshalJSON() ([]byte, error)     { return json.Marshal(v.Text()) }
func (v *FunctionValue) MarshalJSON() ([]byte, error)   { return json.Marshal(v.String()) }
func (v *HashedValue) MarshalJSON() ([]byte, error)     { return json.Marshal(v.Hash) }
func (v *ArrayValue) MarshalJSON() ([]byte, error)      { return json.Marshal(v.Elems) }

func (v *TupleValue) MarshalJSON() ([]byte, error) {
	out := make([]jsonMember, len(v.Members))
	for i, m := range v.Members {
		out[i] = jsonMember{Name: m.Name, Value: m.Value}
	}
	return json.Marshal(out)
}

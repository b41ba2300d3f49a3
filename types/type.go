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

// Package types describes the ABI-level types the decoder understands.
package types

import (
	"fmt"
	"math"
	"strings"

	"github.com/sunyihoo/evm-codec/evm"
)

// Type enumerator
const (
	IntTy Kind = iota
	UintTy
	BoolTy
	StringTy
	SliceTy
	ArrayTy
	TupleTy
	AddressTy
	FixedBytesTy
	BytesTy
	FunctionTy
	MappingTy
)

// Kind is the type class of a Type.
type Kind byte

// DataLocation is where a reference type lives when a stack word refers to it.
type DataLocation byte

const (
	NoLocation DataLocation = iota
	MemoryLocation
	StorageLocation
	CalldataLocation
)

func (l DataLocation) String() string {
	switch l {
	case MemoryLocation:
		return "memory"
	case StorageLocation:
		return "storage"
	case CalldataLocation:
		return "calldata"
	default:
		return ""
	}
}

// Type is a decodable type description.
// Type 是可解码的类型描述。
type Type struct {
	Elem *Type // element type of arrays and slices, value type of mappings
	Key  *Type // key type of mappings
	Size int   // bits of integers, bytes of fixed bytes, length of arrays
	T    Kind

	Payable  bool         // addresses only
	Location DataLocation // reference types referred to from the stack
	TypeName string       // source name of enums, contracts and structs

	// Tuple relative fields
	TupleRawName  string   // struct name, may be empty
	TupleElems    []*Type  // member types
	TupleRawNames []string // member names, empty for positional members

	stringKind string
}

// NewUint returns the uint<bits> type.
func NewUint(bits int) *Type {
	return &Type{T: UintTy, Size: bits, stringKind: fmt.Sprintf("uint%d", bits)}
}

// NewInt returns the int<bits> type.
func NewInt(bits int) *Type {
	return &Type{T: IntTy, Size: bits, stringKind: fmt.Sprintf("int%d", bits)}
}

// NewBool returns the bool type.
func NewBool() *Type { return &Type{T: BoolTy, stringKind: "bool"} }

// NewAddress returns the address type.
func NewAddress(payable bool) *Type {
	return &Type{T: AddressTy, Size: evm.AddressSize, Payable: payable, stringKind: "address"}
}

// NewFixedBytes returns the bytes<n> type.
func NewFixedBytes(n int) *Type {
	return &Type{T: FixedBytesTy, Size: n, stringKind: fmt.Sprintf("bytes%d", n)}
}

// NewBytes returns the dynamic bytes type.
func NewBytes() *Type { return &Type{T: BytesTy, stringKind: "bytes"} }

// NewString returns the string type.
func NewString() *Type { return &Type{T: StringTy, stringKind: "string"} }

// NewFunction returns the external function type (address + selector).
func NewFunction() *Type { return &Type{T: FunctionTy, Size: 24, stringKind: "function"} }

// NewSlice returns the dynamic array type elem[].
func NewSlice(elem *Type) *Type {
	return &Type{T: SliceTy, Elem: elem, stringKind: elem.stringKind + "[]"}
}

// NewArray returns the fixed array type elem[n].
func NewArray(elem *Type, n int) *Type {
	return &Type{T: ArrayTy, Elem: elem, Size: n, stringKind: fmt.Sprintf("%s[%d]", elem.stringKind, n)}
}

// NewTuple returns a tuple type. Names may be nil or contain empty strings
// for positional members.
func NewTuple(name string, names []string, elems []*Type) *Type {
	if names == nil {
		names = make([]string, len(elems))
	}
	kinds := make([]string, len(elems))
	for i, e := range elems {
		kinds[i] = e.stringKind
	}
	return &Type{
		T:             TupleTy,
		TupleRawName:  name,
		TupleElems:    elems,
		TupleRawNames: names,
		stringKind:    "(" + strings.Join(kinds, ",") + ")",
	}
}

// NewMapping returns the storage-only mapping type.
func NewMapping(key, value *Type) *Type {
	return &Type{T: MappingTy, Key: key, Elem: value, stringKind: fmt.Sprintf("mapping(%s => %s)", key.stringKind, value.stringKind)}
}

// In returns a copy of t referring to the given data location.
func (t *Type) In(loc DataLocation) *Type {
	cpy := *t
	cpy.Location = loc
	return &cpy
}

// String implements Stringer. It returns the canonical ABI spelling.
func (t *Type) String() string {
	return t.stringKind
}

// IsValueType reports whether values of t fit in a single word.
func (t *Type) IsValueType() bool {
	switch t.T {
	case IntTy, UintTy, BoolTy, AddressTy, FixedBytesTy, FunctionTy:
		return true
	}
	return false
}

// ByteWidth returns the number of significant bytes of a value type.
func (t *Type) ByteWidth() int {
	switch t.T {
	case IntTy, UintTy:
		return t.Size / 8
	case BoolTy:
		return 1
	case AddressTy:
		return evm.AddressSize
	case FixedBytesTy:
		return t.Size
	case FunctionTy:
		return evm.AddressSize + evm.SelectorSize
	}
	return 0
}

// LeftAligned reports whether a value type occupies the most significant
// bytes of its word. Fixed bytes and function pointers do, numbers do not.
func (t *Type) LeftAligned() bool {
	return t.T == FixedBytesTy || t.T == FunctionTy
}

// RequiresLengthPrefix returns whether the type requires any sort of length
// prefixing.
// RequiresLengthPrefix 返回该类型是否需要某种长度前缀。
func (t *Type) RequiresLengthPrefix() bool {
	return t.T == StringTy || t.T == BytesTy || t.T == SliceTy
}

// IsDynamic returns true if the type is dynamic.
// The following types are called “dynamic”:
// * bytes
// * string
// * T[] for any T
// * T[k] for any dynamic T and any k >= 0
// * (T1,...,Tk) if Ti is dynamic for some 1 <= i <= k
// IsDynamic 如果类型是动态的，则返回 true。
func (t *Type) IsDynamic() bool {
	if t.T == TupleTy {
		for _, elem := range t.TupleElems {
			if elem.IsDynamic() {
				return true
			}
		}
		return false
	}
	return t.T == StringTy || t.T == BytesTy || t.T == SliceTy || (t.T == ArrayTy && t.Elem.IsDynamic())
}

// HeadSize returns the size that this type needs to occupy in the head of
// an encoding. Static types are encoded in-place, so the size is the size of
// the whole encoding. Dynamic types are encoded after the current block and
// take a fixed 32 byte offset word in the head.
// Sizes that do not fit an int saturate at math.MaxInt.
// HeadSize 返回此类型在编码头部占用的大小。
func (t *Type) HeadSize() int {
	if t.T == ArrayTy && !t.Elem.IsDynamic() {
		elem := t.Elem.HeadSize()
		if t.Size > 0 && elem > math.MaxInt/t.Size {
			return math.MaxInt
		}
		return t.Size * elem
	} else if t.T == TupleTy && !t.IsDynamic() {
		total := 0
		for _, elem := range t.TupleElems {
			size := elem.HeadSize()
			if size > math.MaxInt-total {
				return math.MaxInt
			}
			total += size
		}
		return total
	}
	return evm.WordSize
}

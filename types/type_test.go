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

package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/evm-codec/evm"
)

var modern = evm.Compiler{Name: "solc", Version: "0.8.24+commit.e11b9ed9"}

func TestParse(t *testing.T) {
	tests := []struct {
		def      Definition
		str      string
		kind     Kind
		dynamic  bool
		headSize int
	}{
		{Definition{Type: "uint256"}, "uint256", UintTy, false, 32},
		{Definition{Type: "int8"}, "int8", IntTy, false, 32},
		{Definition{Type: "bool"}, "bool", BoolTy, false, 32},
		{Definition{Type: "bytes32"}, "bytes32", FixedBytesTy, false, 32},
		{Definition{Type: "bytes"}, "bytes", BytesTy, true, 32},
		{Definition{Type: "string"}, "string", StringTy, true, 32},
		{Definition{Type: "function"}, "function", FunctionTy, false, 32},
		{Definition{Type: "uint8[3]"}, "uint8[3]", ArrayTy, false, 96},
		{Definition{Type: "uint256[]"}, "uint256[]", SliceTy, true, 32},
		{Definition{Type: "string[2]"}, "string[2]", ArrayTy, true, 32},
		{Definition{Type: "address[][2]"}, "address[][2]", ArrayTy, true, 32},
		{
			Definition{Type: "tuple", InternalType: "struct S", Components: []Definition{{Name: "a", Type: "uint256"}, {Name: "b", Type: "bool"}}},
			"(uint256,bool)", TupleTy, false, 64,
		},
		{
			Definition{Type: "tuple[]", Components: []Definition{{Name: "a", Type: "string"}}},
			"(string)[]", SliceTy, true, 32,
		},
		{
			Definition{Type: "mapping", Components: []Definition{{Type: "address"}, {Type: "uint256"}}},
			"mapping(address => uint256)", MappingTy, false, 32,
		},
	}
	for _, test := range tests {
		typ, err := Parse(test.def, modern)
		require.NoError(t, err, test.def.Type)
		assert.Equal(t, test.str, typ.String())
		assert.Equal(t, test.kind, typ.T, test.str)
		assert.Equal(t, test.dynamic, typ.IsDynamic(), test.str)
		assert.Equal(t, test.headSize, typ.HeadSize(), test.str)
	}
}

func TestParseNames(t *testing.T) {
	typ, err := Parse(Definition{
		Type:         "tuple",
		InternalType: "struct Order",
		Components:   []Definition{{Name: "maker", Type: "address"}, {Type: "uint256", InternalType: "enum Side"}},
	}, modern)
	require.NoError(t, err)
	assert.Equal(t, "Order", typ.TupleRawName)
	assert.Equal(t, []string{"maker", ""}, typ.TupleRawNames)
	assert.Equal(t, "Side", typ.TupleElems[1].TypeName)
}

func TestParsePayable(t *testing.T) {
	old := evm.Compiler{Name: "solc", Version: "0.4.24+commit.e67f0147"}

	typ, err := Parse(Definition{Type: "address"}, old)
	require.NoError(t, err)
	assert.True(t, typ.Payable, "pre 0.5 addresses are payable")

	typ, err = Parse(Definition{Type: "address"}, modern)
	require.NoError(t, err)
	assert.False(t, typ.Payable)

	typ, err = Parse(Definition{Type: "address", InternalType: "address payable"}, modern)
	require.NoError(t, err)
	assert.True(t, typ.Payable)

	typ, err = Parse(Definition{Type: "address"}, evm.Compiler{Name: "vyper", Version: "0.2.0"})
	require.NoError(t, err)
	assert.False(t, typ.Payable, "only solc has the old address semantics")
}

func TestParseLocation(t *testing.T) {
	typ, err := Parse(Definition{Type: "uint256[]", Location: "storage"}, modern)
	require.NoError(t, err)
	assert.Equal(t, StorageLocation, typ.Location)

	_, err = Parse(Definition{Type: "bytes", Location: "heap"}, modern)
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	for _, typ := range []string{"uint", "uint7", "uint512", "bytes33", "uint256[", "foo", "uint256[x]", "mapping"} {
		if _, err := Parse(Definition{Type: typ}, modern); err == nil {
			t.Errorf("%q: expected error", typ)
		}
	}
}

func TestTable(t *testing.T) {
	inner := NewTuple("", []string{"a", "b"}, []*Type{NewUint(256), NewString()})
	table := BuildTable(NewSlice(inner), NewArray(NewUint(8), 4))

	assert.Equal(t, Layout{HeadSize: 32, Dynamic: true}, table[inner.String()])
	assert.Equal(t, Layout{HeadSize: 128, Dynamic: false}, table["uint8[4]"])
	assert.Contains(t, table, "string")
	// Missing entries are computed.
	assert.Equal(t, Layout{HeadSize: 64}, table.Layout(NewArray(NewBool(), 2)))
}

func TestHeadSizeSaturates(t *testing.T) {
	huge := NewArray(NewUint(256), 1<<58)
	assert.Equal(t, math.MaxInt, huge.HeadSize())
	assert.Equal(t, math.MaxInt, NewArray(NewArray(NewBool(), 1<<40), 1<<40).HeadSize())
	assert.Equal(t, math.MaxInt, NewTuple("", nil, []*Type{huge, NewBool()}).HeadSize())
	assert.Equal(t, 1<<20*32, NewArray(NewUint(8), 1<<20).HeadSize())
}

func TestIn(t *testing.T) {
	base := NewSlice(NewUint(256))
	mem := base.In(MemoryLocation)
	assert.Equal(t, MemoryLocation, mem.Location)
	assert.Equal(t, NoLocation, base.Location, "In must not modify the receiver")
	assert.Equal(t, base.String(), mem.String())

	assert.True(t, base.RequiresLengthPrefix())
	assert.True(t, NewString().RequiresLengthPrefix())
	assert.False(t, NewArray(NewString(), 2).RequiresLengthPrefix())
}

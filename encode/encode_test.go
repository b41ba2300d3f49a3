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

package encode

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/evm-codec/types"
	"github.com/sunyihoo/evm-codec/values"
)

func abiType(t *testing.T, typ string, components []abi.ArgumentMarshaling) abi.Type {
	t.Helper()
	out, err := abi.NewType(typ, "", components)
	require.NoError(t, err)
	return out
}

func TestTupleMatchesReference(t *testing.T) {
	var (
		u256  = types.NewUint(256)
		i8    = types.NewInt(8)
		str   = types.NewString()
		u256s = types.NewSlice(u256)
		pair  = types.NewTuple("Pair", []string{"k", "v"}, []*types.Type{str, types.NewBool()})
		addr  = common.HexToAddress("0x0102030405060708090a0b0c0d0e0f1011121314")
	)
	vals := []values.Value{
		&values.UintValue{Typ: u256, V: big.NewInt(1000)},
		&values.IntValue{Typ: i8, V: big.NewInt(-5)},
		&values.AddressValue{Typ: types.NewAddress(false), V: addr},
		&values.StringValue{Typ: str, Raw: []byte("hello world")},
		&values.ArrayValue{Typ: u256s, Elems: []values.Value{
			&values.UintValue{Typ: u256, V: big.NewInt(1)},
			&values.UintValue{Typ: u256, V: big.NewInt(2)},
		}},
		&values.FixedBytesValue{Typ: types.NewFixedBytes(4), V: []byte{1, 2, 3, 4}},
		&values.TupleValue{Typ: pair, Members: []values.Member{
			{Name: "k", Value: &values.StringValue{Typ: str, Raw: []byte("key")}},
			{Name: "v", Value: &values.BoolValue{Typ: types.NewBool(), V: true}},
		}},
		&values.BytesValue{Typ: types.NewBytes(), V: []byte{}},
	}
	got, err := Tuple(vals, types.BuildTable(u256, i8, str, u256s, pair))
	require.NoError(t, err)

	args := abi.Arguments{
		{Type: abiType(t, "uint256", nil)},
		{Type: abiType(t, "int8", nil)},
		{Type: abiType(t, "address", nil)},
		{Type: abiType(t, "string", nil)},
		{Type: abiType(t, "uint256[]", nil)},
		{Type: abiType(t, "bytes4", nil)},
		{Type: abiType(t, "tuple", []abi.ArgumentMarshaling{{Name: "k", Type: "string"}, {Name: "v", Type: "bool"}})},
		{Type: abiType(t, "bytes", nil)},
	}
	want, err := args.Pack(
		big.NewInt(1000),
		int8(-5),
		addr,
		"hello world",
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
		[4]byte{1, 2, 3, 4},
		struct {
			K string
			V bool
		}{"key", true},
		[]byte{},
	)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNestedArrays(t *testing.T) {
	str := types.NewString()
	fixed := types.NewArray(str, 2)
	nested := types.NewSlice(fixed)
	elem := func(a, b string) values.Value {
		return &values.ArrayValue{Typ: fixed, Elems: []values.Value{
			&values.StringValue{Typ: str, Raw: []byte(a)},
			&values.StringValue{Typ: str, Raw: []byte(b)},
		}}
	}
	v := &values.ArrayValue{Typ: nested, Elems: []values.Value{elem("a", "b"), elem("c", "")}}

	// Types missing from the table are computed on demand.
	got, err := Tuple([]values.Value{v}, nil)
	require.NoError(t, err)

	want, err := abi.Arguments{{Type: abiType(t, "string[2][]", nil)}}.Pack([][2]string{{"a", "b"}, {"c", ""}})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUnencodable(t *testing.T) {
	hashed := &values.HashedValue{Typ: types.NewString(), Hash: common.HexToHash("0x01")}
	_, err := Tuple([]values.Value{hashed}, nil)
	assert.ErrorIs(t, err, ErrUnencodable)
}

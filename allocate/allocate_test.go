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

package allocate

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/types"
)

var transferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

func transferEvent() *Allocation {
	return &Allocation{
		Name: "Transfer",
		Arguments: []ArgumentAllocation{
			{Definition: types.Definition{Name: "from", Type: "address", Indexed: true}, Pointer: pointer.EventTopicPointer{Topic: 1}},
			{Definition: types.Definition{Name: "to", Type: "address", Indexed: true}, Pointer: pointer.EventTopicPointer{Topic: 2}},
			{Definition: types.Definition{Name: "value", Type: "uint256"}, Pointer: pointer.EventDataPointer{Start: 0, Length: 32}},
		},
	}
}

func TestAddEvent(t *testing.T) {
	tables := new(Tables)
	ev := transferEvent()
	tables.AddEvent(1, false, transferTopic, ev)
	tables.AddEvent(5, true, transferTopic, ev)

	assert.Nil(t, tables.Events(transferTopic, 1))
	cands := tables.Events(transferTopic, 3)
	require.NotNil(t, cands)
	assert.Same(t, ev, cands.Contract[1])
	assert.Same(t, ev, cands.Library[5])
	assert.Nil(t, cands.Contract[5])
}

func TestNilTables(t *testing.T) {
	var tables *Tables
	assert.Nil(t, tables.Function(1, Selector{}))
	assert.Nil(t, tables.Constructor(1))
	assert.Nil(t, tables.Events(transferTopic, 3))
	assert.Nil(t, tables.ABITable())
}

func TestSelector(t *testing.T) {
	sel := ToSelector([]byte{0xa9, 0x05, 0x9c, 0xbb, 0xff})
	assert.Equal(t, "0xa9059cbb", sel.String())
	assert.Equal(t, Selector{0xa9}, ToSelector([]byte{0xa9}))

	var dec Selector
	require.NoError(t, dec.UnmarshalText([]byte("0xa9059cbb")))
	assert.Equal(t, sel, dec)
	assert.Error(t, dec.UnmarshalText([]byte("0xa9059c")))
}

func TestTablesJSON(t *testing.T) {
	tables := new(Tables)
	tables.AddFunction(1, Selector{0xa9, 0x05, 0x9c, 0xbb}, &Allocation{
		Name:   "transfer",
		Offset: 4,
		Arguments: []ArgumentAllocation{
			{Definition: types.Definition{Name: "to", Type: "address"}, Pointer: pointer.CalldataPointer{Start: 4, Length: 32}},
			{Definition: types.Definition{Name: "amount", Type: "uint256"}, Pointer: pointer.CalldataPointer{Start: 36, Length: 32}},
		},
	})
	tables.SetConstructor(2, &Allocation{Offset: 100})
	tables.AddEvent(1, false, transferTopic, transferEvent())

	out, err := json.Marshal(tables)
	require.NoError(t, err)

	var dec Tables
	require.NoError(t, json.Unmarshal(out, &dec))
	assert.Equal(t, tables, &dec)

	fn := dec.Function(1, Selector{0xa9, 0x05, 0x9c, 0xbb})
	require.NotNil(t, fn)
	assert.Equal(t, "transfer", fn.Name)
	assert.Equal(t, uint64(100), dec.Constructor(2).Offset)
	assert.True(t, dec.Events(transferTopic, 3).Contract[1].Arguments[0].Indexed())
}

func TestArgumentWithoutPointer(t *testing.T) {
	var a ArgumentAllocation
	err := json.Unmarshal([]byte(`{"definition":{"name":"x","type":"uint256"}}`), &a)
	assert.Error(t, err)
}

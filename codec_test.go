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
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/evm-codec/allocate"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/step"
	"github.com/sunyihoo/evm-codec/types"
)

var (
	tokenAddr = common.HexToAddress("0x5555555555555555555555555555555555555555")
	alice     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob       = common.HexToAddress("0x2222222222222222222222222222222222222222")
	solc      = evm.Compiler{Name: "solc", Version: "0.8.24+commit.e11b9ed9"}

	token = &evm.Context{ID: 1, Address: tokenAddr, Type: evm.ContractType{ID: 1, Name: "Token"}, Compiler: solc}
	ctor  = &evm.Context{ID: 2, Address: tokenAddr, Type: evm.ContractType{ID: 1, Name: "Token"}, Compiler: solc, IsConstructor: true}
	mathA = &evm.Context{ID: 4, Type: evm.ContractType{ID: 4, Name: "MathA", Kind: evm.KindLibrary}, Compiler: solc}
	mathB = &evm.Context{ID: 7, Type: evm.ContractType{ID: 7, Name: "MathB", Kind: evm.KindLibrary}, Compiler: solc}

	transferSel   = allocate.Selector{0xa9, 0x05, 0x9c, 0xbb}
	transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	valueTopic    = crypto.Keccak256Hash([]byte("Value(uint256)"))
)

const creationCodeSize = 10

func arg(name, typ string, p pointer.DataPointer) allocate.ArgumentAllocation {
	return allocate.ArgumentAllocation{Definition: types.Definition{Name: name, Type: typ}, Pointer: p}
}

func testTables() *allocate.Tables {
	tables := new(allocate.Tables)
	tables.AddFunction(token.ID, transferSel, &allocate.Allocation{
		Name:   "transfer",
		Offset: evm.SelectorSize,
		Arguments: []allocate.ArgumentAllocation{
			arg("to", "address", pointer.CalldataPointer{Start: 4, Length: 32}),
			arg("amount", "uint256", pointer.CalldataPointer{Start: 36, Length: 32}),
		},
	})
	tables.SetConstructor(ctor.ID, &allocate.Allocation{
		Offset: creationCodeSize,
		Arguments: []allocate.ArgumentAllocation{
			arg("name", "string", pointer.CalldataPointer{Start: creationCodeSize, Length: 32}),
		},
	})
	tables.AddEvent(token.ID, false, transferTopic, &allocate.Allocation{
		Name: "Transfer",
		Arguments: []allocate.ArgumentAllocation{
			arg("from", "address", pointer.EventTopicPointer{Topic: 1}),
			arg("to", "address", pointer.EventTopicPointer{Topic: 2}),
			arg("value", "uint256", pointer.EventDataPointer{Start: 0, Length: 32}),
		},
	})
	// Three definitions of Value(...) sharing a selector topic.
	tables.AddEvent(token.ID, false, valueTopic, &allocate.Allocation{
		Name:      "Value",
		Arguments: []allocate.ArgumentAllocation{arg("amount", "uint256", pointer.EventDataPointer{Length: 32})},
	})
	tables.AddEvent(mathB.ID, true, valueTopic, &allocate.Allocation{
		Name:      "Value",
		Arguments: []allocate.ArgumentAllocation{arg("flag", "bool", pointer.EventDataPointer{Length: 32})},
	})
	tables.AddEvent(mathA.ID, true, valueTopic, &allocate.Allocation{
		Name:      "Value",
		Arguments: []allocate.ArgumentAllocation{arg("small", "uint8", pointer.EventDataPointer{Length: 32})},
	})
	// A library that is not part of the known contexts.
	tables.AddEvent(99, true, valueTopic, &allocate.Allocation{
		Name:      "Value",
		Arguments: []allocate.ArgumentAllocation{arg("x", "uint256", pointer.EventDataPointer{Length: 32})},
	})
	return tables
}

func testInfo(ctx *evm.Context, state *evm.State) *Info {
	return &Info{
		State:       state,
		Context:     ctx,
		Contexts:    evm.Contexts{token.ID: token, ctor.ID: ctor, mathA.ID: mathA, mathB.ID: mathB},
		Allocations: testTables(),
	}
}

func pack(t *testing.T, typs []string, vals ...interface{}) []byte {
	t.Helper()
	var args abi.Arguments
	for _, typ := range typs {
		at, err := abi.NewType(typ, "", nil)
		require.NoError(t, err)
		args = append(args, abi.Argument{Type: at})
	}
	out, err := args.Pack(vals...)
	require.NoError(t, err)
	return out
}

func word(n uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(n).Bytes(), 32)
}

func argJSON(t *testing.T, args []Argument) string {
	t.Helper()
	out, err := json.Marshal(args)
	require.NoError(t, err)
	return string(out)
}

func TestDecodeCalldata(t *testing.T) {
	input := append(transferSel[:], pack(t, []string{"address", "uint256"}, bob, big.NewInt(1000))...)
	dec, err := step.Sync(DecodeCalldata(testInfo(token, &evm.State{Calldata: input})))
	require.NoError(t, err)

	assert.Equal(t, KindFunction, dec.Kind)
	assert.Equal(t, "transfer", dec.Name)
	assert.Equal(t, "Token", dec.Class.Name)
	assert.Equal(t, `[{"name":"to","value":"0x2222222222222222222222222222222222222222"},{"name":"amount","value":"1000"}]`, argJSON(t, dec.Arguments))
}

func TestDecodeCalldataFallback(t *testing.T) {
	for _, input := range [][]byte{{0xde, 0xad, 0xbe, 0xef, 0x00}, {}, {0xa9}} {
		dec, err := step.Sync(DecodeCalldata(testInfo(token, &evm.State{Calldata: input})))
		require.NoError(t, err)
		assert.Equal(t, KindFallback, dec.Kind, "input %x", input)
		assert.Equal(t, "Token", dec.Class.Name)
		assert.Empty(t, dec.Arguments)
	}
}

func TestDecodeCalldataUnknown(t *testing.T) {
	dec, err := step.Sync(DecodeCalldata(testInfo(nil, &evm.State{Calldata: transferSel[:]})))
	require.NoError(t, err)
	assert.Equal(t, &Decoding{Kind: KindUnknown}, dec)
	assert.Equal(t, `{"kind":"unknown"}`, dec.String())
}

func TestDecodeCalldataConstructor(t *testing.T) {
	code := make([]byte, creationCodeSize)
	input := append(code, pack(t, []string{"string"}, "Token")...)
	dec, err := step.Sync(DecodeCalldata(testInfo(ctor, &evm.State{Calldata: input})))
	require.NoError(t, err)
	assert.Equal(t, KindConstructor, dec.Kind)
	assert.Equal(t, `[{"name":"name","value":"Token"}]`, argJSON(t, dec.Arguments))

	// Without a constructor allocation the creation input falls back.
	info := testInfo(ctor, &evm.State{Calldata: code})
	info.Allocations = new(allocate.Tables)
	dec, err = step.Sync(DecodeCalldata(info))
	require.NoError(t, err)
	assert.Equal(t, KindFallback, dec.Kind)
	assert.Equal(t, "Token", dec.Class.Name)
	assert.Empty(t, dec.Arguments)
}

func TestDecodeCalldataLenientPadding(t *testing.T) {
	// The address word has dirty high bytes, which calldata decoding tolerates.
	input := append(transferSel[:], pack(t, []string{"uint256", "uint256"}, new(big.Int).Lsh(big.NewInt(1), 200), big.NewInt(1))...)
	dec, err := step.Sync(DecodeCalldata(testInfo(token, &evm.State{Calldata: input})))
	require.NoError(t, err)
	assert.Equal(t, "transfer", dec.Name)
}

func TestDecodeEventTransfer(t *testing.T) {
	state := &evm.State{
		EventTopics: []common.Hash{transferTopic, common.BytesToHash(alice.Bytes()), common.BytesToHash(bob.Bytes())},
		EventData:   word(500),
	}
	decs, err := step.Sync(DecodeEvent(testInfo(token, state)))
	require.NoError(t, err)
	require.Len(t, decs, 1)
	assert.Equal(t, KindEvent, decs[0].Kind)
	assert.Equal(t, "Transfer", decs[0].Name)
	assert.Equal(t, `[{"name":"from","value":"0x1111111111111111111111111111111111111111"},{"name":"to","value":"0x2222222222222222222222222222222222222222"},{"name":"value","value":"500"}]`, argJSON(t, decs[0].Arguments))

	// The topic count is part of the key.
	state.EventTopics = state.EventTopics[:2]
	decs, err = step.Sync(DecodeEvent(testInfo(token, state)))
	require.NoError(t, err)
	assert.Empty(t, decs)
}

func TestDecodeEventNoTopics(t *testing.T) {
	decs, err := step.Sync(DecodeEvent(testInfo(token, &evm.State{EventData: word(1)})))
	require.NoError(t, err)
	assert.NotNil(t, decs)
	assert.Empty(t, decs)
}

func TestDecodeEventCandidates(t *testing.T) {
	names := func(decs []*Decoding) []string {
		var out []string
		for _, d := range decs {
			out = append(out, d.Class.Name+"."+d.Arguments[0].Name)
		}
		return out
	}
	tests := []struct {
		ctx  *evm.Context
		data []byte
		want []string
	}{
		// Every candidate accepts 1: the contract first, libraries by id.
		{token, word(1), []string{"Token.amount", "MathA.small", "MathB.flag"}},
		// 5 is no bool.
		{token, word(5), []string{"Token.amount", "MathA.small"}},
		// 300 fits neither bool nor uint8.
		{token, word(300), []string{"Token.amount"}},
		// Trailing data fails verification for all.
		{token, append(word(1), word(0)...), nil},
		// A library context has no contract candidate of its own.
		{mathB, word(1), []string{"MathA.small", "MathB.flag"}},
	}
	for i, test := range tests {
		state := &evm.State{EventTopics: []common.Hash{valueTopic}, EventData: test.data}
		decs, err := step.Sync(DecodeEvent(testInfo(test.ctx, state)))
		require.NoError(t, err, "test %d", i)
		assert.Equal(t, test.want, names(decs), "test %d", i)
	}
}

func TestDecodeVariableSuspends(t *testing.T) {
	slot := pointer.StoragePointer{Slot: pointer.NewSlot(3), Offset: 0, Length: 32}
	info := testInfo(token, &evm.State{})

	s := DecodeVariable(types.NewUint(256), slot, info)
	require.True(t, s.Suspended())
	assert.Equal(t, tokenAddr, s.Request().Address)

	v, err := step.Run(s, func(req *step.Request) (*step.Response, error) {
		return &step.Response{Data: word(77)}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "77", v.String())

	// The same value from the state decodes without suspending.
	info.State = &evm.State{Storage: map[common.Hash]common.Hash{
		common.BytesToHash(word(3)): common.BytesToHash(word(77)),
	}}
	v, err = step.Sync(DecodeVariable(types.NewUint(256), slot, info))
	require.NoError(t, err)
	assert.Equal(t, "77", v.String())
}

func TestDecodeDefinition(t *testing.T) {
	info := testInfo(token, &evm.State{EventData: pack(t, []string{"string"}, "hi")})
	v, err := step.Sync(DecodeDefinition(types.Definition{Type: "string"}, pointer.EventDataPointer{Length: 32}, info))
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, v.String())

	_, err = step.Sync(DecodeDefinition(types.Definition{Type: "uint7"}, pointer.EventDataPointer{Length: 32}, info))
	assert.Error(t, err)
}

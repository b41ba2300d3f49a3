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

package decode

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/read"
	"github.com/sunyihoo/evm-codec/step"
	"github.com/sunyihoo/evm-codec/types"
	"github.com/sunyihoo/evm-codec/values"
)

var (
	contract = common.HexToAddress("0x00000000000000000000000000000000000c0de5")
	compiler = evm.Compiler{Name: "solc", Version: "0.8.24"}
)

func newDecoder(state *evm.State) *Decoder {
	ctx := &evm.Context{ID: 1, Address: contract, Compiler: compiler}
	return New(read.NewReader(state), ctx, nil)
}

func mustParse(t *testing.T, def types.Definition) *types.Type {
	t.Helper()
	typ, err := types.Parse(def, compiler)
	if err != nil {
		t.Fatalf("parse %v: %v", def.Type, err)
	}
	return typ
}

func marshalling(defs []types.Definition) []abi.ArgumentMarshaling {
	var out []abi.ArgumentMarshaling
	for _, d := range defs {
		out = append(out, abi.ArgumentMarshaling{Name: d.Name, Type: d.Type, InternalType: d.InternalType, Components: marshalling(d.Components)})
	}
	return out
}

// referencePack encodes v as a single argument with the go-ethereum encoder.
func referencePack(t *testing.T, def types.Definition, v interface{}) []byte {
	t.Helper()
	typ, err := abi.NewType(def.Type, def.InternalType, marshalling(def.Components))
	if err != nil {
		t.Fatalf("abi type %v: %v", def.Type, err)
	}
	packed, err := abi.Arguments{{Type: typ}}.Pack(v)
	if err != nil {
		t.Fatalf("pack %v: %v", def.Type, err)
	}
	return packed
}

func toJSON(t *testing.T, v values.Value) string {
	t.Helper()
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", spew.Sdump(v), err)
	}
	return string(out)
}

// word returns n as a 32 byte big endian word.
func word(n uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(n).Bytes(), 32)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var roundTripTests = []struct {
	def   types.Definition
	value interface{}
	want  string
}{
	{types.Definition{Type: "uint256"}, big.NewInt(1000), `"1000"`},
	{types.Definition{Type: "uint8"}, uint8(255), `"255"`},
	{types.Definition{Type: "int8"}, int8(-5), `"-5"`},
	{types.Definition{Type: "int256"}, big.NewInt(-1), `"-1"`},
	{types.Definition{Type: "bool"}, true, `true`},
	{types.Definition{Type: "address"}, common.HexToAddress("0x0102030405060708090a0b0c0d0e0f1011121314"), `"0x0102030405060708090a0b0c0d0e0f1011121314"`},
	{types.Definition{Type: "bytes4"}, [4]byte{1, 2, 3, 4}, `"0x01020304"`},
	{types.Definition{Type: "bytes"}, []byte{0xde, 0xad}, `"0xdead"`},
	{types.Definition{Type: "bytes"}, []byte{}, `"0x"`},
	{types.Definition{Type: "string"}, "hello", `"hello"`},
	{types.Definition{Type: "uint256[]"}, []*big.Int{big.NewInt(1), big.NewInt(2)}, `["1","2"]`},
	{types.Definition{Type: "uint8[2]"}, [2]uint8{7, 8}, `["7","8"]`},
	{types.Definition{Type: "string[]"}, []string{"a", "bc"}, `["a","bc"]`},
	{types.Definition{Type: "string[2]"}, [2]string{"x", "yz"}, `["x","yz"]`},
	{types.Definition{Type: "uint256[][]"}, [][]*big.Int{{big.NewInt(1)}, {}}, `[["1"],[]]`},
	{
		types.Definition{Type: "tuple", Components: []types.Definition{{Name: "a", Type: "uint256"}, {Name: "b", Type: "bool"}}},
		struct {
			A *big.Int
			B bool
		}{big.NewInt(3), true},
		`[{"name":"a","value":"3"},{"name":"b","value":true}]`,
	},
	{
		types.Definition{Type: "tuple", Components: []types.Definition{{Name: "a", Type: "uint256"}, {Name: "b", Type: "string"}}},
		struct {
			A *big.Int
			B string
		}{big.NewInt(3), "dyn"},
		`[{"name":"a","value":"3"},{"name":"b","value":"dyn"}]`,
	},
	{
		types.Definition{Type: "tuple[]", Components: []types.Definition{{Name: "s", Type: "string"}}},
		[]struct{ S string }{{"p"}, {"q"}},
		`[[{"name":"s","value":"p"}],[{"name":"s","value":"q"}]]`,
	},
}

func TestDecodeABIRoundTrip(t *testing.T) {
	for _, test := range roundTripTests {
		typ := mustParse(t, test.def)
		packed := referencePack(t, test.def, test.value)
		head := uint64(typ.HeadSize())

		// Event data: the block starts at 0.
		d := newDecoder(&evm.State{EventData: packed})
		v, err := step.Sync(d.Decode(typ, pointer.EventDataPointer{Start: 0, Length: head}, Options{Strict: true}))
		if err != nil {
			t.Errorf("%v in event data: %v", typ, err)
		} else if got := toJSON(t, v); got != test.want {
			t.Errorf("%v in event data: got %s, want %s", typ, got, test.want)
		}

		// Calldata: the block starts after the selector.
		d = newDecoder(&evm.State{Calldata: append([]byte{0xa9, 0x05, 0x9c, 0xbb}, packed...)})
		v, err = step.Sync(d.Decode(typ, pointer.CalldataPointer{Start: 4, Length: head}, Options{Offset: 4, Strict: true}))
		if err != nil {
			t.Errorf("%v in calldata: %v", typ, err)
		} else if got := toJSON(t, v); got != test.want {
			t.Errorf("%v in calldata: got %s, want %s", typ, got, test.want)
		}
	}
}

func TestDecodeFunction(t *testing.T) {
	var fn [24]byte
	copy(fn[:], common.HexToAddress("0x1111111111111111111111111111111111111111").Bytes())
	copy(fn[20:], []byte{0xa9, 0x05, 0x9c, 0xbb})
	def := types.Definition{Type: "function"}
	d := newDecoder(&evm.State{EventData: referencePack(t, def, fn)})

	v, err := step.Sync(d.Decode(mustParse(t, def), pointer.EventDataPointer{Length: 32}, Options{Strict: true}))
	if err != nil {
		t.Fatal(err)
	}
	f := v.(*values.FunctionValue)
	if f.Address != common.HexToAddress("0x1111111111111111111111111111111111111111") || f.Selector != [4]byte{0xa9, 0x05, 0x9c, 0xbb} {
		t.Errorf("got %v", f)
	}
}

func TestStrictPadding(t *testing.T) {
	dirty := word(5)
	dirty[0] = 1
	typ := types.NewUint(8)
	p := pointer.EventDataPointer{Length: 32}

	d := newDecoder(&evm.State{EventData: dirty})
	if _, err := step.Sync(d.Decode(typ, p, Options{Strict: true})); !errors.Is(err, ErrPadding) {
		t.Errorf("strict: got %v, want padding error", err)
	}
	v, err := step.Sync(d.Decode(typ, p, Options{}))
	if err != nil || v.String() != "5" {
		t.Errorf("lenient: got %v, %v", v, err)
	}

	// Sign extension is not padding.
	negative := common.LeftPadBytes(nil, 32)
	for i := range negative {
		negative[i] = 0xff
	}
	negative[31] = 0xfb
	d = newDecoder(&evm.State{EventData: negative})
	v, err = step.Sync(d.Decode(types.NewInt(8), p, Options{Strict: true}))
	if err != nil || v.String() != "-5" {
		t.Errorf("int8: got %v, %v", v, err)
	}

	// Booleans must be 0 or 1 in either mode.
	d = newDecoder(&evm.State{EventData: word(2)})
	for _, strict := range []bool{true, false} {
		if _, err := step.Sync(d.Decode(types.NewBool(), p, Options{Strict: strict})); !errors.Is(err, ErrBadBool) {
			t.Errorf("strict=%v: got %v, want bad bool", strict, err)
		}
	}
}

func TestBadDynamicData(t *testing.T) {
	bytesTyp := types.NewBytes()
	p := pointer.EventDataPointer{Length: 32}
	tests := []struct {
		data []byte
		want error
	}{
		// offset past the end
		{concat(word(0x1000)), ErrBadOffset},
		// length longer than the data
		{concat(word(32), word(64), word(0)), ErrBadLength},
		// huge length
		{concat(word(32), common.MaxHash[:]), ErrBadLength},
	}
	for i, test := range tests {
		d := newDecoder(&evm.State{EventData: test.data})
		_, err := step.Sync(d.Decode(bytesTyp, p, Options{Strict: true}))
		if !errors.Is(err, test.want) {
			t.Errorf("test %d: got %v, want %v", i, err, test.want)
		}
		var decErr *Error
		if !errors.As(err, &decErr) || decErr.Type != bytesTyp {
			t.Errorf("test %d: error %v does not carry the type", i, err)
		}
	}
}

// Slices of enormous static elements must not pass the length check through
// an overflowing size computation.
func TestHugeStaticElements(t *testing.T) {
	for _, typ := range []string{"uint8[1152921504606846976][]", "uint256[288230376151711744][]"} {
		d := newDecoder(&evm.State{EventData: concat(word(32), word(2), word(0), word(0))})
		_, err := step.Sync(d.Decode(mustParse(t, types.Definition{Type: typ}), pointer.EventDataPointer{Length: 32}, Options{Strict: true}))
		if !errors.Is(err, ErrBadLength) {
			t.Errorf("%s: got %v, want %v", typ, err, ErrBadLength)
		}
	}
}

func TestErrorPath(t *testing.T) {
	def := types.Definition{Type: "tuple", Components: []types.Definition{{Name: "a", Type: "uint256"}, {Name: "flags", Type: "bool[]"}}}
	packed := referencePack(t, def, struct {
		A     *big.Int
		Flags []bool
	}{big.NewInt(1), []bool{true, false}})
	// head offset, a, flags offset, flags length, flags[0], flags[1]
	packed[6*32-1] = 2

	d := newDecoder(&evm.State{EventData: packed})
	_, err := step.Sync(d.Decode(mustParse(t, def), pointer.EventDataPointer{Length: 32}, Options{Strict: true}))
	var decErr *Error
	if !errors.As(err, &decErr) {
		t.Fatalf("got %v, want decode error", err)
	}
	if path := decErr.Path(); path != ".flags[1]" {
		t.Errorf("path %q, want .flags[1]", path)
	}
	if !errors.Is(err, ErrBadBool) {
		t.Errorf("error %v does not unwrap to the cause", err)
	}
}

func TestDecodeTopic(t *testing.T) {
	hash := common.HexToHash("0x1234")
	d := newDecoder(&evm.State{EventTopics: []common.Hash{{}, common.BytesToHash(word(9)), hash}})

	v, err := step.Sync(d.Decode(types.NewUint(256), pointer.EventTopicPointer{Topic: 1}, Options{Strict: true}))
	if err != nil || v.String() != "9" {
		t.Errorf("value topic: got %v, %v", v, err)
	}
	v, err = step.Sync(d.Decode(types.NewString(), pointer.EventTopicPointer{Topic: 2}, Options{Strict: true}))
	if err != nil {
		t.Fatal(err)
	}
	if h, ok := v.(*values.HashedValue); !ok || h.Hash != hash {
		t.Errorf("reference topic: got %v", v)
	}
	if _, err := step.Sync(d.Decode(types.NewBool(), pointer.EventTopicPointer{Topic: 3}, Options{})); !errors.Is(err, read.ErrOutOfBounds) {
		t.Errorf("missing topic: %v", err)
	}
}

func TestDecodeMemory(t *testing.T) {
	// struct { uint256 n; string s } at 0x80, its string at 0xc0
	mem := make([]byte, 0x80)
	mem = append(mem, word(7)...)
	mem = append(mem, word(0xc0)...)
	mem = append(mem, word(2)...)
	mem = append(mem, common.RightPadBytes([]byte("hi"), 32)...)
	// a word holding the struct address at 0x100
	mem = append(mem, word(0x80)...)

	def := types.Definition{Type: "tuple", Components: []types.Definition{{Name: "n", Type: "uint256"}, {Name: "s", Type: "string"}}}
	d := newDecoder(&evm.State{Memory: mem})
	v, err := step.Sync(d.Decode(mustParse(t, def), pointer.MemoryPointer{Start: 0x100, Length: 32}, Options{}))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := toJSON(t, v), `[{"name":"n","value":"7"},{"name":"s","value":"hi"}]`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if _, err := step.Sync(d.Decode(types.NewUint(256), pointer.MemoryPointer{Start: 0x120, Length: 32}, Options{})); !errors.Is(err, read.ErrOutOfBounds) {
		t.Errorf("past memory: %v", err)
	}
}

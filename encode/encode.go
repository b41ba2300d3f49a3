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

// Package encode re-encodes decoded values with the standard ABI rules. It is
// used to verify a decoding against the bytes it was decoded from.
package encode

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/types"
	"github.com/sunyihoo/evm-codec/values"
)

// ErrUnencodable is returned for values whose encoding is unknown, such as
// indexed reference types of which only the hash survived.
var ErrUnencodable = errors.New("encode: value cannot be encoded")

// Tuple encodes vals as one argument block: the heads of all values in
// order, followed by the tails of the dynamic ones. The layout table
// supplies head sizes and dynamism; types missing from it are computed.
// Tuple 将 vals 编码为一个参数块：先按顺序写出所有值的头部，再写出动态值的尾部。
func Tuple(vals []values.Value, table types.Table) ([]byte, error) {
	return packBlock(vals, table)
}

// packBlock lays out a sequence of values the way arguments, tuples and array
// elements are laid out.
func packBlock(vals []values.Value, table types.Table) ([]byte, error) {
	// variable input is the output appended at the end of packed
	// output. This is used for dynamic values.
	// 变量输入是附加在打包输出末尾的内容，用于动态类型。
	var variableInput []byte

	// input offset is the bytes offset for packed output
	// 输入偏移量是打包输出的字节偏移量。
	inputOffset := 0
	for _, v := range vals {
		inputOffset += table.Layout(v.Type()).HeadSize
	}
	var ret []byte
	for _, v := range vals {
		packed, err := pack(v, table)
		if err != nil {
			return nil, err
		}
		if table.Layout(v.Type()).Dynamic {
			ret = append(ret, packNum(big.NewInt(int64(inputOffset)))...)
			inputOffset += len(packed)
			variableInput = append(variableInput, packed...)
		} else {
			ret = append(ret, packed...)
		}
	}
	return append(ret, variableInput...), nil
}

// pack encodes a single value. For dynamic values this is the tail only.
func pack(v values.Value, table types.Table) ([]byte, error) {
	switch v := v.(type) {
	case *values.ArrayValue:
		elems, err := packBlock(v.Elems, table)
		if err != nil {
			return nil, err
		}
		if v.Typ.T == types.SliceTy {
			return append(packNum(big.NewInt(int64(len(v.Elems)))), elems...), nil
		}
		return elems, nil
	case *values.TupleValue:
		return packBlock(v.Values(), table)
	}
	return packElement(v)
}

// packElement packs a value type, bytes or string.
// packElement 根据 ABI 规范打包基本类型、bytes 或 string。
func packElement(v values.Value) ([]byte, error) {
	switch v := v.(type) {
	case *values.UintValue:
		return packNum(v.V), nil
	case *values.IntValue:
		return packNum(v.V), nil
	case *values.BoolValue:
		if v.V {
			return math.PaddedBigBytes(common.Big1, evm.WordSize), nil
		}
		return math.PaddedBigBytes(common.Big0, evm.WordSize), nil
	case *values.AddressValue:
		return common.LeftPadBytes(v.V.Bytes(), evm.WordSize), nil
	case *values.FixedBytesValue:
		return common.RightPadBytes(v.V, evm.WordSize), nil
	case *values.FunctionValue:
		fn := append(v.Address.Bytes(), v.Selector[:]...)
		return common.RightPadBytes(fn, evm.WordSize), nil
	case *values.BytesValue:
		return packBytesSlice(v.V), nil
	case *values.StringValue:
		return packBytesSlice(v.Raw), nil
	case *values.HashedValue:
		return nil, fmt.Errorf("%w: %v", ErrUnencodable, v)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnencodable, v)
}

// packBytesSlice packs the given bytes as [L, V] as the canonical representation
// bytes slice.
func packBytesSlice(b []byte) []byte {
	l := len(b)
	return append(packNum(big.NewInt(int64(l))), common.RightPadBytes(b, (l+31)/32*32)...)
}

// packNum packs a number as a 256 bit two's complement word.
func packNum(n *big.Int) []byte {
	// U256Bytes modifies its argument.
	return math.U256Bytes(new(big.Int).Set(n))
}

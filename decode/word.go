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
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/types"
	"github.com/sunyihoo/evm-codec/values"
)

// decodeWord interprets a full 32 byte word as a value of type t. Numbers
// and addresses are right-aligned, fixed bytes and function pointers are
// left-aligned. The remaining bytes must be zero, or the sign extension for
// negative signed integers; outside of strict mode they are ignored.
// decodeWord 将 32 字节的字解释为 t 类型的值。
func decodeWord(t *types.Type, word []byte, strict bool) (values.Value, error) {
	if len(word) != evm.WordSize {
		return nil, fmt.Errorf("%w: word of %d bytes", ErrBadLength, len(word))
	}
	width := t.ByteWidth()
	if width == 0 || width > evm.WordSize {
		return nil, fmt.Errorf("%w: %v is not a value type", ErrUnsupported, t)
	}
	var natural, padding []byte
	if t.LeftAligned() {
		natural, padding = word[:width], word[width:]
	} else {
		natural, padding = word[evm.WordSize-width:], word[:evm.WordSize-width]
	}
	if strict {
		var fill byte
		if t.T == types.IntTy && natural[0]&0x80 != 0 {
			fill = 0xff
		}
		for _, b := range padding {
			if b != fill {
				return nil, fmt.Errorf("%w: got %x", ErrPadding, word)
			}
		}
	}
	return decodeNatural(t, natural)
}

// decodeNatural interprets exactly the significant bytes of a value type.
func decodeNatural(t *types.Type, b []byte) (values.Value, error) {
	if len(b) != t.ByteWidth() {
		return nil, fmt.Errorf("%w: %d bytes for %v", ErrBadLength, len(b), t)
	}
	switch t.T {
	case types.UintTy:
		return &values.UintValue{Typ: t, V: new(big.Int).SetBytes(b)}, nil
	case types.IntTy:
		// big.SetBytes can't tell if a number is negative or positive in itself.
		// On EVM, if the top bit of the value is set, it is negative.
		// big.SetBytes 本身无法判断数字是正数还是负数，最高位为 1 时为负数。
		v := new(big.Int).SetBytes(b)
		if b[0]&0x80 != 0 {
			v.Sub(v, new(big.Int).Lsh(common.Big1, uint(8*len(b))))
		}
		return &values.IntValue{Typ: t, V: v}, nil
	case types.BoolTy:
		switch b[0] {
		case 0:
			return &values.BoolValue{Typ: t, V: false}, nil
		case 1:
			return &values.BoolValue{Typ: t, V: true}, nil
		}
		return nil, fmt.Errorf("%w: got %#x", ErrBadBool, b[0])
	case types.AddressTy:
		return &values.AddressValue{Typ: t, V: common.BytesToAddress(b)}, nil
	case types.FixedBytesTy:
		return &values.FixedBytesValue{Typ: t, V: common.CopyBytes(b)}, nil
	case types.FunctionTy:
		// A function type is simply the address with the function selection
		// signature at the end.
		// 函数类型仅仅是地址后面跟有函数选择签名。
		fn := &values.FunctionValue{Typ: t, Address: common.BytesToAddress(b[:evm.AddressSize])}
		copy(fn.Selector[:], b[evm.AddressSize:])
		return fn, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupported, t)
}

// wordToUint64 reads a length or offset word.
func wordToUint64(word []byte, what error) (uint64, error) {
	v := new(uint256.Int).SetBytes(word)
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %v", what, v.Hex())
	}
	return v.Uint64(), nil
}

// lastWord returns the final word of a multi-word read.
func lastWord(b []byte) []byte {
	return b[len(b)-evm.WordSize:]
}

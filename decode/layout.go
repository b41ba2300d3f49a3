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

	"github.com/holiman/uint256"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/types"
)

// storagePosition locates a variable inside a run of storage slots.
type storagePosition struct {
	slot   uint64 // slot relative to the start of the run
	offset int    // first byte, counted from the most significant end
	length int
}

// storageSlots returns the number of slots a variable of type t occupies.
// storageSlots 返回 t 类型变量占用的存储槽数量。
func storageSlots(t *types.Type) (uint64, error) {
	switch t.T {
	case types.BytesTy, types.StringTy, types.SliceTy, types.MappingTy:
		return 1, nil
	case types.ArrayTy:
		if t.Elem.IsValueType() {
			perSlot := uint64(evm.WordSize / t.Elem.ByteWidth())
			return (uint64(t.Size) + perSlot - 1) / perSlot, nil
		}
		n, err := storageSlots(t.Elem)
		if err != nil {
			return 0, err
		}
		return uint64(t.Size) * n, nil
	case types.TupleTy:
		_, n, err := storageLayout(t.TupleElems)
		return n, err
	}
	if t.IsValueType() {
		return 1, nil
	}
	return 0, fmt.Errorf("%w: %v in storage", ErrUnsupported, t)
}

// storageLayout places a sequence of variables the way the compiler lays out
// state variables and struct members: value types are packed right-aligned
// into a slot while they fit, reference types always start and end a slot.
// It returns the positions and the number of slots used.
// storageLayout 按照编译器布局状态变量和结构体成员的方式放置变量：
// 值类型在能放下时右对齐打包进同一个槽，引用类型总是独占新的槽。
func storageLayout(ts []*types.Type) ([]storagePosition, uint64, error) {
	var (
		positions = make([]storagePosition, len(ts))
		slot      uint64
		used      int // bytes taken from the least significant end of slot
	)
	for i, t := range ts {
		if t.IsValueType() {
			width := t.ByteWidth()
			if used+width > evm.WordSize {
				slot, used = slot+1, 0
			}
			positions[i] = storagePosition{slot: slot, offset: evm.WordSize - used - width, length: width}
			used += width
			continue
		}
		if used > 0 {
			slot, used = slot+1, 0
		}
		n, err := storageSlots(t)
		if err != nil {
			return nil, 0, err
		}
		positions[i] = storagePosition{slot: slot, offset: 0, length: evm.WordSize}
		slot += n
	}
	if used > 0 {
		slot++
	}
	return positions, slot, nil
}

// elementPosition locates element i of an array of elem. Value types share
// slots as long as they fit, all other types start a new slot.
func elementPosition(elem *types.Type, i uint64) (storagePosition, error) {
	if elem.IsValueType() {
		width := elem.ByteWidth()
		perSlot := uint64(evm.WordSize / width)
		used := int(i%perSlot) * width
		return storagePosition{slot: i / perSlot, offset: evm.WordSize - used - width, length: width}, nil
	}
	n, err := storageSlots(elem)
	if err != nil {
		return storagePosition{}, err
	}
	return storagePosition{slot: i * n, offset: 0, length: evm.WordSize}, nil
}

// longStorageLength extracts the byte length of a long form bytes or string
// slot, whose word holds 2*length+1.
func longStorageLength(word []byte) (uint64, error) {
	v := new(uint256.Int).SetBytes(word)
	v.Rsh(v, 1)
	if !v.IsUint64() || v.Uint64() > MaxStorageBytes {
		return 0, fmt.Errorf("%w: storage length %v", ErrBadLength, v.Dec())
	}
	return v.Uint64(), nil
}

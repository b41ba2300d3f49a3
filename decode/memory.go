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

	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/types"
	"github.com/sunyihoo/evm-codec/values"
)

// decodeMemory decodes the variable whose word is at p. Value types are held
// in the word itself, reference types store the memory address of their
// contents there.
// decodeMemory 解码位于 p 的变量：值类型直接存放在字中，引用类型在字中存放其内容的内存地址。
func (d *Decoder) decodeMemory(t *types.Type, p pointer.MemoryPointer, strict bool) (values.Value, error) {
	word, err := d.readRegion(pointer.Memory, p.Start, evm.WordSize)
	if err != nil {
		return nil, err
	}
	if t.IsValueType() {
		return decodeWord(t, word, strict)
	}
	addr, err := wordToUint64(word, ErrBadOffset)
	if err != nil {
		return nil, err
	}
	return d.decodeMemoryObject(t, addr, strict)
}

// decodeMemoryObject decodes the contents of a reference type stored at addr.
// Every element and member takes one word; nested reference types are
// pointers again.
func (d *Decoder) decodeMemoryObject(t *types.Type, addr uint64, strict bool) (values.Value, error) {
	switch t.T {
	case types.BytesTy, types.StringTy:
		word, err := d.readRegion(pointer.Memory, addr, evm.WordSize)
		if err != nil {
			return nil, err
		}
		length, err := wordToUint64(word, ErrBadLength)
		if err != nil {
			return nil, err
		}
		data, err := d.readRegion(pointer.Memory, addr+evm.WordSize, length)
		if err != nil {
			return nil, err
		}
		if t.T == types.StringTy {
			return &values.StringValue{Typ: t, Raw: data}, nil
		}
		return &values.BytesValue{Typ: t, V: data}, nil

	case types.SliceTy:
		word, err := d.readRegion(pointer.Memory, addr, evm.WordSize)
		if err != nil {
			return nil, err
		}
		length, err := wordToUint64(word, ErrBadLength)
		if err != nil {
			return nil, err
		}
		if length > d.bufferLen(pointer.Memory)/evm.WordSize {
			return nil, fmt.Errorf("%w: %d elements exceed memory", ErrBadLength, length)
		}
		elems, err := d.decodeMemoryElements(t.Elem, addr+evm.WordSize, length, strict)
		if err != nil {
			return nil, err
		}
		return &values.ArrayValue{Typ: t, Elems: elems}, nil

	case types.ArrayTy:
		elems, err := d.decodeMemoryElements(t.Elem, addr, uint64(t.Size), strict)
		if err != nil {
			return nil, err
		}
		return &values.ArrayValue{Typ: t, Elems: elems}, nil

	case types.TupleTy:
		members := make([]values.Member, 0, len(t.TupleElems))
		pos := addr
		for i, elem := range t.TupleElems {
			// Mappings have no memory representation and are skipped.
			// 映射在内存中没有表示，直接跳过。
			if elem.T == types.MappingTy {
				continue
			}
			v, err := d.decodeMemory(elem, pointer.MemoryPointer{Start: pos, Length: evm.WordSize}, strict)
			if err != nil {
				return nil, addErrorContext(wrapError(err, elem), memberContext(t.TupleRawNames, i))
			}
			members = append(members, values.Member{Name: t.TupleRawNames[i], Value: v})
			pos += evm.WordSize
		}
		return &values.TupleValue{Typ: t, Members: members}, nil
	}
	return nil, fmt.Errorf("%w: %v in memory", ErrUnsupported, t)
}

func (d *Decoder) decodeMemoryElements(elem *types.Type, start uint64, count uint64, strict bool) ([]values.Value, error) {
	elems := make([]values.Value, 0, count)
	for i := uint64(0); i < count; i++ {
		v, err := d.decodeMemory(elem, pointer.MemoryPointer{Start: start + i*evm.WordSize, Length: evm.WordSize}, strict)
		if err != nil {
			return nil, addErrorContext(wrapError(err, elem), indexContext(int(i)))
		}
		elems = append(elems, v)
	}
	return elems, nil
}

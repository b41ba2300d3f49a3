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
	"bytes"
	"fmt"

	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/step"
	"github.com/sunyihoo/evm-codec/types"
	"github.com/sunyihoo/evm-codec/values"
)

func (d *Decoder) readStorage(p pointer.StoragePointer) step.Step[[]byte] {
	return d.reader.Read(p, d.address())
}

func wholeSlot(slot pointer.Slot) pointer.StoragePointer {
	return pointer.StoragePointer{Slot: slot, Offset: 0, Length: evm.WordSize}
}

// decodeStorage decodes the storage variable at p. Value types are read from
// the addressed bytes, reference types start at the beginning of p's slot.
// Reads of slots missing from the state suspend.
// decodeStorage 解码位于 p 的存储变量，缺失的存储槽会挂起读取。
func (d *Decoder) decodeStorage(t *types.Type, p pointer.StoragePointer) step.Step[values.Value] {
	if t.IsValueType() {
		return step.Map(d.readStorage(p), func(b []byte) (values.Value, error) {
			width := t.ByteWidth()
			if len(b) < width {
				return nil, fmt.Errorf("%w: %d bytes for %v", ErrBadLength, len(b), t)
			}
			// Wider pointers include neighbouring packed variables, the value
			// itself always sits at the least significant end.
			return decodeNatural(t, b[len(b)-width:])
		})
	}
	switch t.T {
	case types.BytesTy, types.StringTy:
		return step.Then(d.readStorage(wholeSlot(p.Slot)), func(word []byte) step.Step[values.Value] {
			return d.decodeStorageBytes(t, p.Slot, word)
		})

	case types.ArrayTy:
		return d.decodeStorageElements(t, p.Slot, uint64(t.Size))

	case types.SliceTy:
		return step.Then(d.readStorage(wholeSlot(p.Slot)), func(word []byte) step.Step[values.Value] {
			length, err := wordToUint64(word, ErrBadLength)
			if err != nil {
				return step.Fail[values.Value](err)
			}
			if length > MaxStorageElements {
				return step.Fail[values.Value](fmt.Errorf("%w: %d storage elements", ErrBadLength, length))
			}
			return d.decodeStorageElements(t, p.Slot.Hashed(), length)
		})

	case types.TupleTy:
		return d.decodeStorageStruct(t, p.Slot)

	case types.MappingTy:
		return step.Fail[values.Value](fmt.Errorf("%w: mapping without key, address an entry through the slot path", ErrUnsupported))
	}
	return step.Fail[values.Value](fmt.Errorf("%w: %v in storage", ErrUnsupported, t))
}

// decodeStorageBytes decodes bytes and strings. Up to 31 bytes are stored in
// the slot itself together with 2*length in the lowest byte; longer values
// store 2*length+1 in the slot and the data from keccak256(slot) on.
// decodeStorageBytes 解码 bytes 和 string：短值与 2*长度 一起存放在槽内，
// 长值在槽中存放 2*长度+1，数据从 keccak256(slot) 开始存放。
func (d *Decoder) decodeStorageBytes(t *types.Type, slot pointer.Slot, word []byte) step.Step[values.Value] {
	wrap := func(data []byte) values.Value {
		if t.T == types.StringTy {
			return &values.StringValue{Typ: t, Raw: data}
		}
		return &values.BytesValue{Typ: t, V: data}
	}
	last := word[evm.WordSize-1]
	if last&1 == 0 {
		length := int(last / 2)
		if length >= evm.WordSize {
			return step.Fail[values.Value](fmt.Errorf("%w: short storage length %d", ErrBadLength, length))
		}
		return step.Done(wrap(bytes.Clone(word[:length])))
	}
	length, err := longStorageLength(word)
	if err != nil {
		return step.Fail[values.Value](err)
	}
	data := slot.Hashed()
	count := int((length + evm.WordSize - 1) / evm.WordSize)
	chunks := step.Sequence(count, func(i int) step.Step[[]byte] {
		return d.readStorage(wholeSlot(data.Add(uint64(i))))
	})
	return step.Map(chunks, func(chunks [][]byte) (values.Value, error) {
		return wrap(bytes.Join(chunks, nil)[:length]), nil
	})
}

// decodeStorageElements decodes count elements of the array type t laid out
// from base on.
func (d *Decoder) decodeStorageElements(t *types.Type, base pointer.Slot, count uint64) step.Step[values.Value] {
	elems := step.Sequence(int(count), func(i int) step.Step[values.Value] {
		pos, err := elementPosition(t.Elem, uint64(i))
		if err != nil {
			return step.Fail[values.Value](err)
		}
		p := pointer.StoragePointer{Slot: base.Add(pos.slot), Offset: pos.offset, Length: pos.length}
		return step.Catch(d.decodeStorage(t.Elem, p), func(err error) step.Step[values.Value] {
			return step.Fail[values.Value](addErrorContext(wrapError(err, t.Elem), indexContext(i)))
		})
	})
	return step.Map(elems, func(elems []values.Value) (values.Value, error) {
		return &values.ArrayValue{Typ: t, Elems: elems}, nil
	})
}

// decodeStorageStruct decodes the members of a struct laid out from base on.
// Mapping members cannot be enumerated and are left out.
func (d *Decoder) decodeStorageStruct(t *types.Type, base pointer.Slot) step.Step[values.Value] {
	positions, _, err := storageLayout(t.TupleElems)
	if err != nil {
		return step.Fail[values.Value](err)
	}
	var fields []int
	for i, elem := range t.TupleElems {
		if elem.T != types.MappingTy {
			fields = append(fields, i)
		}
	}
	decoded := step.Sequence(len(fields), func(j int) step.Step[values.Value] {
		i := fields[j]
		pos := positions[i]
		p := pointer.StoragePointer{Slot: base.Add(pos.slot), Offset: pos.offset, Length: pos.length}
		return step.Catch(d.decodeStorage(t.TupleElems[i], p), func(err error) step.Step[values.Value] {
			return step.Fail[values.Value](addErrorContext(wrapError(err, t.TupleElems[i]), memberContext(t.TupleRawNames, i)))
		})
	})
	return step.Map(decoded, func(vals []values.Value) (values.Value, error) {
		members := make([]values.Member, len(vals))
		for j, v := range vals {
			members[j] = values.Member{Name: t.TupleRawNames[fields[j]], Value: v}
		}
		return &values.TupleValue{Typ: t, Members: members}, nil
	})
}

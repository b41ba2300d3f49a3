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

	"github.com/ethereum/go-ethereum/common"
	"github.com/sunyihoo/evm-codec/evm"
	"github.com/sunyihoo/evm-codec/pointer"
	"github.com/sunyihoo/evm-codec/step"
	"github.com/sunyihoo/evm-codec/types"
	"github.com/sunyihoo/evm-codec/values"
)

// decodeStack decodes a variable held on the stack or given as a literal.
// Value types are the last word. Reference types hold a pointer into their
// data location: a memory address, a storage slot, or for calldata either
// the start of the contents or an (offset, length) pair for dynamic arrays
// and byte strings.
// decodeStack 解码位于栈上或以字面量给出的变量。引用类型在栈上保存指向其数据位置的指针。
func (d *Decoder) decodeStack(t *types.Type, p pointer.DataPointer, strict bool) step.Step[values.Value] {
	raw, err := d.reader.Resident(p)
	if err != nil {
		return step.Fail[values.Value](err)
	}
	if len(raw)%evm.WordSize != 0 {
		raw = common.LeftPadBytes(raw, (len(raw)/evm.WordSize+1)*evm.WordSize)
	}
	if len(raw) == 0 {
		return step.Fail[values.Value](fmt.Errorf("%w: empty stack value", ErrBadLength))
	}
	word := lastWord(raw)
	if t.IsValueType() {
		return settle(decodeWord(t, word, strict))
	}
	switch t.Location {
	case types.MemoryLocation:
		addr, err := wordToUint64(word, ErrBadOffset)
		if err != nil {
			return step.Fail[values.Value](err)
		}
		return settle(d.decodeMemoryObject(t, addr, strict))

	case types.StorageLocation:
		slot := pointer.Slot{Index: common.BytesToHash(word)}
		return d.decodeStorage(t, pointer.StoragePointer{Slot: slot, Offset: 0, Length: evm.WordSize})

	case types.CalldataLocation:
		if t.RequiresLengthPrefix() && len(raw) >= 2*evm.WordSize {
			offset := raw[len(raw)-2*evm.WordSize : len(raw)-evm.WordSize]
			return settle(d.decodeCalldataSlice(t, offset, word, strict))
		}
		start, err := wordToUint64(word, ErrBadOffset)
		if err != nil {
			return step.Fail[values.Value](err)
		}
		if start > d.bufferLen(pointer.Calldata) {
			return step.Fail[values.Value](fmt.Errorf("%w: calldata offset %d", ErrBadOffset, start))
		}
		return settle(d.decodeABIContent(t, pointer.Calldata, start, strict))
	}
	return step.Fail[values.Value](fmt.Errorf("%w: %v on the stack without data location", ErrUnsupported, t))
}

// decodeCalldataSlice decodes a dynamic calldata value referenced by an
// (offset, length) pair. The offset points past the length word, directly
// at the first element.
func (d *Decoder) decodeCalldataSlice(t *types.Type, offsetWord, lengthWord []byte, strict bool) (values.Value, error) {
	start, err := wordToUint64(offsetWord, ErrBadOffset)
	if err != nil {
		return nil, err
	}
	length, err := wordToUint64(lengthWord, ErrBadLength)
	if err != nil {
		return nil, err
	}
	size := d.bufferLen(pointer.Calldata)
	if start > size {
		return nil, fmt.Errorf("%w: calldata offset %d exceeds %d bytes", ErrBadOffset, start, size)
	}
	switch t.T {
	case types.BytesTy, types.StringTy:
		if length > size-start {
			return nil, fmt.Errorf("%w: %d bytes at %d", ErrBadLength, length, start)
		}
		data, err := d.readRegion(pointer.Calldata, start, length)
		if err != nil {
			return nil, err
		}
		if t.T == types.StringTy {
			return &values.StringValue{Typ: t, Raw: data}, nil
		}
		return &values.BytesValue{Typ: t, V: data}, nil

	case types.SliceTy:
		itemSize := uint64(t.Elem.HeadSize())
		if !fits(length, itemSize, size-start) {
			return nil, fmt.Errorf("%w: %d elements at %d", ErrBadLength, length, start)
		}
		elems, err := d.decodeABIElements(t.Elem, pointer.Calldata, start, length, strict)
		if err != nil {
			return nil, err
		}
		return &values.ArrayValue{Typ: t, Elems: elems}, nil
	}
	return d.decodeABIContent(t, pointer.Calldata, start, strict)
}

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
	"github.com/sunyihoo/evm-codec/types"
	"github.com/sunyihoo/evm-codec/values"
)

// bufferLen returns the size of a resident byte region.
func (d *Decoder) bufferLen(loc pointer.Location) uint64 {
	state := d.reader.State()
	switch loc {
	case pointer.Memory:
		return uint64(len(state.Memory))
	case pointer.Calldata:
		return uint64(len(state.Calldata))
	case pointer.EventData:
		return uint64(len(state.EventData))
	}
	return 0
}

func (d *Decoder) readRegion(loc pointer.Location, start, length uint64) ([]byte, error) {
	return d.reader.Resident(pointer.WithRegion(loc, start, length))
}

// decodeABI decodes a value whose head is at p inside an ABI encoded region
// (calldata or event data). Dynamic offsets are relative to base.
// decodeABI 解码 ABI 编码区域中头部位于 p 的值，动态偏移量相对于 base。
func (d *Decoder) decodeABI(t *types.Type, p pointer.DataPointer, base uint64, strict bool) (values.Value, error) {
	loc := p.Location()
	start, _, ok := pointer.Region(p)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not an ABI region", ErrUnsupported, p)
	}
	if t.IsValueType() {
		word, err := d.readRegion(loc, start, evm.WordSize)
		if err != nil {
			return nil, err
		}
		return decodeWord(t, word, strict)
	}
	if t.T == types.MappingTy {
		return nil, fmt.Errorf("%w: mapping outside of storage", ErrUnsupported)
	}
	if !t.IsDynamic() {
		// Static arrays and tuples are encoded in place.
		// 静态数组和元组原地编码。
		return d.decodeABIContent(t, loc, start, strict)
	}
	word, err := d.readRegion(loc, start, evm.WordSize)
	if err != nil {
		return nil, err
	}
	offset, err := wordToUint64(word, ErrBadOffset)
	if err != nil {
		return nil, err
	}
	content := base + offset
	if content < base || content > d.bufferLen(loc) {
		return nil, fmt.Errorf("%w: offset %d from %d exceeds %d bytes", ErrBadOffset, offset, base, d.bufferLen(loc))
	}
	return d.decodeABIContent(t, loc, content, strict)
}

// decodeABIContent decodes the encoding of t starting at content, i.e. the
// tail of a dynamic value or the in-place encoding of a static one.
func (d *Decoder) decodeABIContent(t *types.Type, loc pointer.Location, content uint64, strict bool) (values.Value, error) {
	switch t.T {
	case types.BytesTy, types.StringTy:
		length, err := d.abiLength(loc, content, 1)
		if err != nil {
			return nil, err
		}
		data, err := d.readRegion(loc, content+evm.WordSize, length)
		if err != nil {
			return nil, err
		}
		if t.T == types.StringTy {
			return &values.StringValue{Typ: t, Raw: data}, nil
		}
		return &values.BytesValue{Typ: t, V: data}, nil

	case types.SliceTy:
		size := uint64(t.Elem.HeadSize())
		length, err := d.abiLength(loc, content, size)
		if err != nil {
			return nil, err
		}
		elems, err := d.decodeABIElements(t.Elem, loc, content+evm.WordSize, length, strict)
		if err != nil {
			return nil, err
		}
		return &values.ArrayValue{Typ: t, Elems: elems}, nil

	case types.ArrayTy:
		elems, err := d.decodeABIElements(t.Elem, loc, content, uint64(t.Size), strict)
		if err != nil {
			return nil, err
		}
		return &values.ArrayValue{Typ: t, Elems: elems}, nil

	case types.TupleTy:
		members := make([]values.Member, len(t.TupleElems))
		head := content
		for i, elem := range t.TupleElems {
			size := uint64(elem.HeadSize())
			v, err := d.decodeABI(elem, pointer.WithRegion(loc, head, size), content, strict)
			if err != nil {
				return nil, addErrorContext(wrapError(err, elem), memberContext(t.TupleRawNames, i))
			}
			members[i] = values.Member{Name: t.TupleRawNames[i], Value: v}
			head += size
		}
		return &values.TupleValue{Typ: t, Members: members}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupported, t)
}

// decodeABIElements decodes count consecutive elements whose heads start at
// block. Offsets of dynamic elements are relative to block.
func (d *Decoder) decodeABIElements(elem *types.Type, loc pointer.Location, block uint64, count uint64, strict bool) ([]values.Value, error) {
	size := uint64(elem.HeadSize())
	elems := make([]values.Value, 0, count)
	for i := uint64(0); i < count; i++ {
		v, err := d.decodeABI(elem, pointer.WithRegion(loc, block+i*size, size), block, strict)
		if err != nil {
			return nil, addErrorContext(wrapError(err, elem), indexContext(int(i)))
		}
		elems = append(elems, v)
	}
	return elems, nil
}

// abiLength reads the length word at pos and checks that length items of
// itemSize bytes fit in the region after it. Call input may be short by its
// trailing padding only, so lengths are checked against the real size.
func (d *Decoder) abiLength(loc pointer.Location, pos uint64, itemSize uint64) (uint64, error) {
	word, err := d.readRegion(loc, pos, evm.WordSize)
	if err != nil {
		return 0, err
	}
	length, err := wordToUint64(word, ErrBadLength)
	if err != nil {
		return 0, err
	}
	size := d.bufferLen(loc)
	avail := uint64(0)
	if pos+evm.WordSize <= size {
		avail = size - pos - evm.WordSize
	}
	if !fits(length, itemSize, avail) {
		return 0, fmt.Errorf("%w: %d items of %d bytes at %d, %d bytes available", ErrBadLength, length, itemSize, pos, avail)
	}
	return length, nil
}

// fits reports whether count items of itemSize bytes, and at least one byte
// each, fit in avail bytes.
func fits(count, itemSize, avail uint64) bool {
	if count > avail {
		return false
	}
	return itemSize == 0 || count <= avail/itemSize
}

// decodeTopic decodes an indexed event parameter. Reference types are stored
// as the keccak256 hash of their encoding, which is returned as is.
// decodeTopic 解码索引事件参数，引用类型在主题中只保存其编码的哈希值。
func (d *Decoder) decodeTopic(t *types.Type, p pointer.EventTopicPointer, strict bool) (values.Value, error) {
	word, err := d.reader.Resident(p)
	if err != nil {
		return nil, err
	}
	if t.IsValueType() {
		return decodeWord(t, word, strict)
	}
	return &values.HashedValue{Typ: t, Hash: common.BytesToHash(word)}, nil
}

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

package types

// Layout is the ABI encoding shape of a type.
type Layout struct {
	HeadSize int  // bytes taken in the head of the enclosing block
	Dynamic  bool // whether the value lives in the tail
}

// Table is a precomputed ABI layout table keyed by canonical type string.
// It is read-only once built; types missing from it are computed on demand.
// Table 是按规范类型字符串索引的 ABI 布局表，构建后只读。
type Table map[string]Layout

// BuildTable computes the layouts of the given types and all their
// components.
func BuildTable(ts ...*Type) Table {
	table := make(Table)
	for _, t := range ts {
		table.add(t)
	}
	return table
}

func (table Table) add(t *Type) {
	if _, ok := table[t.String()]; ok {
		return
	}
	table[t.String()] = Layout{HeadSize: t.HeadSize(), Dynamic: t.IsDynamic()}
	switch t.T {
	case SliceTy, ArrayTy:
		table.add(t.Elem)
	case TupleTy:
		for _, elem := range t.TupleElems {
			table.add(elem)
		}
	}
}

// Layout returns the layout of t.
func (table Table) Layout(t *Type) Layout {
	if l, ok := table[t.String()]; ok {
		return l
	}
	return Layout{HeadSize: t.HeadSize(), Dynamic: t.IsDynamic()}
}

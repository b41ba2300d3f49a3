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

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sunyihoo/evm-codec/evm"
)

var (
	// typeRegex parses the abi sub types
	// typeRegex 解析 ABI 子类型
	typeRegex = regexp.MustCompile("^([a-zA-Z]+)(([0-9]+)(x([0-9]+))?)?$")

	// arraySuffixRegex grabs the last array suffix, "[]" or "[n]"
	arraySuffixRegex = regexp.MustCompile(`\[([0-9]*)\]$`)
)

// Definition is a source-level description of a variable or parameter in the
// shape of a JSON ABI entry, optionally carrying the data location of
// reference types.
type Definition struct {
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	InternalType string       `json:"internalType,omitempty"`
	Components   []Definition `json:"components,omitempty"`
	Indexed      bool         `json:"indexed,omitempty"`
	Location     string       `json:"location,omitempty"`
}

// Resolver turns definitions into type descriptions. The compiler tag lets
// implementations account for compiler-specific type nuances.
type Resolver interface {
	TypeOf(def Definition, compiler evm.Compiler) (*Type, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(def Definition, compiler evm.Compiler) (*Type, error)

// TypeOf implements Resolver.
func (f ResolverFunc) TypeOf(def Definition, compiler evm.Compiler) (*Type, error) {
	return f(def, compiler)
}

// DefaultResolver resolves definitions with Parse.
var DefaultResolver Resolver = ResolverFunc(Parse)

// Parse creates the type described by def.
//
// Compiler nuances: solc releases before 0.5.0 had no distinction between
// address and address payable, so every address they produce is payable.
// Parse 根据定义创建类型描述。
func Parse(def Definition, compiler evm.Compiler) (*Type, error) {
	typ, err := parseType(def.Type, def.InternalType, def.Components, compiler)
	if err != nil {
		return nil, err
	}
	switch def.Location {
	case "":
		return typ, nil
	case "memory":
		return typ.In(MemoryLocation), nil
	case "storage":
		return typ.In(StorageLocation), nil
	case "calldata":
		return typ.In(CalldataLocation), nil
	}
	return nil, fmt.Errorf("types: unknown data location %q", def.Location)
}

func parseType(t string, internalType string, components []Definition, compiler evm.Compiler) (*Type, error) {
	// check that array brackets are equal if they exist
	// 检查数组括号是否存在且数量相等
	if strings.Count(t, "[") != strings.Count(t, "]") {
		return nil, fmt.Errorf("types: invalid arg type %q", t)
	}
	// if there are brackets, get ready to go into slice/array mode and
	// recursively create the type
	// 如果有括号，准备进入切片/数组模式并递归创建类型
	if m := arraySuffixRegex.FindStringSubmatchIndex(t); m != nil {
		// Note internalType can be empty here.
		// 注意，此处 internalType 可以为空。
		subInternal := internalType
		if i := strings.LastIndex(internalType, "["); i != -1 {
			subInternal = subInternal[:i]
		}
		elem, err := parseType(t[:m[0]], subInternal, components, compiler)
		if err != nil {
			return nil, err
		}
		size := t[m[2]:m[3]]
		if size == "" {
			return NewSlice(elem), nil
		}
		n, err := strconv.Atoi(size)
		if err != nil {
			return nil, fmt.Errorf("types: error parsing array size: %v", err)
		}
		return NewArray(elem, n), nil
	}
	if strings.Contains(t, "[") {
		return nil, errors.New("types: invalid formatting of array type")
	}
	if t == "mapping" {
		if len(components) != 2 {
			return nil, errors.New("types: mapping needs key and value components")
		}
		key, err := parseType(components[0].Type, components[0].InternalType, components[0].Components, compiler)
		if err != nil {
			return nil, err
		}
		value, err := parseType(components[1].Type, components[1].InternalType, components[1].Components, compiler)
		if err != nil {
			return nil, err
		}
		return NewMapping(key, value), nil
	}
	// parse the type and size of the abi-type.
	// 解析 ABI 类型的类型和大小。
	parsed := typeRegex.FindStringSubmatch(t)
	if parsed == nil {
		return nil, fmt.Errorf("types: invalid type %q", t)
	}
	// varSize is the size of the variable
	// varSize 是变量的大小
	var varSize int
	if len(parsed[3]) > 0 {
		var err error
		if varSize, err = strconv.Atoi(parsed[3]); err != nil {
			return nil, fmt.Errorf("types: error parsing variable size: %v", err)
		}
	} else if parsed[1] == "uint" || parsed[1] == "int" {
		// the compiler always formats integers with their size
		// 编译器总是为整数带上大小
		return nil, fmt.Errorf("types: unsupported arg type %q", t)
	}
	switch parsed[1] {
	case "int", "uint":
		if varSize == 0 || varSize > 256 || varSize%8 != 0 {
			return nil, fmt.Errorf("types: unsupported arg type %q", t)
		}
		typ := NewUint(varSize)
		if parsed[1] == "int" {
			typ = NewInt(varSize)
		}
		const enumPrefix = "enum "
		if strings.HasPrefix(internalType, enumPrefix) {
			typ.TypeName = internalType[len(enumPrefix):]
		}
		return typ, nil
	case "bool":
		return NewBool(), nil
	case "address":
		payable := internalType == "address payable" || compiler.Before("0.5.0")
		typ := NewAddress(payable)
		const contractPrefix = "contract "
		if strings.HasPrefix(internalType, contractPrefix) {
			typ.TypeName = internalType[len(contractPrefix):]
		}
		return typ, nil
	case "string":
		return NewString(), nil
	case "bytes":
		if varSize == 0 {
			return NewBytes(), nil
		}
		if varSize > 32 {
			return nil, fmt.Errorf("types: unsupported arg type %q", t)
		}
		return NewFixedBytes(varSize), nil
	case "function":
		return NewFunction(), nil
	case "tuple":
		var (
			elems = make([]*Type, 0, len(components))
			names = make([]string, 0, len(components))
		)
		for _, c := range components {
			elem, err := parseType(c.Type, c.InternalType, c.Components, compiler)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
			names = append(names, c.Name)
		}
		var name string
		// After solidity 0.5.10, a new field of abi "internalType"
		// is introduced. From that we can obtain the struct name
		// user defined in the source code.
		// 在 Solidity 0.5.10 之后，引入了新的 ABI 字段 "internalType"，
		// 从中我们可以获取用户在源代码中定义的结构体名称。
		const structPrefix = "struct "
		if strings.HasPrefix(internalType, structPrefix) {
			name = internalType[len(structPrefix):]
		}
		typ := NewTuple(name, names, elems)
		typ.TypeName = name
		return typ, nil
	}
	return nil, fmt.Errorf("types: unsupported arg type %q", t)
}

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

package pointer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var errNilPointer = errors.New("pointer: nil pointer")

type jsonPathElem struct {
	Kind   string        `json:"kind"`
	Key    hexutil.Bytes `json:"key,omitempty"`
	Offset uint64        `json:"offset,omitempty"`
}

type jsonPointer struct {
	Location string         `json:"location"`
	Start    uint64         `json:"start,omitempty"`
	Length   uint64         `json:"length,omitempty"`
	From     int            `json:"from,omitempty"`
	To       int            `json:"to,omitempty"`
	Literal  hexutil.Bytes  `json:"literal,omitempty"`
	Slot     *common.Hash   `json:"slot,omitempty"`
	Path     []jsonPathElem `json:"path,omitempty"`
	Offset   int            `json:"offset,omitempty"`
	Topic    int            `json:"topic,omitempty"`
}

var pathKindNames = map[PathKind]string{PathKey: "key", PathHash: "hash", PathOffset: "offset"}

// JSON wraps a DataPointer so it can be embedded in JSON documents, e.g.
//
//	{"location": "calldata", "start": 4, "length": 32}
//	{"location": "storage", "slot": "0x00..03", "path": [{"kind": "hash"}], "offset": 12, "length": 20}
type JSON struct {
	DataPointer
}

// MarshalJSON implements json.Marshaler.
func (j JSON) MarshalJSON() ([]byte, error) {
	if j.DataPointer == nil {
		return nil, errNilPointer
	}
	enc := jsonPointer{Location: j.DataPointer.Location().String()}
	switch p := j.DataPointer.(type) {
	case StackPointer:
		enc.From, enc.To = p.From, p.To
	case StackLiteralPointer:
		enc.Literal = p.Literal
	case MemoryPointer:
		enc.Start, enc.Length = p.Start, p.Length
	case CalldataPointer:
		enc.Start, enc.Length = p.Start, p.Length
	case EventDataPointer:
		enc.Start, enc.Length = p.Start, p.Length
	case EventTopicPointer:
		enc.Topic = p.Topic
	case StoragePointer:
		index := p.Slot.Index
		enc.Slot = &index
		enc.Offset, enc.Length = p.Offset, uint64(p.Length)
		for _, e := range p.Slot.Path {
			enc.Path = append(enc.Path, jsonPathElem{Kind: pathKindNames[e.Kind], Key: e.Key, Offset: e.Offset})
		}
	}
	return json.Marshal(enc)
}

// UnmarshalJSON implements json.Unmarshaler.
func (j *JSON) UnmarshalJSON(input []byte) error {
	var dec jsonPointer
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	loc, err := ParseLocation(dec.Location)
	if err != nil {
		return err
	}
	switch loc {
	case Stack:
		if dec.To < dec.From {
			return fmt.Errorf("pointer: stack range %d..%d is reversed", dec.From, dec.To)
		}
		j.DataPointer = StackPointer{From: dec.From, To: dec.To}
	case StackLiteral:
		j.DataPointer = StackLiteralPointer{Literal: dec.Literal}
	case Memory, Calldata, EventData:
		j.DataPointer = WithRegion(loc, dec.Start, dec.Length)
	case EventTopic:
		j.DataPointer = EventTopicPointer{Topic: dec.Topic}
	case Storage:
		if dec.Slot == nil {
			return errors.New("pointer: storage pointer without slot")
		}
		p := StoragePointer{Slot: Slot{Index: *dec.Slot}, Offset: dec.Offset, Length: int(dec.Length)}
		if p.Length == 0 {
			p.Length = common.HashLength - p.Offset
		}
		if p.Offset < 0 || p.Offset+p.Length > common.HashLength {
			return fmt.Errorf("pointer: storage range %d+%d exceeds a slot", p.Offset, p.Length)
		}
		for _, e := range dec.Path {
			switch e.Kind {
			case "key":
				p.Slot = p.Slot.Key(e.Key)
			case "hash":
				p.Slot = p.Slot.Hashed()
			case "offset":
				p.Slot = p.Slot.Add(e.Offset)
			default:
				return fmt.Errorf("pointer: unknown path kind %q", e.Kind)
			}
		}
		j.DataPointer = p
	}
	return nil
}

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

package fetch

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sunyihoo/evm-codec/step"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Store persists responses of another fetcher in a leveldb database. Keys are
// prefixed with a namespace, which callers derive from the block the next
// fetcher reads, so one database can serve many blocks.
// Store 将另一个 fetcher 的响应持久化到 leveldb 数据库中。
type Store struct {
	next   Fetcher
	db     *leveldb.DB
	prefix []byte
	log    log.Logger
}

// OpenStore opens or creates the database at path.
func OpenStore(path string, prefix []byte, next Fetcher) (*Store, error) {
	options := &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		DisableSeeksCompaction: true,
	}
	db, err := leveldb.OpenFile(path, options)
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	logger := log.New("database", path)
	logger.Debug("Opened slot store", "prefix", prefix)
	return &Store{next: next, db: db, prefix: prefix, log: logger}, nil
}

// Fetch implements Fetcher.
func (s *Store) Fetch(ctx context.Context, req *step.Request) ([]byte, error) {
	key := append(append([]byte{}, s.prefix...), requestKey(req)...)
	blob, err := s.db.Get(key, nil)
	if err == nil {
		storeHitMeter.Mark(1)
		return blob, nil
	}
	if !errors.Is(err, leveldb.ErrNotFound) {
		return nil, err
	}
	blob, err = s.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.db.Put(key, blob, nil); err != nil {
		s.log.Warn("Failed to persist slot", "slot", req.Slot, "err", err)
	}
	return blob, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

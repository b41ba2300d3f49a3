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

package flags

import (
	"math/big"
	"os"
	"testing"
)

func TestPathExpansion(t *testing.T) {
	home := HomeDir()
	tests := map[string]string{
		"/home/someuser/tmp": "/home/someuser/tmp",
		"~/tmp":              home + "/tmp",
		"~thisOtherUser/b/":  "~thisOtherUser/b",
		"$DDDXXX/a/b":        "/tmp/a/b",
		"/a/b/":              "/a/b",
		"":                   "",
	}
	os.Setenv("DDDXXX", "/tmp")
	for test, expected := range tests {
		if got := ExpandPath(test); got != expected {
			t.Errorf("test %s, got %s, expected %s\n", test, got, expected)
		}
	}
}

func TestParseBlock(t *testing.T) {
	for _, s := range []string{"", "latest"} {
		if n, err := ParseBlock(s); n != nil || err != nil {
			t.Errorf("%q: got %v, %v", s, n, err)
		}
	}
	tests := map[string]int64{"100": 100, "0x64": 100, "0": 0}
	for s, want := range tests {
		n, err := ParseBlock(s)
		if err != nil || n.Cmp(big.NewInt(want)) != 0 {
			t.Errorf("%q: got %v, %v", s, n, err)
		}
	}
	if _, err := ParseBlock("pending"); err == nil {
		t.Error("expected error for pending")
	}
}

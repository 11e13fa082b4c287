// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

// ScriptHash derives the canonical 20-byte address of a script: a
// SHA-256 digest followed by RIPEMD-160, the same two-stage digest
// the HASH160 opcode performs over arbitrary data. Both the
// interpreter (when loading a script) and the contract store (when
// deploying one) must agree on this derivation.
func ScriptHash(script []byte) Hash160 {
	sum := sha256.Sum256(script)
	r := ripemd160.New()
	r.Write(sum[:])
	digest := r.Sum(nil)
	var h Hash160
	copy(h[:], digest)
	return h
}

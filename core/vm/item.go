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
	"math/big"

	"github.com/holiman/uint256"
)

// ItemKind discriminates the tagged-union StackItem representation used by
// the metered VM's data model.
type ItemKind uint8

const (
	KindInteger ItemKind = iota
	KindByteString
	KindBoolean
	KindArray
	KindStruct
	KindMap
	KindInterop
)

// StackItem is the single value type that flows through the evaluation
// and alt stacks. Exactly one of its fields is meaningful,
// selected by Kind.
type StackItem struct {
	Kind  ItemKind
	bytes []byte      // KindByteString
	ival  *big.Int    // KindInteger
	bval  bool        // KindBoolean
	items []StackItem // KindArray / KindStruct
	keys  []StackItem // KindMap
	vals  []StackItem // KindMap, parallel to keys
	handl interface{} // KindInterop
}

// NewByteString builds a byte-string stack item.
func NewByteString(b []byte) StackItem {
	return StackItem{Kind: KindByteString, bytes: append([]byte(nil), b...)}
}

// NewInteger builds an integer stack item.
func NewInteger(v *big.Int) StackItem {
	return StackItem{Kind: KindInteger, ival: new(big.Int).Set(v)}
}

// NewBoolean builds a boolean stack item.
func NewBoolean(v bool) StackItem {
	return StackItem{Kind: KindBoolean, bval: v}
}

// NewArray builds an array stack item.
func NewArray(items []StackItem) StackItem {
	return StackItem{Kind: KindArray, items: items}
}

// NewStruct builds a struct stack item (same cardinality semantics as an
// array; kept as a distinct Kind because some opcodes, e.g. UNPACK, accept
// either but APPCALL-adjacent equality rules do not).
func NewStruct(items []StackItem) StackItem {
	return StackItem{Kind: KindStruct, items: items}
}

// NewInterop wraps an opaque host handle (e.g. a storage context) so it can
// travel on the evaluation stack without the VM needing to know its shape.
func NewInterop(handle interface{}) StackItem {
	return StackItem{Kind: KindInterop, handl: handle}
}

// IsArray reports whether the item is an Array or Struct.
func (s StackItem) IsArray() bool {
	return s.Kind == KindArray || s.Kind == KindStruct
}

// AsArray returns the item's element slice. For an item that is not
// array-like it returns nil, so checkers call IsArray first to tell a
// non-array from an empty array.
func (s StackItem) AsArray() []StackItem {
	return s.items
}

// Len reports cardinality for array-like items and byte length otherwise;
// used by check_array_size and check_item_size respectively.
func (s StackItem) Len() int {
	switch s.Kind {
	case KindArray, KindStruct:
		return len(s.items)
	case KindByteString:
		return len(s.bytes)
	default:
		return len(s.AsByteArray())
	}
}

// AsByteArray converts the item to its little-endian two's-complement byte
// representation. A nil/absent item (the zero StackItem) decodes as a
// zero-length byte string.
func (s StackItem) AsByteArray() []byte {
	switch s.Kind {
	case KindByteString:
		return s.bytes
	case KindInteger:
		if s.ival == nil {
			return nil
		}
		return bigIntToBytes(s.ival)
	case KindBoolean:
		if s.bval {
			return []byte{1}
		}
		return []byte{0}
	default:
		return nil
	}
}

// AsBigInteger decodes the item as an arbitrary-precision integer using
// little-endian two's complement. A nil/absent big integer (e.g. an
// interop handle or an empty byte string standing in for a missing
// operand) decodes as zero.
func (s StackItem) AsBigInteger() *big.Int {
	switch s.Kind {
	case KindInteger:
		if s.ival == nil {
			return new(big.Int)
		}
		return new(big.Int).Set(s.ival)
	case KindBoolean:
		if s.bval {
			return big.NewInt(1)
		}
		return new(big.Int)
	default:
		return bytesToBigInt(s.AsByteArray())
	}
}

// AsUint256 converts a non-negative item of at most 32 bytes to a
// uint256.Int, reporting false for anything else. check_big_integers does
// not call it; the limit checker measures operands and results with
// math/big through AsBigInteger.
func (s StackItem) AsUint256() (*uint256.Int, bool) {
	b := s.AsByteArray()
	if len(b) > 32 {
		return nil, false
	}
	// uint256 has no native two's-complement decode; negative values are
	// routed through math/big instead, so this fast path only applies to
	// non-negative operands (top bit of the last byte clear).
	if len(b) > 0 && b[len(b)-1]&0x80 != 0 {
		return nil, false
	}
	var u uint256.Int
	u.SetBytes(reverseBytes(b))
	return &u, true
}

// AsBool converts the item to a boolean using the VM's truthiness rule:
// zero-length byte strings and zero integers are false.
func (s StackItem) AsBool() bool {
	switch s.Kind {
	case KindBoolean:
		return s.bval
	case KindInteger:
		return s.ival != nil && s.ival.Sign() != 0
	default:
		b := s.AsByteArray()
		for _, c := range b {
			if c != 0 {
				return true
			}
		}
		return false
	}
}

// byteLen returns the two's-complement byte length of v by encoding it
// with bigIntToBytes, used by check_big_integers to test against
// MAX_BIGINT_BYTES.
func byteLen(v *big.Int) int {
	return len(bigIntToBytes(v))
}

// fitsBigInt reports whether v's minimal two's-complement encoding fits in
// at most maxBytes bytes.
func fitsBigInt(v *big.Int, maxBytes int) bool {
	return byteLen(v) <= maxBytes
}

// bigIntToBytes encodes v as minimal little-endian two's complement.
func bigIntToBytes(v *big.Int) []byte {
	if v.Sign() == 0 {
		return nil
	}
	if v.Sign() > 0 {
		b := v.Bytes() // big-endian, unsigned, minimal
		reverseInPlace(b)
		if len(b) > 0 && b[len(b)-1]&0x80 != 0 {
			b = append(b, 0)
		}
		return b
	}
	// Negative: two's complement of the smallest byte width that fits.
	// abs(v) == 2^(8k-1) is the one case where v itself (not just |v|-1)
	// already sits on the boundary of a k-byte two's-complement range, so
	// it takes the same k bytes as everything below it rather than k+1.
	absV := new(big.Int).Abs(v)
	bitLen := absV.BitLen()
	nbytes := bitLen/8 + 1
	if new(big.Int).And(absV, new(big.Int).Sub(absV, big.NewInt(1))).Sign() == 0 {
		nbytes = (bitLen + 7) / 8
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(nbytes*8))
	twos := new(big.Int).Add(mod, v)
	b := twos.Bytes()
	// left-pad to nbytes (big.Int.Bytes trims leading zero bytes)
	if len(b) < nbytes {
		padded := make([]byte, nbytes)
		copy(padded[nbytes-len(b):], b)
		b = padded
	}
	reverseInPlace(b)
	return b
}

// bytesToBigInt decodes minimal little-endian two's complement; an empty
// slice decodes to zero.
func bytesToBigInt(b []byte) *big.Int {
	if len(b) == 0 {
		return new(big.Int)
	}
	be := reverseBytes(b)
	negative := be[0]&0x80 != 0
	if !negative {
		return new(big.Int).SetBytes(be)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(len(be)*8))
	u := new(big.Int).SetBytes(be)
	return new(big.Int).Sub(u, mod)
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

func reverseInPlace(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

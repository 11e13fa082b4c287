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
	"encoding/binary"
	"math/big"
)

// Protocol ceilings. These are consensus parameters, not
// deployment configuration, and are therefore compile-time constants.
const (
	MaxBigIntBytes     = 32
	MaxStackSize       = 2048
	MaxItemSize        = 1 << 20 // 1,048,576 bytes
	MaxInvocationStack = 1024
	MaxArraySize       = 1024
)

// checkItemSize gates opcodes that introduce or enlarge byte-string items.
func checkItemSize(ctx *ExecutionContext, eval Stack, op OpCode) bool {
	switch op {
	case PUSHDATA4:
		rest := len(ctx.Script) - ctx.InstructionPtr - 1
		if rest < 4 {
			return false
		}
		start := ctx.InstructionPtr + 1
		length := binary.LittleEndian.Uint32(ctx.Script[start : start+4])
		return length <= MaxItemSize
	case CAT:
		if eval.Count() < 2 {
			return false
		}
		total := eval.Peek(0).Len() + eval.Peek(1).Len()
		return total <= MaxItemSize
	default:
		return true
	}
}

// checkStackSize bounds |evaluation| + |alt| after the projected growth of
// the upcoming opcode.
func checkStackSize(eval, alt Stack, op OpCode) bool {
	growth := 0
	switch {
	case op.IsPushConstant():
		growth = 1
	case op == DEPTH, op == DUP, op == OVER, op == TUCK:
		growth = 1
	case op == UNPACK:
		if eval.Count() == 0 {
			return false
		}
		top := eval.Peek(0)
		if !top.IsArray() {
			return false
		}
		growth = len(top.AsArray())
	}
	return eval.Count()+alt.Count()+growth <= MaxStackSize
}

// checkArraySize gates opcodes that materialise a new array/struct of a
// caller-chosen cardinality.
func checkArraySize(eval Stack, op OpCode) bool {
	switch op {
	case PACK, NEWARRAY, NEWSTRUCT:
		if eval.Count() < 1 {
			return false
		}
		n := eval.Peek(0).AsBigInteger()
		if n.Sign() < 0 {
			return false
		}
		return n.Cmp(big.NewInt(MaxArraySize)) <= 0
	default:
		return true
	}
}

// checkInvocationStack bounds call-style opcode nesting. Only
// CALL and APPCALL push a new invocation frame; TAILCALL reuses the current
// one and is deliberately excluded, per the protocol.
func checkInvocationStack(inv InvocationStack, op OpCode) bool {
	switch op {
	case CALL, APPCALL:
		return inv.Count() < MaxInvocationStack
	default:
		return true
	}
}

// checkBigIntegers screens the *hypothetical* result of arithmetic opcodes
// before the step runs, so an oversized intermediate is never materialised
// into program state.
func checkBigIntegers(eval Stack, op OpCode) bool {
	switch op {
	case INC:
		if eval.Count() < 1 {
			return false
		}
		x := eval.Peek(0).AsBigInteger()
		if !fitsBigInt(x, MaxBigIntBytes) {
			return false
		}
		return fitsBigInt(new(big.Int).Add(x, big.NewInt(1)), MaxBigIntBytes)
	case DEC:
		if eval.Count() < 1 {
			return false
		}
		x := eval.Peek(0).AsBigInteger()
		if !fitsBigInt(x, MaxBigIntBytes) {
			return false
		}
		if x.Sign() <= 0 {
			return fitsBigInt(new(big.Int).Sub(x, big.NewInt(1)), MaxBigIntBytes)
		}
		return true
	case ADD, SUB:
		if eval.Count() < 2 {
			return false
		}
		b := eval.Peek(0).AsBigInteger()
		a := eval.Peek(1).AsBigInteger()
		if !fitsBigInt(a, MaxBigIntBytes) || !fitsBigInt(b, MaxBigIntBytes) {
			return false
		}
		var result *big.Int
		if op == ADD {
			result = new(big.Int).Add(a, b)
		} else {
			result = new(big.Int).Sub(a, b)
		}
		return fitsBigInt(result, MaxBigIntBytes)
	case MUL:
		if eval.Count() < 2 {
			return false
		}
		b := eval.Peek(0).AsBigInteger()
		a := eval.Peek(1).AsBigInteger()
		return byteLen(a)+byteLen(b) <= MaxBigIntBytes
	case DIV, MOD:
		if eval.Count() < 2 {
			return false
		}
		b := eval.Peek(0).AsBigInteger()
		a := eval.Peek(1).AsBigInteger()
		return fitsBigInt(a, MaxBigIntBytes) && fitsBigInt(b, MaxBigIntBytes)
	default:
		return true
	}
}

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

package stackvm

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/probeum/go-probeum/core/vm"
)

// Machine is the reference Interpreter: a NeoVM-style stack machine
// with one shared evaluation stack and alt stack across every nested
// invocation context.
//
// CHECKSIG and CHECKMULTISIG do not perform real signature
// verification here: cryptographic primitives are explicitly outside
// the metered VM harness's scope (they are consumed, not implemented,
// by the engine this interpreter plugs into), so both opcodes apply a
// length-shaped stand-in that lets pricing and stack effects behave
// like the real opcodes without pulling transaction-signing material
// into this package.
type Machine struct {
	eval valueStack
	alt  valueStack
	inv  invocationStack

	pushOnly []bool

	state   vm.State
	tracer  vm.Tracer
	service vm.Dispatcher
	table   vm.ScriptTable
}

// New returns a Machine with no script loaded. LoadScript must be
// called at least once before StepInto runs.
func New(service vm.Dispatcher, table vm.ScriptTable) *Machine {
	return &Machine{service: service, table: table}
}

// AttachTracer lets the bootstrap wiring hand the same tracer used by
// the engine to the interpreter, so opcode-level stack edits show up
// in the same structured log as syscall-level ones.
func (m *Machine) AttachTracer(t vm.Tracer) { m.tracer = t }

func (m *Machine) CurrentContext() *vm.ExecutionContext { return m.inv.top() }
func (m *Machine) EvaluationStack() vm.Stack             { return &m.eval }
func (m *Machine) AltStack() vm.Stack                     { return &m.alt }
func (m *Machine) InvocationStack() vm.InvocationStack    { return &m.inv }
func (m *Machine) State() vm.State                        { return m.state }

func (m *Machine) SetParam(op vm.OpCode, immediate []byte) {
	if m.tracer != nil {
		m.tracer.SetParam(op, immediate)
	}
}

// LoadScript pushes a new execution context, computing its script hash
// the way the wider protocol addresses any deployed script.
func (m *Machine) LoadScript(script []byte, pushOnly bool) {
	ctx := &vm.ExecutionContext{Script: script, ScriptHash: scriptHash(script)}
	m.inv.push(ctx)
	m.pushOnly = append(m.pushOnly, pushOnly)
}

func (m *Machine) popContext() {
	m.inv.pop()
	if len(m.pushOnly) > 0 {
		m.pushOnly = m.pushOnly[:len(m.pushOnly)-1]
	}
	if m.inv.Count() == 0 {
		m.state |= vm.StateHalt
	}
}

func (m *Machine) fault() { m.state |= vm.StateFault }

func (m *Machine) push(item vm.StackItem) {
	m.eval.Push(item)
	if m.tracer != nil {
		m.tracer.RecordEdit(vm.StackEdit{Kind: vm.EditPush, Item: item})
	}
}

func (m *Machine) pop() (vm.StackItem, bool) { return m.eval.Pop() }

// StepInto executes exactly one instruction of the current context.
// It never enforces gas or limits; those are checked by the engine
// ahead of every call.
func (m *Machine) StepInto() error {
	ctx := m.inv.top()
	if ctx == nil {
		m.state |= vm.StateHalt
		return nil
	}
	if ctx.InstructionPtr >= len(ctx.Script) {
		m.popContext()
		return nil
	}

	op := vm.OpCode(ctx.Script[ctx.InstructionPtr])
	ctx.NextInstruction = op

	if len(m.pushOnly) > 0 && m.pushOnly[len(m.pushOnly)-1] && !op.IsPushConstant() && op != vm.RET {
		m.fault()
		return nil
	}

	m.dispatch(ctx, op)
	return nil
}

func (m *Machine) dispatch(ctx *vm.ExecutionContext, op vm.OpCode) {
	switch {
	case op == vm.PUSH0:
		ctx.InstructionPtr++
		m.push(vm.NewInteger(big.NewInt(0)))
		return
	case op == vm.PUSHM1:
		ctx.InstructionPtr++
		m.push(vm.NewInteger(big.NewInt(-1)))
		return
	case op >= vm.PUSH1 && op <= vm.PUSH16:
		ctx.InstructionPtr++
		m.push(vm.NewInteger(big.NewInt(int64(op) - int64(vm.PUSH1) + 1)))
		return
	case op >= vm.PUSHBYTES1 && op <= vm.PUSHBYTES75:
		n := int(op)
		start := ctx.InstructionPtr + 1
		if start+n > len(ctx.Script) {
			m.fault()
			return
		}
		m.push(vm.NewByteString(ctx.Script[start : start+n]))
		ctx.InstructionPtr = start + n
		return
	}

	switch op {
	case vm.PUSHDATA1:
		m.pushData(ctx, 1)
	case vm.PUSHDATA2:
		m.pushData(ctx, 2)
	case vm.PUSHDATA4:
		m.pushData(ctx, 4)
	case vm.NOP:
		ctx.InstructionPtr++
	case vm.RET:
		ctx.InstructionPtr++
		m.popContext()
	case vm.CALL:
		m.doCall(ctx)
	case vm.APPCALL:
		m.doAppCall(ctx, false)
	case vm.TAILCALL:
		m.doAppCall(ctx, true)
	case vm.SYSCALL:
		m.doSyscall(ctx)
	case vm.DEPTH:
		ctx.InstructionPtr++
		m.push(vm.NewInteger(big.NewInt(int64(m.eval.Count()))))
	case vm.DROP:
		ctx.InstructionPtr++
		if _, ok := m.pop(); !ok {
			m.fault()
		}
	case vm.DUP:
		ctx.InstructionPtr++
		if m.eval.Count() < 1 {
			m.fault()
			return
		}
		m.push(m.eval.Peek(0))
	case vm.NIP:
		ctx.InstructionPtr++
		if _, ok := m.eval.remove(1); !ok {
			m.fault()
		}
	case vm.OVER:
		ctx.InstructionPtr++
		if m.eval.Count() < 2 {
			m.fault()
			return
		}
		m.push(m.eval.Peek(1))
	case vm.SWAP:
		ctx.InstructionPtr++
		a, ok1 := m.eval.remove(1)
		b, ok2 := m.pop()
		if !ok1 || !ok2 {
			m.fault()
			return
		}
		m.push(b)
		m.push(a)
	case vm.TUCK:
		ctx.InstructionPtr++
		if m.eval.Count() < 2 {
			m.fault()
			return
		}
		top := m.eval.Peek(0)
		m.eval.insert(2, top)
		if m.tracer != nil {
			m.tracer.RecordEdit(vm.StackEdit{Kind: vm.EditInsert, Index: 2, Item: top})
		}
	case vm.ROT:
		ctx.InstructionPtr++
		x3, ok1 := m.eval.remove(2)
		if !ok1 {
			m.fault()
			return
		}
		m.push(x3)
	case vm.PICK:
		ctx.InstructionPtr++
		n, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		idx := int(n.AsBigInteger().Int64())
		if idx < 0 || idx >= m.eval.Count() {
			m.fault()
			return
		}
		m.push(m.eval.Peek(idx))
	case vm.ROLL:
		ctx.InstructionPtr++
		n, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		idx := int(n.AsBigInteger().Int64())
		item, ok := m.eval.remove(idx)
		if !ok {
			m.fault()
			return
		}
		m.push(item)
	case vm.XDROP:
		ctx.InstructionPtr++
		n, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		if _, ok := m.eval.remove(int(n.AsBigInteger().Int64())); !ok {
			m.fault()
		}
	case vm.TOALTSTACK:
		ctx.InstructionPtr++
		item, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		m.alt.Push(item)
	case vm.FROMALTSTACK:
		ctx.InstructionPtr++
		item, ok := m.alt.Pop()
		if !ok {
			m.fault()
			return
		}
		m.push(item)
	case vm.DUPFROMALTSTACK:
		ctx.InstructionPtr++
		if m.alt.Count() < 1 {
			m.fault()
			return
		}
		m.push(m.alt.Peek(0))
	case vm.CAT:
		ctx.InstructionPtr++
		b, ok1 := m.pop()
		a, ok2 := m.pop()
		if !ok1 || !ok2 {
			m.fault()
			return
		}
		m.push(vm.NewByteString(append(append([]byte(nil), a.AsByteArray()...), b.AsByteArray()...)))
	case vm.SIZE:
		ctx.InstructionPtr++
		if m.eval.Count() < 1 {
			m.fault()
			return
		}
		m.push(vm.NewInteger(big.NewInt(int64(m.eval.Peek(0).Len()))))
	case vm.EQUAL:
		ctx.InstructionPtr++
		b, ok1 := m.pop()
		a, ok2 := m.pop()
		if !ok1 || !ok2 {
			m.fault()
			return
		}
		m.push(vm.NewBoolean(string(a.AsByteArray()) == string(b.AsByteArray())))
	case vm.INC, vm.DEC:
		m.unaryArith(ctx, op)
	case vm.NOT:
		ctx.InstructionPtr++
		a, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		m.push(vm.NewBoolean(!a.AsBool()))
	case vm.NZ:
		ctx.InstructionPtr++
		a, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		m.push(vm.NewBoolean(a.AsBigInteger().Sign() != 0))
	case vm.ADD, vm.SUB, vm.MUL, vm.DIV, vm.MOD:
		m.binaryArith(ctx, op)
	case vm.BOOLAND:
		ctx.InstructionPtr++
		b, ok1 := m.pop()
		a, ok2 := m.pop()
		if !ok1 || !ok2 {
			m.fault()
			return
		}
		m.push(vm.NewBoolean(a.AsBool() && b.AsBool()))
	case vm.BOOLOR:
		ctx.InstructionPtr++
		b, ok1 := m.pop()
		a, ok2 := m.pop()
		if !ok1 || !ok2 {
			m.fault()
			return
		}
		m.push(vm.NewBoolean(a.AsBool() || b.AsBool()))
	case vm.NUMEQUAL, vm.NUMNOTEQUAL, vm.LT, vm.GT, vm.LE, vm.GE:
		m.compare(ctx, op)
	case vm.SHA1:
		ctx.InstructionPtr++
		a, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		sum := sha1.Sum(a.AsByteArray())
		m.push(vm.NewByteString(sum[:]))
	case vm.SHA256:
		ctx.InstructionPtr++
		a, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		sum := sha256.Sum256(a.AsByteArray())
		m.push(vm.NewByteString(sum[:]))
	case vm.HASH160:
		ctx.InstructionPtr++
		a, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		h := hash160(a.AsByteArray())
		m.push(vm.NewByteString(h[:]))
	case vm.HASH256:
		ctx.InstructionPtr++
		a, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		m.push(vm.NewByteString(hash256(a.AsByteArray())))
	case vm.CHECKSIG:
		ctx.InstructionPtr++
		pubkey, ok1 := m.pop()
		sig, ok2 := m.pop()
		if !ok1 || !ok2 {
			m.fault()
			return
		}
		valid := len(pubkey.AsByteArray()) > 0 && len(sig.AsByteArray()) > 0
		m.push(vm.NewBoolean(valid))
	case vm.CHECKMULTISIG:
		m.doCheckMultisig(ctx)
	case vm.PACK:
		m.doPack(ctx, false)
	case vm.NEWARRAY:
		m.doNew(ctx, false)
	case vm.NEWSTRUCT:
		m.doNew(ctx, true)
	case vm.UNPACK:
		m.doUnpack(ctx)
	case vm.ARRAYSIZE:
		ctx.InstructionPtr++
		a, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		if a.IsArray() {
			m.push(vm.NewInteger(big.NewInt(int64(len(a.AsArray())))))
		} else {
			m.push(vm.NewInteger(big.NewInt(int64(a.Len()))))
		}
	case vm.PICKITEM:
		ctx.InstructionPtr++
		idx, ok1 := m.pop()
		arr, ok2 := m.pop()
		if !ok1 || !ok2 || !arr.IsArray() {
			m.fault()
			return
		}
		i := int(idx.AsBigInteger().Int64())
		items := arr.AsArray()
		if i < 0 || i >= len(items) {
			m.fault()
			return
		}
		m.push(items[i])
	case vm.APPEND:
		ctx.InstructionPtr++
		item, ok1 := m.pop()
		arr, ok2 := m.pop()
		if !ok1 || !ok2 || !arr.IsArray() {
			m.fault()
			return
		}
		items := append(append([]vm.StackItem(nil), arr.AsArray()...), item)
		if arr.Kind == vm.KindStruct {
			m.push(vm.NewStruct(items))
		} else {
			m.push(vm.NewArray(items))
		}
	case vm.THROW:
		ctx.InstructionPtr++
		m.fault()
	case vm.THROWIFNOT:
		ctx.InstructionPtr++
		cond, ok := m.pop()
		if !ok || !cond.AsBool() {
			m.fault()
		}
	default:
		m.fault()
	}
}

func (m *Machine) pushData(ctx *vm.ExecutionContext, lenBytes int) {
	start := ctx.InstructionPtr + 1
	if start+lenBytes > len(ctx.Script) {
		m.fault()
		return
	}
	var length int
	switch lenBytes {
	case 1:
		length = int(ctx.Script[start])
	case 2:
		length = int(binary.LittleEndian.Uint16(ctx.Script[start : start+2]))
	case 4:
		length = int(binary.LittleEndian.Uint32(ctx.Script[start : start+4]))
	}
	dataStart := start + lenBytes
	if dataStart+length > len(ctx.Script) {
		m.fault()
		return
	}
	m.push(vm.NewByteString(ctx.Script[dataStart : dataStart+length]))
	ctx.InstructionPtr = dataStart + length
}

// doCall implements a same-script relative call: a 2-byte little
// endian signed offset from the byte following the operand, matching
// the wire format decoded by the limit checker's neighbours.
func (m *Machine) doCall(ctx *vm.ExecutionContext) {
	start := ctx.InstructionPtr + 1
	if start+2 > len(ctx.Script) {
		m.fault()
		return
	}
	offset := int(int16(binary.LittleEndian.Uint16(ctx.Script[start : start+2])))
	returnIP := start + 2
	ctx.InstructionPtr = returnIP
	target := returnIP + offset
	if target < 0 || target > len(ctx.Script) {
		m.fault()
		return
	}
	callee := &vm.ExecutionContext{Script: ctx.Script, InstructionPtr: target, ScriptHash: ctx.ScriptHash}
	m.inv.push(callee)
	m.pushOnly = append(m.pushOnly, false)
}

// doAppCall implements APPCALL/TAILCALL: a 20-byte script-hash operand
// that is either resolved statically, or read off the evaluation
// stack when the operand is all-zero (dynamic invoke, already
// authorized by the engine's gate before StepInto ran).
func (m *Machine) doAppCall(ctx *vm.ExecutionContext, tail bool) {
	start := ctx.InstructionPtr + 1
	if start+20 > len(ctx.Script) {
		m.fault()
		return
	}
	var hash vm.Hash160
	copy(hash[:], ctx.Script[start:start+20])
	ctx.InstructionPtr = start + 20

	if hash.IsZero() {
		top, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		copy(hash[:], top.AsByteArray())
	}

	if m.table == nil {
		m.fault()
		return
	}
	state, ok := m.table.GetContractState(hash)
	if !ok {
		m.fault()
		return
	}

	callee := &vm.ExecutionContext{Script: state.Code, ScriptHash: hash}
	if tail {
		m.popContext()
		if m.state.Has(vm.StateHalt) {
			m.state &^= vm.StateHalt
		}
	}
	m.inv.push(callee)
	m.pushOnly = append(m.pushOnly, false)
}

func (m *Machine) doSyscall(ctx *vm.ExecutionContext) {
	name, ok := vm.DecodeSyscallName(ctx.Script, ctx.InstructionPtr)
	if !ok {
		m.fault()
		return
	}
	ctx.InstructionPtr += 2 + len(name)
	if m.service == nil {
		m.fault()
		return
	}
	if err := m.service.Dispatch(name, ctx.ScriptHash, &m.eval); err != nil {
		m.fault()
	}
}

func (m *Machine) unaryArith(ctx *vm.ExecutionContext, op vm.OpCode) {
	ctx.InstructionPtr++
	a, ok := m.pop()
	if !ok {
		m.fault()
		return
	}
	x := a.AsBigInteger()
	one := big.NewInt(1)
	if op == vm.INC {
		m.push(vm.NewInteger(new(big.Int).Add(x, one)))
	} else {
		m.push(vm.NewInteger(new(big.Int).Sub(x, one)))
	}
}

func (m *Machine) binaryArith(ctx *vm.ExecutionContext, op vm.OpCode) {
	ctx.InstructionPtr++
	b, ok1 := m.pop()
	a, ok2 := m.pop()
	if !ok1 || !ok2 {
		m.fault()
		return
	}
	x, y := a.AsBigInteger(), b.AsBigInteger()
	var result *big.Int
	switch op {
	case vm.ADD:
		result = new(big.Int).Add(x, y)
	case vm.SUB:
		result = new(big.Int).Sub(x, y)
	case vm.MUL:
		result = new(big.Int).Mul(x, y)
	case vm.DIV:
		if y.Sign() == 0 {
			m.fault()
			return
		}
		result = new(big.Int).Quo(x, y)
	case vm.MOD:
		if y.Sign() == 0 {
			m.fault()
			return
		}
		result = new(big.Int).Rem(x, y)
	}
	m.push(vm.NewInteger(result))
}

func (m *Machine) compare(ctx *vm.ExecutionContext, op vm.OpCode) {
	ctx.InstructionPtr++
	b, ok1 := m.pop()
	a, ok2 := m.pop()
	if !ok1 || !ok2 {
		m.fault()
		return
	}
	cmp := a.AsBigInteger().Cmp(b.AsBigInteger())
	var result bool
	switch op {
	case vm.NUMEQUAL:
		result = cmp == 0
	case vm.NUMNOTEQUAL:
		result = cmp != 0
	case vm.LT:
		result = cmp < 0
	case vm.GT:
		result = cmp > 0
	case vm.LE:
		result = cmp <= 0
	case vm.GE:
		result = cmp >= 0
	}
	m.push(vm.NewBoolean(result))
}

func (m *Machine) doPack(ctx *vm.ExecutionContext, asStruct bool) {
	ctx.InstructionPtr++
	n, ok := m.pop()
	if !ok {
		m.fault()
		return
	}
	count := int(n.AsBigInteger().Int64())
	items := make([]vm.StackItem, count)
	for i := 0; i < count; i++ {
		item, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		items[i] = item
	}
	if asStruct {
		m.push(vm.NewStruct(items))
	} else {
		m.push(vm.NewArray(items))
	}
}

func (m *Machine) doNew(ctx *vm.ExecutionContext, asStruct bool) {
	ctx.InstructionPtr++
	n, ok := m.pop()
	if !ok {
		m.fault()
		return
	}
	count := int(n.AsBigInteger().Int64())
	items := make([]vm.StackItem, count)
	for i := range items {
		items[i] = vm.NewInteger(big.NewInt(0))
	}
	if asStruct {
		m.push(vm.NewStruct(items))
	} else {
		m.push(vm.NewArray(items))
	}
}

func (m *Machine) doUnpack(ctx *vm.ExecutionContext) {
	ctx.InstructionPtr++
	arr, ok := m.pop()
	if !ok || !arr.IsArray() {
		m.fault()
		return
	}
	items := arr.AsArray()
	for i := len(items) - 1; i >= 0; i-- {
		m.push(items[i])
	}
	m.push(vm.NewInteger(big.NewInt(int64(len(items)))))
}

// doCheckMultisig pops n signatures and m public keys (with their
// counts) and pushes a boolean. Like CHECKSIG, it is a length-shaped
// stand-in rather than a real multi-signature verification (see the
// Machine doc comment).
func (m *Machine) doCheckMultisig(ctx *vm.ExecutionContext) {
	ctx.InstructionPtr++
	pubkeyCount, ok := m.pop()
	if !ok {
		m.fault()
		return
	}
	nPub := int(pubkeyCount.AsBigInteger().Int64())
	if nPub < 0 || nPub > m.eval.Count() {
		m.fault()
		return
	}
	pubkeys := make([]vm.StackItem, nPub)
	for i := 0; i < nPub; i++ {
		item, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		pubkeys[i] = item
	}
	sigCount, ok := m.pop()
	if !ok {
		m.fault()
		return
	}
	nSig := int(sigCount.AsBigInteger().Int64())
	if nSig < 0 || nSig > nPub {
		m.fault()
		return
	}
	sigs := make([]vm.StackItem, nSig)
	for i := 0; i < nSig; i++ {
		item, ok := m.pop()
		if !ok {
			m.fault()
			return
		}
		sigs[i] = item
	}
	valid := nSig > 0
	for _, s := range sigs {
		if len(s.AsByteArray()) == 0 {
			valid = false
		}
	}
	for _, p := range pubkeys {
		if len(p.AsByteArray()) == 0 {
			valid = false
		}
	}
	m.push(vm.NewBoolean(valid))
}

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

// State is a bit-set of interpreter halt/fault flags.
type State uint8

const (
	StateNone  State = 0
	StateHalt  State = 1 << 0
	StateFault State = 1 << 1
	StateBreak State = 1 << 2
)

func (s State) Has(flag State) bool { return s&flag != 0 }

// Hash160 is a 20-byte script hash, the protocol's contract address format.
type Hash160 [20]byte

// IsZero reports whether every byte of the hash is zero, the encoding a
// APPCALL/TAILCALL operand uses to mean "resolve dynamically".
func (h Hash160) IsZero() bool {
	return h == Hash160{}
}

// ExecutionContext is a single frame of interpretation: a loaded script and
// an instruction pointer into it.
type ExecutionContext struct {
	Script          []byte
	InstructionPtr  int
	ScriptHash      Hash160
	NextInstruction OpCode
}

// Interpreter is the engine's sole collaborator for actually executing
// bytecode. The metered VM harness never inspects opcode
// semantics beyond what the Limit Checker and Gas Price Table need; all
// state mutation happens inside StepInto.
type Interpreter interface {
	// CurrentContext returns the frame the next StepInto will execute in,
	// or nil if the invocation stack is empty.
	CurrentContext() *ExecutionContext

	// EvaluationStack, AltStack, InvocationStack expose the sized
	// containers the Limit Checker inspects.
	EvaluationStack() Stack
	AltStack() Stack
	InvocationStack() InvocationStack

	// State reports the current halt/fault flags.
	State() State

	// LoadScript pushes a new execution context running script. pushOnly
	// restricts the loaded context to push-type opcodes only (used for
	// verification scripts); the bootstrap entry points always load with
	// pushOnly=false.
	LoadScript(script []byte, pushOnly bool)

	// StepInto executes exactly one instruction, mutating stacks, the
	// instruction pointer, and State. It must not itself enforce gas or
	// limits; those are the engine's responsibility, checked before
	// StepInto is called.
	StepInto() error

	// SetParam forwards a parameterised opcode's immediate operand to the
	// interpreter so the tracer (if any) can be given it via the engine;
	// most interpreters implement this as a no-op memo slot.
	SetParam(op OpCode, immediate []byte)
}

// Stack is the sized container shared by the evaluation and alt stacks.
type Stack interface {
	Count() int
	Peek(fromTop int) StackItem
}

// InvocationStack additionally reports nesting depth for
// check_invocation_stack.
type InvocationStack interface {
	Count() int
}

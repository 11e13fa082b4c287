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

// sliceStack is a minimal, test-only Stack backed by a plain slice with
// the top of stack at the end, used to exercise the Limit Checker and
// Gas Price Table predicates without a real interpreter.
type sliceStack struct {
	items []StackItem
}

func (s *sliceStack) Count() int { return len(s.items) }

func (s *sliceStack) Peek(fromTop int) StackItem {
	i := len(s.items) - 1 - fromTop
	if i < 0 || i >= len(s.items) {
		return StackItem{}
	}
	return s.items[i]
}

func (s *sliceStack) push(item StackItem) { s.items = append(s.items, item) }

// fixedInvocation is a test-only InvocationStack reporting a constant
// depth.
type fixedInvocation int

func (f fixedInvocation) Count() int { return int(f) }

// fakeInterp is a minimal Interpreter stub for exercising the
// Execution Driver's loop structure and gas accounting in isolation
// from real opcode semantics: StepInto only advances the instruction
// pointer and counts steps, leaving the evaluation and alt stacks
// untouched rather than interpreting the opcode's actual effect. It is sufficient for scenarios that only care about how
// many steps ran and what each one cost, not what each step computed.
type fakeInterp struct {
	ctx     ExecutionContext
	eval    sliceStack
	alt     sliceStack
	inv     fixedInvocation
	state   State
	stepped int
}

func (f *fakeInterp) CurrentContext() *ExecutionContext {
	if f.state.Has(StateHalt) || f.state.Has(StateFault) {
		return nil
	}
	return &f.ctx
}
func (f *fakeInterp) EvaluationStack() Stack          { return &f.eval }
func (f *fakeInterp) AltStack() Stack                 { return &f.alt }
func (f *fakeInterp) InvocationStack() InvocationStack { return f.inv }
func (f *fakeInterp) State() State                     { return f.state }
func (f *fakeInterp) SetParam(op OpCode, immediate []byte) {}

func (f *fakeInterp) LoadScript(script []byte, pushOnly bool) {
	f.ctx = ExecutionContext{Script: script}
}

// StepInto advances one byte per step and halts once the script is
// exhausted; every byte is treated as a single no-operand opcode, push
// effects are irrelevant to the scenarios that use this stub.
func (f *fakeInterp) StepInto() error {
	f.stepped++
	f.ctx.InstructionPtr++
	if f.ctx.InstructionPtr >= len(f.ctx.Script) {
		f.state |= StateHalt
	}
	return nil
}

// fakeTable is a test-only ScriptTable over a plain map.
type fakeTable map[Hash160]*ContractState

func (t fakeTable) GetContractState(hash Hash160) (*ContractState, bool) {
	s, ok := t[hash]
	return s, ok
}

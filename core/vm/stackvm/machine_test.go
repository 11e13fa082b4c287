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
	"math/big"
	"testing"

	"github.com/probeum/go-probeum/core/vm"
	"github.com/stretchr/testify/require"
)

func runToHalt(t *testing.T, m *Machine, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		if m.State().Has(vm.StateHalt) || m.State().Has(vm.StateFault) {
			return
		}
		if err := m.StepInto(); err != nil {
			t.Fatalf("StepInto: %v", err)
		}
	}
	t.Fatalf("script did not halt within %d steps", maxSteps)
}

func TestPushAndAdd(t *testing.T) {
	m := New(nil, nil)
	m.LoadScript([]byte{byte(vm.PUSH1 + 2), byte(vm.PUSH1 + 3), byte(vm.ADD)}, false)
	runToHalt(t, m, 10)

	if m.eval.Count() != 1 {
		t.Fatalf("expected exactly one item left on the evaluation stack, got %d", m.eval.Count())
	}
	got := m.eval.Peek(0).AsBigInteger()
	if got.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("3+4 = %s, want 7", got)
	}
}

func TestSwap(t *testing.T) {
	m := New(nil, nil)
	m.LoadScript([]byte{byte(vm.PUSH1), byte(vm.PUSH1 + 1), byte(vm.SWAP)}, false)
	runToHalt(t, m, 10)

	if got := m.eval.Peek(0).AsBigInteger().Int64(); got != 1 {
		t.Fatalf("top after SWAP = %d, want 1", got)
	}
	if got := m.eval.Peek(1).AsBigInteger().Int64(); got != 2 {
		t.Fatalf("second after SWAP = %d, want 2", got)
	}
}

func TestPackAndUnpack(t *testing.T) {
	m := New(nil, nil)
	script := []byte{
		byte(vm.PUSH1), byte(vm.PUSH1 + 1), byte(vm.PUSH1 + 2),
		byte(vm.PUSH1 + 2), // count (3) for PACK
		byte(vm.PACK),
		byte(vm.UNPACK),
	}
	m.LoadScript(script, false)
	runToHalt(t, m, 20)

	// UNPACK leaves count on top, then the elements beneath it in
	// original push order.
	if got := m.eval.Peek(0).AsBigInteger().Int64(); got != 3 {
		t.Fatalf("UNPACK count = %d, want 3", got)
	}
}

// TestPackElementOrder checks every element the packed array carries,
// not just the cardinality TestPackAndUnpack already covers — a
// multi-field assertion that reads more naturally with testify's
// require than a chain of t.Fatalf calls.
func TestPackElementOrder(t *testing.T) {
	m := New(nil, nil)
	script := []byte{
		byte(vm.PUSH1), byte(vm.PUSH1 + 1), byte(vm.PUSH1 + 2),
		byte(vm.PUSH1 + 2), // count (3) for PACK
		byte(vm.PACK),
	}
	m.LoadScript(script, false)
	runToHalt(t, m, 20)

	require.Equal(t, 1, m.eval.Count(), "PACK should leave exactly one array item on the stack")
	top := m.eval.Peek(0)
	require.True(t, top.IsArray(), "PACK's result must report itself as an array")

	items := top.AsArray()
	require.Len(t, items, 3, "array cardinality must match the PACK count operand")
	// PACK pops the count then pops that many items off the evaluation
	// stack in LIFO order, so the array holds them most-recently-pushed
	// first: 3 (PUSH1+2), then 2 (PUSH1+1), then 1 (PUSH1).
	require.Equal(t, int64(3), items[0].AsBigInteger().Int64())
	require.Equal(t, int64(2), items[1].AsBigInteger().Int64())
	require.Equal(t, int64(1), items[2].AsBigInteger().Int64())
}

func TestCat(t *testing.T) {
	m := New(nil, nil)
	script := append(append([]byte{byte(3)}, []byte("foo")...), byte(3))
	script = append(script, []byte("bar")...)
	script = append(script, byte(vm.CAT))
	m.LoadScript(script, false)
	runToHalt(t, m, 10)

	got := m.eval.Peek(0).AsByteArray()
	if string(got) != "foobar" {
		t.Fatalf("CAT = %q, want \"foobar\"", got)
	}
}

type fakeDispatcher struct {
	calls []string
}

func (d *fakeDispatcher) Dispatch(name string, executing vm.Hash160, eval vm.EvalStack) error {
	d.calls = append(d.calls, name)
	eval.Push(vm.NewBoolean(true))
	return nil
}

func TestSyscallDispatch(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	m := New(dispatcher, nil)
	name := "Runtime.CheckWitness"
	script := append([]byte{byte(vm.SYSCALL), byte(len(name))}, []byte(name)...)
	m.LoadScript(script, false)
	runToHalt(t, m, 10)

	if len(dispatcher.calls) != 1 || dispatcher.calls[0] != name {
		t.Fatalf("dispatcher calls = %v, want [%s]", dispatcher.calls, name)
	}
	if !m.eval.Peek(0).AsBool() {
		t.Fatalf("expected the dispatcher's pushed result on top of the stack")
	}
}

func TestPushOnlyRejectsNonPushOpcodes(t *testing.T) {
	m := New(nil, nil)
	m.LoadScript([]byte{byte(vm.PUSH1), byte(vm.ADD)}, true)
	for i := 0; i < 5; i++ {
		if m.State().Has(vm.StateFault) {
			return
		}
		m.StepInto()
	}
	t.Fatalf("expected a non-push opcode in a push-only context to fault")
}

func TestDivisionByZeroFaults(t *testing.T) {
	m := New(nil, nil)
	m.LoadScript([]byte{byte(vm.PUSH1), byte(vm.PUSH0), byte(vm.DIV)}, false)
	for i := 0; i < 5; i++ {
		if m.State().Has(vm.StateFault) {
			return
		}
		if m.State().Has(vm.StateHalt) {
			t.Fatalf("expected division by zero to fault, not halt")
		}
		m.StepInto()
	}
	t.Fatalf("expected a fault within 5 steps")
}

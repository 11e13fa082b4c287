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

package bootstrap_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/probeum/go-probeum/core/vm"
	"github.com/probeum/go-probeum/core/vm/bootstrap"
)

func pushBytes(data []byte) []byte {
	n := len(data)
	switch {
	case n <= 75:
		return append([]byte{byte(n)}, data...)
	case n <= 0xFF:
		return append([]byte{byte(vm.PUSHDATA1), byte(n)}, data...)
	default:
		length := make([]byte, 2)
		binary.LittleEndian.PutUint16(length, uint16(n))
		return append(append([]byte{byte(vm.PUSHDATA2)}, length...), data...)
	}
}

func syscall(name string) []byte {
	return append([]byte{byte(vm.SYSCALL), byte(len(name))}, []byte(name)...)
}

// S1: empty script halts with HALT, gas_consumed = 0.
func TestEmptyScriptHalts(t *testing.T) {
	rt := bootstrap.Run(nil, bootstrap.Options{})
	if !rt.Ok {
		t.Fatalf("expected empty script to succeed")
	}
	if rt.Engine.GasConsumedMeter() != 0 {
		t.Fatalf("gas_consumed = %d, want 0", rt.Engine.GasConsumedMeter())
	}
}

// S2: a single NOP is free and halts cleanly.
func TestSingleNOP(t *testing.T) {
	rt := bootstrap.Run([]byte{byte(vm.NOP)}, bootstrap.Options{})
	if !rt.Ok {
		t.Fatalf("expected NOP script to succeed")
	}
	if rt.Engine.GasConsumedMeter() != 0 {
		t.Fatalf("gas_consumed = %d, want 0", rt.Engine.GasConsumedMeter())
	}
}

// S3: push small constants until |eval|+|alt| = MAX_STACK_SIZE, then
// one more push. Execution faults; every attempted push (including
// the rejected one) is still priced, at 0.
func TestStackOverflow(t *testing.T) {
	script := bytes.Repeat([]byte{byte(vm.PUSH1)}, vm.MaxStackSize+1)
	rt := bootstrap.Run(script, bootstrap.Options{})
	if rt.Ok {
		t.Fatalf("expected stack overflow to fault")
	}
	if rt.Engine.GasConsumedMeter() != 0 {
		t.Fatalf("gas_consumed = %d, want 0 (pushes are free)", rt.Engine.GasConsumedMeter())
	}
}

// S4: two 32-byte integers whose sum needs 33 bytes, then ADD. Faults
// with gas_consumed = 1 * RATIO (the ADD alone; both pushes are free).
func TestAddOverflowRejected(t *testing.T) {
	maxPositive := append(bytes.Repeat([]byte{0xFF}, 31), 0x7F)
	script := append(append(pushBytes(maxPositive), pushBytes(maxPositive)...), byte(vm.ADD))

	rt := bootstrap.Run(script, bootstrap.Options{})
	if rt.Ok {
		t.Fatalf("expected ADD to be rejected for an oversized result")
	}
	if got := rt.Engine.GasConsumed(); got != 1 {
		t.Fatalf("gas_consumed = %d external units, want 1 (just the ADD)", got)
	}
}

// S5: SYSCALL Storage.Put with a 100-byte key and 2000-byte value
// prices at ceil(2100/1024)*1000 = 3000.
func TestStoragePutPricing(t *testing.T) {
	context := pushBytes(make([]byte, 20))
	key := pushBytes(make([]byte, 100))
	value := pushBytes(make([]byte, 2000))
	script := append(append(append(context, key...), value...), syscall("Storage.Put")...)

	rt := bootstrap.Run(script, bootstrap.Options{})
	if !rt.Ok {
		t.Fatalf("expected Storage.Put script to succeed: %v", rt.Engine.GasConsumedMeter())
	}
	if got := rt.Engine.GasConsumed(); got != 3000 {
		t.Fatalf("gas_consumed = %d external units, want 3000", got)
	}
}

// S6: a dynamic APPCALL (all-zero callee) against a contract with no
// dynamic-invoke capability is rejected; the APPCALL price (10) is
// still charged.
func TestDynamicAppcallWithoutCapabilityRejected(t *testing.T) {
	script := append([]byte{byte(vm.APPCALL)}, make([]byte, 20)...)

	rt := bootstrap.Run(script, bootstrap.Options{})
	if rt.Ok {
		t.Fatalf("expected dynamic APPCALL to be rejected")
	}
	if got := rt.Engine.GasConsumed(); got != 10 {
		t.Fatalf("gas_consumed = %d external units, want 10", got)
	}
}

// A statically resolved APPCALL against a contract with storage and
// dynamic-invoke enabled runs the callee's code to completion.
func TestStaticAppcallRunsCallee(t *testing.T) {
	calleeScript := []byte{byte(vm.PUSH1), byte(vm.RET)}

	rt0 := bootstrap.Run(nil, bootstrap.Options{})
	deployed := rt0.Contracts.Deploy(calleeScript, vm.HasStorage|vm.HasDynamicInvoke)

	script := append([]byte{byte(vm.APPCALL)}, deployed.ScriptHash[:]...)
	rt := bootstrap.Run(script, bootstrap.Options{Contracts: rt0.Contracts})
	if !rt.Ok {
		t.Fatalf("expected static APPCALL to succeed")
	}
}

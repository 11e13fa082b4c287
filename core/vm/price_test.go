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
	"testing"
)

func TestStoragePutPrice(t *testing.T) {
	// key 100 + value 2000 = 2100 bytes -> ceil(2100/1024) = 3 -> 3000.
	if got := StoragePutPrice(100, 2000); got != 3000 {
		t.Fatalf("StoragePutPrice(100, 2000) = %d, want 3000", got)
	}
	if got := StoragePutPrice(0, 1); got != 1000 {
		t.Fatalf("StoragePutPrice(0, 1) = %d, want 1000", got)
	}
	if got := StoragePutPrice(1024, 0); got != 1000 {
		t.Fatalf("a single full bucket must price at exactly 1000, got %d", got)
	}
	if got := StoragePutPrice(1025, 0); got != 2000 {
		t.Fatalf("StoragePutPrice(1025, 0) = %d, want 2000", got)
	}
}

func TestNormalizeAPINameDualNaming(t *testing.T) {
	if got := normalizeAPIName("AntShares.Runtime.CheckWitness"); got != "Runtime.CheckWitness" {
		t.Fatalf("normalizeAPIName did not strip the legacy prefix: %q", got)
	}
	if got := normalizeAPIName("Neo.Storage.Get"); got != "Storage.Get" {
		t.Fatalf("normalizeAPIName did not strip the current prefix: %q", got)
	}
	if got := normalizeAPIName("Storage.Get"); got != "Storage.Get" {
		t.Fatalf("normalizeAPIName must be a no-op without a namespace prefix: %q", got)
	}
}

func TestSyscallPriceTable(t *testing.T) {
	eval := &sliceStack{}
	if got := SyscallPrice(eval, "Neo.Runtime.CheckWitness"); got != 200 {
		t.Fatalf("SyscallPrice(Runtime.CheckWitness) = %d, want 200", got)
	}
	if got := SyscallPrice(eval, "Unknown.Method"); got != 1 {
		t.Fatalf("SyscallPrice for an unpriced API must default to 1, got %d", got)
	}
}

// TestSyscallPriceContractCreateReadsPropertiesSlot checks the operand
// layout SyscallPrice expects for Contract.Create/Migrate: properties sits
// three deep from the top, below return type and param types, with script
// on top — the same layout the dispatcher's doContractCreate pops.
func TestSyscallPriceContractCreateReadsPropertiesSlot(t *testing.T) {
	eval := &sliceStack{}
	eval.push(NewByteString(nil)) // description
	eval.push(NewByteString(nil)) // email
	eval.push(NewByteString(nil)) // author
	eval.push(NewByteString(nil)) // version
	eval.push(NewByteString(nil)) // name
	eval.push(NewInteger(big.NewInt(int64(HasStorage | HasDynamicInvoke)))) // properties
	eval.push(NewByteString(nil))                                          // return type
	eval.push(NewByteString(nil))                                          // param types
	eval.push(NewByteString(nil))                                          // script, on top

	want := int64(100+400+500) * 1e8 / ratioConst
	if got := SyscallPrice(eval, "Neo.Contract.Create"); got != want {
		t.Fatalf("SyscallPrice(Contract.Create) = %d, want %d", got, want)
	}
}

func TestDecodeSyscallName(t *testing.T) {
	script := []byte{byte(SYSCALL), 11, 'S', 't', 'o', 'r', 'a', 'g', 'e', '.', 'P', 'u', 't'}
	name, ok := DecodeSyscallName(script, 0)
	if !ok || name != "Storage.Put" {
		t.Fatalf("DecodeSyscallName = %q, %v, want \"Storage.Put\", true", name, ok)
	}
	if _, ok := DecodeSyscallName(script[:3], 0); ok {
		t.Fatalf("expected DecodeSyscallName to report truncated name as not ok")
	}
}

func TestPriceOfPushFamilyIsFree(t *testing.T) {
	eval := &sliceStack{}
	if priceOf(eval, PUSH1) != 0 {
		t.Fatalf("push-constant opcodes must price at 0")
	}
	if priceOf(eval, NOP) != 0 {
		t.Fatalf("NOP must price at 0")
	}
	if priceOf(eval, APPCALL) != 10 {
		t.Fatalf("APPCALL must price at 10")
	}
}
